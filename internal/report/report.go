// Package report prints and saves the outcome of a migration run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/takak2166/notionmigrate/internal/migrate"
	"github.com/takak2166/notionmigrate/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#A78BFA")).Padding(0, 1)
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes the run summary to stdout, styled when stdout is a terminal
func Print(r *migrate.Report) error {
	return Render(os.Stdout, r, IsTerminal(os.Stdout))
}

// Render writes the summary and one line per failed page to w
func Render(w io.Writer, r *migrate.Report, styled bool) error {
	if styled {
		_, err := fmt.Fprintln(w, renderStyled(r))
		return err
	}
	_, err := io.WriteString(w, renderPlain(r))
	return err
}

func heading(r *migrate.Report) string {
	if r.DryRun {
		return "Migration summary (dry-run)"
	}
	return "Migration summary"
}

func renderPlain(r *migrate.Report) string {
	var b strings.Builder
	s := r.Summary
	fmt.Fprintf(&b, "%s\n", heading(r))
	fmt.Fprintf(&b, "  total:     %d\n", s.Total)
	fmt.Fprintf(&b, "  attempted: %d\n", s.Attempted)
	fmt.Fprintf(&b, "  succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(&b, "  failed:    %d\n", s.Failed)
	fmt.Fprintf(&b, "  skipped:   %d\n", s.Skipped)
	for _, res := range r.Results {
		if res.Outcome != models.OutcomeFailed {
			continue
		}
		fmt.Fprintf(&b, "  line %d: %s: %s\n", res.Line, res.ErrorKind, res.Reason)
	}
	return b.String()
}

func renderStyled(r *migrate.Report) string {
	s := r.Summary
	lines := []string{
		titleStyle.Render(heading(r)),
		fmt.Sprintf("%s %d  %s %d", mutedStyle.Render("total"), s.Total, mutedStyle.Render("attempted"), s.Attempted),
		fmt.Sprintf("%s %d  %s %d  %s %d",
			okStyle.Render("✓ succeeded"), s.Succeeded,
			failStyle.Render("✗ failed"), s.Failed,
			mutedStyle.Render("skipped"), s.Skipped),
	}
	for _, res := range r.Results {
		if res.Outcome != models.OutcomeFailed {
			continue
		}
		lines = append(lines, failStyle.Render(fmt.Sprintf("line %d", res.Line))+" "+
			mutedStyle.Render(string(res.ErrorKind))+" "+res.Reason)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// WriteFile saves the report as JSON when path ends in .json and as YAML otherwise
func WriteFile(path string, r *migrate.Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(r, "", "  ")
	default:
		data, err = yaml.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
