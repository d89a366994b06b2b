package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/takak2166/notionmigrate/internal/logger"
)

// Entry is one page reference read from a pages file
type Entry struct {
	Line int
	Raw  string
}

// commentPrefixes mark lines that are not page references
var commentPrefixes = []string{"#", "//"}

// ParseFile reads a pages file with one page URL or id per line
func ParseFile(filepath string) ([]Entry, error) {
	logger.Debug("Reading pages file", map[string]interface{}{
		"filepath": filepath,
	})

	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pages file: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages file: %w", err)
	}

	logger.Info("Successfully read pages file", map[string]interface{}{
		"entries_count": len(entries),
	})

	return entries, nil
}

// Parse reads page references from r, skipping blank and comment lines
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isComment(line) {
			continue
		}
		entries = append(entries, Entry{Line: lineNo, Raw: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteFile writes one id per line, the format ParseFile reads back
func WriteFile(filepath string, ids []string) error {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteString("\n")
	}
	if err := os.WriteFile(filepath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write pages file: %w", err)
	}
	return nil
}

func isComment(line string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
