// Package pageid turns page URLs and bare ids into canonical Notion page ids.
package pageid

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/takak2166/notionmigrate/internal/models"
)

var (
	canonicalPattern  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	hyphenatedPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	hexRunPattern     = regexp.MustCompile(`(?i)[0-9a-f]{32,}`)
)

// IsCanonical reports whether s is already in canonical form
func IsCanonical(s string) bool {
	return canonicalPattern.MatchString(s)
}

// Resolve extracts the canonical page id from a URL or a bare id.
func Resolve(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", models.Errorf(models.KindMalformedIdentifier, "resolve", "empty page reference")
	}
	if IsCanonical(s) {
		return s, nil
	}

	segment := trailingSegment(s)

	var candidate string
	if matches := hyphenatedPattern.FindAllString(segment, -1); len(matches) > 0 {
		candidate = matches[len(matches)-1]
	} else if runs := hexRunPattern.FindAllString(segment, -1); len(runs) > 0 {
		run := runs[len(runs)-1]
		candidate = run[len(run)-32:]
	}
	if candidate == "" {
		return "", models.Errorf(models.KindMalformedIdentifier, "resolve", "no page id found in %q", raw)
	}

	id, err := uuid.Parse(candidate)
	if err != nil {
		return "", models.NewError(models.KindMalformedIdentifier, "resolve", err)
	}
	return id.String(), nil
}

// Compact returns the id without hyphens, the form used in page URLs
func Compact(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// Short returns the first eight characters of an id for log lines
func Short(id string) string {
	c := Compact(id)
	if len(c) > 8 {
		return c[:8]
	}
	return c
}

// trailingSegment drops the query and fragment and returns the last path segment
func trailingSegment(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
