// Package metadata derives the title, date and archived flag of a migrated
// page from its properties and content.
package metadata

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/models"
)

const (
	// MaxTitleRunes is the longest title taken from page content
	MaxTitleRunes = 2000
	// UntitledTitle is used when no strategy finds a title
	UntitledTitle = "Untitled"
)

// Extractor derives page metadata. Now is consulted only when no date can be
// found on the page.
type Extractor struct {
	Now func() time.Time
}

// NewExtractor creates an Extractor that falls back to now
func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{Now: now}
}

// source is what the strategies look at for one page
type source struct {
	props notionapi.Properties
	roots []*models.BlockNode
	title string
	now   func() time.Time
}

// Strategies run in order and the first one that finds a value wins.
var (
	titleStrategies = []func(source) (string, bool){
		func(s source) (string, bool) { return nonEmpty(propertyTitle(s.props)) },
		func(s source) (string, bool) { return nonEmpty(truncate(contentTitle(s.roots), MaxTitleRunes)) },
		func(source) (string, bool) { return UntitledTitle, true },
	}
	dateStrategies = []func(source) (time.Time, bool){
		func(s source) (time.Time, bool) { return namedDate(s.props) },
		func(s source) (time.Time, bool) { return anyDate(s.props) },
		func(s source) (time.Time, bool) { return TitleDate(s.title) },
		func(s source) (time.Time, bool) { return day(s.now()), true },
	}
)

// Extract never fails; every field has a final fallback
func (e *Extractor) Extract(page *notionapi.Page, roots []*models.BlockNode) models.PageMetadata {
	src := source{roots: roots, now: e.now}
	meta := models.PageMetadata{}
	if page != nil {
		src.props = page.Properties
		meta.Archived = page.Archived
	}

	for _, strategy := range titleStrategies {
		if title, ok := strategy(src); ok {
			meta.Title = title
			break
		}
	}
	src.title = meta.Title
	for _, strategy := range dateStrategies {
		if date, ok := strategy(src); ok {
			meta.Date = date
			break
		}
	}
	return meta
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

func propertyTitle(props notionapi.Properties) string {
	for _, name := range sortedNames(props) {
		var rich []notionapi.RichText
		switch p := props[name].(type) {
		case *notionapi.TitleProperty:
			rich = p.Title
		case notionapi.TitleProperty:
			rich = p.Title
		default:
			continue
		}
		if title := strings.TrimSpace(plainText(rich)); title != "" {
			return title
		}
	}
	return ""
}

// contentTitle looks only at the page's top-level blocks
func contentTitle(roots []*models.BlockNode) string {
	for _, node := range roots {
		if node == nil {
			continue
		}
		switch node.Kind {
		case models.KindHeading1, models.KindHeading2, models.KindHeading3, models.KindParagraph:
			if text := strings.TrimSpace(node.PlainText()); text != "" {
				return text
			}
		}
	}
	return ""
}

func namedDate(props notionapi.Properties) (time.Time, bool) {
	for _, name := range sortedNames(props) {
		if strings.EqualFold(name, "Date") {
			if date, ok := dateValue(props[name]); ok {
				return date, true
			}
		}
	}
	return time.Time{}, false
}

func anyDate(props notionapi.Properties) (time.Time, bool) {
	for _, name := range sortedNames(props) {
		if date, ok := dateValue(props[name]); ok {
			return date, true
		}
	}
	return time.Time{}, false
}

func dateValue(prop notionapi.Property) (time.Time, bool) {
	var obj *notionapi.DateObject
	switch p := prop.(type) {
	case *notionapi.DateProperty:
		obj = p.Date
	case notionapi.DateProperty:
		obj = p.Date
	default:
		return time.Time{}, false
	}
	if obj == nil || obj.Start == nil {
		return time.Time{}, false
	}
	start := time.Time(*obj.Start)
	if start.IsZero() {
		return time.Time{}, false
	}
	return day(start), true
}

var titleDatePatterns = []struct {
	re      *regexp.Regexp
	layouts []string
}{
	{regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`), []string{"2006-1-2"}},
	{regexp.MustCompile(`\d{4}/\d{1,2}/\d{1,2}`), []string{"2006/1/2"}},
	{regexp.MustCompile(`\d{4}\.\d{1,2}\.\d{1,2}`), []string{"2006.1.2"}},
	{regexp.MustCompile(`[A-Z][a-z]+\.? \d{1,2}, \d{4}`), []string{"January 2, 2006", "Jan 2, 2006", "Jan. 2, 2006"}},
}

// TitleDate returns the earliest parseable date written in title
func TitleDate(title string) (time.Time, bool) {
	best := -1
	var found time.Time
	for _, p := range titleDatePatterns {
		for _, loc := range p.re.FindAllStringIndex(title, -1) {
			if best >= 0 && loc[0] >= best {
				break
			}
			token := title[loc[0]:loc[1]]
			for _, layout := range p.layouts {
				if t, err := time.Parse(layout, token); err == nil {
					best = loc[0]
					found = t
					break
				}
			}
		}
	}
	if best < 0 {
		return time.Time{}, false
	}
	return found, true
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func plainText(rich []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rich {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func sortedNames(props notionapi.Properties) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
