// Package discover builds page lists for the migrate command.
package discover

import (
	"context"
	"fmt"

	"github.com/takak2166/notionmigrate/internal/blocks"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/models"
	"github.com/takak2166/notionmigrate/internal/pageid"
)

// Mode selects where pages are collected from
type Mode string

const (
	ModeParent   Mode = "parent"
	ModeDatabase Mode = "database"
	ModeSearch   Mode = "search"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeParent, ModeDatabase, ModeSearch:
		return m, nil
	}
	return "", models.Errorf(models.KindConfiguration, "list", "unknown mode %q, want parent, database or search", s)
}

const childPageType = "child_page"

// Store lists the page references Lister walks
type Store interface {
	blocks.ChildLister
	QueryDatabase(ctx context.Context, databaseID string, cursor string) ([]string, string, error)
	SearchPages(ctx context.Context, query string, cursor string) ([]string, string, error)
}

// Options controls a listing
type Options struct {
	Mode Mode
	// Source is the parent page or database reference, or the search query
	Source    string
	Recursive bool
	// Limit caps the number of ids returned, 0 means no cap
	Limit int
}

// Lister collects page ids
type Lister struct {
	store   Store
	fetcher *blocks.Fetcher
}

// NewLister creates a Lister
func NewLister(store Store) *Lister {
	return &Lister{store: store, fetcher: blocks.NewFetcher(store)}
}

// List returns canonical page ids in the order they were found, without duplicates
func (l *Lister) List(ctx context.Context, opts Options) ([]string, error) {
	var (
		ids []string
		err error
	)
	switch opts.Mode {
	case ModeParent:
		var parentID string
		if parentID, err = pageid.Resolve(opts.Source); err != nil {
			return nil, err
		}
		ids, err = l.ChildPages(ctx, parentID, opts.Recursive)
	case ModeDatabase:
		var databaseID string
		if databaseID, err = pageid.Resolve(opts.Source); err != nil {
			return nil, err
		}
		ids, err = l.DatabasePages(ctx, databaseID)
	case ModeSearch:
		ids, err = l.Search(ctx, opts.Source, opts.Limit)
	default:
		_, err = ParseMode(string(opts.Mode))
	}
	if err != nil {
		return nil, err
	}

	ids = dedupe(ids)
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}

	logger.Info(fmt.Sprintf("Found %d pages", len(ids)), map[string]interface{}{
		"mode":   opts.Mode,
		"source": opts.Source,
	})
	return ids, nil
}

// ChildPages returns the child pages of parentID in document order. With
// recursive set, every block that has children is searched too.
func (l *Lister) ChildPages(ctx context.Context, parentID string, recursive bool) ([]string, error) {
	type item struct {
		id    string
		depth int
	}

	var ids []string
	visited := map[string]bool{parentID: true}
	stack := []item{{id: parentID}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nodes, err := l.fetcher.ListAll(ctx, cur.id, cur.depth)
		if err != nil {
			return nil, err
		}

		var expand []item
		for _, n := range nodes {
			if n.ID == "" || visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			if n.SourceType == childPageType {
				ids = append(ids, n.ID)
			}
			if recursive && n.HasChildren {
				expand = append(expand, item{id: n.ID, depth: cur.depth + 1})
			}
		}
		for i := len(expand) - 1; i >= 0; i-- {
			stack = append(stack, expand[i])
		}
	}
	return canonical(ids), nil
}

// DatabasePages returns the ids of every entry in a database
func (l *Lister) DatabasePages(ctx context.Context, databaseID string) ([]string, error) {
	return collect(func(cursor string) ([]string, string, error) {
		return l.store.QueryDatabase(ctx, databaseID, cursor)
	}, 0)
}

// Search returns pages matching query, stopping after limit ids when limit is set
func (l *Lister) Search(ctx context.Context, query string, limit int) ([]string, error) {
	return collect(func(cursor string) ([]string, string, error) {
		return l.store.SearchPages(ctx, query, cursor)
	}, limit)
}

func collect(next func(cursor string) ([]string, string, error), limit int) ([]string, error) {
	var ids []string
	cursor := ""
	seen := map[string]bool{}
	for {
		batch, nextCursor, err := next(cursor)
		if err != nil {
			return nil, models.NewError(models.KindFetch, "list pages", err)
		}
		ids = append(ids, batch...)
		if limit > 0 && len(ids) >= limit {
			return canonical(ids[:limit]), nil
		}
		if nextCursor == "" {
			return canonical(ids), nil
		}
		if seen[nextCursor] {
			return nil, models.Errorf(models.KindFetch, "list pages", "store returned cursor %q twice", nextCursor)
		}
		seen[nextCursor] = true
		cursor = nextCursor
	}
}

// canonical rewrites ids the store returned in compact form
func canonical(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if resolved, err := pageid.Resolve(id); err == nil {
			id = resolved
		}
		out = append(out, id)
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
