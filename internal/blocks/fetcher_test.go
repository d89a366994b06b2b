package blocks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takak2166/notionmigrate/internal/models"
)

// pagedLister serves children from fixed store pages. Cursors are the index
// of the next page.
type pagedLister struct {
	pages map[string][][]notionapi.Block
	fail  map[string]error
	calls []string
}

func (l *pagedLister) ListChildren(_ context.Context, id string, cursor string) ([]notionapi.Block, string, error) {
	l.calls = append(l.calls, id+"@"+cursor)
	if err := l.fail[id]; err != nil {
		return nil, "", err
	}
	pages := l.pages[id]
	if len(pages) == 0 {
		return nil, "", nil
	}
	idx := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &idx)
	}
	next := ""
	if idx+1 < len(pages) {
		next = fmt.Sprintf("%d", idx+1)
	}
	return pages[idx], next, nil
}

func para(id, text string, hasChildren bool) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			ID:          notionapi.BlockID(id),
			Type:        notionapi.BlockTypeParagraph,
			HasChildren: hasChildren,
		},
		Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{{PlainText: text, Text: &notionapi.Text{Content: text}}},
		},
	}
}

func TestFetchTreeConcatenatesStorePages(t *testing.T) {
	lister := &pagedLister{pages: map[string][][]notionapi.Block{
		"page": {
			{para("b1", "one", false), para("b2", "two", false)},
			{para("b3", "three", false)},
			{para("b4", "four", false), para("b5", "five", false)},
		},
	}}

	roots, err := NewFetcher(lister).FetchTree(context.Background(), "page")
	require.NoError(t, err)

	var ids []string
	for _, n := range roots {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "b3", "b4", "b5"}, ids)
	assert.Equal(t, []string{"page@", "page@1", "page@2"}, lister.calls)
}

func TestFetchTreeAttachesNestedChildrenInOrder(t *testing.T) {
	lister := &pagedLister{pages: map[string][][]notionapi.Block{
		"page": {{para("a", "a", true), para("b", "b", false), para("c", "c", true)}},
		"a":    {{para("a1", "a1", true)}, {para("a2", "a2", false)}},
		"a1":   {{para("a1x", "a1x", false)}},
		"c":    {{para("c1", "c1", false)}},
	}}

	roots, err := NewFetcher(lister).FetchTree(context.Background(), "page")
	require.NoError(t, err)
	require.Len(t, roots, 3)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "a1", roots[0].Children[0].ID)
	assert.Equal(t, "a2", roots[0].Children[1].ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "a1x", roots[0].Children[0].Children[0].ID)
	assert.Empty(t, roots[1].Children)
	require.Len(t, roots[2].Children, 1)
	assert.Equal(t, "c1", roots[2].Children[0].ID)
	assert.Equal(t, 7, models.CountBlocks(roots))
}

func TestFetchTreeFailsWholeTreeOnBranchError(t *testing.T) {
	lister := &pagedLister{
		pages: map[string][][]notionapi.Block{
			"page": {{para("a", "a", true), para("b", "b", true)}},
			"a":    {{para("a1", "a1", false)}},
		},
		fail: map[string]error{"b": errors.New("restricted_resource")},
	}

	roots, err := NewFetcher(lister).FetchTree(context.Background(), "page")
	assert.Nil(t, roots)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindFetch))
	assert.Contains(t, err.Error(), "list children of b at depth 1")
}

func TestListAllRejectsRepeatedCursor(t *testing.T) {
	store := listerFunc(func(_ context.Context, _ string, _ string) ([]notionapi.Block, string, error) {
		return []notionapi.Block{para("x", "x", false)}, "same", nil
	})

	_, err := NewFetcher(store).ListAll(context.Background(), "page", 0)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindFetch))
}

type listerFunc func(ctx context.Context, id string, cursor string) ([]notionapi.Block, string, error)

func (f listerFunc) ListChildren(ctx context.Context, id string, cursor string) ([]notionapi.Block, string, error) {
	return f(ctx, id, cursor)
}
