package blocks

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/models"
)

// ChildLister lists one page of a block's children
type ChildLister interface {
	ListChildren(ctx context.Context, id string, cursor string) ([]notionapi.Block, string, error)
}

// Fetcher retrieves the complete block tree of a page
type Fetcher struct {
	store ChildLister
}

// NewFetcher creates a Fetcher reading from store
func NewFetcher(store ChildLister) *Fetcher {
	return &Fetcher{store: store}
}

type fetchItem struct {
	node  *models.BlockNode
	depth int
}

// FetchTree returns the page's root blocks in document order with every
// descendant attached. Any failed listing fails the whole tree.
func (f *Fetcher) FetchTree(ctx context.Context, pageID string) ([]*models.BlockNode, error) {
	roots, err := f.ListAll(ctx, pageID, 0)
	if err != nil {
		return nil, err
	}

	// Worklist instead of recursion; each item owns the slot its children go into.
	var stack []fetchItem
	stack = pushExpandable(stack, roots, 1)
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := f.ListAll(ctx, item.node.ID, item.depth)
		if err != nil {
			return nil, err
		}
		item.node.Children = children
		stack = pushExpandable(stack, children, item.depth+1)
	}

	logger.Debug("Fetched block tree", map[string]interface{}{
		"page_id":     pageID,
		"root_blocks": len(roots),
		"blocks":      models.CountBlocks(roots),
	})
	return roots, nil
}

// ListAll lists every child of parentID across all store pages, in order
func (f *Fetcher) ListAll(ctx context.Context, parentID string, depth int) ([]*models.BlockNode, error) {
	var nodes []*models.BlockNode
	cursor := ""
	seen := map[string]bool{}
	for batch := 1; ; batch++ {
		blocks, next, err := f.store.ListChildren(ctx, parentID, cursor)
		if err != nil {
			return nil, models.NewError(models.KindFetch,
				fmt.Sprintf("list children of %s at depth %d", parentID, depth), err)
		}
		for _, b := range blocks {
			nodes = append(nodes, Decode(b))
		}

		logger.Debug("Fetched blocks batch", map[string]interface{}{
			"parent_id": parentID,
			"depth":     depth,
			"batch":     batch,
			"blocks":    len(blocks),
		})

		if next == "" {
			return nodes, nil
		}
		if seen[next] {
			return nil, models.Errorf(models.KindFetch,
				fmt.Sprintf("list children of %s at depth %d", parentID, depth),
				"store returned cursor %q twice", next)
		}
		seen[next] = true
		cursor = next
	}
}

// pushExpandable pushes nodes that have children in reverse, so they are
// popped in document order
func pushExpandable(stack []fetchItem, nodes []*models.BlockNode, depth int) []fetchItem {
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].HasChildren {
			stack = append(stack, fetchItem{node: nodes[i], depth: depth})
		}
	}
	return stack
}
