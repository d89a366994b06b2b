package blocks

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/logger"
)

// DefaultChunkSize is the number of blocks Notion accepts per append call
const DefaultChunkSize = 100

// ChildAppender appends blocks below a parent and returns their new ids
type ChildAppender interface {
	AppendChildren(ctx context.Context, blockID string, blocks []notionapi.Block) ([]string, error)
}

// Appender writes converted block trees to the store in chunks
type Appender struct {
	store     ChildAppender
	chunkSize int
}

// NewAppender creates an Appender. A chunk size below 1 uses DefaultChunkSize.
func NewAppender(store ChildAppender, chunkSize int) *Appender {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Appender{store: store, chunkSize: chunkSize}
}

// AppendError reports an append that stopped part way through a tree
type AppendError struct {
	ParentID string
	Calls    int
	Err      error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append to %s failed after %d successful calls: %v", e.ParentID, e.Calls, e.Err)
}

func (e *AppendError) Unwrap() error {
	return e.Err
}

type appendItem struct {
	parentID string
	blocks   []AppendableBlock
}

// AppendTree appends blocks below parentID and then each block's children
// below the block just created. Sibling order is kept across chunks and no
// block is split between calls. It returns the number of calls made.
func (a *Appender) AppendTree(ctx context.Context, parentID string, blocks []AppendableBlock) (int, error) {
	calls := 0
	stack := []appendItem{{parentID: parentID, blocks: blocks}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var nested []appendItem
		for start := 0; start < len(item.blocks); start += a.chunkSize {
			end := start + a.chunkSize
			if end > len(item.blocks) {
				end = len(item.blocks)
			}
			chunk := item.blocks[start:end]

			payload := make([]notionapi.Block, len(chunk))
			for i := range chunk {
				payload[i] = chunk[i].Block
			}

			ids, err := a.store.AppendChildren(ctx, item.parentID, payload)
			if err != nil {
				return calls, &AppendError{ParentID: item.parentID, Calls: calls, Err: err}
			}
			calls++

			logger.Debug("Appended blocks chunk", map[string]interface{}{
				"parent_id": item.parentID,
				"blocks":    len(chunk),
				"offset":    start,
			})

			for i, b := range chunk {
				if len(b.Children) == 0 {
					continue
				}
				if i >= len(ids) || ids[i] == "" {
					return calls, &AppendError{
						ParentID: item.parentID,
						Calls:    calls,
						Err:      fmt.Errorf("store returned %d ids for %d blocks", len(ids), len(chunk)),
					}
				}
				nested = append(nested, appendItem{parentID: ids[i], blocks: b.Children})
			}
		}

		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, nested[i])
		}
	}
	return calls, nil
}

// PlanCalls returns how many append calls AppendTree would make for blocks
func PlanCalls(blocks []AppendableBlock, chunkSize int) int {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	calls := 0
	stack := [][]AppendableBlock{blocks}
	for len(stack) > 0 {
		siblings := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		calls += (len(siblings) + chunkSize - 1) / chunkSize
		for _, b := range siblings {
			if len(b.Children) > 0 {
				stack = append(stack, b.Children)
			}
		}
	}
	return calls
}

// CountAppendable returns the number of blocks in a converted forest
func CountAppendable(blocks []AppendableBlock) int {
	count := 0
	for _, b := range blocks {
		count += 1 + CountAppendable(b.Children)
	}
	return count
}
