package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/models"
	"github.com/takak2166/notionmigrate/internal/ratelimit"
)

const (
	// PageSize is the largest page the list endpoints return
	PageSize = 100
	// MaxAppendBlocks is the most children one append call accepts
	MaxAppendBlocks = 100

	// DefaultTimeout bounds a single HTTP request to Notion
	DefaultTimeout = 30 * time.Second

	defaultAttempts = 3
	defaultBackoff  = time.Second
)

// Client is the document store used by the migrator. Every call waits on the
// pacer first and is retried with backoff only when Notion rate limits it.
type Client struct {
	client   NotionClient
	pacer    *ratelimit.Pacer
	attempts int
	backoff  time.Duration
}

// New creates a Notion client authenticated with token
func New(token string, pacer *ratelimit.Pacer) (*Client, error) {
	return NewWithHTTPClient(token, &http.Client{Timeout: DefaultTimeout}, pacer)
}

// NewWithHTTPClient creates a Notion client that sends its requests through
// httpClient. The SDK's own 429 handling is limited to a single attempt so
// that rate limited calls back off on the pacer's clock.
func NewWithHTTPClient(token string, httpClient *http.Client, pacer *ratelimit.Pacer) (*Client, error) {
	if token == "" {
		return nil, models.Errorf(models.KindConfiguration, "notion client", "NOTION_TOKEN is not set")
	}
	sdk := notionapi.NewClient(notionapi.Token(token),
		notionapi.WithHTTPClient(httpClient),
		notionapi.WithRetry(1),
	)
	return NewWithClient(newNotionClientAdapter(sdk), pacer), nil
}

// NewWithClient wraps an existing NotionClient, mainly for tests
func NewWithClient(client NotionClient, pacer *ratelimit.Pacer) *Client {
	if pacer == nil {
		pacer = ratelimit.NewPacer(nil, ratelimit.DefaultInterval)
	}
	return &Client{
		client:   client,
		pacer:    pacer,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// SetRetry changes how many attempts a rate limited call gets and the first backoff
func (c *Client) SetRetry(attempts int, backoff time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	c.attempts = attempts
	c.backoff = backoff
}

// GetPage retrieves a page with its properties
func (c *Client) GetPage(ctx context.Context, id string) (*notionapi.Page, error) {
	var page *notionapi.Page
	err := c.call(ctx, "get page", func() error {
		var err error
		page, err = c.client.Page().Get(ctx, notionapi.PageID(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}
	return page, nil
}

// ListChildren returns one page of a block's children and the cursor of the
// next page, which is empty once the listing is exhausted
func (c *Client) ListChildren(ctx context.Context, id string, cursor string) ([]notionapi.Block, string, error) {
	pagination := &notionapi.Pagination{PageSize: PageSize}
	if cursor != "" {
		pagination.StartCursor = notionapi.Cursor(cursor)
	}

	var resp *notionapi.GetChildrenResponse
	err := c.call(ctx, "list children", func() error {
		var err error
		resp, err = c.client.Block().GetChildren(ctx, notionapi.BlockID(id), pagination)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list children of %s: %w", id, err)
	}
	if resp == nil {
		return nil, "", nil
	}
	return resp.Results, string(resp.NextCursor), nil
}

// GetDatabase retrieves a database with its property schema
func (c *Client) GetDatabase(ctx context.Context, id string) (*notionapi.Database, error) {
	var db *notionapi.Database
	err := c.call(ctx, "get database", func() error {
		var err error
		db, err = c.client.Database().Get(ctx, notionapi.DatabaseID(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get database %s: %w", id, err)
	}
	return db, nil
}

// CreateDatabaseEntry creates a page inside a database and returns its id
func (c *Client) CreateDatabaseEntry(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error) {
	logger.Debug("Creating database entry", map[string]interface{}{
		"database_id": databaseID,
	})

	request := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       "database_id",
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	var page *notionapi.Page
	err := c.call(ctx, "create entry", func() error {
		var err error
		page, err = c.client.Page().Create(ctx, request)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create database entry: %w", err)
	}
	if page == nil || page.ID == "" {
		return "", errors.New("failed to create database entry: empty response")
	}
	return string(page.ID), nil
}

// AppendChildren appends blocks below blockID and returns the ids Notion
// assigned to them, in the order they were sent
func (c *Client) AppendChildren(ctx context.Context, blockID string, blocks []notionapi.Block) ([]string, error) {
	if len(blocks) > MaxAppendBlocks {
		return nil, fmt.Errorf("cannot append %d blocks in one call, limit is %d", len(blocks), MaxAppendBlocks)
	}

	var resp *notionapi.AppendBlockChildrenResponse
	err := c.call(ctx, "append children", func() error {
		var err error
		resp, err = c.client.Block().AppendChildren(ctx, notionapi.BlockID(blockID), &notionapi.AppendBlockChildrenRequest{
			Children: blocks,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append children to %s: %w", blockID, err)
	}

	var ids []string
	if resp != nil {
		for _, b := range resp.Results {
			ids = append(ids, string(b.GetID()))
		}
	}
	return ids, nil
}

// QueryDatabase returns one page of entry ids from a database
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, cursor string) ([]string, string, error) {
	request := &notionapi.DatabaseQueryRequest{PageSize: PageSize}
	if cursor != "" {
		request.StartCursor = notionapi.Cursor(cursor)
	}

	var resp *notionapi.DatabaseQueryResponse
	err := c.call(ctx, "query database", func() error {
		var err error
		resp, err = c.client.Database().Query(ctx, notionapi.DatabaseID(databaseID), request)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to query database %s: %w", databaseID, err)
	}
	if resp == nil {
		return nil, "", nil
	}

	var ids []string
	for _, p := range resp.Results {
		ids = append(ids, string(p.ID))
	}
	return ids, string(resp.NextCursor), nil
}

// SearchPages returns one page of ids of pages matching query
func (c *Client) SearchPages(ctx context.Context, query string, cursor string) ([]string, string, error) {
	request := &notionapi.SearchRequest{
		Query: query,
		Filter: notionapi.SearchFilter{
			Property: "object",
			Value:    "page",
		},
		PageSize: PageSize,
	}
	if cursor != "" {
		request.StartCursor = notionapi.Cursor(cursor)
	}

	var resp *notionapi.SearchResponse
	err := c.call(ctx, "search", func() error {
		var err error
		resp, err = c.client.Search().Do(ctx, request)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to search pages: %w", err)
	}
	if resp == nil {
		return nil, "", nil
	}

	var ids []string
	for _, result := range resp.Results {
		if page, ok := result.(*notionapi.Page); ok {
			ids = append(ids, string(page.ID))
		}
	}
	return ids, string(resp.NextCursor), nil
}

// call paces fn and retries it while Notion answers 429
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.pacer.Wait(ctx); err != nil {
			return err
		}
		err = fn()
		if err == nil || !IsRateLimited(err) || attempt == c.attempts {
			return err
		}

		logger.Warn("Rate limited by Notion, backing off", map[string]interface{}{
			"operation": op,
			"attempt":   attempt,
			"backoff":   backoff.String(),
		})
		if err := c.pacer.Clock().Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
	return err
}

// IsRateLimited reports whether err is Notion's rate limit response
func IsRateLimited(err error) bool {
	var limited *notionapi.RateLimitedError
	if errors.As(err, &limited) {
		return true
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Code == "rate_limited"
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
