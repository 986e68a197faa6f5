// Package notion publishes catalog records as pages of a Notion database.
// Pages are keyed by a rich-text Record ID property so repeated syncs update
// rather than duplicate.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// defaultRPS is Notion's published per-integration request rate.
const defaultRPS = 3

// Client is the slice of the Notion API that catalog sync needs: look up a
// page by Record ID, then create or update it.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// ClientOption configures NewClient.
type ClientOption func(*notionClient)

// WithRateLimit sets requests per second. Zero or less disables throttling,
// which tests use against fakes.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

// NewClient returns a Client for an integration token. A catalog push issues
// a query plus a write per record, so every call shares one limiter.
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(defaultRPS, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// throttled waits for a request slot, runs call and tags any error with op.
func throttled[T any](ctx context.Context, c *notionClient, op string, call func() (T, error)) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, eris.Wrapf(err, "notion: %s: rate limit", op)
	}
	v, err := call()
	if err != nil {
		return zero, eris.Wrapf(err, "notion: %s", op)
	}
	return v, nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return throttled(ctx, c, "query database "+dbID, func() (*notionapi.DatabaseQueryResponse, error) {
		return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return throttled(ctx, c, "create page", func() (*notionapi.Page, error) {
		return c.inner.Page.Create(ctx, req)
	})
}

func (c *notionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return throttled(ctx, c, "update page "+pageID, func() (*notionapi.Page, error) {
		return c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
}
