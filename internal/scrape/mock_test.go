package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/broker-catalog/pkg/firecrawl"
	"github.com/sells-group/broker-catalog/pkg/jina"
)

// mockScraper implements Scraper for testing.
type mockScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
	calls    int
}

func (m *mockScraper) Name() string           { return m.name }
func (m *mockScraper) Supports(_ string) bool { return m.supports }
func (m *mockScraper) Scrape(_ context.Context, _ string) (*Result, error) {
	m.calls++
	return m.result, m.err
}

type mockJina struct{ mock.Mock }

func (m *mockJina) Read(ctx context.Context, targetURL string, _ ...jina.ReadOption) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

type mockFirecrawl struct{ mock.Mock }

func (m *mockFirecrawl) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ScrapeResponse), args.Error(1)
}

// memCache is an in-memory PageCache.
type memCache struct {
	mu    sync.Mutex
	pages map[string]string
	ttls  map[string]time.Duration
	err   error
}

func newMemCache() *memCache {
	return &memCache{pages: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) GetCachedPage(_ context.Context, url string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	html, ok := c.pages[url]
	return html, ok, nil
}

func (c *memCache) SetCachedPage(_ context.Context, url, html string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.pages[url] = html
	c.ttls[url] = ttl
	return nil
}
