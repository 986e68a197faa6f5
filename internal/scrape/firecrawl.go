package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/broker-catalog/pkg/firecrawl"
)

// FirecrawlAdapter is the last-resort fetcher; it renders the page remotely.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

func (f *FirecrawlAdapter) Name() string           { return "firecrawl" }
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape requests the raw HTML of targetURL, falling back to the cleaned
// HTML when the raw document is absent.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"rawHtml", "html"},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}

	html := resp.Data.RawHTML
	if html == "" {
		html = resp.Data.HTML
	}
	if html == "" {
		return nil, eris.New("firecrawl: no html returned")
	}
	if code := resp.Data.Metadata.StatusCode; code >= 400 {
		return nil, eris.Errorf("firecrawl: origin status %d", code)
	}

	return &Result{
		Page: Page{
			URL:        targetURL,
			Title:      resp.Data.Metadata.Title,
			HTML:       html,
			StatusCode: resp.Data.Metadata.StatusCode,
		},
		Source: f.Name(),
	}, nil
}
