// Package scrape fetches listing and broker pages through an ordered chain
// of fetchers with caching and politeness.
package scrape

import "context"

// Page is the raw content fetched for one URL.
type Page struct {
	URL        string
	Title      string
	HTML       string
	StatusCode int
}

// Result holds a fetched page with the scraper that produced it.
type Result struct {
	Page   Page
	Source string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
