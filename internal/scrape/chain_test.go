package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Scrape_FirstSuccess(t *testing.T) {
	s1 := &mockScraper{
		name: "primary", supports: true,
		result: &Result{Page: Page{URL: "https://bizbuysell.com/1", HTML: "<html/>"}, Source: "primary"},
	}
	s2 := &mockScraper{name: "fallback", supports: true}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://bizbuysell.com/1")
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Source)
	assert.Zero(t, s2.calls)
}

func TestChain_Scrape_FallbackOnError(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, err: errors.New("blocked")}
	s2 := &mockScraper{
		name: "fallback", supports: true,
		result: &Result{Page: Page{URL: "https://bizbuysell.com/1"}, Source: "fallback"},
	}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://bizbuysell.com/1")
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
	assert.Equal(t, 1, s1.calls)
}

func TestChain_Scrape_AllFail(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: true, err: errors.New("s1 error")}
	s2 := &mockScraper{name: "s2", supports: true, err: errors.New("s2 error")}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://x.com")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "all scrapers failed")
	assert.Contains(t, err.Error(), "s2 error")
}

func TestChain_Scrape_SkipsUnsupported(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: false}
	s2 := &mockScraper{name: "s2", supports: true, result: &Result{Source: "s2"}}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://x.com")
	require.NoError(t, err)
	assert.Equal(t, "s2", result.Source)
	assert.Zero(t, s1.calls)
}

func TestChain_Scrape_NoneSupported(t *testing.T) {
	_, err := NewChain(&mockScraper{name: "s1"}).Scrape(context.Background(), "https://x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable scraper")
}

func TestChain_Scrape_CancelledContext(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: true, result: &Result{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(s1).Scrape(ctx, "https://x.com")
	require.Error(t, err)
	assert.Zero(t, s1.calls)
}

func TestChain_Names(t *testing.T) {
	c := NewChain(&mockScraper{name: "local_http"}, &mockScraper{name: "jina"})
	assert.Equal(t, []string{"local_http", "jina"}, c.Names())
}
