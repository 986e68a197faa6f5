package scrape

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordSleeps(c *CachedConnector) *[]time.Duration {
	var got []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		got = append(got, d)
		return nil
	}
	return &got
}

func TestConnector_FetchesAndCaches(t *testing.T) {
	s := &mockScraper{name: "local_http", supports: true, result: &Result{Page: Page{HTML: "<html>listing</html>"}}}
	cache := newMemCache()
	c := NewConnector(NewChain(s), WithCache(cache, 24*time.Hour))

	html, err := c.FetchListingPage(context.Background(), "https://x.com/1")
	require.NoError(t, err)
	assert.Equal(t, "<html>listing</html>", html)
	assert.Equal(t, "<html>listing</html>", cache.pages["https://x.com/1"])
	assert.Equal(t, 24*time.Hour, cache.ttls["https://x.com/1"])

	html, err = c.FetchListingPage(context.Background(), "https://x.com/1")
	require.NoError(t, err)
	assert.Equal(t, "<html>listing</html>", html)
	assert.Equal(t, 1, s.calls, "second fetch must be served from cache")
}

func TestConnector_CacheErrorsAreNotFatal(t *testing.T) {
	s := &mockScraper{name: "local_http", supports: true, result: &Result{Page: Page{HTML: "<p>ok</p>"}}}
	cache := newMemCache()
	cache.err = errors.New("disk full")
	c := NewConnector(NewChain(s), WithCache(cache, time.Hour))

	html, err := c.FetchBrokerPage(context.Background(), "https://x.com/broker/9")
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", html)
}

func TestConnector_ChainFailure(t *testing.T) {
	s := &mockScraper{name: "local_http", supports: true, err: errors.New("refused")}
	c := NewConnector(NewChain(s))

	_, err := c.FetchBrokerPage(context.Background(), "https://x.com/broker/9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch broker page")
}

func TestConnector_DelayBetweenNetworkFetches(t *testing.T) {
	s := &mockScraper{name: "local_http", supports: true, result: &Result{Page: Page{HTML: "x"}}}
	cache := newMemCache()
	cache.pages["https://x.com/cached"] = "cached"
	c := NewConnector(NewChain(s), WithCache(cache, time.Hour), WithDelay(2*time.Second, 4*time.Second))
	sleeps := recordSleeps(c)

	for _, u := range []string{"https://x.com/1", "https://x.com/cached", "https://x.com/2", "https://x.com/3"} {
		_, err := c.FetchListingPage(context.Background(), u)
		require.NoError(t, err)
	}

	// No pause before the first network fetch and none for cache hits.
	require.Len(t, *sleeps, 2)
	for _, d := range *sleeps {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestConnector_DelayCancelled(t *testing.T) {
	s := &mockScraper{name: "local_http", supports: true, result: &Result{Page: Page{HTML: "x"}}}
	c := NewConnector(NewChain(s), WithDelay(time.Hour, time.Hour))

	_, err := c.FetchListingPage(context.Background(), "https://x.com/1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.FetchListingPage(ctx, "https://x.com/2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "politeness delay")
	assert.Equal(t, 1, s.calls)
}

func TestConnector_Options(t *testing.T) {
	c := NewConnector(NewChain(), WithRateLimit(0.5), WithDelay(3*time.Second, time.Second))
	require.NotNil(t, c.limiter)
	assert.Equal(t, 3*time.Second, c.delayMin)
	assert.Equal(t, 3*time.Second, c.delayMax)

	c = NewConnector(NewChain(), WithRateLimit(0))
	assert.Nil(t, c.limiter)
}

func TestFixtureConnector(t *testing.T) {
	dir := t.TempDir()
	url := "https://bizbuysell.com/listing/42"
	require.NoError(t, os.WriteFile(FixturePath(dir, url), []byte("<html>fixture</html>"), 0o644))

	var c Connector = NewFixtureConnector(dir)
	html, err := c.FetchListingPage(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "<html>fixture</html>", html)

	html, err = c.FetchBrokerPage(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "<html>fixture</html>", html)

	_, err = c.FetchListingPage(context.Background(), "https://bizbuysell.com/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fixture")
}

func TestFixturePath_Stable(t *testing.T) {
	p := FixturePath("fixtures", "https://a.com")
	assert.Equal(t, p, FixturePath("fixtures", "https://a.com"))
	assert.NotEqual(t, p, FixturePath("fixtures", "https://b.com"))
	assert.Regexp(t, `^fixtures/[0-9a-f]{40}\.html$`, p)
}
