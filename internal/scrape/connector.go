package scrape

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Connector is the source of raw page content for listings and brokers.
type Connector interface {
	FetchListingPage(ctx context.Context, url string) (string, error)
	FetchBrokerPage(ctx context.Context, url string) (string, error)
}

// PageCache stores fetched HTML by URL. store.Store satisfies it.
type PageCache interface {
	GetCachedPage(ctx context.Context, url string) (string, bool, error)
	SetCachedPage(ctx context.Context, url, html string, ttl time.Duration) error
}

// CachedConnector serves pages from the cache when fresh, otherwise fetches
// through the chain with a rate limit and a randomised pause between
// network calls.
type CachedConnector struct {
	chain *Chain
	cache PageCache
	ttl   time.Duration

	limiter  *rate.Limiter
	delayMin time.Duration
	delayMax time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	fetched  int
}

// ConnectorOption configures a CachedConnector.
type ConnectorOption func(*CachedConnector)

// WithCache enables the page cache with the given freshness window.
func WithCache(cache PageCache, ttl time.Duration) ConnectorOption {
	return func(c *CachedConnector) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithRateLimit caps network fetches per second. rps <= 0 disables it.
func WithRateLimit(rps float64) ConnectorOption {
	return func(c *CachedConnector) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithDelay sets the bounds of the pause before each network fetch after
// the first.
func WithDelay(lo, hi time.Duration) ConnectorOption {
	return func(c *CachedConnector) {
		if hi < lo {
			hi = lo
		}
		c.delayMin, c.delayMax = lo, hi
	}
}

// NewConnector builds a CachedConnector over chain.
func NewConnector(chain *Chain, opts ...ConnectorOption) *CachedConnector {
	c := &CachedConnector{chain: chain, sleep: sleepCtx}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchListingPage returns the HTML of a listing page.
func (c *CachedConnector) FetchListingPage(ctx context.Context, url string) (string, error) {
	return c.fetch(ctx, "listing", url)
}

// FetchBrokerPage returns the HTML of a broker profile page.
func (c *CachedConnector) FetchBrokerPage(ctx context.Context, url string) (string, error) {
	return c.fetch(ctx, "broker", url)
}

func (c *CachedConnector) fetch(ctx context.Context, kind, url string) (string, error) {
	log := zap.L().With(zap.String("kind", kind), zap.String("url", url))

	if c.cache != nil {
		html, ok, err := c.cache.GetCachedPage(ctx, url)
		switch {
		case err != nil:
			log.Warn("scrape: page cache read failed", zap.Error(err))
		case ok:
			log.Debug("scrape: page cache hit")
			return html, nil
		}
	}

	if err := c.polite(ctx); err != nil {
		return "", err
	}

	res, err := c.chain.Scrape(ctx, url)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: fetch %s page", kind)
	}
	log.Debug("scrape: fetched", zap.String("source", res.Source), zap.Int("bytes", len(res.Page.HTML)))

	if c.cache != nil {
		if err := c.cache.SetCachedPage(ctx, url, res.Page.HTML, c.ttl); err != nil {
			log.Warn("scrape: page cache write failed", zap.Error(err))
		}
	}
	return res.Page.HTML, nil
}

func (c *CachedConnector) polite(ctx context.Context) error {
	if c.fetched > 0 && c.delayMax > 0 {
		d := c.delayMin
		if span := c.delayMax - c.delayMin; span > 0 {
			d += rand.N(span + 1)
		}
		if err := c.sleep(ctx, d); err != nil {
			return eris.Wrap(err, "scrape: politeness delay")
		}
	}
	c.fetched++
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "scrape: rate limit")
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
