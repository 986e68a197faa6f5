package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/draft"
	"github.com/sells-group/broker-catalog/internal/export"
	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/pipeline"
	"github.com/sells-group/broker-catalog/internal/resilience"
	"github.com/sells-group/broker-catalog/internal/scrape"
	"github.com/sells-group/broker-catalog/internal/store"
	anthropicpkg "github.com/sells-group/broker-catalog/pkg/anthropic"
	"github.com/sells-group/broker-catalog/pkg/firecrawl"
	"github.com/sells-group/broker-catalog/pkg/jina"
	"github.com/sells-group/broker-catalog/pkg/notion"
	"github.com/sells-group/broker-catalog/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func retryConfig() resilience.RetryConfig {
	return resilience.FromSettings(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
}

// initConnector builds the page source. Offline runs read fixtures; online
// runs try a plain fetch first, then Jina, Firecrawl and a headless browser
// when each is configured. The returned func releases the browser.
func initConnector(cache scrape.PageCache) (scrape.Connector, func()) {
	if offline {
		zap.L().Info("offline mode, serving pages from fixtures", zap.String("dir", cfg.Paths.Fixtures))
		return scrape.NewFixtureConnector(cfg.Paths.Fixtures), func() {}
	}

	timeout := time.Duration(cfg.Connector.TimeoutSecs) * time.Second
	scrapers := []scrape.Scraper{
		scrape.NewLocalScraper(timeout, scrape.WithUserAgent(cfg.Connector.UserAgent)),
	}
	if cfg.Jina.Key != "" {
		scrapers = append(scrapers, scrape.NewJinaAdapter(
			jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL), jina.WithRetry(retryConfig())),
		))
	}
	if cfg.Firecrawl.Key != "" {
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(
			firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL)),
		))
	}
	closer := func() {}
	if cfg.Connector.Browser {
		b := scrape.NewBrowserScraper(scrape.BrowserConfig{
			ExecPath:  cfg.Connector.ChromePath,
			UserAgent: cfg.Connector.UserAgent,
			Timeout:   2 * timeout,
		})
		scrapers = append(scrapers, b)
		closer = b.Close
	}

	chain := scrape.NewChain(scrapers...)
	zap.L().Info("connector ready", zap.Strings("scrapers", chain.Names()))

	opts := []scrape.ConnectorOption{
		scrape.WithRateLimit(cfg.Extract.RatePerSecond),
		scrape.WithDelay(
			time.Duration(cfg.Extract.DelayMinMs)*time.Millisecond,
			time.Duration(cfg.Extract.DelayMaxMs)*time.Millisecond,
		),
	}
	if cache != nil && cfg.Extract.CacheTTLHours > 0 {
		opts = append(opts, scrape.WithCache(cache, time.Duration(cfg.Extract.CacheTTLHours)*time.Hour))
	}
	return scrape.NewConnector(chain, opts...), closer
}

func initGenerator() (draft.Generator, error) {
	switch cfg.Drafting.Provider {
	case "anthropic":
		return draft.NewAnthropicGenerator(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model, cfg.Drafting.MaxTokens, cfg.Drafting.Temperature,
		), nil
	case "openai":
		return draft.NewOpenAIGenerator(
			draft.NewOpenAIClient(cfg.OpenAI.Key, cfg.OpenAI.BaseURL),
			cfg.OpenAI.Model, int(cfg.Drafting.MaxTokens), cfg.Drafting.Temperature,
		), nil
	case "stub":
		return draft.StubGenerator{}, nil
	default:
		return nil, eris.Errorf("unsupported drafting provider: %s", cfg.Drafting.Provider)
	}
}

func initDraftService() (*draft.Service, error) {
	if err := cfg.Validate("draft"); err != nil {
		return nil, err
	}
	gen, err := initGenerator()
	if err != nil {
		return nil, err
	}
	s := cfg.Drafting.Sender
	return draft.NewService(gen,
		draft.Sender{Name: s.Name, Company: s.Company, Title: s.Title, Phone: s.Phone, Email: s.Email},
		draft.WithMaxPerRun(cfg.Drafting.MaxPerRun),
		draft.WithRetry(retryConfig()),
	)
}

// pipelineOptions collects the options every tracked command shares. A dry
// run writes no artifacts.
func pipelineOptions(dryRun bool) ([]pipeline.Option, error) {
	opts := []pipeline.Option{pipeline.WithFormKeywords(cfg.Extract.FormKeywords)}
	if !dryRun {
		opts = append(opts, pipeline.WithExporter(export.NewWriter(cfg.Paths.OutputDir)))
	}
	if cfg.Tagger.TaxonomyFile != "" {
		tax, err := pipeline.LoadTaxonomy(cfg.Tagger.TaxonomyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithTaxonomy(tax))
	}
	return opts, nil
}

func parseTone(flagValue string) model.Tone {
	if flagValue != "" {
		return model.ParseTone(flagValue)
	}
	return model.ParseTone(cfg.Drafting.Tone)
}

func initNotion() notion.Client {
	return notion.NewClient(cfg.Notion.Token)
}

func initSalesforce() (salesforce.Client, error) {
	return salesforce.Connect(salesforce.Credentials{
		Domain:      cfg.Salesforce.Domain,
		Username:    cfg.Salesforce.Username,
		ConsumerKey: cfg.Salesforce.ConsumerKey,
		KeyPath:     cfg.Salesforce.KeyPath,
	})
}

func limitListings(listings []model.ListingRecord, limit int) []model.ListingRecord {
	if limit > 0 && len(listings) > limit {
		return listings[:limit]
	}
	return listings
}
