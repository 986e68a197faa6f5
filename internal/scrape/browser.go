package scrape

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// BrowserScraper renders pages in headless Chrome for listing sites that
// build their broker panels client-side.
type BrowserScraper struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	settle   time.Duration
}

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	ExecPath  string        // empty uses chromedp's lookup
	UserAgent string        // empty uses DefaultUserAgent
	Timeout   time.Duration // per page; default 30s
	Settle    time.Duration // wait after load for scripts; default 2s
}

// NewBrowserScraper prepares an allocator. Chrome is not started until the
// first Scrape.
func NewBrowserScraper(cfg BrowserConfig) *BrowserScraper {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(ua),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	b := &BrowserScraper{allocCtx: allocCtx, cancel: cancel, timeout: cfg.Timeout, settle: cfg.Settle}
	if b.timeout <= 0 {
		b.timeout = 30 * time.Second
	}
	if b.settle <= 0 {
		b.settle = 2 * time.Second
	}
	return b
}

func (b *BrowserScraper) Name() string           { return "browser" }
func (b *BrowserScraper) Supports(_ string) bool { return true }

// Scrape navigates to targetURL and returns the rendered document.
func (b *BrowserScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// Stop the tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html, title string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: render %s", targetURL)
	}
	if blocked, kind := DetectBlockContent(html); blocked {
		return nil, eris.Errorf("browser: blocked (%s)", kind)
	}

	return &Result{
		Page:   Page{URL: targetURL, Title: title, HTML: html, StatusCode: 200},
		Source: b.Name(),
	}, nil
}

// Close shuts down the browser process.
func (b *BrowserScraper) Close() {
	b.cancel()
}
