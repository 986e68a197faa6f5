package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// DefaultUserAgent identifies the fetcher to listing sites.
const DefaultUserAgent = "Mozilla/5.0 (compatible; BrokerCatalog/1.0)"

const maxBodyBytes = 512 * 1024

// LocalScraper fetches HTML directly over net/http and fails over when the
// page looks blocked.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) LocalOption {
	return func(l *LocalScraper) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithLocalHTTPClient replaces the underlying HTTP client.
func WithLocalHTTPClient(hc *http.Client) LocalOption {
	return func(l *LocalScraper) { l.client = hc }
}

// NewLocalScraper creates a LocalScraper with the given request timeout.
func NewLocalScraper(timeout time.Duration, opts ...LocalOption) *LocalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	l := &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches targetURL and returns its HTML.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) < 100 {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		Page: Page{
			URL:        targetURL,
			Title:      pageTitle(body),
			HTML:       string(body),
			StatusCode: resp.StatusCode,
		},
		Source: l.Name(),
	}, nil
}

func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
