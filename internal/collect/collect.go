// Package collect builds listing records from business-for-sale pages.
package collect

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
	"github.com/sells-group/broker-catalog/internal/pipeline"
	"github.com/sells-group/broker-catalog/internal/scrape"
)

// DefaultLinkSelector matches listing detail links on BizBuySell index pages.
const DefaultLinkSelector = "a[href*='/business-opportunity/']"

const notDisclosed = "Not Disclosed"

var yearsRe = regexp.MustCompile(`(?i)(?:years in (?:operation|business)|established|year established)[:\s]*(\d{4}|\d{1,3})\b`)

// Collector fetches listing pages and turns them into ListingRecords.
type Collector struct {
	connector    scrape.Connector
	source       string
	linkSelector string
	now          func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithLinkSelector overrides the selector used by DiscoverLinks.
func WithLinkSelector(sel string) Option {
	return func(c *Collector) { c.linkSelector = sel }
}

// New creates a Collector that labels records with source.
func New(connector scrape.Connector, source string, opts ...Option) *Collector {
	c := &Collector{
		connector:    connector,
		source:       source,
		linkSelector: DefaultLinkSelector,
		now:          time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DiscoverLinks returns up to max distinct listing links from an index page,
// in page order.
func (c *Collector) DiscoverLinks(ctx context.Context, indexURL string, max int) ([]string, error) {
	raw, err := c.connector.FetchListingPage(ctx, indexURL)
	if err != nil {
		return nil, eris.Wrapf(err, "collect: fetch index %s", indexURL)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, eris.Wrapf(err, "collect: parse index %s", indexURL)
	}
	base, _ := url.Parse(indexURL)

	seen := make(map[string]bool)
	var links []string
	doc.Find(c.linkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		ref.Fragment = ""
		abs := ref.String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
		return max <= 0 || len(links) < max
	})

	zap.L().Info("collect: links discovered", zap.String("index", indexURL), zap.Int("links", len(links)))
	return links, nil
}

// Collect fetches every URL in order. Failed pages are logged, reported in
// the returned errors and skipped.
func (c *Collector) Collect(ctx context.Context, urls []string) ([]model.ListingRecord, []error) {
	var out []model.ListingRecord
	var errs []error
	for _, u := range urls {
		if ctx.Err() != nil {
			errs = append(errs, &model.ExtractionError{ListingURL: u, Stage: "collect", Err: ctx.Err()})
			continue
		}
		l, err := c.collectOne(ctx, u)
		if err != nil {
			zap.L().Warn("collect: listing failed", zap.String("url", u), zap.Error(err))
			errs = append(errs, &model.ExtractionError{ListingURL: u, Stage: "collect", Err: err})
			continue
		}
		out = append(out, l)
	}
	zap.L().Info("collect: complete", zap.Int("listings", len(out)), zap.Int("failed", len(errs)))
	return out, errs
}

func (c *Collector) collectOne(ctx context.Context, u string) (model.ListingRecord, error) {
	raw, err := c.connector.FetchListingPage(ctx, u)
	if err != nil {
		return model.ListingRecord{}, err
	}
	p, err := pipeline.NewPage(u, raw)
	if err != nil {
		return model.ListingRecord{}, eris.Wrap(err, "collect: parse page")
	}
	text := p.Text()

	l := model.NewListing(u, c.source)
	l.BusinessName = normalize.Whitespace(p.Doc.Find("h1").First().Text())
	if l.BusinessName == "" {
		l.BusinessName = c.source + " Listing"
	}

	l.Industry = firstOr(pipeline.IndustryChain, p, model.NotSpecified)
	l.Location = firstOr(pipeline.GeographyChain, p, model.NotSpecified)
	l.AskingPrice = money("asking", text)
	l.Revenue = money("revenue", text)
	l.EBITDA = money("cash flow", text)
	l.YearsInOperation = c.years(text)
	l.BrokerContact = firstOr(pipeline.NameChain, p, model.NotAvailable)
	return l, nil
}

func firstOr(chain pipeline.Chain, p *pipeline.Page, fallback string) string {
	if v, _, ok := chain.First(p); ok {
		return v
	}
	return fallback
}

// money finds the amount following keyword and renders it as whole units.
func money(keyword, text string) string {
	raw, ok := normalize.FieldByKeyword(keyword, text)
	if !ok {
		return notDisclosed
	}
	n := normalize.ParseMoney(raw)
	if n <= 0 {
		return notDisclosed
	}
	return strconv.FormatInt(n, 10)
}

// years reads "Established: 1998" as an age and "Years in Operation: 12"
// as-is.
func (c *Collector) years(text string) string {
	m := yearsRe.FindStringSubmatch(text)
	if m == nil {
		return notDisclosed
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return notDisclosed
	}
	if len(m[1]) == 4 {
		age := c.now().Year() - n
		if age < 0 {
			return notDisclosed
		}
		return strconv.Itoa(age)
	}
	return strconv.Itoa(n)
}
