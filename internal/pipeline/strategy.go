package pipeline

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/broker-catalog/internal/normalize"
)

// Page is a fetched listing page prepared for field extraction.
type Page struct {
	URL  *url.URL
	Raw  string
	Doc  *goquery.Document
	text string
}

// NewPage parses raw HTML fetched from pageURL.
func NewPage(pageURL, raw string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	u, _ := url.Parse(pageURL)
	return &Page{URL: u, Raw: raw, Doc: doc}, nil
}

// blockTags end a line of visible text.
const blockTags = "br, p, div, li, tr, td, th, dt, dd, h1, h2, h3, h4, h5, h6, section, article, header, footer, address"

// Text returns the visible text of the page with one line per block element.
func (p *Page) Text() string {
	if p.text == "" && p.Doc != nil {
		body := p.Doc.Clone()
		body.Find("script, style, noscript").Remove()
		body.Find(blockTags).AppendHtml("\n")
		p.text = body.Text()
	}
	return p.text
}

// Strategy is one named way of finding a field value on a page.
type Strategy struct {
	Name string
	Find func(*Page) (string, bool)
}

// Chain is an ordered list of strategies; the first that finds a value wins.
type Chain []Strategy

// First returns the first value found and the name of the strategy that
// produced it.
func (c Chain) First(p *Page) (value, strategy string, ok bool) {
	for _, s := range c {
		if v, found := s.Find(p); found {
			return v, s.Name, true
		}
	}
	return "", "", false
}

// Names lists the strategies in the order they are tried.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

// elementText walks the elements matching each selector in order and returns
// the first cleaned text accepted by keep.
func elementText(p *Page, selectors []string, clean func(string) string, keep func(string) bool) (string, bool) {
	for _, sel := range selectors {
		var out string
		p.Doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := normalize.Whitespace(s.Text())
			if clean != nil {
				t = clean(t)
			}
			if t != "" && keep(t) {
				out = t
				return false
			}
			return true
		})
		if out != "" {
			return out, true
		}
	}
	return "", false
}

// attrValues returns the attribute of every element matching selector.
func attrValues(p *Page, selector, attr string) []string {
	var out []string
	p.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			out = append(out, strings.TrimSpace(v))
		}
	})
	return out
}
