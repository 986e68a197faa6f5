package pipeline

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
	"github.com/sells-group/broker-catalog/internal/scrape"
)

// nameBlacklist holds button and label text that structural selectors pick
// up instead of a person.
var nameBlacklist = map[string]bool{
	"contact broker": true,
	"view profile":   true,
	"seller":         true,
}

var (
	namePrefixRe = regexp.MustCompile(`(?i)^(broker|agent|contact|by)[:,\s]*`)
	firmPrefixRe = regexp.MustCompile(`(?i)^(brokerage|firm|company)[:,\s]*`)

	nameLabelRes = []*regexp.Regexp{
		regexp.MustCompile(`Broker[:\s]+([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`Agent[:\s]+([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`Listed by[:\s]+([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)`),
	}
	firmLabelRe = regexp.MustCompile(`(?m)(?:Brokerage|Firm|Company):[ \t]*([^\n]{3,80})$`)
)

func isBlacklistedName(name string) bool {
	return nameBlacklist[strings.ToLower(strings.TrimSpace(name))]
}

func cleanName(s string) string {
	return normalize.Whitespace(namePrefixRe.ReplaceAllString(s, ""))
}

func cleanFirm(s string) string {
	return normalize.Whitespace(firmPrefixRe.ReplaceAllString(s, ""))
}

// NameChain finds the broker's name.
var NameChain = Chain{
	{Name: "name_selector", Find: func(p *Page) (string, bool) {
		var out string
		for _, sel := range []string{"[class*='broker-name']", "[class*='agent-name']", "[class*='contact-name']"} {
			p.Doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
				t := normalize.Whitespace(el.Text())
				if !strings.Contains(t, " ") || len(t) <= 5 || len(t) >= 50 || isBlacklistedName(t) {
					return true
				}
				if c := cleanName(t); c != "" && !isBlacklistedName(c) {
					out = c
					return false
				}
				return true
			})
			if out != "" {
				return out, true
			}
		}
		return "", false
	}},
	{Name: "name_label", Find: func(p *Page) (string, bool) {
		text := p.Text()
		for _, re := range nameLabelRes {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if c := cleanName(m[1]); c != "" && !isBlacklistedName(c) {
					return c, true
				}
			}
		}
		return "", false
	}},
}

// FirmChain finds the brokerage firm.
var FirmChain = Chain{
	{Name: "firm_selector", Find: func(p *Page) (string, bool) {
		v, ok := elementText(p,
			[]string{"[class*='brokerage']", "[class*='company']", "[class*='firm']"},
			nil,
			func(t string) bool { return len(t) > 5 && len(t) < 80 && cleanFirm(t) != "" },
		)
		if !ok {
			return "", false
		}
		return normalize.Firm(cleanFirm(v)), true
	}},
	{Name: "firm_label", Find: func(p *Page) (string, bool) {
		m := firmLabelRe.FindStringSubmatch(p.Text())
		if m == nil {
			return "", false
		}
		f := normalize.Firm(cleanFirm(m[1]))
		return f, f != ""
	}},
}

// EmailChain finds a usable broker email address.
var EmailChain = Chain{
	{Name: "email_selector", Find: func(p *Page) (string, bool) {
		return elementText(p, []string{"[class*='email']"},
			func(t string) string {
				e, _ := normalize.FirstUsableEmail(normalize.FindEmails(t))
				return e
			},
			func(string) bool { return true },
		)
	}},
	{Name: "mailto_attr", Find: func(p *Page) (string, bool) {
		var candidates []string
		for _, href := range attrValues(p, "a[href^='mailto:']", "href") {
			candidates = append(candidates, normalize.MailtoAddress(href))
		}
		return normalize.FirstUsableEmail(candidates)
	}},
	{Name: "email_regex", Find: func(p *Page) (string, bool) {
		return normalize.FirstUsableEmail(normalize.FindEmails(p.Raw))
	}},
}

// PhoneChain finds the broker's phone, formatted +1-AAA-BBB-CCCC.
var PhoneChain = Chain{
	{Name: "phone_selector", Find: func(p *Page) (string, bool) {
		return elementText(p, []string{"[class*='phone']"},
			func(t string) string {
				ph, _ := normalize.FindPhone(t)
				return ph
			},
			func(string) bool { return true },
		)
	}},
	{Name: "tel_attr", Find: func(p *Page) (string, bool) {
		for _, href := range attrValues(p, "a[href^='tel:']", "href") {
			if ph, ok := normalize.Phone(strings.TrimPrefix(href, "tel:")); ok {
				return ph, true
			}
		}
		return "", false
	}},
	{Name: "phone_regex", Find: func(p *Page) (string, bool) {
		return normalize.FindPhone(p.Text())
	}},
}

// IndustryChain finds the listing category shown next to the broker.
var IndustryChain = Chain{
	{Name: "industry_selector", Find: func(p *Page) (string, bool) {
		return elementText(p, []string{"[class*='category']", "[class*='industry']"}, nil,
			func(t string) bool { return len(t) < 50 })
	}},
}

// GeographyChain finds where the broker or business is located.
var GeographyChain = Chain{
	{Name: "geography_selector", Find: func(p *Page) (string, bool) {
		return elementText(p, []string{"[class*='location']", "[class*='address']", "[class*='city']"}, nil,
			func(t string) bool { return len(t) < 100 })
	}},
	{Name: "city_state_regex", Find: func(p *Page) (string, bool) {
		return normalize.FindCityState(p.Text())
	}},
}

// ProfileURLChain finds a link to the broker's own profile page.
var ProfileURLChain = Chain{
	{Name: "profile_link", Find: func(p *Page) (string, bool) {
		for _, href := range attrValues(p, "a[href]", "href") {
			lower := strings.ToLower(href)
			if !strings.Contains(lower, "/broker") && !strings.Contains(lower, "profile") {
				continue
			}
			if abs, ok := resolveURL(p.URL, href); ok {
				return abs, true
			}
		}
		return "", false
	}},
}

func resolveURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}

// Extractor turns each pending listing into at most one broker candidate.
type Extractor struct {
	connector scrape.Connector
	now       func() time.Time
}

// NewExtractor creates an Extractor that fetches pages through connector.
func NewExtractor(connector scrape.Connector) *Extractor {
	return &Extractor{connector: connector, now: time.Now}
}

// Extract processes pending listings in order. A listing whose page cannot
// be fetched or parsed is recorded as an ExtractionError and skipped; there
// is no retry. A candidate with neither a usable name nor a contact channel
// is recorded as a ValidationError and dropped.
func (e *Extractor) Extract(ctx context.Context, s State) State {
	kept := 0
	for i, l := range s.pending {
		if ctx.Err() != nil {
			s = s.AppendError(&model.ExtractionError{ListingURL: l.ListingURL, Stage: "extract", Err: ctx.Err()})
			continue
		}
		log := zap.L().With(zap.String("listing_url", l.ListingURL), zap.Int("index", i))

		if strings.TrimSpace(l.ListingURL) == "" {
			s = s.AppendError(&model.ValidationError{Reason: "listing has no URL"})
			continue
		}

		raw, err := e.connector.FetchListingPage(ctx, l.ListingURL)
		if err != nil {
			log.Warn("pipeline: fetch listing failed", zap.Error(err))
			s = s.AppendError(&model.ExtractionError{ListingURL: l.ListingURL, Stage: "fetch", Err: err})
			continue
		}
		s = s.WithPage(l.ListingURL, raw)

		page, err := NewPage(l.ListingURL, raw)
		if err != nil {
			log.Warn("pipeline: parse listing failed", zap.Error(err))
			s = s.AppendError(&model.ExtractionError{ListingURL: l.ListingURL, Stage: "parse", Err: err})
			continue
		}

		b := e.extractBroker(page, l, log)
		if !b.HasName() && !b.HasContact() {
			log.Info("pipeline: dropping listing with no broker identity")
			s = s.AppendError(&model.ValidationError{ListingURL: l.ListingURL, Reason: "no broker name, email or phone"})
			continue
		}
		s = s.AppendBroker(b)
		kept++
	}

	zap.L().Info("pipeline: extraction complete",
		zap.Int("pending", len(s.pending)),
		zap.Int("brokers", kept),
	)
	return s
}

func (e *Extractor) extractBroker(p *Page, l model.ListingRecord, log *zap.Logger) model.BrokerRecord {
	b := model.NewBroker(l.ListingURL, e.now().UTC())

	fields := []struct {
		name  string
		chain Chain
		dst   *string
	}{
		{"broker_name", NameChain, &b.Name},
		{"brokerage_firm", FirmChain, &b.Firm},
		{"email", EmailChain, &b.Email},
		{"phone", PhoneChain, &b.Phone},
		{"industry_focus", IndustryChain, &b.IndustryFocus},
		{"geography", GeographyChain, &b.Geography},
		{"profile_url", ProfileURLChain, &b.ProfileURL},
	}
	for _, f := range fields {
		v, strategy, ok := f.chain.First(p)
		if !ok {
			log.Debug("pipeline: field not found", zap.String("field", f.name))
			continue
		}
		*f.dst = v
		log.Debug("pipeline: field extracted", zap.String("field", f.name), zap.String("strategy", strategy))
	}

	if b.Email != "" {
		b.EmailSource = model.EmailSourceExisting
	}
	return b
}
