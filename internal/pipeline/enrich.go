package pipeline

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
	"github.com/sells-group/broker-catalog/internal/scrape"
)

// LinkedInSearchTemplate is the people-search URL built for each named broker.
const LinkedInSearchTemplate = "https://www.linkedin.com/search/results/people/?keywords=%s&origin=GLOBAL_SEARCH_HEADER"

// LinkedInSearchURL returns the people-search URL for a broker, or "" when
// the name is blank.
func LinkedInSearchURL(name, firm string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	keywords := queryEscape(name)
	if firm = strings.TrimSpace(firm); firm != "" {
		keywords += "%20" + queryEscape(firm)
	}
	return strings.Replace(LinkedInSearchTemplate, "%s", keywords, 1)
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Enricher fills missing broker fields. It never overwrites a present value.
type Enricher struct {
	connector scrape.Connector
}

// NewEnricher creates an Enricher. A nil connector disables profile-page
// lookups.
func NewEnricher(connector scrape.Connector) *Enricher {
	return &Enricher{connector: connector}
}

// Enrich fills email, geography, industry, LinkedIn URL and record id for
// every broker in the working set.
func (e *Enricher) Enrich(ctx context.Context, s State) State {
	listings := make(map[string]model.ListingRecord, len(s.listings))
	for _, l := range s.listings {
		if _, ok := listings[l.ListingURL]; !ok {
			listings[l.ListingURL] = l
		}
	}

	out := make([]model.BrokerRecord, 0, len(s.brokers))
	var found int
	for _, b := range s.brokers {
		var err error
		b, err = e.fillEmail(ctx, s, b)
		if err != nil {
			s = s.AppendError(&model.ExtractionError{ListingURL: b.SourceListingURL, Stage: "profile", Err: err})
		}
		if b.EmailSource == model.EmailSourceListingPage || b.EmailSource == model.EmailSourceBrokerProfile {
			found++
		}

		l := listings[b.SourceListingURL]
		if b.Geography == "" && !model.IsUnspecified(l.Location) {
			b.Geography = strings.TrimSpace(l.Location)
		}
		if b.IndustryFocus == "" && !model.IsUnspecified(l.Industry) {
			b.IndustryFocus = strings.TrimSpace(l.Industry)
		}
		if b.LinkedInURL == "" {
			b.LinkedInURL = LinkedInSearchURL(b.Name, b.Firm)
		}
		if b.RecordID == "" {
			b.RecordID = model.NewBrokerID()
		}
		out = append(out, b)
	}

	zap.L().Info("pipeline: enrichment complete",
		zap.Int("brokers", len(out)),
		zap.Int("emails_found", found),
	)
	return s.WithBrokers(out)
}

// fillEmail looks for an address on the listing page, then on the broker's
// profile page. The returned error is a profile fetch failure; the broker is
// still returned with EmailSource set.
func (e *Enricher) fillEmail(ctx context.Context, s State, b model.BrokerRecord) (model.BrokerRecord, error) {
	if b.Email != "" {
		if b.EmailSource == "" {
			b.EmailSource = model.EmailSourceExisting
		}
		return b, nil
	}

	if raw, ok := s.Page(b.SourceListingURL); ok {
		if email, ok := emailFromContent(raw); ok {
			b.Email, b.EmailSource = email, model.EmailSourceListingPage
			return b, nil
		}
	}

	b.EmailSource = model.EmailSourceNone
	if e.connector == nil || b.ProfileURL == "" {
		return b, nil
	}
	raw, err := e.connector.FetchBrokerPage(ctx, b.ProfileURL)
	if err != nil {
		zap.L().Warn("pipeline: fetch broker profile failed",
			zap.String("profile_url", b.ProfileURL),
			zap.Error(err),
		)
		return b, err
	}
	if email, ok := emailFromContent(raw); ok {
		b.Email, b.EmailSource = email, model.EmailSourceBrokerProfile
	}
	return b, nil
}

func emailFromContent(raw string) (string, bool) {
	if email, ok := normalize.FirstUsableEmail(normalize.FindEmails(raw)); ok {
		return email, true
	}
	return normalize.FirstUsableEmail(normalize.FindMailtos(raw))
}
