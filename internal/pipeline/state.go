// Package pipeline turns listing batches into deduplicated, enriched broker
// identities and a linked, tagged catalog.
//
// Every stage takes a State and returns a new one. State values are never
// modified in place: the With* and Append* methods copy before writing, so a
// State held by an earlier stage stays valid after later stages run.
package pipeline

import (
	"maps"
	"slices"

	"github.com/sells-group/broker-catalog/internal/model"
)

// State is the working set handed from stage to stage.
type State struct {
	listings []model.ListingRecord
	pending  []model.ListingRecord
	brokers  []model.BrokerRecord
	pages    map[string]string
	errs     []error
}

// NewState starts a run over listings.
func NewState(listings []model.ListingRecord) State {
	return State{listings: slices.Clone(listings)}
}

// Listings returns the full input batch.
func (s State) Listings() []model.ListingRecord { return slices.Clone(s.listings) }

// Pending returns the listings selected for broker extraction.
func (s State) Pending() []model.ListingRecord { return slices.Clone(s.pending) }

// Brokers returns the current broker working set.
func (s State) Brokers() []model.BrokerRecord { return slices.Clone(s.brokers) }

// Errors returns the per-record errors accumulated so far.
func (s State) Errors() []error { return slices.Clone(s.errs) }

// Page returns the raw content fetched for a listing URL.
func (s State) Page(listingURL string) (string, bool) {
	html, ok := s.pages[listingURL]
	return html, ok
}

// WithPending replaces the extraction queue.
func (s State) WithPending(pending []model.ListingRecord) State {
	s.pending = slices.Clone(pending)
	return s
}

// WithBrokers replaces the broker working set.
func (s State) WithBrokers(brokers []model.BrokerRecord) State {
	s.brokers = slices.Clone(brokers)
	return s
}

// AppendBroker adds one broker to the working set.
func (s State) AppendBroker(b model.BrokerRecord) State {
	s.brokers = append(slices.Clip(s.brokers), b)
	return s
}

// AppendError records a per-record failure.
func (s State) AppendError(err error) State {
	if err == nil {
		return s
	}
	s.errs = append(slices.Clip(s.errs), err)
	return s
}

// WithPage keeps the raw content of a listing page for later stages.
func (s State) WithPage(listingURL, html string) State {
	pages := make(map[string]string, len(s.pages)+1)
	maps.Copy(pages, s.pages)
	pages[listingURL] = html
	s.pages = pages
	return s
}
