package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
)

// DefaultFormKeywords mark a contact field that points at a web form rather
// than a person.
var DefaultFormKeywords = []string{"form", "contact form", "inquiry", "request info", "name: form"}

// Filter selects the listings whose broker must be extracted from the page.
type Filter struct {
	Keywords []string
}

// NeedsExtraction reports whether a listing's contact is a form reference or
// carries no information.
func (f Filter) NeedsExtraction(l model.ListingRecord) bool {
	contact := strings.ToLower(strings.TrimSpace(l.BrokerContact))
	if normalize.IsPlaceholder(contact) {
		return true
	}
	keywords := f.Keywords
	if len(keywords) == 0 {
		keywords = DefaultFormKeywords
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(contact, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Apply queues the matching listings in input order. Listings that are not
// selected stay in the batch and reach the Linker without a broker.
func (f Filter) Apply(s State) State {
	var pending []model.ListingRecord
	for _, l := range s.listings {
		if f.NeedsExtraction(l) {
			pending = append(pending, l)
		}
	}
	zap.L().Info("pipeline: filter complete",
		zap.Int("listings", len(s.listings)),
		zap.Int("pending", len(pending)),
	)
	return s.WithPending(pending)
}
