package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
)

// Dedupe keeps the first broker for each normalized name. Brokers without a
// usable name are dropped. Later duplicates are discarded whole; their
// fields are not merged into the survivor. Dedupe(Dedupe(s)) == Dedupe(s).
func Dedupe(s State) State {
	seen := make(map[string]bool, len(s.brokers))
	out := make([]model.BrokerRecord, 0, len(s.brokers))
	dropped := 0

	for _, b := range s.brokers {
		key := normalize.Name(b.Name)
		if key == "" || normalize.IsPlaceholder(key) || isBlacklistedName(key) {
			s = s.AppendError(&model.ValidationError{ListingURL: b.SourceListingURL, Reason: "broker has no usable name"})
			dropped++
			continue
		}
		if seen[key] {
			zap.L().Debug("pipeline: duplicate broker discarded",
				zap.String("name", key),
				zap.String("listing_url", b.SourceListingURL),
			)
			dropped++
			continue
		}
		seen[key] = true
		out = append(out, b)
	}

	zap.L().Info("pipeline: dedupe complete",
		zap.Int("brokers", len(out)),
		zap.Int("dropped", dropped),
	)
	return s.WithBrokers(out)
}
