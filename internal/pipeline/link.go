package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
)

// Link joins listings with their broker and the broker's outreach draft.
// Every distinct listing URL yields exactly one catalog record, built from
// the first listing with that URL. The broker is the first one whose source
// listing URL matches; the draft is the first whose email matches the
// broker's, compared case-insensitively. Tags are left empty for the Tagger.
func Link(listings []model.ListingRecord, brokers []model.BrokerRecord, drafts []model.EmailDraft) []model.CatalogRecord {
	brokerByURL := make(map[string]model.BrokerRecord, len(brokers))
	for _, b := range brokers {
		if _, ok := brokerByURL[b.SourceListingURL]; !ok {
			brokerByURL[b.SourceListingURL] = b
		}
	}
	draftByEmail := make(map[string]model.EmailDraft, len(drafts))
	for _, d := range drafts {
		key := strings.ToLower(strings.TrimSpace(d.BrokerEmail))
		if key == "" {
			continue
		}
		if _, ok := draftByEmail[key]; !ok {
			draftByEmail[key] = d
		}
	}

	seen := make(map[string]bool, len(listings))
	out := make([]model.CatalogRecord, 0, len(listings))
	var withBroker, withDraft int

	for _, l := range listings {
		if seen[l.ListingURL] {
			continue
		}
		seen[l.ListingURL] = true

		rec := model.CatalogRecord{
			RecordID:     model.ListingRecordID(l.ListingURL),
			RecordType:   model.RecordTypeListing,
			BusinessName: strings.TrimSpace(l.BusinessName),
			Raw: model.RawFields{
				Listing:  l,
				Industry: strings.TrimSpace(l.Industry),
				Location: strings.TrimSpace(l.Location),
			},
		}

		if b, ok := brokerByURL[l.ListingURL]; ok {
			withBroker++
			rec.Raw.BrokerName = b.Name
			rec.Raw.BrokerFirm = b.Firm
			rec.Raw.BrokerEmail = b.Email
			rec.Raw.BrokerPhone = b.Phone
			rec.Raw.LinkedInURL = b.LinkedInURL
			if model.IsUnspecified(rec.Raw.Industry) && b.IndustryFocus != "" {
				rec.Raw.Industry = b.IndustryFocus
			}
			if model.IsUnspecified(rec.Raw.Location) && b.Geography != "" {
				rec.Raw.Location = b.Geography
			}

			if key := strings.ToLower(strings.TrimSpace(b.Email)); key != "" {
				if d, ok := draftByEmail[key]; ok {
					withDraft++
					rec.Raw.EmailSubject = d.Subject
					rec.Raw.EmailBody = d.Body
					rec.Raw.EmailTone = d.Tone
				}
			}
		}
		out = append(out, rec)
	}

	zap.L().Info("pipeline: link complete",
		zap.Int("listings", len(listings)),
		zap.Int("records", len(out)),
		zap.Int("with_broker", withBroker),
		zap.Int("with_draft", withDraft),
	)
	return out
}
