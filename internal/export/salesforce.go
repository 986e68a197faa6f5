package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
	"github.com/sells-group/broker-catalog/pkg/salesforce"
)

// IndependentFirm is the Account used for brokers without a firm.
const IndependentFirm = "Independent Brokers"

// SyncResult counts what a Salesforce sync did.
type SyncResult struct {
	AccountsCreated int `json:"accounts_created"`
	AccountsFound   int `json:"accounts_found"`
	Contacts        int `json:"contacts"`
	ContactsFailed  int `json:"contacts_failed"`
}

// SyncSalesforce ensures one Account per brokerage firm and inserts a
// Contact for every distinct broker in the catalog.
func SyncSalesforce(ctx context.Context, c salesforce.Client, records []model.CatalogRecord) (SyncResult, error) {
	log := zap.L().With(zap.String("sink", "salesforce"))

	var res SyncResult
	accounts := make(map[string]string)
	seen := make(map[string]bool)
	var contacts []map[string]any

	for _, r := range records {
		name := strings.TrimSpace(r.Raw.BrokerName)
		if name == "" {
			continue
		}
		key := normalize.Name(name) + "|" + strings.ToLower(strings.TrimSpace(r.Raw.BrokerEmail))
		if seen[key] {
			continue
		}
		seen[key] = true

		firm := strings.TrimSpace(r.Raw.BrokerFirm)
		if firm == "" {
			firm = IndependentFirm
		}
		accountID, ok := accounts[firm]
		if !ok {
			id, created, err := salesforce.EnsureAccount(ctx, c, firm, map[string]any{"Type": "Broker"})
			if err != nil {
				return res, eris.Wrapf(err, "export: ensure account %q", firm)
			}
			if created {
				res.AccountsCreated++
			} else {
				res.AccountsFound++
			}
			accounts[firm] = id
			accountID = id
		}

		contacts = append(contacts, contactFields(r, accountID))
	}

	results, err := salesforce.InsertContacts(ctx, c, contacts)
	for _, cr := range results {
		if cr.Success {
			res.Contacts++
		} else {
			res.ContactsFailed++
			log.Warn("contact insert rejected", zap.Strings("errors", cr.Errors))
		}
	}
	if err != nil {
		return res, eris.Wrap(err, "export: insert contacts")
	}

	log.Info("salesforce sync complete",
		zap.Int("accounts_created", res.AccountsCreated),
		zap.Int("accounts_found", res.AccountsFound),
		zap.Int("contacts", res.Contacts),
		zap.Int("contacts_failed", res.ContactsFailed),
	)
	return res, nil
}

func contactFields(r model.CatalogRecord, accountID string) map[string]any {
	first, last := splitName(r.Raw.BrokerName)
	fields := map[string]any{
		"FirstName":   first,
		"LastName":    last,
		"AccountId":   accountID,
		"Title":       "Business Broker",
		"Description": r.Raw.Listing.ListingURL,
	}
	if email, ok := normalize.UsableEmail(r.Raw.BrokerEmail); ok {
		fields["Email"] = email
	}
	if r.Raw.BrokerPhone != "" {
		fields["Phone"] = r.Raw.BrokerPhone
	}
	return fields
}

// LastName is required on Contact, so a single-word name goes there.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
