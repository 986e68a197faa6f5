package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailSource records where a broker's email came from.
type EmailSource string

const (
	EmailSourceExisting      EmailSource = "existing"
	EmailSourceListingPage   EmailSource = "listing_page"
	EmailSourceBrokerProfile EmailSource = "broker_profile"
	EmailSourceNone          EmailSource = "none"
)

// BrokerRecord is one contact candidate extracted for a listing. Optional
// fields are empty when absent; enrichment fills them but never overwrites.
type BrokerRecord struct {
	RecordID         string      `json:"record_id"`
	Name             string      `json:"broker_name,omitempty"`
	Firm             string      `json:"brokerage_firm,omitempty"`
	Email            string      `json:"email,omitempty"`
	EmailSource      EmailSource `json:"email_source,omitempty"`
	Phone            string      `json:"phone,omitempty"`
	IndustryFocus    string      `json:"industry_focus,omitempty"`
	Geography        string      `json:"geography,omitempty"`
	ProfileURL       string      `json:"profile_url,omitempty"`
	LinkedInURL      string      `json:"linkedin_search_url,omitempty"`
	SourceListingURL string      `json:"source_listing_url"`
	ExtractedAt      time.Time   `json:"extraction_timestamp"`
}

// NewBroker returns a broker tied to the listing it was extracted from.
func NewBroker(sourceListingURL string, extractedAt time.Time) BrokerRecord {
	return BrokerRecord{
		SourceListingURL: sourceListingURL,
		ExtractedAt:      extractedAt,
	}
}

// NewBrokerID returns a fresh broker record id.
func NewBrokerID() string {
	return "broker_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HasName reports whether the broker carries a usable name.
func (b BrokerRecord) HasName() bool {
	n := strings.TrimSpace(b.Name)
	return n != "" && !strings.EqualFold(n, NotAvailable)
}

// HasContact reports whether the broker can be reached by email or phone.
func (b BrokerRecord) HasContact() bool {
	return strings.TrimSpace(b.Email) != "" || strings.TrimSpace(b.Phone) != ""
}

// BrokerColumns is the fixed column contract of the broker database file.
var BrokerColumns = []string{
	"record_id",
	"broker_name",
	"brokerage_firm",
	"email",
	"email_source",
	"phone",
	"geography",
	"industry_focus",
	"linkedin_search_url",
	"source_listing_url",
	"extraction_timestamp",
}
