package model

import (
	"strings"

	"github.com/google/uuid"
)

// RecordType identifies what a catalog row was built from.
type RecordType string

const (
	RecordTypeListing RecordType = "listing"
	RecordTypeBroker  RecordType = "broker"
	RecordTypeEmail   RecordType = "email"
)

// DealStatus is a catalog record's position in the acquisition pipeline.
type DealStatus string

const (
	DealStatusNewLead      DealStatus = "new_lead"
	DealStatusContacted    DealStatus = "contacted"
	DealStatusInDiscussion DealStatus = "in_discussion"
	DealStatusOnHold       DealStatus = "on_hold"
	DealStatusClosed       DealStatus = "closed"
	DealStatusRejected     DealStatus = "rejected"
)

// DealStatuses lists every status in pipeline order.
var DealStatuses = []DealStatus{
	DealStatusNewLead,
	DealStatusContacted,
	DealStatusInDiscussion,
	DealStatusOnHold,
	DealStatusClosed,
	DealStatusRejected,
}

// Default tag values used when no rule matches.
const (
	IndustryOther    = "other"
	SizeUnknown      = "unknown"
	GeographyUnknown = "unknown"
)

// RawFields is the bag of source values a catalog row was populated from.
type RawFields struct {
	Listing ListingRecord `json:"listing"`

	// Industry and Location are the listing's values after the Linker
	// filled blanks from the broker.
	Industry string `json:"industry,omitempty"`
	Location string `json:"location,omitempty"`

	BrokerName  string `json:"broker_name,omitempty"`
	BrokerFirm  string `json:"brokerage_firm,omitempty"`
	BrokerEmail string `json:"broker_email,omitempty"`
	BrokerPhone string `json:"broker_phone,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`

	EmailSubject string `json:"email_subject,omitempty"`
	EmailBody    string `json:"email_body,omitempty"`
	EmailTone    Tone   `json:"email_tone,omitempty"`
}

// CatalogRecord is one row of the unified output. The Linker creates it and
// only the Tagger adds to it.
type CatalogRecord struct {
	RecordID     string     `json:"record_id"`
	RecordType   RecordType `json:"record_type"`
	BusinessName string     `json:"business_name"`
	IndustryTag  string     `json:"industry_tag"`
	GeographyTag string     `json:"geography_tag"`
	SizeTag      string     `json:"size_tag"`
	DealStatus   DealStatus `json:"deal_status"`
	Raw          RawFields  `json:"raw"`
}

// ListingRecordID derives the catalog id of a listing row from its URL, so
// re-running the pipeline over the same listings yields the same ids.
func ListingRecordID(listingURL string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(listingURL))
	return "listing_" + strings.ReplaceAll(id.String(), "-", "")[:16]
}

// CatalogColumns is the fixed column contract of the unified catalog.
var CatalogColumns = []string{
	"Record ID",
	"Record Type",
	"Business Name",
	"Industry",
	"Geography",
	"Deal Status",
	"Asking Price",
	"Revenue",
	"EBITDA",
	"Years in Operation",
	"Listing URL",
	"Source",
	"Broker Name",
	"Brokerage Firm",
	"Email",
	"Phone",
	"LinkedIn",
	"Email Subject",
	"Email Body",
	"Email Tone",
}

// Row flattens the record in CatalogColumns order.
func (c CatalogRecord) Row() []string {
	l := c.Raw.Listing
	return []string{
		c.RecordID,
		string(c.RecordType),
		c.BusinessName,
		c.IndustryTag,
		c.GeographyTag,
		string(c.DealStatus),
		l.AskingPrice,
		l.Revenue,
		l.EBITDA,
		l.YearsInOperation,
		l.ListingURL,
		l.Source,
		c.Raw.BrokerName,
		c.Raw.BrokerFirm,
		c.Raw.BrokerEmail,
		c.Raw.BrokerPhone,
		c.Raw.LinkedInURL,
		c.Raw.EmailSubject,
		c.Raw.EmailBody,
		string(c.Raw.EmailTone),
	}
}
