package model

import "strings"

// NotSpecified is the placeholder sources use for unknown free-text fields.
const NotSpecified = "Not Specified"

// NotAvailable is the placeholder for a missing broker contact.
const NotAvailable = "Not Available"

// ListingRecord is one scraped business-for-sale opportunity. It is created
// by ingest or collection and never mutated afterward.
type ListingRecord struct {
	BusinessName     string `json:"business_name"`
	Industry         string `json:"industry,omitempty"`
	Location         string `json:"location,omitempty"`
	AskingPrice      string `json:"asking_price,omitempty"`
	Revenue          string `json:"revenue,omitempty"`
	EBITDA           string `json:"ebitda,omitempty"`
	YearsInOperation string `json:"years_in_operation,omitempty"`
	BrokerContact    string `json:"broker_contact,omitempty"`
	ListingURL       string `json:"listing_url"`
	Source           string `json:"source"`
}

// NewListing returns a listing with its identity fields set.
func NewListing(listingURL, source string) ListingRecord {
	return ListingRecord{
		ListingURL: strings.TrimSpace(listingURL),
		Source:     strings.TrimSpace(source),
	}
}

// ListingColumns is the fixed column contract of the listings file.
var ListingColumns = []string{
	"Business Name",
	"Industry",
	"Location",
	"Asking Price",
	"Revenue",
	"EBITDA",
	"Years in Operation",
	"Broker or Seller Contact",
	"Listing URL",
	"Source",
}

// Row returns the listing in ListingColumns order.
func (l ListingRecord) Row() []string {
	return []string{
		l.BusinessName,
		l.Industry,
		l.Location,
		l.AskingPrice,
		l.Revenue,
		l.EBITDA,
		l.YearsInOperation,
		l.BrokerContact,
		l.ListingURL,
		l.Source,
	}
}

// IsUnspecified reports whether a free-text field carries no information.
func IsUnspecified(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, NotSpecified)
}
