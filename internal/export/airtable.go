package export

import "github.com/sells-group/broker-catalog/internal/model"

type airtableExport struct {
	Records []airtableRecord `json:"records"`
}

type airtableRecord struct {
	Fields map[string]string `json:"fields"`
}

// AirtableFields maps a catalog record onto Airtable field names.
func AirtableFields(r model.CatalogRecord) map[string]string {
	return map[string]string{
		"Record ID":     r.RecordID,
		"Business Name": r.BusinessName,
		"Broker Name":   r.Raw.BrokerName,
		"Email":         r.Raw.BrokerEmail,
		"Phone":         r.Raw.BrokerPhone,
		"Firm":          r.Raw.BrokerFirm,
		"Industry":      r.IndustryTag,
		"Size":          r.SizeTag,
		"Geography":     r.GeographyTag,
		"Deal Status":   string(r.DealStatus),
		"Asking Price":  r.Raw.Listing.AskingPrice,
		"Revenue":       r.Raw.Listing.Revenue,
		"Listing URL":   r.Raw.Listing.ListingURL,
	}
}

// WriteAirtableJSON writes the catalog in Airtable's bulk-create shape.
func WriteAirtableJSON(path string, records []model.CatalogRecord) error {
	out := airtableExport{Records: make([]airtableRecord, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, airtableRecord{Fields: AirtableFields(r)})
	}
	return writeJSON(path, out)
}
