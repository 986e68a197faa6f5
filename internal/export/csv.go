// Package export writes pipeline artifacts to disk and pushes the catalog
// to downstream tools.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
)

// WriteListings writes listings in the listings input column order, so a
// collected file can be fed straight back into the pipeline.
func WriteListings(path string, listings []model.ListingRecord) error {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, l.Row())
	}
	return writeCSV(path, model.ListingColumns, rows)
}

// WriteBrokers writes the broker database. Phones are wrapped so
// spreadsheets keep them as text.
func WriteBrokers(path string, brokers []model.BrokerRecord) error {
	rows := make([][]string, 0, len(brokers))
	for _, b := range brokers {
		rows = append(rows, brokerRow(b))
	}
	return writeCSV(path, model.BrokerColumns, rows)
}

// WriteDrafts writes email drafts in DraftColumns order.
func WriteDrafts(path string, drafts []model.EmailDraft) error {
	rows := make([][]string, 0, len(drafts))
	for _, d := range drafts {
		rows = append(rows, d.Row())
	}
	return writeCSV(path, model.DraftColumns, rows)
}

// WriteCatalog writes the unified catalog in CatalogColumns order.
func WriteCatalog(path string, records []model.CatalogRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return writeCSV(path, model.CatalogColumns, rows)
}

func brokerRow(b model.BrokerRecord) []string {
	ts := ""
	if !b.ExtractedAt.IsZero() {
		ts = b.ExtractedAt.Format(time.RFC3339)
	}
	return []string{
		b.RecordID,
		b.Name,
		b.Firm,
		b.Email,
		string(b.EmailSource),
		normalize.ExcelSafePhone(b.Phone),
		b.Geography,
		b.IndustryFocus,
		b.LinkedInURL,
		b.SourceListingURL,
		ts,
	}
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "export: write header %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "export: write rows %s", path)
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
