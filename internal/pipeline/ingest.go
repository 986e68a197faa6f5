package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
)

// table is a parsed CSV or sheet with a header index.
type table struct {
	colIdx map[string]int
	rows   [][]string
}

func (t table) get(row []string, col string) string {
	idx, ok := t.colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// readTable opens a CSV, or the first sheet of an .xlsx workbook, and checks
// the required columns. Any failure is an InputError.
func readTable(path string, required ...string) (table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err := readWorkbook(path)
		if err != nil {
			return table{}, &model.InputError{Path: path, Err: err}
		}
		return buildTable(path, records, required...)
	}

	f, err := os.Open(path)
	if err != nil {
		return table{}, &model.InputError{Path: path, Err: eris.Wrap(err, "pipeline: open csv")}
	}
	defer f.Close()
	return parseTable(path, f, required...)
}

func parseTable(path string, r io.Reader, required ...string) (table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return table{}, &model.InputError{Path: path, Err: eris.Wrap(err, "pipeline: read csv")}
	}
	return buildTable(path, records, required...)
}

// readWorkbook returns the rows of the first sheet as strings.
func readWorkbook(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("pipeline: xlsx has no sheets")
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

func buildTable(path string, records [][]string, required ...string) (table, error) {
	if len(records) == 0 {
		return table{}, &model.InputError{Path: path, Err: eris.New("pipeline: csv has no header")}
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		// Spreadsheet exports prepend a BOM to the first header.
		colIdx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return table{}, &model.InputError{Path: path, Err: eris.Errorf("pipeline: missing required column %q", col)}
		}
	}
	return table{colIdx: colIdx, rows: records[1:]}, nil
}

// ListingFile is a parsed listings file. Skipped holds a ValidationError for
// every row that was dropped for lacking a listing URL.
type ListingFile struct {
	Listings []model.ListingRecord
	Skipped  []error
}

// ReadListingFile loads a listings file in ListingColumns layout.
func ReadListingFile(path string) (ListingFile, error) {
	t, err := readTable(path, "Listing URL")
	if err != nil {
		return ListingFile{}, err
	}
	var out ListingFile
	for i, row := range t.rows {
		l := model.NewListing(t.get(row, "Listing URL"), t.get(row, "Source"))
		l.BusinessName = t.get(row, "Business Name")
		if l.ListingURL == "" {
			// Row numbers count the header as row 1.
			out.Skipped = append(out.Skipped, &model.ValidationError{
				ListingURL: fmt.Sprintf("%s row %d", filepath.Base(path), i+2),
				Reason:     fmt.Sprintf("listing %q has no URL", l.BusinessName),
			})
			continue
		}
		l.Industry = t.get(row, "Industry")
		l.Location = t.get(row, "Location")
		l.AskingPrice = t.get(row, "Asking Price")
		l.Revenue = t.get(row, "Revenue")
		l.EBITDA = t.get(row, "EBITDA")
		l.YearsInOperation = t.get(row, "Years in Operation")
		l.BrokerContact = t.get(row, "Broker or Seller Contact")
		out.Listings = append(out.Listings, l)
	}
	if len(out.Skipped) > 0 {
		zap.L().Warn("pipeline: listings without a URL skipped",
			zap.String("path", path),
			zap.Int("skipped", len(out.Skipped)),
		)
	}
	return out, nil
}

// ReadListings returns only the usable listings of a listings file.
func ReadListings(path string) ([]model.ListingRecord, error) {
	f, err := ReadListingFile(path)
	if err != nil {
		return nil, err
	}
	return f.Listings, nil
}

// ReadBrokers loads a broker database file in BrokerColumns layout.
func ReadBrokers(path string) ([]model.BrokerRecord, error) {
	t, err := readTable(path, "broker_name", "source_listing_url")
	if err != nil {
		return nil, err
	}
	var out []model.BrokerRecord
	for _, row := range t.rows {
		extracted, _ := time.Parse(time.RFC3339, t.get(row, "extraction_timestamp"))
		b := model.NewBroker(t.get(row, "source_listing_url"), extracted)
		b.RecordID = t.get(row, "record_id")
		b.Name = t.get(row, "broker_name")
		b.Firm = t.get(row, "brokerage_firm")
		b.Email = t.get(row, "email")
		b.EmailSource = model.EmailSource(t.get(row, "email_source"))
		b.Phone = normalize.UnwrapExcelPhone(t.get(row, "phone"))
		b.Geography = t.get(row, "geography")
		b.IndustryFocus = t.get(row, "industry_focus")
		b.LinkedInURL = t.get(row, "linkedin_search_url")
		out = append(out, b)
	}
	return out, nil
}

// ReadDrafts loads an email drafts file in DraftColumns layout.
func ReadDrafts(path string) ([]model.EmailDraft, error) {
	t, err := readTable(path, "broker_email")
	if err != nil {
		return nil, err
	}
	var out []model.EmailDraft
	for _, row := range t.rows {
		generated, _ := time.Parse(time.RFC3339, t.get(row, "generation_timestamp"))
		out = append(out, model.EmailDraft{
			BrokerName:  t.get(row, "broker_name"),
			BrokerFirm:  t.get(row, "broker_firm"),
			BrokerEmail: t.get(row, "broker_email"),
			Subject:     t.get(row, "email_subject"),
			Body:        t.get(row, "email_body"),
			Tone:        model.ToneOrRaw(t.get(row, "tone")),
			GeneratedAt: generated,
		})
	}
	return out, nil
}
