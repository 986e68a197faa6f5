package export

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
)

// Artifact file names inside the output directory.
const (
	BrokersFile  = "Master_Broker_Database.csv"
	DraftsFile   = "email_drafts.csv"
	PreviewFile  = "email_preview.html"
	CatalogCSV   = "Master_Database.csv"
	CatalogXLSX  = "Master_Database.xlsx"
	NotionFile   = "notion_export.json"
	AirtableFile = "airtable_export.json"
)

// Writer writes every artifact of a command into one directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

type artifact struct {
	name  string
	write func(path string) error
}

// run writes artifacts in order and stops at the first failure, reporting
// the ones already on disk.
func (w *Writer) run(artifacts []artifact) ([]string, error) {
	var written []string
	for _, a := range artifacts {
		path := filepath.Join(w.dir, a.name)
		if err := a.write(path); err != nil {
			return written, &model.ExportError{Artifact: a.name, Written: written, Err: err}
		}
		zap.L().Debug("artifact written", zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

// WriteBrokers writes the broker database.
func (w *Writer) WriteBrokers(brokers []model.BrokerRecord) ([]string, error) {
	return w.run([]artifact{
		{BrokersFile, func(p string) error { return WriteBrokers(p, brokers) }},
	})
}

// WriteDrafts writes the drafts CSV and its HTML preview.
func (w *Writer) WriteDrafts(drafts []model.EmailDraft) ([]string, error) {
	return w.run([]artifact{
		{DraftsFile, func(p string) error { return WriteDrafts(p, drafts) }},
		{PreviewFile, func(p string) error { return WritePreview(p, drafts, w.now()) }},
	})
}

// WriteCatalog writes the catalog CSV, the workbook and both import files.
func (w *Writer) WriteCatalog(records []model.CatalogRecord) ([]string, error) {
	return w.run([]artifact{
		{CatalogCSV, func(p string) error { return WriteCatalog(p, records) }},
		{CatalogXLSX, func(p string) error { return WriteXLSX(p, records) }},
		{NotionFile, func(p string) error { return WriteNotionJSON(p, records) }},
		{AirtableFile, func(p string) error { return WriteAirtableJSON(p, records) }},
	})
}
