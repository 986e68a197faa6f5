package export

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/broker-catalog/internal/model"
)

// Sheet names of the workbook.
const (
	MasterSheet  = "Master Database"
	SummarySheet = "Summary"
)

// TagCount is one row of the summary sheet.
type TagCount struct {
	Category string
	Tag      string
	Count    int
}

// Summarize counts catalog records per tag for each category. Categories
// keep a fixed order; within a category the most common tag comes first.
func Summarize(records []model.CatalogRecord) []TagCount {
	categories := []struct {
		name string
		tag  func(model.CatalogRecord) string
	}{
		{"Industry", func(r model.CatalogRecord) string { return r.IndustryTag }},
		{"Size", func(r model.CatalogRecord) string { return r.SizeTag }},
		{"Geography", func(r model.CatalogRecord) string { return r.GeographyTag }},
		{"Status", func(r model.CatalogRecord) string { return string(r.DealStatus) }},
	}

	var out []TagCount
	for _, c := range categories {
		counts := make(map[string]int)
		for _, r := range records {
			counts[c.tag(r)]++
		}
		rows := make([]TagCount, 0, len(counts))
		for tag, n := range counts {
			rows = append(rows, TagCount{Category: c.name, Tag: tag, Count: n})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Count != rows[j].Count {
				return rows[i].Count > rows[j].Count
			}
			return rows[i].Tag < rows[j].Tag
		})
		out = append(out, rows...)
	}
	return out
}

// WriteXLSX writes the catalog workbook: every record on the master sheet and
// per-tag counts on the summary sheet.
func WriteXLSX(path string, records []model.CatalogRecord) error {
	f := xlsx.NewFile()

	master, err := f.AddSheet(MasterSheet)
	if err != nil {
		return eris.Wrap(err, "export: add master sheet")
	}
	addRow(master, model.CatalogColumns, true)
	for _, r := range records {
		addRow(master, r.Row(), false)
	}

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addRow(summary, []string{"Category", "Tag", "Count"}, true)
	for _, tc := range Summarize(records) {
		row := summary.AddRow()
		row.AddCell().SetString(tc.Category)
		row.AddCell().SetString(tc.Tag)
		row.AddCell().SetInt(tc.Count)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string, header bool) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		cell.SetString(v)
		if header {
			cell.GetStyle().Font.Bold = true
		}
	}
}
