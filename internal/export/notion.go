package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/pkg/notion"
)

// NotionDatabaseTitle names the database the export is meant for.
const NotionDatabaseTitle = "Business Acquisition Pipeline"

// NotionKeyProperty is the rich-text property that identifies a catalog
// page, so pushes update rather than duplicate.
const NotionKeyProperty = "Record ID"

type notionExport struct {
	DatabaseTitle string         `json:"database_title"`
	Records       []notionRecord `json:"records"`
}

type notionRecord struct {
	Properties notionapi.Properties `json:"properties"`
}

// NotionProperties maps a catalog record onto Notion page properties.
// Empty email and phone values are left out since Notion rejects them.
func NotionProperties(r model.CatalogRecord) notionapi.Properties {
	props := notionapi.Properties{
		"Business":        notionapi.TitleProperty{Title: richText(r.BusinessName)},
		NotionKeyProperty: notionapi.RichTextProperty{RichText: richText(r.RecordID)},
		"Broker":          notionapi.RichTextProperty{RichText: richText(r.Raw.BrokerName)},
		"Firm":            notionapi.RichTextProperty{RichText: richText(r.Raw.BrokerFirm)},
		"Industry":        selectOf(r.IndustryTag),
		"Size":            selectOf(r.SizeTag),
		"Geography":       selectOf(r.GeographyTag),
		"Status":          selectOf(string(r.DealStatus)),
	}
	if email := strings.TrimSpace(r.Raw.BrokerEmail); strings.Contains(email, "@") && !strings.HasPrefix(email, "[") {
		props["Email"] = notionapi.EmailProperty{Email: email}
	}
	if phone := strings.TrimSpace(r.Raw.BrokerPhone); phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{PhoneNumber: phone}
	}
	if u := r.Raw.Listing.ListingURL; u != "" {
		props["Listing URL"] = notionapi.URLProperty{URL: u}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type:      notionapi.ObjectTypeText,
		Text:      &notionapi.Text{Content: s},
		PlainText: s,
	}}
}

// Notion select options may not contain commas.
func selectOf(v string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: strings.ReplaceAll(v, ",", "")}}
}

// WriteNotionJSON writes an import file for the catalog database.
func WriteNotionJSON(path string, records []model.CatalogRecord) error {
	out := notionExport{DatabaseTitle: NotionDatabaseTitle, Records: make([]notionRecord, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, notionRecord{Properties: NotionProperties(r)})
	}
	return writeJSON(path, out)
}

// PushResult counts what a push did.
type PushResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// PushNotion upserts one page per record keyed on Record ID. Per-record
// failures are logged and counted; only a cancelled context stops the push.
func PushNotion(ctx context.Context, c notion.Client, dbID string, records []model.CatalogRecord) (PushResult, error) {
	log := zap.L().With(zap.String("sink", "notion"), zap.String("database", dbID))

	var res PushResult
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "export: notion push cancelled")
		}
		up, err := notion.UpsertByRichText(ctx, c, dbID, NotionKeyProperty, r.RecordID, NotionProperties(r))
		if err != nil {
			res.Failed++
			log.Warn("notion upsert failed", zap.String("record_id", r.RecordID), zap.Error(err))
			continue
		}
		if up.Created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	log.Info("notion push complete",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	if res.Failed > 0 && res.Failed == len(records) {
		return res, eris.Errorf("export: notion push failed for all %d records", res.Failed)
	}
	return res, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "export: marshal %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "export: write %s", path)
}
