package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page matching filter, following cursors.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// FindByRichText returns the first page whose rich-text property equals
// value, or nil when there is none.
func FindByRichText(ctx context.Context, c Client, dbID, property, value string) (*notionapi.Page, error) {
	resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			RichText: &notionapi.TextFilterCondition{Equals: value},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find %s=%s", property, value)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// UpsertResult reports what UpsertByRichText did.
type UpsertResult struct {
	PageID  string
	Created bool
}

// UpsertByRichText updates the page keyed by property=value, or creates it
// in dbID when no such page exists.
func UpsertByRichText(ctx context.Context, c Client, dbID, property, value string, props notionapi.Properties) (UpsertResult, error) {
	existing, err := FindByRichText(ctx, c, dbID, property, value)
	if err != nil {
		return UpsertResult{}, err
	}

	if existing != nil {
		page, err := c.UpdatePage(ctx, existing.ID.String(), &notionapi.PageUpdateRequest{Properties: props})
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{PageID: page.ID.String()}, nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{PageID: page.ID.String(), Created: true}, nil
}
