package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/broker-catalog/pkg/salesforce"
)

// fakeNotion keeps pages keyed by Record ID.
type fakeNotion struct {
	existing map[string]string
	failOn   string
	created  []notionapi.Properties
	updated  []string
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	pf := req.Filter.(notionapi.PropertyFilter)
	key := pf.RichText.Equals
	if key == f.failOn {
		return nil, errors.New("notion unavailable")
	}
	resp := &notionapi.DatabaseQueryResponse{}
	if id, ok := f.existing[key]; ok {
		resp.Results = []notionapi.Page{{ID: notionapi.ObjectID(id)}}
	}
	return resp, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.created = append(f.created, req.Properties)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("new-%d", len(f.created)))}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, _ *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	f.updated = append(f.updated, pageID)
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func TestNotionProperties(t *testing.T) {
	records := sampleCatalog()

	props := NotionProperties(records[0])
	assert.Equal(t, "Austin Bakery", props["Business"].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, "listing_a", props[NotionKeyProperty].(notionapi.RichTextProperty).RichText[0].PlainText)
	assert.Equal(t, "jane@sunbelt.com", props["Email"].(notionapi.EmailProperty).Email)
	assert.Equal(t, "(512) 555-0100", props["Phone"].(notionapi.PhoneNumberProperty).PhoneNumber)
	assert.Equal(t, "medium", props["Size"].(notionapi.SelectProperty).Select.Name)

	// Lookup placeholders and empty phones are left out.
	props = NotionProperties(records[1])
	assert.NotContains(t, props, "Email")
	assert.NotContains(t, props, "Phone")
}

func TestWriteNotionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), NotionFile)
	require.NoError(t, WriteNotionJSON(path, sampleCatalog()))

	var out struct {
		DatabaseTitle string `json:"database_title"`
		Records       []struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"records"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, NotionDatabaseTitle, out.DatabaseTitle)
	require.Len(t, out.Records, 3)
	assert.Contains(t, out.Records[0].Properties, "Record ID")
	assert.Contains(t, string(out.Records[0].Properties["Industry"]), `"food_beverage"`)
}

func TestPushNotion(t *testing.T) {
	fn := &fakeNotion{
		existing: map[string]string{"listing_b": "page-b"},
		failOn:   "listing_c",
	}

	res, err := PushNotion(context.Background(), fn, "db-1", sampleCatalog())
	require.NoError(t, err)
	assert.Equal(t, PushResult{Created: 1, Updated: 1, Failed: 1}, res)
	assert.Equal(t, []string{"page-b"}, fn.updated)
	require.Len(t, fn.created, 1)
}

func TestPushNotion_AllFailed(t *testing.T) {
	fn := &fakeNotion{failOn: "listing_a"}

	_, err := PushNotion(context.Background(), fn, "db-1", sampleCatalog()[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed for all 1 records")
}

func TestPushNotion_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PushNotion(ctx, &fakeNotion{}, "db-1", sampleCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeSalesforce records account lookups and contact inserts.
type fakeSalesforce struct {
	accounts map[string]string
	inserted []map[string]any
	contacts []map[string]any
	failAll  bool
}

func (f *fakeSalesforce) Query(_ context.Context, soql string, out any) error {
	for name, id := range f.accounts {
		if strings.Contains(soql, "Name = '"+name+"'") {
			*out.(*[]salesforce.Account) = []salesforce.Account{{ID: id, Name: name}}
			return nil
		}
	}
	return nil
}

func (f *fakeSalesforce) InsertOne(_ context.Context, _ string, record map[string]any) (string, error) {
	f.inserted = append(f.inserted, record)
	return fmt.Sprintf("001NEW%d", len(f.inserted)), nil
}

func (f *fakeSalesforce) InsertCollection(_ context.Context, _ string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	if f.failAll {
		return nil, errors.New("sf down")
	}
	f.contacts = append(f.contacts, records...)
	out := make([]salesforce.CollectionResult, len(records))
	for i := range records {
		out[i] = salesforce.CollectionResult{ID: fmt.Sprintf("003%d", i), Success: true}
	}
	return out, nil
}

func TestSyncSalesforce(t *testing.T) {
	records := sampleCatalog()
	// A second listing by the same broker adds no contact.
	dup := records[0]
	dup.RecordID = "listing_d"
	records = append(records, dup)

	sf := &fakeSalesforce{accounts: map[string]string{"Sunbelt Business Brokers": "001SUN"}}

	res, err := SyncSalesforce(context.Background(), sf, records)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{AccountsCreated: 1, AccountsFound: 1, Contacts: 2}, res)

	require.Len(t, sf.inserted, 1)
	assert.Equal(t, IndependentFirm, sf.inserted[0]["Name"])

	require.Len(t, sf.contacts, 2)
	jane := sf.contacts[0]
	assert.Equal(t, "Jane", jane["FirstName"])
	assert.Equal(t, "Doe", jane["LastName"])
	assert.Equal(t, "001SUN", jane["AccountId"])
	assert.Equal(t, "jane@sunbelt.com", jane["Email"])

	robert := sf.contacts[1]
	assert.Equal(t, "001NEW1", robert["AccountId"])
	assert.NotContains(t, robert, "Email")
}

func TestSyncSalesforce_InsertError(t *testing.T) {
	sf := &fakeSalesforce{failAll: true}

	_, err := SyncSalesforce(context.Background(), sf, sampleCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert contacts")
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Mary Ann Smith", "Mary Ann", "Smith"},
		{"Cher", "", "Cher"},
		{"", "", "Unknown"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
