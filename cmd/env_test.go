package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/broker-catalog/internal/config"
	"github.com/sells-group/broker-catalog/internal/draft"
	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/pipeline"
	"github.com/sells-group/broker-catalog/internal/scrape"
)

// withConfig swaps the global config for the duration of a test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitGenerator(t *testing.T) {
	c := &config.Config{}
	c.Anthropic.Model = "claude-haiku-4-5-20251001"
	c.OpenAI.Key = "sk-test"
	c.OpenAI.BaseURL = "https://api.openai.com/v1"
	withConfig(t, c)

	tests := []struct {
		provider string
		want     any
	}{
		{"anthropic", &draft.AnthropicGenerator{}},
		{"openai", &draft.OpenAIGenerator{}},
		{"stub", draft.StubGenerator{}},
	}
	for _, tt := range tests {
		c.Drafting.Provider = tt.provider
		gen, err := initGenerator()
		require.NoError(t, err, tt.provider)
		assert.IsType(t, tt.want, gen, tt.provider)
	}

	c.Drafting.Provider = "carrier-pigeon"
	_, err := initGenerator()
	assert.Error(t, err)
}

func TestInitDraftService_Validates(t *testing.T) {
	c := &config.Config{}
	c.Drafting.Provider = "stub"
	c.Drafting.MaxPerRun = 5
	withConfig(t, c)

	_, err := initDraftService()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drafting.sender")

	c.Drafting.Sender = config.SenderInfo{Name: "John Smith", Company: "Acquisition Capital Partners"}
	svc, err := initDraftService()
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestInitConnector_Offline(t *testing.T) {
	c := &config.Config{}
	c.Paths.Fixtures = t.TempDir()
	withConfig(t, c)
	offline = true
	t.Cleanup(func() { offline = false })

	conn, closer := initConnector(nil)
	defer closer()
	assert.IsType(t, &scrape.FixtureConnector{}, conn)
}

func TestInitConnector_Online(t *testing.T) {
	c := &config.Config{}
	c.Connector.TimeoutSecs = 5
	c.Jina.Key = "jina-key"
	c.Jina.BaseURL = "https://r.jina.ai"
	withConfig(t, c)

	conn, closer := initConnector(nil)
	defer closer()
	assert.IsType(t, &scrape.CachedConnector{}, conn)
}

func TestPipelineOptions_Taxonomy(t *testing.T) {
	c := &config.Config{}
	c.Tagger.TaxonomyFile = filepath.Join(t.TempDir(), "missing.yaml")
	withConfig(t, c)

	_, err := pipelineOptions(false)
	assert.Error(t, err)

	c.Tagger.TaxonomyFile = ""
	opts, err := pipelineOptions(true)
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}

func TestParseTone(t *testing.T) {
	c := &config.Config{}
	c.Drafting.Tone = "relationship"
	withConfig(t, c)

	assert.Equal(t, model.ToneRelationship, parseTone(""))
	assert.Equal(t, model.ToneDirect, parseTone("Direct"))
	assert.Equal(t, model.ToneProfessional, parseTone("shouty"))
}

func TestLimitListings(t *testing.T) {
	listings := make([]model.ListingRecord, 5)
	assert.Len(t, limitListings(listings, 0), 5)
	assert.Len(t, limitListings(listings, 3), 3)
	assert.Len(t, limitListings(listings, 10), 5)
}

func TestReadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("# bizbuysell\nhttps://a.example.com/1\n\n  https://a.example.com/2  \n"), 0o644))

	urls, err := readURLs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/1", "https://a.example.com/2"}, urls)

	_, err = readURLs(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestReadOptional(t *testing.T) {
	brokers, err := readOptional(filepath.Join(t.TempDir(), "missing.csv"), pipeline.ReadBrokers)
	require.NoError(t, err)
	assert.Nil(t, brokers)

	path := filepath.Join(t.TempDir(), "drafts.csv")
	require.NoError(t, os.WriteFile(path, []byte("broker_name,broker_email,tone\nJane Doe,jane@sunbelt.com,direct\n"), 0o644))
	drafts, err := readOptional(path, pipeline.ReadDrafts)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, model.ToneDirect, drafts[0].Tone)
}

func TestLatestCatalogRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := latestCatalogRun(ctx, st)
	require.Error(t, err)

	id := seedCatalogRun(t, st)
	got, err := latestCatalogRun(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPrintSyncPlan(t *testing.T) {
	c := &config.Config{}
	c.Notion.Token = "ntn"
	c.Notion.CatalogDB = "db-1"
	c.Salesforce.Username = "ops@example.com"
	withConfig(t, c)

	records := []model.CatalogRecord{
		{Raw: model.RawFields{BrokerName: "Jane Doe", BrokerFirm: "Sunbelt"}},
		{Raw: model.RawFields{BrokerName: "Robert Brown"}},
		{Raw: model.RawFields{}},
	}

	var buf bytes.Buffer
	printSyncPlan(&buf, "run-1", records)
	out := buf.String()
	assert.Contains(t, out, "run run-1: 3 catalog records")
	assert.Contains(t, out, "notion database db-1: 3 pages")
	assert.Contains(t, out, "salesforce: 2 accounts, up to 2 contacts")
}
