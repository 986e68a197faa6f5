package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "broker-catalog.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "output", cfg.Paths.OutputDir)
	assert.Equal(t, DefaultFormKeywords, cfg.Extract.FormKeywords)
	assert.Equal(t, 2000, cfg.Extract.DelayMinMs)
	assert.Equal(t, 4000, cfg.Extract.DelayMaxMs)
	assert.Equal(t, 24, cfg.Extract.CacheTTLHours)
	assert.Equal(t, "anthropic", cfg.Drafting.Provider)
	assert.Equal(t, "professional", cfg.Drafting.Tone)
	assert.Equal(t, 50, cfg.Drafting.MaxPerRun)
	assert.InDelta(t, 0.5, cfg.Drafting.Temperature, 0.001)
	assert.Equal(t, int64(2000), cfg.Drafting.MaxTokens)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://api.firecrawl.dev/v1", cfg.Firecrawl.BaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/catalog
log:
  level: debug
  format: console
drafting:
  tone: direct
  sender:
    name: John Smith
    company: Acquisition Capital Partners
extract:
  form_keywords: ["form", "inquiry"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/catalog", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "direct", cfg.Drafting.Tone)
	assert.Equal(t, "John Smith", cfg.Drafting.Sender.Name)
	assert.Equal(t, []string{"form", "inquiry"}, cfg.Extract.FormKeywords)
	// Unset values keep their defaults.
	assert.Equal(t, 50, cfg.Drafting.MaxPerRun)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("CATALOG_LOG_LEVEL", "warn")
	t.Setenv("CATALOG_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadEnvSecrets(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CATALOG_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("CATALOG_NOTION_TOKEN", "ntn_test")
	t.Setenv("CATALOG_DRAFTING_SENDER_NAME", "Jane Buyer")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, "ntn_test", cfg.Notion.Token)
	assert.Equal(t, "Jane Buyer", cfg.Drafting.Sender.Name)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CATALOG_SERVER_PORT=3000\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CATALOG_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "catalog.db"
	cfg.Paths.OutputDir = "output"
	cfg.Extract.DelayMinMs = 2000
	cfg.Extract.DelayMaxMs = 4000
	cfg.Drafting.Provider = "anthropic"
	cfg.Drafting.MaxPerRun = 50
	cfg.Drafting.Sender = SenderInfo{Name: "John Smith", Company: "Acquisition Capital Partners"}
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("run"))

	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateRun_DelayBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Extract.DelayMaxMs = 100

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_min_ms <= delay_max_ms")
}

func TestValidateDraft(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("draft"))

	cfg.Anthropic.Key = ""
	cfg.Drafting.Sender.Name = ""
	err := cfg.Validate("draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "drafting.sender.name")
}

func TestValidateDraft_Providers(t *testing.T) {
	cfg := validDefaults()

	cfg.Drafting.Provider = "openai"
	err := cfg.Validate("draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key is required")

	cfg.OpenAI.Key = "sk-test"
	assert.NoError(t, cfg.Validate("draft"))

	cfg.Drafting.Provider = "stub"
	assert.NoError(t, cfg.Validate("draft"))

	cfg.Drafting.Provider = "carrier-pigeon"
	err = cfg.Validate("draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestValidateSync(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token or salesforce.username")

	cfg.Notion.Token = "ntn"
	err = cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.catalog_db is required")

	cfg.Notion.CatalogDB = "db-id"
	assert.NoError(t, cfg.Validate("sync"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
