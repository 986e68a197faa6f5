package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Connector  ConnectorConfig  `yaml:"connector" mapstructure:"connector"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Drafting   DraftingConfig   `yaml:"drafting" mapstructure:"drafting"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Tagger     TaggerConfig     `yaml:"tagger" mapstructure:"tagger"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PathsConfig locates pipeline inputs and outputs.
type PathsConfig struct {
	Listings  string `yaml:"listings" mapstructure:"listings"`
	Brokers   string `yaml:"brokers" mapstructure:"brokers"`
	Drafts    string `yaml:"drafts" mapstructure:"drafts"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Fixtures  string `yaml:"fixtures" mapstructure:"fixtures"`
}

// ExtractConfig tunes broker extraction.
type ExtractConfig struct {
	FormKeywords  []string `yaml:"form_keywords" mapstructure:"form_keywords"`
	DelayMinMs    int      `yaml:"delay_min_ms" mapstructure:"delay_min_ms"`
	DelayMaxMs    int      `yaml:"delay_max_ms" mapstructure:"delay_max_ms"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ConnectorConfig configures page fetching.
type ConnectorConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Browser     bool   `yaml:"browser" mapstructure:"browser"`
	ChromePath  string `yaml:"chrome_path" mapstructure:"chrome_path"`
}

// JinaConfig holds Jina Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig holds Firecrawl settings (fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DraftingConfig configures outreach drafting.
type DraftingConfig struct {
	Provider    string     `yaml:"provider" mapstructure:"provider"`
	Tone        string     `yaml:"tone" mapstructure:"tone"`
	MaxPerRun   int        `yaml:"max_per_run" mapstructure:"max_per_run"`
	Temperature float64    `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int64      `yaml:"max_tokens" mapstructure:"max_tokens"`
	Sender      SenderInfo `yaml:"sender" mapstructure:"sender"`
}

// SenderInfo identifies who the drafts are written for.
type SenderInfo struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Company string `yaml:"company" mapstructure:"company"`
	Title   string `yaml:"title" mapstructure:"title"`
	Phone   string `yaml:"phone" mapstructure:"phone"`
	Email   string `yaml:"email" mapstructure:"email"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds Notion credentials and the catalog database id.
type NotionConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	CatalogDB string `yaml:"catalog_db" mapstructure:"catalog_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	Domain      string `yaml:"domain" mapstructure:"domain"`
	Username    string `yaml:"username" mapstructure:"username"`
	ConsumerKey string `yaml:"consumer_key" mapstructure:"consumer_key"`
	KeyPath     string `yaml:"key_path" mapstructure:"key_path"`
}

// TaggerConfig points at an optional taxonomy override file.
type TaggerConfig struct {
	TaxonomyFile string `yaml:"taxonomy_file" mapstructure:"taxonomy_file"`
}

// ServerConfig configures the read-only API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// RetryConfig tunes retries of outbound API calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// DefaultFormKeywords mark a listing contact as a web form rather than a person.
var DefaultFormKeywords = []string{"form", "contact form", "inquiry", "request info", "name: form"}

// Load reads configuration from .env, config.yaml and CATALOG_* env vars.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "broker-catalog.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("paths.listings", "input/listings.csv")
	v.SetDefault("paths.brokers", "output/Master_Broker_Database.csv")
	v.SetDefault("paths.drafts", "output/email_drafts.csv")
	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("paths.fixtures", "fixtures")
	v.SetDefault("extract.form_keywords", DefaultFormKeywords)
	v.SetDefault("extract.delay_min_ms", 2000)
	v.SetDefault("extract.delay_max_ms", 4000)
	v.SetDefault("extract.rate_per_second", 0.5)
	v.SetDefault("extract.cache_ttl_hours", 24)
	v.SetDefault("connector.user_agent", "Mozilla/5.0 (compatible; broker-catalog/1.0)")
	v.SetDefault("connector.timeout_secs", 15)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("drafting.provider", "anthropic")
	v.SetDefault("drafting.tone", "professional")
	v.SetDefault("drafting.max_per_run", 50)
	v.SetDefault("drafting.temperature", 0.5)
	v.SetDefault("drafting.max_tokens", 2000)
	v.SetDefault("drafting.sender.name", "")
	v.SetDefault("drafting.sender.company", "")
	v.SetDefault("drafting.sender.title", "")
	v.SetDefault("drafting.sender.phone", "")
	v.SetDefault("drafting.sender.email", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("jina.key", "")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.catalog_db", "")
	v.SetDefault("salesforce.domain", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.consumer_key", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("tagger.taxonomy_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate checks the settings a command mode depends on. All problems are
// reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	checkStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}

	switch mode {
	case "run", "brokers", "catalog", "collect":
		checkStore()
		if c.Paths.OutputDir == "" {
			errs = append(errs, "paths.output_dir is required")
		}
		if c.Extract.DelayMinMs < 0 || c.Extract.DelayMaxMs < c.Extract.DelayMinMs {
			errs = append(errs, "extract delay must satisfy 0 <= delay_min_ms <= delay_max_ms")
		}
	case "draft":
		switch c.Drafting.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				errs = append(errs, "openai.key is required")
			}
		case "stub":
		default:
			errs = append(errs, fmt.Sprintf("drafting.provider %q is not supported", c.Drafting.Provider))
		}
		if c.Drafting.MaxPerRun <= 0 {
			errs = append(errs, "drafting.max_per_run must be > 0")
		}
		if c.Drafting.Sender.Name == "" || c.Drafting.Sender.Company == "" {
			errs = append(errs, "drafting.sender.name and drafting.sender.company are required")
		}
	case "sync":
		if c.Notion.Token == "" && c.Salesforce.Username == "" {
			errs = append(errs, "notion.token or salesforce.username is required")
		}
		if c.Notion.Token != "" && c.Notion.CatalogDB == "" {
			errs = append(errs, "notion.catalog_db is required")
		}
	case "serve":
		checkStore()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
