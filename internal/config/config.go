// Package config loads process configuration from an optional YAML file and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/plata/internal/domain"
)

// Row store backends.
const (
	BackendSheets      = "sheets"
	BackendBigQuery    = "bigquery"
	BackendAzureTables = "aztables"
	BackendMemory      = "memory"
)

// Config is the top-level structure of plata.yaml.
type Config struct {
	Store        StoreConfig     `yaml:"store"`
	Accounts     domain.Accounts `yaml:"accounts"`
	Telegram     TelegramConfig  `yaml:"telegram"`
	HTTP         HTTPConfig      `yaml:"http"`
	Export       ExportConfig    `yaml:"export"`
	HistoryLimit int             `yaml:"history_limit"`
	SessionTTL   time.Duration   `yaml:"session_ttl"`
	// MaxPendingTurns bounds the turns one conversation may have queued.
	MaxPendingTurns int    `yaml:"max_pending_turns"`
	LogLevel        string `yaml:"log_level"`
}

// StoreConfig selects and configures the row store backend.
type StoreConfig struct {
	Backend     string            `yaml:"backend"` // sheets | bigquery | aztables | memory
	Sheets      SheetsConfig      `yaml:"sheets"`
	BigQuery    BigQueryConfig    `yaml:"bigquery"`
	AzureTables AzureTablesConfig `yaml:"aztables"`
}

// SheetsConfig points at the spreadsheet holding one tab per ledger.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// CredentialsJSON is a service account key. Empty means application
	// default credentials.
	CredentialsJSON string `yaml:"credentials_json"`
}

// BigQueryConfig names the movements table.
type BigQueryConfig struct {
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
	Table   string `yaml:"table"`
}

// AzureTablesConfig names the table service and table.
type AzureTablesConfig struct {
	ServiceURL string `yaml:"service_url"`
	Table      string `yaml:"table"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	Token       string `yaml:"token"`
	PollTimeout int    `yaml:"poll_timeout"` // seconds
	Debug       bool   `yaml:"debug"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Port string `yaml:"port"`
	// Token, when set, is required as a bearer token on /api routes.
	Token string `yaml:"token"`
}

// ExportConfig configures ledger snapshots to Cloud Storage.
type ExportConfig struct {
	Bucket string `yaml:"bucket"`
}

// Default returns a Config with the reference deployment's two accounts.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:     BackendSheets,
			BigQuery:    BigQueryConfig{Table: "movements"},
			AzureTables: AzureTablesConfig{Table: "movements"},
		},
		Accounts: domain.Accounts{
			{Name: "Personal", Ledger: "Personal-Cris"},
			{Name: "Business", Ledger: "Negocios"},
		},
		Telegram:        TelegramConfig{PollTimeout: 60},
		HTTP:            HTTPConfig{Port: "8080"},
		HistoryLimit:    10,
		SessionTTL:      15 * time.Minute,
		MaxPendingTurns: 20,
		LogLevel:        "info",
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is
// os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	str("GOOGLE_SPREADSHEET_ID", &c.Store.Sheets.SpreadsheetID)
	str("GOOGLE_CREDENTIALS_FILE_CONTENT", &c.Store.Sheets.CredentialsJSON)
	str("PLATA_STORE", &c.Store.Backend)
	str("GCP_PROJECT", &c.Store.BigQuery.Project)
	str("BIGQUERY_DATASET", &c.Store.BigQuery.Dataset)
	str("BIGQUERY_TABLE", &c.Store.BigQuery.Table)
	str("TABLE_SERVICE_URL", &c.Store.AzureTables.ServiceURL)
	str("PLATA_TABLE", &c.Store.AzureTables.Table)
	str("GCS_BUCKET", &c.Export.Bucket)
	str("PLATA_LOG_LEVEL", &c.LogLevel)
	str("PORT", &c.HTTP.Port)
	str("PLATA_API_TOKEN", &c.HTTP.Token)

	if v, ok := lookup("PLATA_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PLATA_SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v, ok := lookup("PLATA_MAX_PENDING_TURNS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PLATA_MAX_PENDING_TURNS: %w", err)
		}
		c.MaxPendingTurns = n
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	return nil
}

// Validate checks the selected backend has what it needs. Transport
// settings such as the bot token are checked by the binary that uses them.
func (c *Config) Validate() error {
	if err := c.Accounts.Validate(); err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("session_ttl must not be negative")
	}
	if c.MaxPendingTurns <= 0 {
		return fmt.Errorf("max_pending_turns must be positive")
	}

	switch c.Store.Backend {
	case BackendSheets:
		if c.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("store: GOOGLE_SPREADSHEET_ID is required for the sheets backend")
		}
	case BackendBigQuery:
		if c.Store.BigQuery.Project == "" || c.Store.BigQuery.Dataset == "" {
			return fmt.Errorf("store: GCP_PROJECT and BIGQUERY_DATASET are required for the bigquery backend")
		}
	case BackendAzureTables:
		if c.Store.AzureTables.ServiceURL == "" {
			return fmt.Errorf("store: TABLE_SERVICE_URL is required for the aztables backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}
	return nil
}
