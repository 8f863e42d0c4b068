package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"tbudget/internal/log"
)

// EnvPrefix is stripped from environment variable names before lookup.
const EnvPrefix = "TBUDGET_"

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// Files
	DataDir       string `koanf:"DATA_DIR"`
	RecordsFile   string `koanf:"RECORDS_FILE"`
	BudgetsFile   string `koanf:"BUDGETS_FILE"`
	RecurringFile string `koanf:"RECURRING_FILE"`

	// Backend selection
	DataBackend  string `koanf:"DATA_BACKEND"`
	SQLiteDBPath string `koanf:"SQLITE_DB_PATH"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `koanf:"AMQP_URL"`
	AMQPExchange string `koanf:"AMQP_EXCHANGE"`
	AMQPQueue    string `koanf:"AMQP_QUEUE"`

	// Google Sheets export
	GoogleSpreadsheetID      string `koanf:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `koanf:"GOOGLE_SHEET_NAME"`
	GoogleServiceAccountFile string `koanf:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `koanf:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// Output
	LogLevel   string `koanf:"LOG_LEVEL"`
	LogFormat  string `koanf:"LOG_FORMAT"`
	ChartWidth int    `koanf:"CHART_WIDTH"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		DataDir:         ".",
		RecordsFile:     "records.csv",
		BudgetsFile:     "budgets.json",
		RecurringFile:   "recurring.json",
		DataBackend:     BackendCSV,
		SQLiteDBPath:    "tbudget.db",
		AMQPExchange:    "tbudget",
		AMQPQueue:       "ledger_events",
		GoogleSheetName: "Ledger",
		LogLevel:        "warn",
		LogFormat:       "text",
		ChartWidth:      40,
	}
}

// Load reads a .env file when present, then TBUDGET_-prefixed environment
// variables over the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv reads TBUDGET_-prefixed environment variables over the defaults.
func LoadFromEnv() (*Config, error) {
	k := koanf.New(".")
	provider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(s, EnvPrefix)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return &cfg, nil
}

// RecordsPath resolves the records file against the data directory.
func (c *Config) RecordsPath() string { return c.resolve(c.RecordsFile) }

// BudgetsPath resolves the budgets file against the data directory.
func (c *Config) BudgetsPath() string { return c.resolve(c.BudgetsFile) }

// RecurringPath resolves the templates file against the data directory.
func (c *Config) RecurringPath() string { return c.resolve(c.RecurringFile) }

// SQLitePath resolves the database file against the data directory.
func (c *Config) SQLitePath() string { return c.resolve(c.SQLiteDBPath) }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// AMQPEnabled reports whether events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether spreadsheet export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{BackendCSV, BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendCSV {
		for name, v := range map[string]string{"records": c.RecordsFile, "budgets": c.BudgetsFile, "recurring": c.RecurringFile} {
			if v == "" {
				errors = append(errors, fmt.Sprintf("%s file name cannot be empty when using csv backend", name))
			}
		}
	}
	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err == nil && !info.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory '%s' is not a directory", c.DataDir))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if export is configured
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.ChartWidth < 1 || c.ChartWidth > 200 {
		errors = append(errors, fmt.Sprintf("invalid chart width %d: must be between 1 and 200", c.ChartWidth))
	}

	// Return combined errors
	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
