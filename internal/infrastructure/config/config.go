// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	ledgerPath := cfg.Output.LedgerPath()
//	apiKey := cfg.OpenAI.APIKey
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Sources       SourcesConfig       `yaml:"sources"`
	Output        OutputConfig        `yaml:"output"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SourceConfig locates one document source: the input folder, the filename
// prefix of `<prefix>_<YYYYMMDD>.<ext>` and the allowed extension.
type SourceConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	Ext    string `yaml:"ext"`
}

// FilenamePattern renders the expected filename for a date, e.g.
// "charges_20250408.csv".
func (s SourceConfig) FilenamePattern(date string) string {
	return fmt.Sprintf("%s_%s%s", s.Prefix, date, s.Ext)
}

// SourcesConfig holds the six per-source input locations.
type SourcesConfig struct {
	TicketOffice       SourceConfig `yaml:"ticket_office"`
	SaleItemsMoP       SourceConfig `yaml:"saleitemsmop"`
	Charges            SourceConfig `yaml:"charges"`
	KlarnaDailyTakings SourceConfig `yaml:"klarna_dailytakings"`
	KlarnaSeasonEvent  SourceConfig `yaml:"klarna_seasoneventmop"`
	Membership         SourceConfig `yaml:"membership"`
}

// OutputConfig holds the output root; everything the pipeline writes lives
// under Dir.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SummaryPath returns the path of a per-source summary table.
func (o OutputConfig) SummaryPath(name string) string {
	return filepath.Join(o.Dir, name+"_summary.csv")
}

// SeasonEventsDir returns the folder of per-date season/event tables.
func (o OutputConfig) SeasonEventsDir() string {
	return filepath.Join(o.Dir, "season_events")
}

// ChargesValuesDir returns the folder of per-date charge-total tables.
func (o OutputConfig) ChargesValuesDir() string {
	return filepath.Join(o.Dir, "charges_values")
}

// PostalChargesDir returns the folder of per-date postal-charge tables.
func (o OutputConfig) PostalChargesDir() string {
	return filepath.Join(o.Dir, "charges_postal")
}

// LedgerPath returns the combined per-date ledger file.
func (o OutputConfig) LedgerPath() string {
	return filepath.Join(o.Dir, "aggregate_data.csv")
}

// ReportsDir returns the root folder for per-date report exports.
func (o OutputConfig) ReportsDir() string {
	return filepath.Join(o.Dir, "reports")
}

// OpenAIConfig holds similarity-provider settings. An empty APIKey is a
// recognized state: the matching pass is skipped, not aborted.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// StorageConfig holds the sqlite database used for the embedding cache and
// run records.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${OPENAI_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	inputRoot := getEnv("TKTS_INPUT_ROOT", "inputs")
	return &Config{
		Sources: SourcesConfig{
			TicketOffice:       SourceConfig{Dir: filepath.Join(inputRoot, "ticketoffice"), Prefix: "ticketoffice", Ext: ".csv"},
			SaleItemsMoP:       SourceConfig{Dir: filepath.Join(inputRoot, "saleitemsmop"), Prefix: "saleitemsmop", Ext: ".csv"},
			Charges:            SourceConfig{Dir: filepath.Join(inputRoot, "charges"), Prefix: "charges", Ext: ".csv"},
			KlarnaDailyTakings: SourceConfig{Dir: filepath.Join(inputRoot, "klarna_dailytakings"), Prefix: "klarna_dailytakings", Ext: ".csv"},
			KlarnaSeasonEvent:  SourceConfig{Dir: filepath.Join(inputRoot, "klarna_seasoneventmop"), Prefix: "klarna_seasoneventmop", Ext: ".csv"},
			Membership:         SourceConfig{Dir: filepath.Join(inputRoot, "membership"), Prefix: "membershipdailydetailedtotalonly", Ext: ".csv"},
		},
		Output: OutputConfig{
			Dir: getEnv("TKTS_OUTPUT_DIR", "outputs"),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", "text-embedding-3-small"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("TKTS_DB_PATH", "tktsrecon.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment
// variables.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables.
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills in anything a partial YAML file left out.
func (c *Config) applyDefaults() {
	env := LoadFromEnv()
	fillSource(&c.Sources.TicketOffice, env.Sources.TicketOffice)
	fillSource(&c.Sources.SaleItemsMoP, env.Sources.SaleItemsMoP)
	fillSource(&c.Sources.Charges, env.Sources.Charges)
	fillSource(&c.Sources.KlarnaDailyTakings, env.Sources.KlarnaDailyTakings)
	fillSource(&c.Sources.KlarnaSeasonEvent, env.Sources.KlarnaSeasonEvent)
	fillSource(&c.Sources.Membership, env.Sources.Membership)
	if c.Output.Dir == "" {
		c.Output.Dir = env.Output.Dir
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = env.OpenAI.APIKey
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = env.OpenAI.Model
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = env.Storage.DatabasePath
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = env.Observability.Logging.Level
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = env.Observability.Logging.Format
	}
}

func fillSource(dst *SourceConfig, fallback SourceConfig) {
	if dst.Dir == "" {
		dst.Dir = fallback.Dir
	}
	if dst.Prefix == "" {
		dst.Prefix = fallback.Prefix
	}
	if dst.Ext == "" {
		dst.Ext = fallback.Ext
	}
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
