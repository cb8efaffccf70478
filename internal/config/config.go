// Package config handles configuration loading for edgarlens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Edgar   EdgarConfig   `mapstructure:"edgar"   yaml:"edgar"`
	Index   IndexConfig   `mapstructure:"index"   yaml:"index"`
	Enrich  EnrichConfig  `mapstructure:"enrich"  yaml:"enrich"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// EdgarConfig holds upstream EDGAR connection settings.
type EdgarConfig struct {
	// UserAgent identifies this client to EDGAR. SEC requires identifiable
	// traffic with a contact address; empty falls back to the built-in default.
	UserAgent      string `mapstructure:"user_agent"       yaml:"user_agent"`
	BaseURL        string `mapstructure:"base_url"         yaml:"base_url"`         // reference documents host
	DataBaseURL    string `mapstructure:"data_base_url"    yaml:"data_base_url"`    // submissions API host
	ArchiveBaseURL string `mapstructure:"archive_base_url" yaml:"archive_base_url"` // filing archive host
	RateLimit      int    `mapstructure:"rate_limit"       yaml:"rate_limit"`       // requests per second
}

// IndexConfig holds reference index cache settings.
type IndexConfig struct {
	CacheTTL int `mapstructure:"cache_ttl" yaml:"cache_ttl"` // seconds
}

// EnrichConfig holds filing enrichment settings.
type EnrichConfig struct {
	Concurrency int `mapstructure:"concurrency"  yaml:"concurrency"` // parallel document fetches
	FilingLimit int `mapstructure:"filing_limit" yaml:"filing_limit"`
}

// StoreConfig holds the optional external key-value tier settings.
type StoreConfig struct {
	Enabled  bool   `mapstructure:"enabled"   yaml:"enabled"`
	Path     string `mapstructure:"path"      yaml:"path"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.edgarlens/config.yaml (home directory)
//  3. /etc/edgarlens/config.yaml (system)
//
// Environment variables override config file values.
// Format: EDGARLENS_<SECTION>_<KEY>, e.g., EDGARLENS_EDGAR_USER_AGENT
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".edgarlens"))
	v.AddConfigPath("/etc/edgarlens")

	v.SetEnvPrefix("EDGARLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("EDGARLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// EDGAR defaults. Base URLs empty = production hosts.
	v.SetDefault("edgar.user_agent", "")
	v.SetDefault("edgar.base_url", "")
	v.SetDefault("edgar.data_base_url", "")
	v.SetDefault("edgar.archive_base_url", "")
	v.SetDefault("edgar.rate_limit", 10) // SEC allows 10 req/s

	// Index defaults
	v.SetDefault("index.cache_ttl", 3600) // 1 hour

	// Enrichment defaults
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.filing_limit", 40)

	// Store defaults: external tier off unless configured
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", filepath.Join(homeDir(), ".edgarlens", "store"))
	v.SetDefault("store.in_memory", false)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
