// Package common provides shared utilities for Folio
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/arjunmehra/folio/internal/models"
)

// Config holds all configuration for Folio
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Clients     ClientsConfig  `toml:"clients"`
	Cache       CacheConfig    `toml:"cache"`
	Logging     LoggingConfig  `toml:"logging"`
	Holdings    HoldingsConfig `toml:"holdings"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo  YahooConfig  `toml:"yahoo"`
	Google GoogleConfig `toml:"google"`
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"`
	Retries   int    `toml:"retries"`
	BatchSize int    `toml:"batch_size"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GoogleConfig holds Google Finance quote page configuration
type GoogleConfig struct {
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"`
}

// GetTimeout parses and returns the timeout duration
func (c *GoogleConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// CacheConfig holds quote cache TTL configuration. Durations are strings
// parsed with time.ParseDuration ("120s", "5m", ...).
type CacheConfig struct {
	DefaultTTL    string `toml:"default_ttl"`    // per-symbol entries without an explicit TTL
	SymbolTTL     string `toml:"symbol_ttl"`     // per-symbol price entries
	SnapshotTTL   string `toml:"snapshot_ttl"`   // whole-portfolio snapshot
	SweepInterval string `toml:"sweep_interval"` // janitor sweep period
}

// GetDefaultTTL parses the default TTL, falling back to 5 minutes.
func (c *CacheConfig) GetDefaultTTL() time.Duration {
	return parseDurationOr(c.DefaultTTL, 5*time.Minute)
}

// GetSymbolTTL parses the per-symbol TTL, falling back to 5 minutes.
func (c *CacheConfig) GetSymbolTTL() time.Duration {
	return parseDurationOr(c.SymbolTTL, 5*time.Minute)
}

// GetSnapshotTTL parses the snapshot TTL, falling back to 2 minutes.
func (c *CacheConfig) GetSnapshotTTL() time.Duration {
	return parseDurationOr(c.SnapshotTTL, 2*time.Minute)
}

// GetSweepInterval parses the sweep interval, falling back to 1 minute.
func (c *CacheConfig) GetSweepInterval() time.Duration {
	return parseDurationOr(c.SweepInterval, time.Minute)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// HoldingsConfig points at the static holdings input. Entries may be listed
// inline under [[holdings.stocks]] or loaded from a separate TOML file; inline
// entries take precedence when both are present.
type HoldingsConfig struct {
	File   string           `toml:"file"`
	Stocks []models.Holding `toml:"stocks"`
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
				Timeout:   "10s",
				RateLimit: 10,
				Retries:   2,
				BatchSize: 5,
			},
			Google: GoogleConfig{
				BaseURL:   "https://www.google.com/finance",
				Timeout:   "10s",
				RateLimit: 5,
			},
		},
		Cache: CacheConfig{
			DefaultTTL:    "5m",
			SymbolTTL:     "5m",
			SnapshotTTL:   "2m",
			SweepInterval: "1m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FOLIO_HOLDINGS"); path != "" {
		config.Holdings.File = path
	}

	if base := os.Getenv("FOLIO_YAHOO_BASE_URL"); base != "" {
		config.Clients.Yahoo.BaseURL = base
	}

	if base := os.Getenv("FOLIO_GOOGLE_BASE_URL"); base != "" {
		config.Clients.Google.BaseURL = base
	}
}
