package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "WEBLOG_"

// Config holds all configuration for the application
type Config struct {
	// Observability
	LogLevel        string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFile         string `koanf:"log_file"`
	TracingEnabled  bool   `koanf:"tracing_enabled"`
	TracingProtocol string `koanf:"tracing_protocol" validate:"oneof=grpc http"`
	TracingEndpoint string `koanf:"tracing_endpoint"`

	// Report
	OutputFormat     string `koanf:"output_format" validate:"oneof=text json yaml"`
	PercentPrecision int    `koanf:"percent_precision" validate:"min=0,max=12"`

	// Summary cache (BoltDB file); empty disables caching
	CachePath string `koanf:"cache_path"`

	// ClickHouse export; empty host disables it
	ClickHouseHost     string `koanf:"clickhouse_host"`
	ClickHousePort     int    `koanf:"clickhouse_port" validate:"min=1,max=65535"`
	ClickHouseDB       string `koanf:"clickhouse_db"`
	ClickHouseUser     string `koanf:"clickhouse_user"`
	ClickHousePassword string `koanf:"clickhouse_password"`
	ClickHouseTable    string `koanf:"clickhouse_table"`

	RetryMaxAttempts int `koanf:"retry_max_attempts" validate:"min=1,max=20"`
}

// Default returns configuration with every default applied
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		TracingProtocol:  "grpc",
		OutputFormat:     "text",
		PercentPrecision: 2,
		ClickHousePort:   9000,
		ClickHouseDB:     "default",
		ClickHouseUser:   "default",
		ClickHouseTable:  "access_log_runs",
		RetryMaxAttempts: 3,
	}
}

// Load loads configuration from a .env file (if present) and WEBLOG_* environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from WEBLOG_* environment variables only
func LoadFromEnv() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	cfg.TracingProtocol = strings.ToLower(cfg.TracingProtocol)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.ClickHouseEnabled() {
		if c.ClickHouseDB == "" {
			return fmt.Errorf("%sCLICKHOUSE_DB is required when %sCLICKHOUSE_HOST is set", EnvPrefix, EnvPrefix)
		}
		if c.ClickHouseTable == "" {
			return fmt.Errorf("%sCLICKHOUSE_TABLE is required when %sCLICKHOUSE_HOST is set", EnvPrefix, EnvPrefix)
		}
	}
	return nil
}

// ClickHouseEnabled reports whether run export is configured
func (c *Config) ClickHouseEnabled() bool {
	return c.ClickHouseHost != ""
}

// CacheEnabled reports whether the summary cache is configured
func (c *Config) CacheEnabled() bool {
	return c.CachePath != ""
}

