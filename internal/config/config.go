// Package config provides centralized configuration management for the dashboard.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Display  DisplayConfig
	Summary  SummaryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 75s).
	// It must outlast a reload, which is bounded by the fetch timeout.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"75s"`
}

// SourceConfig describes where datasets come from.
type SourceConfig struct {
	// SheetID identifies the spreadsheet (required)
	SheetID string `env:"SHEET_SOURCE_ID" required:"true"`

	// Root is the export host prefix
	Root string `env:"SHEET_SOURCE_ROOT" default:"https://docs.google.com/spreadsheets/d"`

	// DatasetNames are the tabs to load, in tab order (required, comma-separated)
	DatasetNames []string `env:"DATASET_NAMES" required:"true"`

	// FetchTimeout bounds each dataset request (default: 25s)
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" default:"25s"`

	// FetchConcurrency is how many datasets load at once (default: 4)
	FetchConcurrency int `env:"FETCH_CONCURRENCY" default:"4"`

	// AllowInsecureTransport disables certificate verification.
	// Local diagnostics only; never enable in production.
	AllowInsecureTransport bool `env:"ALLOW_INSECURE_TRANSPORT" default:"false"`

	// ReloadInterval enables periodic background reloads (default: 0, off)
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" default:"0s"`
}

// DisplayConfig holds table rendering settings.
type DisplayConfig struct {
	// MaxRows caps the rows shown per table (default: 500)
	MaxRows int `env:"MAX_DISPLAY_ROWS" default:"500"`
}

// SummaryConfig selects the designated dataset and the columns summarized.
type SummaryConfig struct {
	// Dataset is matched case-insensitively against the dataset names
	Dataset string `env:"DESIGNATED_SUMMARY_DATASET" default:"PTC"`

	CategoryColumns []string `env:"SUMMARY_CATEGORY_COLUMNS" default:"CATEGORIA,SNI,PRODEP,PROESDE,NIVEL,DEFINITIVIDAD,EXTERNOS"`
	SumColumn       string   `env:"SUMMARY_SUM_COLUMN"`
	DistinctColumn  string   `env:"SUMMARY_DISTINCT_COLUMN" default:"INSTITUCION"`
	BinaryColumn    string   `env:"SUMMARY_BINARY_COLUMN" default:"SNI"`
	Affirmative     string   `env:"SUMMARY_AFFIRMATIVE" default:"SI"`
	Negative        string   `env:"SUMMARY_NEGATIVE" default:"NO"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ReloadLimit is reload triggers per minute per IP (default: 6)
	ReloadLimit int `env:"RATE_LIMIT_RELOAD" default:"6"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
