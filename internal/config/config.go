// Package config loads the clinic directory's settings from environment
// variables, applying defaults and validating everything up front so a bad
// deployment fails at startup instead of on the first request.
//
// The Airtable credentials are deliberately not required here: a missing or
// wrong key surfaces as an upstream 401/404 when the relay runs.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Airtable AirtableConfig
	Source   SourceConfig
	Cache    CacheConfig
	Finder   FinderConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on. PORT is honoured for hosting platforms
	// that inject it (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a whole request, including every upstream page
	// fetched while serving it (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// AirtableConfig identifies the upstream table and carries the credential.
type AirtableConfig struct {
	APIKey    string `env:"AIRTABLE_API_KEY"`
	BaseID    string `env:"AIRTABLE_BASE_ID"`
	TableName string `env:"AIRTABLE_TABLE_NAME"`
	ViewName  string `env:"AIRTABLE_VIEW_NAME"`

	// APIURL is the scheme and host of the Airtable REST API.
	APIURL string `env:"AIRTABLE_API_URL" default:"https://api.airtable.com"`

	// Timeout applies to each page request (default: 10s)
	Timeout time.Duration `env:"AIRTABLE_TIMEOUT" default:"10s"`

	// PageSize is sent as pageSize when positive; 0 leaves the upstream default.
	PageSize int `env:"AIRTABLE_PAGE_SIZE" default:"0"`
}

// Source kinds.
const (
	SourceAirtable = "airtable"
	SourceSheet    = "sheet"
)

// SourceConfig selects where clinic rows come from.
type SourceConfig struct {
	// Kind is "airtable" or "sheet" (default: airtable)
	Kind string `env:"CLINIC_SOURCE" default:"airtable"`

	// SheetCSVURL is a published spreadsheet CSV export, used when Kind is "sheet".
	SheetCSVURL string `env:"SHEET_CSV_URL"`

	// MaxConcurrentFetches bounds full upstream walks in flight at once (default: 2)
	MaxConcurrentFetches int `env:"RELAY_MAX_CONCURRENT_FETCHES" default:"2"`

	// FetchWait is how long a request waits for a fetch slot (default: 20s)
	FetchWait time.Duration `env:"RELAY_FETCH_WAIT" default:"20s"`
}

// CacheConfig holds the optional relay snapshot cache settings.
type CacheConfig struct {
	// RedisAddr enables the cache when set together with a positive TTL.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" default:"0"`
	TTL           time.Duration `env:"RELAY_CACHE_TTL" default:"0s"`

	// RefreshInterval rewarms the snapshot in the background when positive
	// and the cache is enabled (default: 0s, off)
	RefreshInterval time.Duration `env:"RELAY_CACHE_REFRESH" default:"0s"`
}

// Enabled reports whether the relay should cache snapshots.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != "" && c.TTL > 0
}

// FinderConfig holds clinic search defaults.
type FinderConfig struct {
	// DefaultRadiusMiles applies when a zip search has no radius (default: 25)
	DefaultRadiusMiles float64 `env:"FINDER_DEFAULT_RADIUS_MILES" default:"25"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// CORSAllowedOrigins applies to /api routes (default: *)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// MetricsAPIKeys guards /metrics when non-empty.
	MetricsAPIKeys []string `env:"METRICS_API_KEYS"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
