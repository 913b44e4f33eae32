// Package config provides centralized configuration management for the application.
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
	Database DatabaseConfig
	Export   ExportConfig
	Parse    ParseConfig
	Mappings MappingsConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// DatabaseConfig holds PostgreSQL connection settings. The PostgreSQL sink
// is only available when URL is set.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 8)
	MaxConns int `env:"DB_MAX_CONNS" default:"8"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	// Workers is the number of filings exported in parallel (default: 4)
	Workers int `env:"EXPORT_WORKERS" default:"4"`

	// BatchSize is the number of rows sent per PostgreSQL batch (default: 1000)
	BatchSize int `env:"EXPORT_BATCH_SIZE" default:"1000"`

	// SQLitePath is the default SQLite database for exports (default: fec.db)
	SQLitePath string `env:"SQLITE_PATH" default:"fec.db"`
}

// ParseConfig holds limits for filings parsed by the HTTP server.
type ParseConfig struct {
	// MaxConcurrent is the maximum number of filings parsed at once (default: 4)
	MaxConcurrent int `env:"PARSE_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a parse slot (default: 30s)
	MaxWaitTime time.Duration `env:"PARSE_MAX_WAIT_TIME" default:"30s"`

	// MaxFileSize is the largest accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"PARSE_MAX_FILE_SIZE" default:"104857600"`
}

// MappingsConfig selects the column mapping table.
type MappingsConfig struct {
	// File replaces the built-in mapping table when set
	File string `env:"FEC_MAPPINGS_FILE"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
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
