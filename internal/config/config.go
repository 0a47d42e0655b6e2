// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, .env, an optional YAML file and environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// Port, when set, overrides Addr as ":<port>".
	Port string `koanf:"port"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `koanf:"database_url"`

	// LiffID is the public identifier returned by GET /api/config.
	LiffID string `koanf:"liff_id"`

	// DBSSLMode is appended to DatabaseURL when it carries no sslmode of its own.
	DBSSLMode string `koanf:"db_ssl_mode"`

	// DBConnectTimeoutMS bounds connection acquisition.
	DBConnectTimeoutMS int `koanf:"db_connect_timeout_ms"`

	// DBMaxOpenConns and DBMaxIdleConns size the connection pool.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`
	DBMaxIdleConns int `koanf:"db_max_idle_conns"`

	// DBConnMaxLifetimeMS recycles pooled connections.
	DBConnMaxLifetimeMS int `koanf:"db_conn_max_lifetime_ms"`

	// QueryTimeoutMS bounds one score aggregation, both queries included.
	QueryTimeoutMS int `koanf:"query_timeout_ms"`

	// ConcurrentQueries issues the participant and total queries in parallel.
	ConcurrentQueries bool `koanf:"concurrent_queries"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// MetricsEnabled turns metric recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace, MetricsSubsystem and MetricsPrefix shape metric names
	// as <namespace>_<subsystem>_<prefix>_<name>.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsRefreshMS is how often pool and runtime gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	// MetricsBuckets overrides the latency histogram buckets (YAML only).
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels added to every metric (YAML only).
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":3000",
		DBSSLMode:           "require",
		DBConnectTimeoutMS:  5000,
		DBMaxOpenConns:      10,
		DBMaxIdleConns:      5,
		DBConnMaxLifetimeMS: 300_000,
		QueryTimeoutMS:      5000,
		ConcurrentQueries:   true,
		CORSAllowedOrigins:  []string{"*"},
		MetricsEnabled:      true,
		MetricsNamespace:    "scoreboard",
		MetricsSubsystem:    "api",
		MetricsRefreshMS:    10_000,
	}
}

// ListenAddr returns the effective listen address.
func (c *Config) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return c.Addr
}

// DBConnectTimeout returns DBConnectTimeoutMS as a duration.
func (c *Config) DBConnectTimeout() time.Duration {
	return time.Duration(c.DBConnectTimeoutMS) * time.Millisecond
}

// DBConnMaxLifetime returns DBConnMaxLifetimeMS as a duration.
func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMS) * time.Millisecond
}

// QueryTimeout returns QueryTimeoutMS as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate checks the fields the service cannot start without. An empty
// database_url is allowed: the service then starts and fails score requests.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr() == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBConnectTimeoutMS <= 0:
		return fmt.Errorf("%w: db_connect_timeout_ms must be positive", ErrInvalidConfig)
	case c.QueryTimeoutMS <= 0:
		return fmt.Errorf("%w: query_timeout_ms must be positive", ErrInvalidConfig)
	case c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0:
		return fmt.Errorf("%w: pool sizes must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

// RequireDatabase reports ErrInvalidConfig when no database url is set.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: database_url must not be empty", ErrInvalidConfig)
	}
	return nil
}
