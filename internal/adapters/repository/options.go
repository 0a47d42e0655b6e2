package repository

import (
	"time"

	"github.com/okian/scoreboard/pkg/logger"
)

// Default pool settings.
const (
	defaultConnectTimeout  = 5 * time.Second
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultSSLMode         = "require"
)

// Option applies a configuration option to the PostgresStore.
type Option func(*PostgresStore)

// WithConnectTimeout bounds how long acquiring a new connection may take.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *PostgresStore) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithMaxOpenConns caps the pool size.
func WithMaxOpenConns(n int) Option {
	return func(s *PostgresStore) {
		if n >= 0 {
			s.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns caps idle connections kept in the pool.
func WithMaxIdleConns(n int) Option {
	return func(s *PostgresStore) {
		if n >= 0 {
			s.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime recycles connections older than d.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *PostgresStore) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}

// WithSSLMode sets the sslmode applied when the DSN has none. Empty leaves the DSN untouched.
func WithSSLMode(mode string) Option {
	return func(s *PostgresStore) {
		s.sslMode = mode
	}
}

// WithLogger sets the logger used for query failures.
func WithLogger(l logger.Logger) Option {
	return func(s *PostgresStore) {
		if l != nil {
			s.logger = l
		}
	}
}
