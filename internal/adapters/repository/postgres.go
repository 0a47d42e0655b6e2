package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// Query names used for metrics and logs.
const (
	queryParticipants = "participants"
	queryScoreTotals  = "score_totals"
	queryNow          = "now"
)

const (
	participantsSQL = `SELECT id, name, party, district_num FROM participants ORDER BY id`
	scoreTotalsSQL  = `SELECT participant_id, SUM(score) AS total_score FROM hourly_scores GROUP BY participant_id`
	nowSQL          = `SELECT NOW()`
)

// Compile-time contract assertion.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store over a pooled *sql.DB backed by pgx.
type PostgresStore struct {
	db *sql.DB

	connectTimeout  time.Duration
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	sslMode         string

	logger logger.Logger
}

func newStore(opts ...Option) *PostgresStore {
	s := &PostgresStore{
		connectTimeout:  defaultConnectTimeout,
		maxOpenConns:    defaultMaxOpenConns,
		maxIdleConns:    defaultMaxIdleConns,
		connMaxLifetime: defaultConnMaxLifetime,
		sslMode:         defaultSSLMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPostgresStore wraps an existing pool. Pool sizing options are applied to db.
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	s := newStore(opts...)
	s.db = db
	s.configurePool()
	return s
}

// Open parses dsn and opens a pgx-backed pool. No connection is made until the
// first query, so an unreachable database fails queries rather than Open.
func Open(_ context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	s := newStore(opts...)

	cfg, err := pgx.ParseConfig(WithSSLModeDSN(dsn, s.sslMode))
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %w", ErrOpen, err)
	}
	cfg.ConnectTimeout = s.connectTimeout

	s.db = stdlib.OpenDB(*cfg)
	s.configurePool()
	return s, nil
}

// Ping checks connectivity, bounded by the connect timeout.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) configurePool() {
	s.db.SetMaxOpenConns(s.maxOpenConns)
	s.db.SetMaxIdleConns(s.maxIdleConns)
	s.db.SetConnMaxLifetime(s.connMaxLifetime)
}

// Participants returns every participant ordered by id ascending.
// NULL text columns read as "" and a NULL district as 0.
func (s *PostgresStore) Participants(ctx context.Context) ([]model.Participant, error) {
	start := time.Now()
	defer s.observe(queryParticipants, start)

	rows, err := s.db.QueryContext(ctx, participantsSQL)
	if err != nil {
		return nil, s.fail(ctx, queryParticipants, err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var (
			p        model.Participant
			name     sql.NullString
			party    sql.NullString
			district sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &name, &party, &district); err != nil {
			return nil, s.fail(ctx, queryParticipants, fmt.Errorf("%w: %w", ErrScan, err))
		}
		p.Name = name.String
		p.Party = party.String
		p.DistrictNum = district.Int64
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, queryParticipants, err)
	}
	return out, nil
}

// ScoreTotals returns the summed score per participant. The raw SUM value is
// coerced with scoring.CoerceTotal; rows with a NULL participant are skipped.
func (s *PostgresStore) ScoreTotals(ctx context.Context) ([]model.ScoreTotal, error) {
	start := time.Now()
	defer s.observe(queryScoreTotals, start)

	rows, err := s.db.QueryContext(ctx, scoreTotalsSQL)
	if err != nil {
		return nil, s.fail(ctx, queryScoreTotals, err)
	}
	defer rows.Close()

	var out []model.ScoreTotal
	for rows.Next() {
		var (
			id    sql.NullInt64
			total any
		)
		if err := rows.Scan(&id, &total); err != nil {
			return nil, s.fail(ctx, queryScoreTotals, fmt.Errorf("%w: %w", ErrScan, err))
		}
		if !id.Valid {
			continue
		}
		out = append(out, model.ScoreTotal{ParticipantID: id.Int64, Total: scoring.CoerceTotal(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, queryScoreTotals, err)
	}
	return out, nil
}

// Now returns the database clock.
func (s *PostgresStore) Now(ctx context.Context) (time.Time, error) {
	start := time.Now()
	defer s.observe(queryNow, start)

	var now time.Time
	if err := s.db.QueryRowContext(ctx, nowSQL).Scan(&now); err != nil {
		return time.Time{}, s.fail(ctx, queryNow, err)
	}
	return now, nil
}

// Stats reports connection pool statistics.
func (s *PostgresStore) Stats() sql.DBStats {
	return s.db.Stats()
}

// DB exposes the underlying pool.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) observe(query string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(query, float64(time.Since(start).Microseconds())/1000)
}

// fail classifies err, records it and returns it wrapped in a sentinel kind.
func (s *PostgresStore) fail(ctx context.Context, query string, err error) error {
	kind := classify(err)
	metrics.RecordRepositoryQueryError(query)
	metrics.RecordErrorByComponent("repository", errorType(kind))
	if s.logger != nil {
		s.logger.Error(ctx, "query failed", logger.String("query", query), logger.Error(err))
	}
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", query, err)
	}
	return fmt.Errorf("%s: %w: %w", query, kind, err)
}

func classify(err error) error {
	var connErr *pgconn.ConnectError
	switch {
	case errors.Is(err, ErrScan):
		return ErrScan
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &connErr),
		pgconn.Timeout(err):
		return ErrUnavailable
	default:
		return ErrQuery
	}
}

func errorType(kind error) string {
	switch kind {
	case ErrUnavailable:
		return "unavailable"
	case ErrScan:
		return "scan_failed"
	default:
		return "query_failed"
	}
}

// WithSSLModeDSN appends sslmode=mode to dsn unless it already names one.
// Both URL and keyword/value DSNs are supported.
func WithSSLModeDSN(dsn, mode string) string {
	if mode == "" || dsn == "" {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		if q.Get("sslmode") != "" {
			return dsn
		}
		q.Set("sslmode", mode)
		u.RawQuery = q.Encode()
		return u.String()
	}
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	return strings.TrimSpace(dsn) + " sslmode=" + mode
}
