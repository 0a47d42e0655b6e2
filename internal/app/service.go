// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	repository "github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

const defaultQueryTimeout = 5 * time.Second

// Service implements the API dependencies for the scoreboard.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	ownsStore bool

	// Configuration
	databaseURL       string
	storeOptions      []repository.Option
	liffID            string
	queryTimeout      time.Duration
	concurrentQueries bool

	// State
	started          bool
	served           atomic.Int64
	failed           atomic.Int64
	lastParticipants atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects an already opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDatabaseURL makes Start open a PostgreSQL store for dsn.
func WithDatabaseURL(dsn string, opts ...repository.Option) Option {
	return func(s *Service) {
		s.databaseURL = dsn
		s.storeOptions = append(s.storeOptions, opts...)
	}
}

// WithLiffID sets the public identifier returned by ClientConfig.
func WithLiffID(id string) Option {
	return func(s *Service) {
		s.liffID = id
	}
}

// WithQueryTimeout bounds one Scores call.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithConcurrentQueries runs the participant and total queries in parallel.
func WithConcurrentQueries(enabled bool) Option {
	return func(s *Service) {
		s.concurrentQueries = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queryTimeout:      defaultQueryTimeout,
		concurrentQueries: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store unless one was injected. The database is not required
// to be reachable, and with no store at all the service still starts: Scores
// and Ready then fail while ClientConfig keeps answering.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoreboard service...")

	switch {
	case s.store != nil:
	case s.databaseURL == "":
		s.logger.Warn(ctx, "no database url configured; score requests will fail")
	default:
		opts := append([]repository.Option{repository.WithLogger(s.logger.Named("repository"))}, s.storeOptions...)
		store, err := repository.Open(ctx, s.databaseURL, opts...)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.store = store
		s.ownsStore = true

		if err := store.Ping(ctx); err != nil {
			s.logger.Warn(ctx, "postgres unreachable; score requests will fail until it answers", logger.Error(err))
		} else {
			s.logger.Info(ctx, "connected to postgres")
		}
	}

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.Bool("concurrentQueries", s.concurrentQueries),
		logger.Duration("queryTimeout", s.queryTimeout),
		logger.Bool("liffIdConfigured", s.liffID != ""),
	)

	return nil
}

// Stop releases the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoreboard service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "scoreboard service stopped")
}

func (s *Service) currentStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store, nil
}

// ClientConfig returns the public client configuration. An empty identifier
// is reported as nil.
func (s *Service) ClientConfig(_ context.Context) types.ClientConfig {
	if s.liffID == "" {
		return types.ClientConfig{}
	}
	id := s.liffID
	return types.ClientConfig{LiffID: &id}
}

// Scores fetches participants and their score totals and merges them. Any
// query failure fails the whole call; no partial listing is returned.
func (s *Service) Scores(ctx context.Context) ([]types.Standing, error) {
	const op = "service.scores"

	store, err := s.currentStore()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		participants []model.Participant
		totals       []model.ScoreTotal
	)
	if s.concurrentQueries {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			participants, err = store.Participants(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			totals, err = store.ScoreTotals(gctx)
			return err
		})
		err = g.Wait()
	} else {
		participants, err = store.Participants(ctx)
		if err == nil {
			totals, err = store.ScoreTotals(ctx)
		}
	}
	if err != nil {
		s.failed.Add(1)
		metrics.RecordScoresError()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := scoring.Merge(participants, totals)

	s.served.Add(1)
	s.lastParticipants.Store(int64(len(out)))
	metrics.RecordScoresServed()
	metrics.UpdateParticipantsTotal(len(out))
	metrics.RecordAggregateLatency(float64(time.Since(start).Microseconds()) / 1000)

	return out, nil
}

// Ready reports whether the database answers SELECT NOW().
func (s *Service) Ready(ctx context.Context) error {
	store, err := s.currentStore()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	_, err = store.Now(ctx)
	return err
}

// PoolStats returns connection pool statistics; ok is false without a store.
func (s *Service) PoolStats() (stats sql.DBStats, ok bool) {
	store, err := s.currentStore()
	if err != nil {
		return sql.DBStats{}, false
	}
	return store.Stats(), true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           started,
		"concurrentQueries": s.concurrentQueries,
		"queryTimeoutMs":    s.queryTimeout.Milliseconds(),
		"scoresServed":      s.served.Load(),
		"scoresFailed":      s.failed.Load(),
		"lastParticipants":  s.lastParticipants.Load(),
	}

	if pool, ok := s.PoolStats(); ok {
		stats["dbOpenConnections"] = pool.OpenConnections
		stats["dbInUse"] = pool.InUse
		stats["dbIdle"] = pool.Idle
		stats["dbWaitCount"] = pool.WaitCount
		stats["dbMaxOpenConnections"] = pool.MaxOpenConnections
	}

	return stats
}
