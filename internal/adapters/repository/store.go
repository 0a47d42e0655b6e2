// Package repository reads participants and score totals from PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Store provides read access to the externally owned scoreboard tables.
type Store interface {
	// Participants returns every participant ordered by id ascending.
	Participants(ctx context.Context) ([]model.Participant, error)

	// ScoreTotals returns SUM(score) of hourly_scores per participant.
	// Participants without rows are absent from the result.
	ScoreTotals(ctx context.Context) ([]model.ScoreTotal, error)

	// Now runs SELECT NOW() and returns the database clock.
	Now(ctx context.Context) (time.Time, error)

	// Stats reports connection pool statistics.
	Stats() sql.DBStats

	// Close releases the pool.
	Close() error
}
