package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scoreboard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes one probe against cfg.BaseURL and returns its statistics.
// Any failed request or violated invariant is returned as an error; stats are
// filled in either way.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	stats := &Stats{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	log := logger.Get().With(logger.String("runId", stats.RunID))
	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
	}()

	log.Info(ctx, "starting scoreboard probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.Timeout, stats.RunID)

	// Step 1: readiness
	if err := client.getJSON(ctx, cfg.BaseURL+"/readyz", http.StatusOK, nil); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	// Step 2: client config
	var body map[string]json.RawMessage
	if err := client.getJSON(ctx, cfg.BaseURL+"/api/config", http.StatusOK, &body); err != nil {
		return stats, fmt.Errorf("config: %w", err)
	}
	configured, err := VerifyClientConfig(body)
	if err != nil {
		return stats, fmt.Errorf("config: %w", err)
	}
	stats.LiffConfigured = configured

	// Step 3: concurrent listings
	listings := fetchScores(ctx, cfg, client, stats)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d scores requests failed", ErrStatus, stats.Failed, stats.Requests)
	}

	// Step 4: invariants
	for i, l := range listings {
		if err := VerifyListing(l); err != nil {
			return stats, fmt.Errorf("listing %d: %w", i, err)
		}
	}
	reference, mismatched := CompareListings(listings)
	stats.Mismatched = mismatched
	stats.Participants = len(reference)
	stats.TotalScore = totalScore(reference)
	if mismatched > 0 {
		return stats, fmt.Errorf("%w: %d listings differ from the first", ErrVerification, mismatched)
	}

	// Step 5: snapshot
	if cfg.OutputFile != "" {
		if err := saveListing(cfg.OutputFile, reference); err != nil {
			log.Warn(ctx, "failed to save listing", logger.Error(err))
		} else {
			log.Info(ctx, "listing saved", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base url must not be empty", ErrInvalidConfig)
	}
	if c.Requests < 1 {
		return fmt.Errorf("%w: requests must be positive", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// saveListing writes listing as indented JSON.
func saveListing(filename string, listing []Standing) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}
	if err := os.WriteFile(filename, append(b, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var requestsPerSecond float64
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("participants", stats.Participants),
		logger.Int64("totalScore", stats.TotalScore),
		logger.Bool("liffConfigured", stats.LiffConfigured),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
