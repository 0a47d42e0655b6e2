// Command dbcheck connects to the configured database and prints its clock.
package main

import (
	"context"
	"os"
	"time"

	repository "github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(context.Background()); err != nil {
		logger.Get().Error(context.Background(), "database check failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if err := logger.InitWithOptions(cfg.LogFormat, os.Stdout); err != nil {
		return err
	}
	log := logger.Named("dbcheck")

	now, err := check(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info(ctx, "connected to postgres", logger.String("now", now.Format(time.RFC3339Nano)))
	return nil
}

// check opens a pool with the configured settings and runs SELECT NOW().
func check(ctx context.Context, cfg *config.Config, log logger.Logger) (time.Time, error) {
	store, err := repository.Open(ctx, cfg.DatabaseURL,
		repository.WithSSLMode(cfg.DBSSLMode),
		repository.WithConnectTimeout(cfg.DBConnectTimeout()),
		repository.WithMaxOpenConns(1),
		repository.WithMaxIdleConns(1),
		repository.WithLogger(log),
	)
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout())
	defer cancel()
	return store.Now(ctx)
}
