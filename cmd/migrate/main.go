// Package main runs goose migrations against the control plane's
// database, independent of the server process (spec.md §6's
// "database schema migration" is an external collaborator; this is the
// thin runner that invokes it).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"kv-shepherd.io/shepherd/internal/config"
	"kv-shepherd.io/shepherd/internal/pkg/logger"
	"kv-shepherd.io/shepherd/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	down := flag.Bool("down", false, "roll back the most recently applied migration instead of applying pending ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if *down {
		logger.Info("rolling back last migration")
		if err := store.MigrateDown(ctx, pool); err != nil {
			return err
		}
		logger.Info("rollback complete")
		return nil
	}

	logger.Info("applying pending migrations")
	if err := store.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("migrations applied", zap.String("database", cfg.Database.Database))
	return nil
}
