// Package main implements the entry point for the Streakr sync queue server,
// which schedules and executes per-user, per-platform activity sync tasks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/streakr/streakr-api/internal/config"
	"github.com/streakr/streakr-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run database migrations instead of serving: up, down, or status")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

// run loads configuration, wires the application, and either runs migrations
// or serves until shutdown.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if migrateCmd != "" {
		defer func() {
			if err := db.Close(); err != nil {
				appLogger.Error("error closing database connection", "error", err)
			}
		}()
		return runMigrations(db, migrateCmd, appLogger)
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		// newApplication may have partially initialized; the db is the only
		// resource opened so far.
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("error closing database connection", "error", closeErr)
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := context.Background()
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
