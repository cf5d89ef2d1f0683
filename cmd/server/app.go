package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/streakr/streakr-api/internal/config"
	"github.com/streakr/streakr-api/internal/platform/postgres"
	"github.com/streakr/streakr-api/internal/store"
	"github.com/streakr/streakr-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore task.Store
	userStore store.UserStore

	syncClient *task.SyncClient
	processor  *task.Processor
	enqueuer   *task.Enqueuer
}

// newApplication creates a new application instance with all dependencies
// initialized. Configuration problems (missing sync secret, bad base URL)
// surface here, before the server ever accepts a trigger.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewTaskStore(db)
	app.userStore = postgres.NewUserStore(db)

	syncClient, err := task.NewSyncClient(task.SyncClientConfig{
		BaseURL:      cfg.Sync.BaseURL,
		SharedSecret: cfg.Sync.SharedSecret,
		Timeout:      time.Duration(cfg.Sync.TimeoutSeconds) * time.Second,
	}, logger.With("component", "sync_client"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sync client: %w", err)
	}
	app.syncClient = syncClient

	app.processor = task.NewProcessor(
		app.taskStore,
		app.syncClient,
		logger.With("component", "processor"),
	)
	app.enqueuer = task.NewEnqueuer(
		app.taskStore,
		app.userStore,
		logger.With("component", "enqueuer"),
	)

	logger.Info("application initialized",
		"sync_base_url", cfg.Sync.BaseURL,
		"default_batch_limit", cfg.Queue.DefaultBatchLimit,
		"retention_days", cfg.Queue.RetentionDays)

	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
