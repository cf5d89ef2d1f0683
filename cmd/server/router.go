package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/streakr/streakr-api/internal/api"
	apiMiddleware "github.com/streakr/streakr-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	queueHandler := api.NewQueueHandler(
		app.processor,
		app.enqueuer,
		app.taskStore,
		api.QueueHandlerConfig{
			DefaultBatchLimit: app.config.Queue.DefaultBatchLimit,
			RetentionDays:     app.config.Queue.RetentionDays,
			StuckAfter:        time.Duration(app.config.Queue.StuckAfterMinutes) * time.Minute,
		},
		app.logger.With("component", "queue_handler"),
	)

	triggerAuth := apiMiddleware.NewTriggerAuthMiddleware(app.config.Sync.SharedSecret)

	// Queue triggers, called by scheduler infrastructure with the shared secret.
	r.Route("/queue", func(r chi.Router) {
		r.Use(triggerAuth.Authenticate)
		r.Post("/process", queueHandler.ProcessTasks)
		r.Post("/enqueue", queueHandler.EnqueueUserSync)
		r.Post("/enqueue-all", queueHandler.EnqueueAllUsersSync)
		r.Post("/cleanup", queueHandler.CleanupTasks)
		r.Post("/reclaim", queueHandler.ReclaimTasks)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
