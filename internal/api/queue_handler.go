package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/streakr/streakr-api/internal/api/shared"
	"github.com/streakr/streakr-api/internal/task"
)

// BatchProcessor is the slice of the queue processor the handler needs.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, limit int) (int, error)
}

// SyncEnqueuer is the slice of the enqueuer the handler needs.
type SyncEnqueuer interface {
	EnqueueUserSync(ctx context.Context, userID uuid.UUID, platforms []task.Platform, syncDate time.Time, priority int) (int, error)
	EnqueueAllUsersSync(ctx context.Context, platforms []task.Platform, syncDate time.Time, priority int) (int, error)
}

// QueueMaintainer covers the maintenance operations exposed as triggers.
type QueueMaintainer interface {
	DeleteTerminal(ctx context.Context, olderThan time.Duration) (int, error)
	ReclaimStuck(ctx context.Context, olderThan time.Duration) (int, error)
}

// QueueHandlerConfig carries the defaults applied when a trigger request
// omits its optional fields.
type QueueHandlerConfig struct {
	DefaultBatchLimit int
	RetentionDays     int
	StuckAfter        time.Duration
}

// QueueHandler exposes the queue's trigger endpoints: batch processing,
// enqueueing, garbage collection, and stale-claim reclaim. Each endpoint is
// invoked by external scheduler infrastructure, not end users.
type QueueHandler struct {
	processor BatchProcessor
	enqueuer  SyncEnqueuer
	maint     QueueMaintainer
	config    QueueHandlerConfig
	logger    *slog.Logger
}

// NewQueueHandler creates a QueueHandler with the given dependencies.
func NewQueueHandler(
	processor BatchProcessor,
	enqueuer SyncEnqueuer,
	maint QueueMaintainer,
	config QueueHandlerConfig,
	logger *slog.Logger,
) *QueueHandler {
	return &QueueHandler{
		processor: processor,
		enqueuer:  enqueuer,
		maint:     maint,
		config:    config,
		logger:    logger,
	}
}

// ProcessTasks handles POST /queue/process requests.
// Individual task failures are recorded on their rows by the retry policy
// and never reach this response; only infrastructure errors surface here.
func (h *QueueHandler) ProcessTasks(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.config.DefaultBatchLimit
	}

	processed, err := h.processor.ProcessBatch(r.Context(), limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProcessResponse{Processed: processed})
}

// EnqueueUserSync handles POST /queue/enqueue requests.
func (h *QueueHandler) EnqueueUserSync(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	platforms, syncDate, priority, err := resolveEnqueueFields(req.Platforms, req.Date, req.Priority)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inserted, err := h.enqueuer.EnqueueUserSync(r.Context(), userID, platforms, syncDate, priority)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueResponse{Enqueued: inserted})
}

// EnqueueAllUsersSync handles POST /queue/enqueue-all requests.
// This fans out over every registered user and belongs on a low-frequency
// schedule (e.g. daily), not in any request path.
func (h *QueueHandler) EnqueueAllUsersSync(w http.ResponseWriter, r *http.Request) {
	var req EnqueueAllRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	platforms, syncDate, priority, err := resolveEnqueueFields(req.Platforms, req.Date, req.Priority)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.enqueuer.EnqueueAllUsersSync(r.Context(), platforms, syncDate, priority)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueAllResponse{Users: users})
}

// CleanupTasks handles POST /queue/cleanup requests.
func (h *QueueHandler) CleanupTasks(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	days := req.OlderThanDays
	if days == 0 {
		days = h.config.RetentionDays
	}

	deleted, err := h.maint.DeleteTerminal(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CleanupResponse{Deleted: deleted})
}

// ReclaimTasks handles POST /queue/reclaim requests.
func (h *QueueHandler) ReclaimTasks(w http.ResponseWriter, r *http.Request) {
	var req ReclaimRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	olderThan := h.config.StuckAfter
	if req.OlderThanMinutes > 0 {
		olderThan = time.Duration(req.OlderThanMinutes) * time.Minute
	}

	reclaimed, err := h.maint.ReclaimStuck(r.Context(), olderThan)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReclaimResponse{Reclaimed: reclaimed})
}

// resolveEnqueueFields applies defaults and converts wire values into domain
// types shared by the two enqueue endpoints.
func resolveEnqueueFields(
	rawPlatforms []string,
	rawDate string,
	rawPriority *int,
) ([]task.Platform, time.Time, int, error) {
	platforms := make([]task.Platform, 0, len(rawPlatforms))
	for _, raw := range rawPlatforms {
		p, err := task.ParsePlatform(raw)
		if err != nil {
			return nil, time.Time{}, 0, err
		}
		platforms = append(platforms, p)
	}

	syncDate := time.Now().UTC()
	if rawDate != "" {
		parsed, err := time.Parse(task.SyncDateLayout, rawDate)
		if err != nil {
			return nil, time.Time{}, 0, err
		}
		syncDate = parsed
	}

	priority := task.DefaultPriority
	if rawPriority != nil {
		priority = *rawPriority
	}

	return platforms, syncDate, priority, nil
}
