package task

import (
	"context"
	"fmt"
	"log/slog"
)

// Processor claims tasks and dispatches them to the sync handler, recording
// the outcome on the task row. It is driven by an external periodic trigger;
// it owns no goroutines of its own.
type Processor struct {
	store   Store
	handler SyncHandler
	logger  *slog.Logger
}

// NewProcessor creates a Processor with the given dependencies.
func NewProcessor(store Store, handler SyncHandler, logger *slog.Logger) *Processor {
	return &Processor{
		store:   store,
		handler: handler,
		logger:  logger,
	}
}

// ProcessNext claims the next pending task and runs it to a terminal-or-requeued
// state. It returns (nil, nil) when the queue is empty.
//
// A handler failure never propagates: it is recorded on the task row and the
// retry policy decides whether the task gets another attempt. Only
// infrastructure errors (claim or status update failing) surface to the
// caller. The returned task carries its post-processing status.
func (p *Processor) ProcessNext(ctx context.Context) (*Task, error) {
	t, err := p.store.ClaimNext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim next task: %w", err)
	}
	if t == nil {
		return nil, nil
	}

	log := p.logger.With(
		"task_id", t.ID,
		"user_id", t.UserID,
		"platform", t.Platform,
		"sync_date", t.SyncDate.Format(SyncDateLayout),
	)
	log.Info("processing sync task", "retry_count", t.RetryCount, "priority", t.Priority)

	if syncErr := p.handler.Sync(ctx, t); syncErr != nil {
		log.Warn("sync handler failed", "error", syncErr)

		updated, err := p.store.RecordFailure(ctx, t.ID, syncErr.Error())
		if err != nil {
			return nil, fmt.Errorf("failed to record task failure: %w", err)
		}

		if updated.Status == StatusFailed {
			log.Error("task failed permanently", "retry_count", updated.RetryCount)
		} else {
			log.Info("task requeued for retry",
				"retry_count", updated.RetryCount,
				"priority", updated.Priority)
		}
		return updated, nil
	}

	if err := p.store.MarkCompleted(ctx, t.ID); err != nil {
		return nil, fmt.Errorf("failed to mark task completed: %w", err)
	}

	log.Info("sync task completed")
	t.Status = StatusCompleted
	return t, nil
}

// ProcessBatch runs ProcessNext up to limit times, stopping early when the
// queue drains. Processing is deliberately sequential so a single invocation
// cannot overwhelm rate-limited external APIs. It returns the number of tasks
// actually processed.
func (p *Processor) ProcessBatch(ctx context.Context, limit int) (int, error) {
	processed := 0

	for processed < limit {
		t, err := p.ProcessNext(ctx)
		if err != nil {
			return processed, err
		}
		if t == nil {
			break
		}
		processed++
	}

	p.logger.Debug("batch complete", "processed", processed, "limit", limit)
	return processed, nil
}
