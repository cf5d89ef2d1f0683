package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/streakr/streakr-api/internal/store"
)

// Enqueuer schedules sync tasks, either for a single user or fanned out
// across every registered user.
type Enqueuer struct {
	tasks  Store
	users  store.UserStore
	logger *slog.Logger
}

// NewEnqueuer creates an Enqueuer with the given dependencies.
func NewEnqueuer(tasks Store, users store.UserStore, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{
		tasks:  tasks,
		users:  users,
		logger: logger,
	}
}

// EnqueueUserSync inserts one pending task per platform for the given user
// and date. Tuples that already have a live (pending or processing) row are
// skipped by the store; the returned count is the number of rows actually
// inserted.
func (e *Enqueuer) EnqueueUserSync(
	ctx context.Context,
	userID uuid.UUID,
	platforms []Platform,
	syncDate time.Time,
	priority int,
) (int, error) {
	if len(platforms) == 0 {
		return 0, nil
	}

	tasks := make([]*Task, 0, len(platforms))
	for _, platform := range platforms {
		tasks = append(tasks, New(userID, platform, syncDate, priority))
	}

	inserted, err := e.tasks.Enqueue(ctx, tasks)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue sync tasks for user %s: %w", userID, err)
	}

	e.logger.Info("enqueued user sync",
		"user_id", userID,
		"platforms", len(platforms),
		"inserted", inserted,
		"sync_date", TruncateToDate(syncDate).Format(SyncDateLayout))

	return inserted, nil
}

// EnqueueAllUsersSync fans out EnqueueUserSync across every registered user.
// It returns the number of users scheduled. This is an O(users x platforms)
// insert burst and belongs on a low-frequency schedule, not in a request path.
func (e *Enqueuer) EnqueueAllUsersSync(
	ctx context.Context,
	platforms []Platform,
	syncDate time.Time,
	priority int,
) (int, error) {
	userIDs, err := e.users.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users for sync fan-out: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := e.EnqueueUserSync(ctx, userID, platforms, syncDate, priority); err != nil {
			return 0, err
		}
	}

	e.logger.Info("enqueued all-users sync",
		"users", len(userIDs),
		"platforms", len(platforms))

	return len(userIDs), nil
}
