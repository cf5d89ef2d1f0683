package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/streakr/streakr-api/internal/platform/logger"
	"github.com/streakr/streakr-api/internal/store"
	"github.com/streakr/streakr-api/internal/task"
)

// TaskStore implements the task.Store interface using PostgreSQL.
// Claim exclusivity is enforced by a row lock inside a scoped transaction,
// so it holds across concurrent claimers in separate OS processes.
type TaskStore struct {
	db *sql.DB
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// taskColumns is the SELECT/RETURNING column list matching scanTask.
const taskColumns = `id, user_id, platform, sync_date, status, priority, retry_count,
	error_message, created_at, started_at, completed_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one sync_tasks row in taskColumns order.
func scanTask(s rowScanner) (*task.Task, error) {
	var (
		t            task.Task
		platform     string
		status       string
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := s.Scan(
		&t.ID,
		&t.UserID,
		&platform,
		&t.SyncDate,
		&status,
		&t.Priority,
		&t.RetryCount,
		&errorMessage,
		&t.CreatedAt,
		&startedAt,
		&completedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Platform = task.Platform(platform)
	t.Status = task.Status(status)
	t.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		ts := startedAt.Time
		t.StartedAt = &ts
	}
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}
	// sync_date comes back as a bare DATE; normalize to UTC midnight.
	t.SyncDate = task.TruncateToDate(t.SyncDate)

	return &t, nil
}

// Enqueue inserts the given tasks as pending rows inside one transaction.
// The partial unique index on live (user_id, platform, sync_date) tuples
// makes duplicate inserts no-ops; the returned count reflects rows actually
// inserted.
func (s *TaskStore) Enqueue(ctx context.Context, tasks []*task.Task) (int, error) {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO sync_tasks (id, user_id, platform, sync_date, status, priority,
			retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, platform, sync_date) WHERE status IN ('pending', 'processing')
		DO NOTHING
	`

	inserted := 0
	err := withTransientRetry(ctx, "enqueue", func() error {
		inserted = 0
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			for _, t := range tasks {
				result, err := tx.ExecContext(ctx, query,
					t.ID,
					t.UserID,
					string(t.Platform),
					t.SyncDate,
					string(t.Status),
					t.Priority,
					t.RetryCount,
					t.CreatedAt,
					t.UpdatedAt,
				)
				if err != nil {
					return fmt.Errorf("failed to insert sync task: %w", MapError(err))
				}
				rows, err := result.RowsAffected()
				if err != nil {
					return fmt.Errorf("failed to get rows affected: %w", err)
				}
				inserted += int(rows)
			}
			return nil
		})
	})
	if err != nil {
		log.Error("failed to enqueue sync tasks", "count", len(tasks), "error", err)
		return 0, err
	}

	return inserted, nil
}

// claimQuery selects the single most eligible pending row and flips it to
// processing in one statement. FOR UPDATE SKIP LOCKED lets concurrent
// claimers pass over a row another transaction holds instead of blocking on
// it, while the surrounding transaction guarantees at-most-one claimant.
const claimQuery = `
	WITH next_task AS (
		SELECT id
		FROM sync_tasks
		WHERE status = 'pending'
		ORDER BY priority ASC, created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE sync_tasks t
	SET status = 'processing', started_at = $1, updated_at = $1
	FROM next_task
	WHERE t.id = next_task.id
	RETURNING ` + taskColumns

// ClaimNext atomically claims the next pending task, ordered by priority then
// creation time. It returns (nil, nil) when the queue is empty; an empty
// queue is an expected signal, not an error.
func (s *TaskStore) ClaimNext(ctx context.Context) (*task.Task, error) {
	log := logger.FromContext(ctx)

	var claimed *task.Task
	err := withTransientRetry(ctx, "claim_next", func() error {
		claimed = nil
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			now := time.Now().UTC()
			t, err := scanTask(tx.QueryRowContext(ctx, claimQuery, now))
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil
				}
				return fmt.Errorf("failed to claim next task: %w", MapError(err))
			}
			claimed = t
			return nil
		})
	})
	if err != nil {
		log.Error("failed to claim next sync task", "error", err)
		return nil, err
	}

	return claimed, nil
}

// MarkCompleted transitions a processing task to completed.
func (s *TaskStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE sync_tasks
		SET status = 'completed', completed_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'processing'
	`

	err := withTransientRetry(ctx, "mark_completed", func() error {
		now := time.Now().UTC()
		result, err := s.db.ExecContext(ctx, query, now, id)
		if err != nil {
			return fmt.Errorf("failed to mark task completed: %w", MapError(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return s.transitionError(ctx, id)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to mark sync task completed", "task_id", id, "error", err)
		return err
	}

	return nil
}

// recordFailureQuery applies the retry policy in a single atomic statement:
// the retry count always increments and the error is recorded; a task with
// budget left goes back to pending with its priority demoted by one, an
// exhausted task stays failed. Priority is only ever increased, so a retry
// can never jump ahead of its original tier.
const recordFailureQuery = `
	UPDATE sync_tasks
	SET retry_count = retry_count + 1,
		error_message = $1,
		status = CASE WHEN retry_count + 1 < $2 THEN 'pending' ELSE 'failed' END,
		priority = CASE WHEN retry_count + 1 < $2 THEN priority + 1 ELSE priority END,
		updated_at = $3
	WHERE id = $4 AND status = 'processing'
	RETURNING ` + taskColumns

// RecordFailure stores the failure and applies the retry policy, returning
// the updated task.
func (s *TaskStore) RecordFailure(ctx context.Context, id uuid.UUID, message string) (*task.Task, error) {
	log := logger.FromContext(ctx)

	var updated *task.Task
	err := withTransientRetry(ctx, "record_failure", func() error {
		now := time.Now().UTC()
		t, err := scanTask(s.db.QueryRowContext(ctx, recordFailureQuery,
			message, task.MaxRetries, now, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return s.transitionError(ctx, id)
			}
			return fmt.Errorf("failed to record task failure: %w", MapError(err))
		}
		updated = t
		return nil
	})
	if err != nil {
		log.Error("failed to record sync task failure", "task_id", id, "error", err)
		return nil, err
	}

	return updated, nil
}

// ReclaimStuck requeues processing rows whose claim looks abandoned (started
// longer ago than olderThan). Rows with retry budget left go back to pending
// with a demoted priority; exhausted rows are failed terminally.
func (s *TaskStore) ReclaimStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	log := logger.FromContext(ctx)

	query := `
		UPDATE sync_tasks
		SET retry_count = retry_count + 1,
			error_message = 'reclaimed after stuck in processing',
			status = CASE WHEN retry_count + 1 < $1 THEN 'pending' ELSE 'failed' END,
			priority = CASE WHEN retry_count + 1 < $1 THEN priority + 1 ELSE priority END,
			started_at = NULL,
			updated_at = $2
		WHERE status = 'processing' AND started_at < $3
	`

	reclaimed := 0
	err := withTransientRetry(ctx, "reclaim_stuck", func() error {
		now := time.Now().UTC()
		result, err := s.db.ExecContext(ctx, query, task.MaxRetries, now, now.Add(-olderThan))
		if err != nil {
			return fmt.Errorf("failed to reclaim stuck tasks: %w", MapError(err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		reclaimed = int(rows)
		return nil
	})
	if err != nil {
		log.Error("failed to reclaim stuck sync tasks", "error", err)
		return 0, err
	}

	if reclaimed > 0 {
		log.Info("reclaimed stuck sync tasks", "count", reclaimed)
	}
	return reclaimed, nil
}

// DeleteTerminal garbage-collects completed and failed rows older than the
// retention window. Pending and processing rows are never touched.
func (s *TaskStore) DeleteTerminal(ctx context.Context, olderThan time.Duration) (int, error) {
	log := logger.FromContext(ctx)

	query := `
		DELETE FROM sync_tasks
		WHERE status IN ('completed', 'failed') AND updated_at < $1
	`

	deleted := 0
	err := withTransientRetry(ctx, "delete_terminal", func() error {
		cutoff := time.Now().UTC().Add(-olderThan)
		result, err := s.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete terminal tasks: %w", MapError(err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted = int(rows)
		return nil
	})
	if err != nil {
		log.Error("failed to delete terminal sync tasks", "error", err)
		return 0, err
	}

	return deleted, nil
}

// GetByID fetches a single task row.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM sync_tasks WHERE id = $1`

	var t *task.Task
	err := withTransientRetry(ctx, "get_by_id", func() error {
		got, err := scanTask(s.db.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrTaskNotFound
			}
			return fmt.Errorf("failed to get sync task: %w", MapError(err))
		}
		t = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// transitionError distinguishes "row does not exist" from "row exists but is
// not in the processing state" when a status transition matched nothing.
func (s *TaskStore) transitionError(ctx context.Context, id uuid.UUID) error {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM sync_tasks WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		return fmt.Errorf("failed to check task status: %w", MapError(err))
	}
	return fmt.Errorf("%w: task %s is %s, expected processing",
		store.ErrInvalidTransition, id, status)
}

// Statically assert that TaskStore satisfies the task.Store interface.
var _ task.Store = (*TaskStore)(nil)
