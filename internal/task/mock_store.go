package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streakr/streakr-api/internal/store"
)

// MemoryStore is an in-memory Store used by tests and local development. It
// applies the same ordering, dedup, and retry semantics as the Postgres store
// but with a single process-wide mutex instead of row locks.
//
// Function fields, when set, override the corresponding method to inject
// errors or observe calls.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task

	EnqueueFn        func(ctx context.Context, tasks []*Task) (int, error)
	ClaimNextFn      func(ctx context.Context) (*Task, error)
	MarkCompletedFn  func(ctx context.Context, id uuid.UUID) error
	RecordFailureFn  func(ctx context.Context, id uuid.UUID, message string) (*Task, error)
	ReclaimStuckFn   func(ctx context.Context, olderThan time.Duration) (int, error)
	DeleteTerminalFn func(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[uuid.UUID]*Task)}
}

// Enqueue implements Store.
func (s *MemoryStore) Enqueue(ctx context.Context, tasks []*Task) (int, error) {
	if s.EnqueueFn != nil {
		return s.EnqueueFn(ctx, tasks)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, t := range tasks {
		if s.hasLiveDuplicate(t) {
			continue
		}
		cp := *t
		s.tasks[t.ID] = &cp
		inserted++
	}
	return inserted, nil
}

// hasLiveDuplicate reports whether a pending or processing row already exists
// for the task's (user, platform, date) tuple. Caller holds the mutex.
func (s *MemoryStore) hasLiveDuplicate(t *Task) bool {
	for _, existing := range s.tasks {
		if existing.UserID == t.UserID &&
			existing.Platform == t.Platform &&
			existing.SyncDate.Equal(t.SyncDate) &&
			(existing.Status == StatusPending || existing.Status == StatusProcessing) {
			return true
		}
	}
	return false
}

// ClaimNext implements Store.
func (s *MemoryStore) ClaimNext(ctx context.Context) (*Task, error) {
	if s.ClaimNextFn != nil {
		return s.ClaimNextFn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*Task
	for _, t := range s.tasks {
		if t.Status == StatusPending {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority < pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	next := pending[0]
	now := time.Now().UTC()
	next.Status = StatusProcessing
	next.StartedAt = &now
	next.UpdatedAt = now

	cp := *next
	return &cp, nil
}

// MarkCompleted implements Store.
func (s *MemoryStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	if s.MarkCompletedFn != nil {
		return s.MarkCompletedFn(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if t.Status != StatusProcessing {
		return store.ErrInvalidTransition
	}

	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// RecordFailure implements Store.
func (s *MemoryStore) RecordFailure(ctx context.Context, id uuid.UUID, message string) (*Task, error) {
	if s.RecordFailureFn != nil {
		return s.RecordFailureFn(ctx, id, message)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if t.Status != StatusProcessing {
		return nil, store.ErrInvalidTransition
	}

	now := time.Now().UTC()
	t.RetryCount++
	t.ErrorMessage = message
	t.UpdatedAt = now

	if t.RetryCount < MaxRetries {
		t.Status = StatusPending
		t.Priority++
	} else {
		t.Status = StatusFailed
	}

	cp := *t
	return &cp, nil
}

// ReclaimStuck implements Store.
func (s *MemoryStore) ReclaimStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	if s.ReclaimStuckFn != nil {
		return s.ReclaimStuckFn(ctx, olderThan)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	cutoff := now.Add(-olderThan)
	reclaimed := 0

	for _, t := range s.tasks {
		if t.Status != StatusProcessing || t.StartedAt == nil || !t.StartedAt.Before(cutoff) {
			continue
		}
		t.RetryCount++
		t.ErrorMessage = "reclaimed after stuck in processing"
		t.UpdatedAt = now
		if t.RetryCount < MaxRetries {
			t.Status = StatusPending
			t.Priority++
		} else {
			t.Status = StatusFailed
		}
		reclaimed++
	}
	return reclaimed, nil
}

// DeleteTerminal implements Store.
func (s *MemoryStore) DeleteTerminal(ctx context.Context, olderThan time.Duration) (int, error) {
	if s.DeleteTerminalFn != nil {
		return s.DeleteTerminalFn(ctx, olderThan)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	deleted := 0

	for id, t := range s.tasks {
		if t.Status.IsTerminal() && t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

// Len reports how many rows the store currently holds.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Statically assert that MemoryStore satisfies the Store interface.
var _ Store = (*MemoryStore)(nil)
