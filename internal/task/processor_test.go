package task

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// handlerFunc adapts a function to the SyncHandler interface.
type handlerFunc func(ctx context.Context, t *Task) error

func (f handlerFunc) Sync(ctx context.Context, t *Task) error { return f(ctx, t) }

func enqueueOne(t *testing.T, s *MemoryStore, priority int) *Task {
	t.Helper()
	tk := New(uuid.New(), PlatformGitHub, time.Now(), priority)
	n, err := s.Enqueue(context.Background(), []*Task{tk})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return tk
}

func TestProcessNextSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tk := enqueueOne(t, s, DefaultPriority)

	p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
		return nil
	}), testLogger())

	got, err := p.ProcessNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, StatusCompleted, got.Status)

	stored, err := s.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestProcessNextEmptyQueue(t *testing.T) {
	p := NewProcessor(NewMemoryStore(), handlerFunc(func(ctx context.Context, t *Task) error {
		return nil
	}), testLogger())

	got, err := p.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProcessNextFailureRequeues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tk := enqueueOne(t, s, DefaultPriority)

	p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
		return &SyncError{StatusCode: 500, Message: "upstream exploded"}
	}), testLogger())

	got, err := p.ProcessNext(ctx)
	require.NoError(t, err, "a handler failure must not propagate")
	require.NotNil(t, got)

	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, DefaultPriority+1, got.Priority)
	assert.Contains(t, got.ErrorMessage, "upstream exploded")

	stored, err := s.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestTaskFailsPermanentlyAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tk := enqueueOne(t, s, DefaultPriority)

	p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
		return &SyncError{StatusCode: 503, Message: "still down"}
	}), testLogger())

	var last *Task
	for i := 0; i < MaxRetries; i++ {
		var err error
		last, err = p.ProcessNext(ctx)
		require.NoError(t, err)
		require.NotNil(t, last, "attempt %d should have found the task", i+1)
	}

	assert.Equal(t, StatusFailed, last.Status)
	assert.Equal(t, MaxRetries, last.RetryCount)
	// Priority was demoted on the requeued attempts only.
	assert.Equal(t, DefaultPriority+MaxRetries-1, last.Priority)

	// The exhausted task is never claimed again.
	got, err := p.ProcessNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	stored, err := s.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
}

func TestProcessNextPropagatesClaimError(t *testing.T) {
	s := NewMemoryStore()
	infraErr := errors.New("connection refused")
	s.ClaimNextFn = func(ctx context.Context) (*Task, error) {
		return nil, infraErr
	}

	p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
		return nil
	}), testLogger())

	_, err := p.ProcessNext(context.Background())
	assert.ErrorIs(t, err, infraErr)
}

func TestProcessBatch(t *testing.T) {
	t.Run("empty queue returns zero", func(t *testing.T) {
		p := NewProcessor(NewMemoryStore(), handlerFunc(func(ctx context.Context, t *Task) error {
			return nil
		}), testLogger())

		n, err := p.ProcessBatch(context.Background(), 5)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("stops early when queue drains", func(t *testing.T) {
		s := NewMemoryStore()
		for i := 0; i < 3; i++ {
			enqueueOne(t, s, DefaultPriority)
		}

		calls := 0
		p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
			calls++
			return nil
		}), testLogger())

		n, err := p.ProcessBatch(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, 3, calls)
	})

	t.Run("respects the limit", func(t *testing.T) {
		s := NewMemoryStore()
		for i := 0; i < 5; i++ {
			enqueueOne(t, s, DefaultPriority)
		}

		p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
			return nil
		}), testLogger())

		n, err := p.ProcessBatch(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("counts failed tasks as processed", func(t *testing.T) {
		s := NewMemoryStore()
		enqueueOne(t, s, DefaultPriority)

		p := NewProcessor(s, handlerFunc(func(ctx context.Context, t *Task) error {
			return &SyncError{StatusCode: 500, Message: "boom"}
		}), testLogger())

		n, err := p.ProcessBatch(context.Background(), 5)
		require.NoError(t, err)
		// One claim happened; the requeued task is eligible again within the
		// same batch, so the queue keeps serving it until the limit or the
		// retry budget runs out.
		assert.Greater(t, n, 0)
	})
}

func TestClaimOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	low := New(uuid.New(), PlatformGitHub, time.Now(), 5)
	low.CreatedAt = time.Now().UTC()
	mid := New(uuid.New(), PlatformTwitter, time.Now(), 10)
	mid.CreatedAt = low.CreatedAt.Add(time.Millisecond)
	tieBreaker := New(uuid.New(), PlatformYouTube, time.Now(), 5)
	tieBreaker.CreatedAt = low.CreatedAt.Add(2 * time.Millisecond)

	_, err := s.Enqueue(ctx, []*Task{mid, tieBreaker, low})
	require.NoError(t, err)

	// Lowest priority first; equal priorities break ties by creation time.
	first, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, low.ID, first.ID)

	second, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, tieBreaker.ID, second.ID)

	third, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, mid.ID, third.ID)

	empty, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestReclaimStuck(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tk := enqueueOne(t, s, DefaultPriority)

	claimed, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	require.Equal(t, tk.ID, claimed.ID)

	// Fresh claims are left alone.
	n, err := s.ReclaimStuck(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Age the claim artificially.
	old := time.Now().UTC().Add(-2 * time.Hour)
	s.mu.Lock()
	s.tasks[tk.ID].StartedAt = &old
	s.mu.Unlock()

	n, err = s.ReclaimStuck(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := s.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, DefaultPriority+1, stored.Priority)
}

func TestDeleteTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	fresh := enqueueOne(t, s, DefaultPriority)
	stale := enqueueOne(t, s, DefaultPriority)
	enqueueOne(t, s, DefaultPriority) // stays pending

	for i := 0; i < 2; i++ {
		claimed, err := s.ClaimNext(ctx)
		require.NoError(t, err)
		require.NoError(t, s.MarkCompleted(ctx, claimed.ID))
	}

	// Age one completed row past the retention window.
	s.mu.Lock()
	s.tasks[stale.ID].UpdatedAt = time.Now().UTC().Add(-10 * 24 * time.Hour)
	s.mu.Unlock()

	n, err := s.DeleteTerminal(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetByID(ctx, stale.ID)
	assert.Error(t, err)

	// Recent terminal and pending rows survive.
	_, err = s.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}
