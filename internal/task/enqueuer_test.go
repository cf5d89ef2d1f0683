package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserStore implements store.UserStore for fan-out tests.
type mockUserStore struct {
	ids []uuid.UUID
	err error
}

func (m *mockUserStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.ids, m.err
}

func TestEnqueueUserSync(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	e := NewEnqueuer(s, &mockUserStore{}, testLogger())

	userID := uuid.New()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := e.EnqueueUserSync(ctx, userID, []Platform{PlatformGitHub, PlatformTwitter}, date, DefaultPriority)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Len())

	// Every inserted row is pending with the caller's tuple values.
	for i := 0; i < 2; i++ {
		claimed, err := s.ClaimNext(ctx)
		require.NoError(t, err)
		assert.Equal(t, userID, claimed.UserID)
		assert.Equal(t, date, claimed.SyncDate)
		assert.Equal(t, DefaultPriority, claimed.Priority)
	}
}

func TestEnqueueUserSyncSkipsLiveDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	e := NewEnqueuer(s, &mockUserStore{}, testLogger())

	userID := uuid.New()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	platforms := []Platform{PlatformGitHub, PlatformTwitter}

	n, err := e.EnqueueUserSync(ctx, userID, platforms, date, DefaultPriority)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Second enqueue for the same tuples inserts nothing.
	n, err = e.EnqueueUserSync(ctx, userID, platforms, date, DefaultPriority)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, s.Len())

	// A different date is a different logical unit.
	n, err = e.EnqueueUserSync(ctx, userID, platforms, date.AddDate(0, 0, 1), DefaultPriority)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEnqueueUserSyncEmptyPlatforms(t *testing.T) {
	s := NewMemoryStore()
	e := NewEnqueuer(s, &mockUserStore{}, testLogger())

	n, err := e.EnqueueUserSync(context.Background(), uuid.New(), nil, time.Now(), DefaultPriority)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.Len())
}

func TestEnqueueAllUsersSync(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	users := &mockUserStore{ids: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}}
	e := NewEnqueuer(s, users, testLogger())

	count, err := e.EnqueueAllUsersSync(ctx, []Platform{PlatformGitHub, PlatformYouTube}, time.Now(), DefaultPriority)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "returns the number of users fanned out to")
	assert.Equal(t, 6, s.Len(), "one row per user per platform")
}

func TestEnqueueAllUsersSyncUserStoreError(t *testing.T) {
	users := &mockUserStore{err: errors.New("users table unreachable")}
	e := NewEnqueuer(NewMemoryStore(), users, testLogger())

	_, err := e.EnqueueAllUsersSync(context.Background(), []Platform{PlatformGitHub}, time.Now(), DefaultPriority)
	assert.Error(t, err)
}
