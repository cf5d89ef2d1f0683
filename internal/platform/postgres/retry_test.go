package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "dial tcp 10.0.0.1:5432: i/o timeout" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"bad connection", driver.ErrBadConn, true},
		{"string match alone is not enough", errors.New("x: " + driver.ErrBadConn.Error()), false},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"connection does not exist", &pgconn.PgError{Code: "08003"}, true},
		{"unique violation is not transient", &pgconn.PgError{Code: uniqueViolationCode}, false},
		{"net error", fakeNetError{}, true},
		{"context canceled never retried", context.Canceled, false},
		{"deadline exceeded never retried", context.DeadlineExceeded, false},
		{"plain error", errors.New("syntax error"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.transient, isTransient(tc.err))
		})
	}
}

func TestWithTransientRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("success passes through", func(t *testing.T) {
		calls := 0
		err := withTransientRetry(ctx, "op", func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-transient error returned immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("constraint violation")
		err := withTransientRetry(ctx, "op", func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("transient error retried until success", func(t *testing.T) {
		calls := 0
		err := withTransientRetry(ctx, "op", func() error {
			calls++
			if calls < 3 {
				return driver.ErrBadConn
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("transient error surfaces after attempts exhausted", func(t *testing.T) {
		calls := 0
		err := withTransientRetry(ctx, "op", func() error {
			calls++
			return driver.ErrBadConn
		})
		assert.ErrorIs(t, err, driver.ErrBadConn)
		assert.Equal(t, transientRetryAttempts, calls)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := withTransientRetry(canceled, "op", func() error {
			calls++
			return driver.ErrBadConn
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
