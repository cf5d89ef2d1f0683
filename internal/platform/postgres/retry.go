package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streakr/streakr-api/internal/platform/logger"
)

// Transient infrastructure failures (connection drops, timeouts) are retried
// a small fixed number of times with a fixed delay before surfacing. This is
// independent of task-level retries: it protects individual store operations,
// not task semantics.
const (
	transientRetryAttempts = 3
	transientRetryDelay    = 100 * time.Millisecond
)

// isTransient reports whether an error looks like a connection-level failure
// worth retrying. Context cancellation is never transient; neither are
// constraint violations or any other statement-level error.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if isConnectionException(err) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// withTransientRetry runs op, retrying transient infrastructure failures.
// The final error, transient or not, is returned unwrapped so callers can map
// it normally.
func withTransientRetry(ctx context.Context, op string, fn func() error) error {
	log := logger.FromContext(ctx)

	var err error
	for attempt := 1; attempt <= transientRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}

		log.Warn("transient database error, retrying",
			"operation", op,
			"attempt", attempt,
			"error", err)

		if attempt < transientRetryAttempts {
			select {
			case <-time.After(transientRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
