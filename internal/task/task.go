package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a sync task.
type Status string

// Possible task status values.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status is a final state. Completed tasks are
// always terminal; failed tasks are terminal once their retry budget is spent
// (the store never requeues a task past MaxRetries).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Platform identifies the external data source a sync task fetches from.
// The set is closed; anything else is rejected at the API boundary.
type Platform string

// Supported sync platforms.
const (
	PlatformGitHub    Platform = "github"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// AllPlatforms returns the closed set of supported platforms, in a stable
// order suitable for fan-out.
func AllPlatforms() []Platform {
	return []Platform{PlatformGitHub, PlatformTwitter, PlatformInstagram, PlatformYouTube}
}

// ParsePlatform converts a string into a Platform, rejecting anything outside
// the closed set.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformGitHub, PlatformTwitter, PlatformInstagram, PlatformYouTube:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unsupported platform: %q", s)
	}
}

// Queue-wide constants.
const (
	// MaxRetries bounds how many times a task may fail before it is left in
	// the failed state permanently.
	MaxRetries = 3

	// DefaultPriority is the priority assigned to freshly enqueued tasks when
	// the caller does not specify one. Lower values are served first.
	DefaultPriority = 10

	// SyncDateLayout is the wire and storage format for sync dates. Tasks
	// synchronize a calendar date, not an instant.
	SyncDateLayout = "2006-01-02"
)

// Task represents one scheduled unit of work: sync one platform for one user
// on one calendar date.
type Task struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Platform     Platform
	SyncDate     time.Time
	Status       Status
	Priority     int
	RetryCount   int
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// New creates a pending task for the given user, platform and date.
// The sync date is truncated to a UTC calendar date.
func New(userID uuid.UUID, platform Platform, syncDate time.Time, priority int) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Platform:  platform,
		SyncDate:  TruncateToDate(syncDate),
		Status:    StatusPending,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TruncateToDate drops the time-of-day component, yielding UTC midnight of
// the same calendar day.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Store defines the interface for persisting and transitioning sync tasks.
// Implementations must guarantee that ClaimNext hands each pending task to at
// most one caller, even across OS processes.
type Store interface {
	// Enqueue inserts the given tasks as pending rows, skipping any whose
	// (user, platform, date) tuple already has a live (pending or processing)
	// row. It returns the number of rows actually inserted.
	Enqueue(ctx context.Context, tasks []*Task) (int, error)

	// ClaimNext atomically selects the next eligible pending task, ordered by
	// priority ascending then creation time ascending, and transitions it to
	// processing. It returns (nil, nil) when no pending task exists.
	ClaimNext(ctx context.Context) (*Task, error)

	// MarkCompleted transitions a processing task to completed.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// RecordFailure applies the retry policy to a processing task: the error
	// message is stored and the retry count incremented; if retries remain
	// the task goes back to pending with its priority demoted by one,
	// otherwise it stays failed permanently. The updated task is returned.
	RecordFailure(ctx context.Context, id uuid.UUID, message string) (*Task, error)

	// ReclaimStuck requeues processing tasks whose claim is older than the
	// given age and whose retry budget remains; exhausted tasks are failed.
	// It returns the number of rows touched.
	ReclaimStuck(ctx context.Context, olderThan time.Duration) (int, error)

	// DeleteTerminal removes completed and failed rows whose last update is
	// older than the given age, returning the number of rows deleted.
	// Pending and processing rows are never touched.
	DeleteTerminal(ctx context.Context, olderThan time.Duration) (int, error)

	// GetByID fetches a single task, returning store.ErrTaskNotFound when it
	// does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
}
