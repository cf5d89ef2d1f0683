package store

import (
	"context"

	"github.com/google/uuid"
)

// UserStore defines the minimal view of the externally-managed user table
// that the sync queue needs. Profile and privacy CRUD live elsewhere; the
// queue only fans out over user ids when scheduling all-user syncs.
type UserStore interface {
	// ListUserIDs returns the ids of all registered users.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}
