package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/streakr/streakr-api/internal/platform/logger"
	"github.com/streakr/streakr-api/internal/store"
)

// UserStore implements store.UserStore against the externally-managed users
// table. The queue only reads ids for sync fan-out; user CRUD lives in the
// profile service.
type UserStore struct {
	db store.DBTX
}

// NewUserStore creates a new UserStore.
func NewUserStore(db store.DBTX) *UserStore {
	return &UserStore{db: db}
}

// ListUserIDs returns the ids of all registered users, oldest first so
// fan-out order is stable between runs.
func (s *UserStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	log := logger.FromContext(ctx)

	query := `SELECT id FROM users ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query user ids", "error", err)
		return nil, fmt.Errorf("failed to query user ids: %w", MapError(err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return ids, nil
}

// Statically assert that UserStore satisfies the store.UserStore interface.
var _ store.UserStore = (*UserStore)(nil)
