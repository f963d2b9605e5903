package session_repo

import (
	"context"

	"vinreport/internal/domain"
)

// Repository holds the current per-chat transaction record. Update runs fn
// under per-key mutual exclusion, so a chat's events are serialized even if
// the transport ever delivers them concurrently.
type Repository interface {
	Get(ctx context.Context, chatID int64) (domain.Transaction, error)
	Update(ctx context.Context, chatID int64, fn func(*domain.Transaction) error) (domain.Transaction, error)
}
