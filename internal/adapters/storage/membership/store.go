package membership

import (
	"context"

	domain "roster/internal/domain/membership"
)

// Store persists per-user membership records.
type Store interface {
	// Get returns the record for uid, or an empty membership when the user
	// has never been seen.
	Get(ctx context.Context, uid string) (domain.Membership, error)
	Save(ctx context.Context, value domain.Membership) error
}
