// Package outbox persists queued team notices until the worker delivers or
// abandons them.
package outbox

import (
	"context"

	domain "roster/internal/domain/outbox"
)

// Store is the notice queue.
type Store interface {
	// Save upserts e by id.
	// PRE: e.Validate() passed
	Save(ctx context.Context, e domain.Entry) error

	// GetByID fails with apperr.NotFound for unknown ids.
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// ListPending returns up to limit pending or retrying entries, oldest
	// first, regardless of whether their backoff has elapsed.
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListByStatus returns up to limit entries in status, newest first.
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)
}
