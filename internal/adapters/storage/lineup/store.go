package lineup

import (
	"context"

	domain "roster/internal/domain/lineup"
)

// Store persists Lineup documents. Lineups are scoped to a team and
// written last-write-wins per document.
type Store interface {
	Save(ctx context.Context, teamID string, value domain.Lineup) error
	// SaveMany writes values in order and reports how many were applied.
	// It is not transactional: on error the first n values remain written.
	SaveMany(ctx context.Context, teamID string, values []domain.Lineup) (int, error)
	Delete(ctx context.Context, teamID, id string) error
	GetByID(ctx context.Context, teamID, id string) (domain.Lineup, error)
	List(ctx context.Context, teamID string, filter ListFilter) ([]domain.Lineup, error)
}

// ListFilter carries filtering parameters for List operations.
// Zero From/To leave that side of the date range open.
type ListFilter struct {
	From string // inclusive YYYY-MM-DD
	To   string // exclusive YYYY-MM-DD
}
