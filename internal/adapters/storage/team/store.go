package team

import (
	"context"

	domain "roster/internal/domain/team"
)

// DefaultSearchLimit caps public name search results.
const DefaultSearchLimit = 20

// Store persists Team state.
type Store interface {
	// Insert adds a new team. A duplicate invite code fails with apperr.Collision.
	Insert(ctx context.Context, value domain.Team) error
	// Save updates an existing team.
	Save(ctx context.Context, value domain.Team) error
	GetByID(ctx context.Context, id string) (domain.Team, error)
	GetByInviteCode(ctx context.Context, code string) (domain.Team, error)
	SearchPublicByName(ctx context.Context, term string, limit int) ([]domain.Team, error)
}
