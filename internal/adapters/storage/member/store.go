package member

import (
	"context"

	domain "roster/internal/domain/member"
)

// Store persists Member state. Members are scoped to a team.
type Store interface {
	Save(ctx context.Context, teamID string, value domain.Member) error
	Delete(ctx context.Context, teamID, id string) error
	GetByID(ctx context.Context, teamID, id string) (domain.Member, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.Member, error)
}
