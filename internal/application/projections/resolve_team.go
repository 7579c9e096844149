package projections

import (
	"context"
	"errors"

	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// InviteCodeLookup finds teams by invite code.
type InviteCodeLookup interface {
	GetTeamByInviteCode(ctx context.Context, code string) (team.Team, error)
}

// ResolveByInviteCodeQuery carries query parameters.
type ResolveByInviteCodeQuery struct {
	Code   string
	Viewer membership.Identity // zero for anonymous callers
}

// ResolveByInviteCodeDeps holds dependencies for ResolveByInviteCode.
type ResolveByInviteCodeDeps struct {
	Teams       InviteCodeLookup
	Memberships MembershipReader
}

// QueryResolveByInviteCode finds the team holding an invite code.
// PRE: none; any string is accepted
// POST: codes differing only in case or surrounding space resolve alike
// INVARIANT: a private team the viewer is not a member of returns exactly
// ErrTeamNotFound, the same value as a code nobody holds
func QueryResolveByInviteCode(ctx context.Context, query ResolveByInviteCodeQuery, deps ResolveByInviteCodeDeps) (TeamSummary, error) {
	code := team.NormalizeInviteCode(query.Code)
	if !team.IsValidInviteCode(code) {
		return TeamSummary{}, ErrTeamNotFound
	}
	t, err := deps.Teams.GetTeamByInviteCode(ctx, code)
	if errors.Is(err, apperr.NotFound) {
		return TeamSummary{}, ErrTeamNotFound
	}
	if err != nil {
		return TeamSummary{}, apperr.Classify(apperr.TransportFailure, "resolve_team", err)
	}
	caps, err := viewerCapabilities(ctx, query.Viewer, t, deps.Memberships)
	if err != nil {
		return TeamSummary{}, err
	}
	if !caps.CanRead {
		return TeamSummary{}, ErrTeamNotFound
	}
	return summarize(t, caps), nil
}
