package orchestrators

import (
	"context"
	"log/slog"

	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// TeamGetter reads a team by id.
type TeamGetter interface {
	GetTeam(ctx context.Context, id string) (team.Team, error)
}

// ActiveTeamInput names the caller and a team.
type ActiveTeamInput struct {
	Identity membership.Identity
	TeamID   string
}

// ActiveTeamDeps holds dependencies for the follow, switch, leave and
// forget orchestrators.
type ActiveTeamDeps struct {
	Teams       TeamGetter
	Memberships MembershipStore
}

// ExecuteFollowTeam adds a readable team to the caller's history as a
// read-only viewer and activates it.
// PRE: Identity is signed in
// POST: team is active; a team the caller may not read is NotFound
func ExecuteFollowTeam(ctx context.Context, input ActiveTeamInput, deps ActiveTeamDeps) (team.Team, error) {
	const op = "follow_team"
	m, t, err := loadForViewer(ctx, op, input, deps)
	if err != nil {
		return team.Team{}, err
	}
	if !access.Derive(input.Identity.UID, t, m.Has(t.ID)).CanRead {
		return team.Team{}, apperr.E(apperr.NotFound, op, team.ErrNotFound)
	}
	_ = m.Remember(historyEntry(input.Identity.UID, t))
	_ = m.Activate(t.ID)
	if err := deps.Memberships.SaveMembership(ctx, m); err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	slog.Info("team_event", "event", "team_followed", "team_id", t.ID, "uid", input.Identity.UID)
	return t, nil
}

// ExecuteSwitchTeam activates a team from the caller's history.
// PRE: TeamID is in the caller's history
// POST: active team is TeamID; the history entry is refreshed
// A team in the history stays readable even after it turns private.
func ExecuteSwitchTeam(ctx context.Context, input ActiveTeamInput, deps ActiveTeamDeps) (team.Team, error) {
	const op = "switch_team"
	m, t, err := loadForViewer(ctx, op, input, deps)
	if err != nil {
		return team.Team{}, err
	}
	if !m.Has(t.ID) {
		return team.Team{}, apperr.E(apperr.NotFound, op, membership.ErrNotInHistory)
	}
	_ = m.Remember(historyEntry(input.Identity.UID, t))
	_ = m.Activate(t.ID)
	if err := deps.Memberships.SaveMembership(ctx, m); err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	slog.Info("team_event", "event", "team_switched", "team_id", t.ID, "uid", input.Identity.UID)
	return t, nil
}

// ExecuteLeaveTeam clears the caller's active team. History and any
// co-admin grant are kept.
// POST: no active team
func ExecuteLeaveTeam(ctx context.Context, identity membership.Identity, deps ActiveTeamDeps) error {
	const op = "leave_team"
	m, err := loadMembership(ctx, op, identity, deps.Memberships)
	if err != nil {
		return err
	}
	if m.ActiveTeamID == "" {
		return nil
	}
	left := m.ActiveTeamID
	m.Deactivate()
	if err := deps.Memberships.SaveMembership(ctx, m); err != nil {
		return apperr.Classify(apperr.TransportFailure, op, err)
	}
	slog.Info("team_event", "event", "team_left", "team_id", left, "uid", identity.UID)
	return nil
}

// ExecuteForgetTeam removes a team from the caller's history, clearing it
// as the active team if needed.
// PRE: TeamID is in the caller's history
func ExecuteForgetTeam(ctx context.Context, input ActiveTeamInput, deps ActiveTeamDeps) error {
	const op = "forget_team"
	m, err := loadMembership(ctx, op, input.Identity, deps.Memberships)
	if err != nil {
		return err
	}
	if err := m.Forget(input.TeamID); err != nil {
		return apperr.E(apperr.NotFound, op, err)
	}
	if err := deps.Memberships.SaveMembership(ctx, m); err != nil {
		return apperr.Classify(apperr.TransportFailure, op, err)
	}
	slog.Info("team_event", "event", "team_forgotten", "team_id", input.TeamID, "uid", input.Identity.UID)
	return nil
}

func loadMembership(ctx context.Context, op string, id membership.Identity, store MembershipStore) (membership.Membership, error) {
	if id.IsAnonymous() {
		return membership.Membership{}, apperr.E(apperr.Unauthorized, op, membership.ErrAnonymousUser)
	}
	m, err := store.GetMembership(ctx, id.UID)
	if err != nil {
		return membership.Membership{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	m.Identity = id
	return m, nil
}

func loadForViewer(ctx context.Context, op string, input ActiveTeamInput, deps ActiveTeamDeps) (membership.Membership, team.Team, error) {
	m, err := loadMembership(ctx, op, input.Identity, deps.Memberships)
	if err != nil {
		return m, team.Team{}, err
	}
	t, err := deps.Teams.GetTeam(ctx, input.TeamID)
	if err != nil {
		return m, team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	return m, t, nil
}
