package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// ErrOwnerOnly is the cause when a non-owner changes team settings.
var ErrOwnerOnly = errors.New("only the team owner can do this")

// TeamSettingsStore reads and updates teams.
type TeamSettingsStore interface {
	GetTeam(ctx context.Context, id string) (team.Team, error)
	SaveTeam(ctx context.Context, t team.Team) error
}

// UpdateTeamSettingsInput carries input for the orchestrator. Nil fields
// are left unchanged.
type UpdateTeamSettingsInput struct {
	Identity   membership.Identity
	TeamID     string
	Name       *string
	Visibility *string
	LogoRef    *string
}

// TeamSettingsDeps holds dependencies for the owner-only orchestrators.
type TeamSettingsDeps struct {
	Teams       TeamSettingsStore
	Memberships MembershipStore // optional; refreshes affected history entries
}

// ExecuteUpdateTeamSettings changes a team's name, visibility or logo.
// PRE: caller owns the team
// POST: team saved; watchers see the change
func ExecuteUpdateTeamSettings(ctx context.Context, input UpdateTeamSettingsInput, deps TeamSettingsDeps) (team.Team, error) {
	const op = "update_team_settings"
	t, err := loadOwnedTeam(ctx, op, input.Identity, input.TeamID, deps.Teams)
	if err != nil {
		return team.Team{}, err
	}
	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Visibility != nil {
		t.Visibility = team.NormalizeVisibility(*input.Visibility)
	}
	if input.LogoRef != nil {
		t.LogoRef = strings.TrimSpace(*input.LogoRef)
	}
	if err := t.Validate(); err != nil {
		return team.Team{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	if err := deps.Teams.SaveTeam(ctx, t); err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	if input.Name != nil && deps.Memberships != nil {
		refreshHistory(ctx, deps.Memberships, input.Identity.UID, t)
	}
	slog.Info("team_event", "event", "team_settings_updated", "team_id", t.ID, "visibility", t.Visibility)
	return t, nil
}

// CoAdminInput names the team and the user whose rights change.
type CoAdminInput struct {
	Identity membership.Identity
	TeamID   string
	UID      string
}

// ExecuteGrantCoAdmin gives uid roster editing rights.
// PRE: caller owns the team; uid is not the owner
func ExecuteGrantCoAdmin(ctx context.Context, input CoAdminInput, deps TeamSettingsDeps) (team.Team, error) {
	const op = "grant_co_admin"
	t, err := loadOwnedTeam(ctx, op, input.Identity, input.TeamID, deps.Teams)
	if err != nil {
		return team.Team{}, err
	}
	uid := strings.TrimSpace(input.UID)
	if uid == "" {
		return team.Team{}, apperr.E(apperr.ValidationFailed, op, membership.ErrEmptyUID)
	}
	if t.IsOwner(uid) {
		return team.Team{}, apperr.E(apperr.ValidationFailed, op, team.ErrOwnerIsCoAdmin)
	}
	if !t.AddCoAdmin(uid) {
		return t, nil
	}
	if err := deps.Teams.SaveTeam(ctx, t); err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	slog.Info("team_event", "event", "co_admin_granted", "team_id", t.ID, "uid", uid)
	return t, nil
}

// ExecuteRevokeCoAdmin removes uid's roster editing rights. Revoking a
// user who is not a co-admin is a no-op.
// PRE: caller owns the team
func ExecuteRevokeCoAdmin(ctx context.Context, input CoAdminInput, deps TeamSettingsDeps) (team.Team, error) {
	const op = "revoke_co_admin"
	t, err := loadOwnedTeam(ctx, op, input.Identity, input.TeamID, deps.Teams)
	if err != nil {
		return team.Team{}, err
	}
	if !t.RemoveCoAdmin(strings.TrimSpace(input.UID)) {
		return t, nil
	}
	if err := deps.Teams.SaveTeam(ctx, t); err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	if deps.Memberships != nil {
		refreshHistory(ctx, deps.Memberships, strings.TrimSpace(input.UID), t)
	}
	slog.Info("team_event", "event", "co_admin_revoked", "team_id", t.ID, "uid", input.UID)
	return t, nil
}

func loadOwnedTeam(ctx context.Context, op string, id membership.Identity, teamID string, store TeamSettingsStore) (team.Team, error) {
	if id.IsAnonymous() {
		return team.Team{}, apperr.E(apperr.Unauthorized, op, membership.ErrAnonymousUser)
	}
	t, err := store.GetTeam(ctx, teamID)
	if err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	if !access.Derive(id.UID, t, false).CanManageTeam() {
		return team.Team{}, apperr.E(apperr.Unauthorized, op, ErrOwnerOnly)
	}
	return t, nil
}

func refreshHistory(ctx context.Context, store MembershipStore, uid string, t team.Team) {
	m, err := store.GetMembership(ctx, uid)
	if err != nil || !m.Has(t.ID) {
		return
	}
	_ = m.Remember(historyEntry(uid, t))
	if err := store.SaveMembership(ctx, m); err != nil {
		slog.Warn("history_refresh_failed", "uid", uid, "team_id", t.ID, "error", err.Error())
	}
}
