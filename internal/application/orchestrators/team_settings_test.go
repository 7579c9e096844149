package orchestrators

import (
	"context"
	"errors"
	"testing"

	"roster/internal/domain/apperr"
	"roster/internal/domain/team"
)

func strPtr(s string) *string { return &s }

func TestUpdateTeamSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tm := h.createTeam(t, owner, "Grace", "")
	deps := TeamSettingsDeps{Teams: h.backend, Memberships: h.backend}

	got, err := ExecuteUpdateTeamSettings(ctx, UpdateTeamSettingsInput{
		Identity:   owner,
		TeamID:     tm.ID,
		Name:       strPtr(" Grace Evening "),
		Visibility: strPtr("PRIVATE"),
	}, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Grace Evening" || got.Visibility != team.VisibilityPrivate {
		t.Errorf("team = %+v", got)
	}
	if got.InviteCode != tm.InviteCode {
		t.Error("settings update changed the invite code")
	}
	entry, ok := h.membership(t, owner.UID).Entry(tm.ID)
	if !ok || entry.TeamName != "Grace Evening" {
		t.Errorf("history entry = %+v, want renamed", entry)
	}
}

func TestUpdateTeamSettings_OwnerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tm := h.createTeam(t, owner, "Grace", "")
	if _, err := ExecuteJoinTeam(ctx, JoinTeamInput{Identity: joiner, InviteCode: tm.InviteCode}, h.joinDeps()); err != nil {
		t.Fatalf("join: %v", err)
	}
	deps := TeamSettingsDeps{Teams: h.backend}

	// Co-admins edit the roster, not the team.
	_, err := ExecuteUpdateTeamSettings(ctx, UpdateTeamSettingsInput{Identity: joiner, TeamID: tm.ID, Name: strPtr("Mine")}, deps)
	if !errors.Is(err, apperr.Unauthorized) || !errors.Is(err, ErrOwnerOnly) {
		t.Errorf("co-admin update: err = %v, want owner-only", err)
	}
	_, err = ExecuteUpdateTeamSettings(ctx, UpdateTeamSettingsInput{Identity: owner, TeamID: tm.ID, Name: strPtr("  ")}, deps)
	if !errors.Is(err, apperr.ValidationFailed) {
		t.Errorf("blank name: err = %v, want ValidationFailed", err)
	}
	if got := h.team(t, tm.ID); got.Name != "Grace" {
		t.Errorf("name = %q, want unchanged", got.Name)
	}
}

func TestRevokeCoAdmin_ClearsHistoryInviteCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tm := h.createTeam(t, owner, "Grace", "")
	if _, err := ExecuteJoinTeam(ctx, JoinTeamInput{Identity: joiner, InviteCode: tm.InviteCode}, h.joinDeps()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if e, _ := h.membership(t, joiner.UID).Entry(tm.ID); e.InviteCode == "" {
		t.Fatal("co-admin history entry should carry the code")
	}

	deps := TeamSettingsDeps{Teams: h.backend, Memberships: h.backend}
	if _, err := ExecuteRevokeCoAdmin(ctx, CoAdminInput{Identity: owner, TeamID: tm.ID, UID: joiner.UID}, deps); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	e, ok := h.membership(t, joiner.UID).Entry(tm.ID)
	if !ok || e.InviteCode != "" || e.TeamName != "Grace" {
		t.Errorf("after revoke entry = %+v, %v; want kept without code", e, ok)
	}

	// Switching back must not restore it either.
	if _, err := ExecuteSwitchTeam(ctx, ActiveTeamInput{Identity: joiner, TeamID: tm.ID}, h.activeDeps()); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if e, _ := h.membership(t, joiner.UID).Entry(tm.ID); e.InviteCode != "" {
		t.Errorf("after switch entry = %+v", e)
	}
}

func TestCoAdminGrantAndRevoke(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tm := h.createTeam(t, owner, "Grace", "")
	deps := TeamSettingsDeps{Teams: h.backend}

	got, err := ExecuteGrantCoAdmin(ctx, CoAdminInput{Identity: owner, TeamID: tm.ID, UID: joiner.UID}, deps)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !got.IsCoAdmin(joiner.UID) {
		t.Fatal("grant not applied")
	}
	if _, err := ExecuteGrantCoAdmin(ctx, CoAdminInput{Identity: owner, TeamID: tm.ID, UID: joiner.UID}, deps); err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	if n := len(h.team(t, tm.ID).CoAdminUIDs); n != 1 {
		t.Errorf("co-admins = %d, want 1", n)
	}

	_, err = ExecuteGrantCoAdmin(ctx, CoAdminInput{Identity: owner, TeamID: tm.ID, UID: owner.UID}, deps)
	if !errors.Is(err, apperr.ValidationFailed) {
		t.Errorf("grant owner: err = %v, want ValidationFailed", err)
	}
	_, err = ExecuteGrantCoAdmin(ctx, CoAdminInput{Identity: joiner, TeamID: tm.ID, UID: viewer.UID}, deps)
	if !errors.Is(err, apperr.Unauthorized) {
		t.Errorf("co-admin grants: err = %v, want Unauthorized", err)
	}

	got, err = ExecuteRevokeCoAdmin(ctx, CoAdminInput{Identity: owner, TeamID: tm.ID, UID: joiner.UID}, deps)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got.IsCoAdmin(joiner.UID) || h.team(t, tm.ID).IsCoAdmin(joiner.UID) {
		t.Error("revoke not applied")
	}
	if _, err := ExecuteRevokeCoAdmin(ctx, CoAdminInput{Identity: owner, TeamID: tm.ID, UID: "nobody"}, deps); err != nil {
		t.Errorf("revoke non-admin: %v", err)
	}
}
