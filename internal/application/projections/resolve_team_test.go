package projections

import (
	"context"
	"errors"
	"testing"

	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

func TestQueryResolveByInviteCode(t *testing.T) {
	roster := newMockRoster()
	roster.putTeam("pub", "Open Band", "JBBC-7X2K", team.VisibilityPublic)
	roster.putTeam("priv", "Closed Band", "PRVT-2345", team.VisibilityPrivate)
	roster.follow("fan", "priv")
	deps := ResolveByInviteCodeDeps{Teams: roster, Memberships: roster}
	ctx := context.Background()

	tests := []struct {
		name    string
		code    string
		viewer  membership.Identity
		wantID  string
		wantErr bool
	}{
		{"exact", "JBBC-7X2K", membership.Identity{}, "pub", false},
		{"loose case and space", " jbbc-7x2k ", membership.Identity{}, "pub", false},
		{"unknown", "ZZZZ-ZZZZ", membership.Identity{}, "", true},
		{"malformed", "not a code", membership.Identity{}, "", true},
		{"private anonymous", "PRVT-2345", membership.Identity{}, "", true},
		{"private stranger", "prvt-2345", membership.Identity{UID: "stranger"}, "", true},
		{"private member", "PRVT-2345", membership.Identity{UID: "fan"}, "priv", false},
		{"private owner", "PRVT-2345", membership.Identity{UID: "owner"}, "priv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryResolveByInviteCode(ctx, ResolveByInviteCodeQuery{Code: tt.code, Viewer: tt.viewer}, deps)
			if tt.wantErr {
				if err != ErrTeamNotFound {
					t.Fatalf("err = %v, want exactly ErrTeamNotFound", err)
				}
				if got != (TeamSummary{}) {
					t.Errorf("summary = %+v, want zero", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("id = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestQueryResolveByInviteCode_InviteCodeRedacted(t *testing.T) {
	roster := newMockRoster()
	roster.putTeam("pub", "Open Band", "JBBC-7X2K", team.VisibilityPublic)
	deps := ResolveByInviteCodeDeps{Teams: roster, Memberships: roster}
	ctx := context.Background()

	anon, err := QueryResolveByInviteCode(ctx, ResolveByInviteCodeQuery{Code: "JBBC-7X2K"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if anon.InviteCode != "" || anon.Capabilities.CanManageRoster {
		t.Errorf("anonymous summary = %+v", anon)
	}
	own, err := QueryResolveByInviteCode(ctx, ResolveByInviteCodeQuery{Code: "JBBC-7X2K", Viewer: membership.Identity{UID: "owner"}}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if own.InviteCode != "JBBC-7X2K" || !own.Capabilities.IsPrimaryOwner {
		t.Errorf("owner summary = %+v", own)
	}
	if !errors.Is(ErrTeamNotFound, apperr.NotFound) {
		t.Error("ErrTeamNotFound is not a NotFound")
	}
}

func TestQuerySearchPublicTeams(t *testing.T) {
	roster := newMockRoster()
	roster.putTeam("a", "Grace Morning", "AAAA-2345", team.VisibilityPublic)
	roster.putTeam("b", "Grace Evening", "BBBB-2345", team.VisibilityPrivate)
	roster.putTeam("c", "Hope Chapel", "CCCC-2345", team.VisibilityPublic)
	deps := SearchPublicTeamsDeps{Teams: roster}
	ctx := context.Background()

	got, err := QuerySearchPublicTeams(ctx, SearchPublicTeamsQuery{Term: "grace"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("results = %+v, want only the public match", got)
	}
	if got[0].InviteCode != "" {
		t.Error("search leaked an invite code")
	}

	blank, err := QuerySearchPublicTeams(ctx, SearchPublicTeamsQuery{Term: "   "}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if blank == nil || len(blank) != 0 {
		t.Errorf("blank term = %#v, want empty slice", blank)
	}
	if roster.searches != 1 {
		t.Errorf("store searched %d times, want 1", roster.searches)
	}
}
