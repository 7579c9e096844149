package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"roster/internal/domain/apperr"
	"roster/internal/domain/team"
)

const seedJSON = `{
  "team": {
    "id": "grace",
    "name": "Grace Worship",
    "inviteCode": "abcd-2345",
    "owner": "owner",
    "coAdministrators": ["joiner"],
    "createdAt": 1767225600000
  },
  "members": [
    {"id": "m1", "name": "Grace Lee", "roles": ["Vocalist", "Keyboard"], "isTeamA": true},
    {"id": "m2", "name": "Daniel Park", "roles": ["Drums"]}
  ],
  "lineups": [
    {"id": "custom-id", "date": "2026-03-01", "theme": "Hope",
     "worshipLeaders": [{"memberId": "m1", "role": "Worship Leader"}],
     "instruments": {"k1": "m1", "drums": ["m2"]},
     "songs": [{"section": "Opening", "title": "Cornerstone", "key": "C"}]},
    {"date": "2026-03-08", "worshipLeaders": [{"memberId": "", "role": "Worship Leader"}], "instruments": {}}
  ]
}`

func TestParseSeedFile(t *testing.T) {
	in, err := ParseSeedFile(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("ParseSeedFile: %v", err)
	}
	if in.Team.InviteCode != "ABCD-2345" || in.Team.Visibility != team.VisibilityPublic {
		t.Errorf("team = %+v", in.Team)
	}
	if in.Team.CreatedAt.IsZero() || in.Team.CreatedAt.Year() != 2026 {
		t.Errorf("createdAt = %v", in.Team.CreatedAt)
	}
	if len(in.Members) != 2 || !in.Members[0].SeniorTier {
		t.Errorf("members = %+v", in.Members)
	}
	if len(in.Lineups) != 2 || in.Lineups[0].ID != "custom-id" || in.Lineups[1].ID != "lineup-2026-03-08" {
		t.Errorf("lineups = %+v", in.Lineups)
	}

	for _, bad := range []string{`{`, `{"team": {}, "lineups": [{"date": "March 1"}]}`} {
		if _, err := ParseSeedFile(strings.NewReader(bad)); !errors.Is(err, apperr.ValidationFailed) {
			t.Errorf("%s: err = %v, want ValidationFailed", bad, err)
		}
	}
}

func TestSeedTeam_IsRepeatable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	deps := SeedTeamDeps{Store: h.backend, NewID: h.newID}

	in, err := ParseSeedFile(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("ParseSeedFile: %v", err)
	}
	first, err := ExecuteSeedTeam(ctx, in, deps)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if !first.TeamCreated || first.TeamID != "grace" || first.Members != 2 || first.Lineups != 2 {
		t.Errorf("first = %+v", first)
	}

	second, err := ExecuteSeedTeam(ctx, in, deps)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if second.TeamCreated || second.TeamID != "grace" {
		t.Errorf("second = %+v, want team reused", second)
	}

	members, err := h.backend.ListMembers(ctx, "grace")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	ls, err := h.backend.ListLineups(ctx, "grace", "", "")
	if err != nil {
		t.Fatalf("ListLineups: %v", err)
	}
	if len(members) != 2 || len(ls) != 2 {
		t.Errorf("members = %d, lineups = %d, want 2 and 2", len(members), len(ls))
	}
	if got := h.team(t, "grace"); !got.IsCoAdmin("joiner") {
		t.Error("co-admins not imported")
	}
}

func TestSeedTeam_InvalidMember(t *testing.T) {
	h := newHarness(t)
	in, err := ParseSeedFile(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("ParseSeedFile: %v", err)
	}
	in.Members[1].Roles = []string{"Tuba"}
	res, err := ExecuteSeedTeam(context.Background(), in, SeedTeamDeps{Store: h.backend})
	if !errors.Is(err, apperr.ValidationFailed) {
		t.Fatalf("err = %v, want ValidationFailed", err)
	}
	if res.Members != 1 {
		t.Errorf("members written = %d, want 1 before the bad one", res.Members)
	}
}
