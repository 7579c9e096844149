package projections

import (
	"context"
	"strings"
	"time"

	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

type mockRoster struct {
	teams       map[string]team.Team
	members     map[string][]member.Member
	lineups     map[string][]lineup.Lineup
	memberships map[string]membership.Membership
	searches    int
}

func newMockRoster() *mockRoster {
	return &mockRoster{
		teams:       map[string]team.Team{},
		members:     map[string][]member.Member{},
		lineups:     map[string][]lineup.Lineup{},
		memberships: map[string]membership.Membership{},
	}
}

// GetTeam returns a seeded team.
// PRE: id is non-empty
// POST: Returns the team or apperr.NotFound
func (m *mockRoster) GetTeam(_ context.Context, id string) (team.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return team.Team{}, apperr.E(apperr.NotFound, "get_team", team.ErrNotFound)
	}
	return t, nil
}

// GetTeamByInviteCode returns the seeded team holding code.
// PRE: code is normalized
// POST: Returns the team or apperr.NotFound
func (m *mockRoster) GetTeamByInviteCode(_ context.Context, code string) (team.Team, error) {
	for _, t := range m.teams {
		if t.InviteCode == code {
			return t, nil
		}
	}
	return team.Team{}, apperr.E(apperr.NotFound, "get_team_by_code", team.ErrNotFound)
}

// SearchPublicTeams matches every seeded team, public or not, so callers
// are tested for filtering.
func (m *mockRoster) SearchPublicTeams(_ context.Context, term string, limit int) ([]team.Team, error) {
	m.searches++
	var out []team.Team
	for _, t := range m.teams {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(term)) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListMembers returns the seeded members of a team.
func (m *mockRoster) ListMembers(_ context.Context, teamID string) ([]member.Member, error) {
	return m.members[teamID], nil
}

// ListLineups returns seeded lineups within [from, to).
// PRE: from and to are empty or YYYY-MM-DD
func (m *mockRoster) ListLineups(_ context.Context, teamID string, from, to string) ([]lineup.Lineup, error) {
	var out []lineup.Lineup
	for _, l := range m.lineups[teamID] {
		d := lineup.FormatDate(l.ServiceDate)
		if (from == "" || d >= from) && (to == "" || d < to) {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetMembership returns the seeded membership, or an empty one.
func (m *mockRoster) GetMembership(_ context.Context, uid string) (membership.Membership, error) {
	if mm, ok := m.memberships[uid]; ok {
		return mm, nil
	}
	return membership.New(membership.Identity{UID: uid}), nil
}

func (m *mockRoster) putTeam(id, name, code, visibility string) team.Team {
	t := team.Team{
		ID: id, Name: name, InviteCode: code, OwnerUID: "owner", Visibility: visibility,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	m.teams[id] = t
	return t
}

func (m *mockRoster) follow(uid, teamID string) {
	mm := membership.New(membership.Identity{UID: uid})
	_ = mm.Remember(membership.HistoryEntry{TeamID: teamID})
	_ = mm.Activate(teamID)
	m.memberships[uid] = mm
}

func (m *mockRoster) addLineup(teamID, date string, leaderID string) {
	d, err := lineup.ParseDate(date)
	if err != nil {
		panic(err)
	}
	l := lineup.Lineup{ServiceDate: d, WorshipLeaders: []lineup.LeaderSlot{{MemberID: leaderID, Role: lineup.DefaultLeaderRole}}}
	l.AssignID("")
	m.lineups[teamID] = append(m.lineups[teamID], l)
}
