package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	lineupStore "roster/internal/adapters/storage/lineup"
	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/team"
)

// SeedStore writes a whole team without a viewer session.
type SeedStore interface {
	GetTeamByInviteCode(ctx context.Context, code string) (team.Team, error)
	InsertTeam(ctx context.Context, t team.Team) error
	SaveMember(ctx context.Context, teamID string, m member.Member) error
	SaveLineups(ctx context.Context, teamID string, ls []lineup.Lineup) (int, error)
}

// SeedTeamInput is a team with its roster, as read from a seed file.
type SeedTeamInput struct {
	Team    team.Team
	Members []member.Member
	Lineups []lineup.Lineup
}

// SeedTeamResult reports what was written.
type SeedTeamResult struct {
	TeamID      string
	TeamCreated bool
	Members     int
	Lineups     int
}

// SeedTeamDeps holds dependencies for SeedTeam.
type SeedTeamDeps struct {
	Store SeedStore
	NewID func() string
	Now   func() time.Time
}

// seedFile is the on-disk seed format. Lineups use the stored document
// shape so exported collections can be imported unchanged.
type seedFile struct {
	Team struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		InviteCode  string   `json:"inviteCode"`
		Owner       string   `json:"owner"`
		CoAdmins    []string `json:"coAdministrators"`
		Visibility  string   `json:"visibility"`
		LogoRef     string   `json:"logoRef"`
		CreatedAtMS int64    `json:"createdAt"`
	} `json:"team"`
	Members []struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Nickname   string   `json:"nickname"`
		Roles      []string `json:"roles"`
		SeniorTier bool     `json:"isTeamA"`
	} `json:"members"`
	Lineups []json.RawMessage `json:"lineups"`
}

// ParseSeedFile decodes and validates a seed file.
// POST: every returned entity passes its Validate
func ParseSeedFile(r io.Reader) (SeedTeamInput, error) {
	var f seedFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return SeedTeamInput{}, apperr.E(apperr.ValidationFailed, "parse_seed", err)
	}

	in := SeedTeamInput{Team: team.Team{
		ID:          f.Team.ID,
		Name:        strings.TrimSpace(f.Team.Name),
		InviteCode:  team.NormalizeInviteCode(f.Team.InviteCode),
		OwnerUID:    f.Team.Owner,
		CoAdminUIDs: f.Team.CoAdmins,
		Visibility:  team.NormalizeVisibility(f.Team.Visibility),
		LogoRef:     f.Team.LogoRef,
	}}
	if f.Team.CreatedAtMS > 0 {
		in.Team.CreatedAt = time.UnixMilli(f.Team.CreatedAtMS).UTC()
	}
	for _, m := range f.Members {
		in.Members = append(in.Members, member.Member{
			ID: m.ID, Name: strings.TrimSpace(m.Name), Nickname: m.Nickname, Roles: m.Roles, SeniorTier: m.SeniorTier,
		})
	}
	for i, raw := range f.Lineups {
		var head struct {
			ID   string `json:"id"`
			Date string `json:"date"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return SeedTeamInput{}, apperr.E(apperr.ValidationFailed, "parse_seed", fmt.Errorf("lineup %d: %w", i, err))
		}
		id := head.ID
		if id == "" && head.Date != "" {
			id = lineup.IDPrefix + strings.TrimSpace(head.Date)
		}
		l, err := lineupStore.Decode(id, raw)
		if err != nil {
			return SeedTeamInput{}, apperr.E(apperr.ValidationFailed, "parse_seed", err)
		}
		in.Lineups = append(in.Lineups, l)
	}
	return in, nil
}

// ExecuteSeedTeam imports a team, its members and its lineups. A team
// whose invite code already exists is reused, so seeding twice updates
// rather than duplicates.
// PRE: input came from ParseSeedFile or is otherwise populated
// POST: members and lineups are upserted on the resolved team
func ExecuteSeedTeam(ctx context.Context, input SeedTeamInput, deps SeedTeamDeps) (SeedTeamResult, error) {
	const op = "seed_team"
	t := input.Team
	if t.ID == "" {
		t.ID = newIDOr(deps.NewID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = nowOr(deps.Now).UTC()
	}
	if err := t.Validate(); err != nil {
		return SeedTeamResult{}, apperr.E(apperr.ValidationFailed, op, err)
	}

	res := SeedTeamResult{TeamID: t.ID}
	existing, err := deps.Store.GetTeamByInviteCode(ctx, t.InviteCode)
	switch {
	case err == nil:
		res.TeamID = existing.ID
		slog.Info("seed_event", "event", "team_reused", "team_id", existing.ID, "invite_code", t.InviteCode)
	case errors.Is(err, apperr.NotFound):
		if err := deps.Store.InsertTeam(ctx, t); err != nil {
			return res, apperr.Classify(apperr.TransportFailure, op, err)
		}
		res.TeamCreated = true
	default:
		return res, apperr.Classify(apperr.TransportFailure, op, err)
	}

	for _, m := range input.Members {
		if m.ID == "" {
			m.ID = newIDOr(deps.NewID)
		}
		if err := m.Validate(); err != nil {
			return res, apperr.E(apperr.ValidationFailed, op, fmt.Errorf("member %q: %w", m.Name, err))
		}
		if err := deps.Store.SaveMember(ctx, res.TeamID, m); err != nil {
			return res, apperr.Classify(apperr.TransportFailure, op, err)
		}
		res.Members++
	}

	ls := make([]lineup.Lineup, 0, len(input.Lineups))
	for _, l := range input.Lineups {
		c := l.Clone()
		c.Normalize()
		c.AssignID(newIDOr(deps.NewID))
		if err := c.Validate(); err != nil {
			return res, apperr.E(apperr.ValidationFailed, op, fmt.Errorf("lineup %s: %w", c.ID, err))
		}
		ls = append(ls, c)
	}
	n, err := deps.Store.SaveLineups(ctx, res.TeamID, ls)
	res.Lineups = n
	if err != nil {
		return res, apperr.Classify(apperr.TransportFailure, op, err)
	}

	slog.Info("seed_event", "event", "team_seeded", "team_id", res.TeamID,
		"created", res.TeamCreated, "members", res.Members, "lineups", res.Lineups)
	return res, nil
}
