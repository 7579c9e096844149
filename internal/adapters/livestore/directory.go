package livestore

import (
	"context"

	"roster/internal/adapters/changefeed"
	lineupStore "roster/internal/adapters/storage/lineup"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// GetTeam returns a team by id.
func (b *Backend) GetTeam(ctx context.Context, id string) (team.Team, error) {
	return b.teams.GetByID(ctx, id)
}

// GetTeamByInviteCode returns a team by its normalized invite code.
func (b *Backend) GetTeamByInviteCode(ctx context.Context, code string) (team.Team, error) {
	return b.teams.GetByInviteCode(ctx, code)
}

// SearchPublicTeams matches public team names.
func (b *Backend) SearchPublicTeams(ctx context.Context, term string, limit int) ([]team.Team, error) {
	return b.teams.SearchPublicByName(ctx, term, limit)
}

// InsertTeam creates a team. A duplicate invite code fails with apperr.Collision.
func (b *Backend) InsertTeam(ctx context.Context, t team.Team) error {
	return b.teams.Insert(ctx, t)
}

// SaveTeam updates team settings and notifies watchers.
func (b *Backend) SaveTeam(ctx context.Context, t team.Team) error {
	if err := b.teams.Save(ctx, t); err != nil {
		return err
	}
	b.feed.Publish(changefeed.TeamTopic(t.ID))
	return nil
}

// GetMembership returns uid's membership record.
func (b *Backend) GetMembership(ctx context.Context, uid string) (membership.Membership, error) {
	return b.memberships.Get(ctx, uid)
}

// SaveMembership writes a membership record and notifies watchers.
func (b *Backend) SaveMembership(ctx context.Context, m membership.Membership) error {
	if err := b.memberships.Save(ctx, m); err != nil {
		return err
	}
	b.feed.Publish(changefeed.UserTopic(m.Identity.UID))
	return nil
}

// ListMembers returns a team's members.
func (b *Backend) ListMembers(ctx context.Context, teamID string) ([]member.Member, error) {
	return b.members.ListByTeam(ctx, teamID)
}

// ListLineups returns a team's lineups in the optional date range.
func (b *Backend) ListLineups(ctx context.Context, teamID string, from, to string) ([]lineup.Lineup, error) {
	return b.lineups.List(ctx, teamID, lineupStore.ListFilter{From: from, To: to})
}
