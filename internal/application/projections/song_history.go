package projections

import (
	"context"

	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/schedule"
)

// SongHistoryQuery carries query parameters.
type SongHistoryQuery struct {
	TeamID string
	Viewer membership.Identity
}

// SongHistoryDeps holds dependencies for SongHistory.
type SongHistoryDeps struct {
	Roster      RosterReader
	Memberships MembershipReader
}

// QuerySongHistory lists every song the team has sung, most recent first.
// INVARIANT: unreadable teams return ErrTeamNotFound
func QuerySongHistory(ctx context.Context, query SongHistoryQuery, deps SongHistoryDeps) ([]schedule.SongUsage, error) {
	t, err := readableTeam(ctx, query.TeamID, query.Viewer, deps.Roster, deps.Memberships)
	if err != nil {
		return nil, err
	}
	ls, err := deps.Roster.ListLineups(ctx, t.ID, "", "")
	if err != nil {
		return nil, apperr.Classify(apperr.TransportFailure, "song_history", err)
	}
	return schedule.SongHistory(ls), nil
}
