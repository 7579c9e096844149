package projections

import (
	"context"

	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/schedule"
)

// LineupCardQuery carries query parameters.
type LineupCardQuery struct {
	TeamID   string
	LineupID string
	Viewer   membership.Identity
}

// LineupCardDeps holds dependencies for LineupCard.
type LineupCardDeps struct {
	Roster      RosterReader
	Memberships MembershipReader
}

// LineupCard is everything needed to draw one lineup as an image.
type LineupCard struct {
	Team       TeamSummary
	Lineup     lineup.Lineup
	Names      member.Lookup
	NextLeader string
}

// QueryLineupCard loads one lineup with its member names and the inferred
// leaders of the following service.
// PRE: LineupID is non-empty
// POST: NextLeader is the lineup's own hint when it has one
// INVARIANT: unreadable teams return ErrTeamNotFound
func QueryLineupCard(ctx context.Context, query LineupCardQuery, deps LineupCardDeps) (LineupCard, error) {
	const op = "lineup_card"
	if query.LineupID == "" {
		return LineupCard{}, apperr.Errorf(apperr.ValidationFailed, op, "lineup id is required")
	}
	t, err := readableTeam(ctx, query.TeamID, query.Viewer, deps.Roster, deps.Memberships)
	if err != nil {
		return LineupCard{}, err
	}
	members, err := deps.Roster.ListMembers(ctx, t.ID)
	if err != nil {
		return LineupCard{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	ls, err := deps.Roster.ListLineups(ctx, t.ID, "", "")
	if err != nil {
		return LineupCard{}, apperr.Classify(apperr.TransportFailure, op, err)
	}

	names := member.NewLookup(members)
	for _, l := range ls {
		if l.ID != query.LineupID {
			continue
		}
		card := LineupCard{Team: t, Lineup: l, Names: names, NextLeader: l.NextLeader}
		if card.NextLeader == "" {
			card.NextLeader, _ = schedule.InferNextLeader(ls, l.ServiceDate, names)
		}
		return card, nil
	}
	return LineupCard{}, apperr.E(apperr.NotFound, op, lineup.ErrNotFound)
}
