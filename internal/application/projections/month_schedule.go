package projections

import (
	"context"
	"errors"
	"time"

	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/schedule"
	"roster/internal/domain/team"
)

// RosterReader reads a team and its roster collections.
type RosterReader interface {
	GetTeam(ctx context.Context, id string) (team.Team, error)
	ListMembers(ctx context.Context, teamID string) ([]member.Member, error)
	ListLineups(ctx context.Context, teamID string, from, to string) ([]lineup.Lineup, error)
}

// MonthScheduleQuery carries query parameters.
type MonthScheduleQuery struct {
	TeamID string
	Month  schedule.Month
	Viewer membership.Identity
}

// MonthScheduleDeps holds dependencies for MonthSchedule.
type MonthScheduleDeps struct {
	Roster      RosterReader
	Memberships MembershipReader
}

// ScheduleEntry is one service in a month view.
type ScheduleEntry struct {
	Lineup     lineup.Lineup
	Leaders    string // display label for the service's leaders
	NextLeader string // inferred leaders of the following service
}

// MonthSchedule is a team's services for one month.
type MonthSchedule struct {
	Team    TeamSummary
	Month   schedule.Month
	Theme   string
	Entries []ScheduleEntry
	Sundays []time.Time
	Members []member.Member
}

// QueryMonthSchedule builds the month view for a readable team.
// PRE: Month is valid
// POST: entries ascend by date; each entry's NextLeader looks past the month end
// INVARIANT: unreadable teams return ErrTeamNotFound
func QueryMonthSchedule(ctx context.Context, query MonthScheduleQuery, deps MonthScheduleDeps) (MonthSchedule, error) {
	const op = "month_schedule"
	if err := query.Month.Validate(); err != nil {
		return MonthSchedule{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	t, err := readableTeam(ctx, query.TeamID, query.Viewer, deps.Roster, deps.Memberships)
	if err != nil {
		return MonthSchedule{}, err
	}

	members, err := deps.Roster.ListMembers(ctx, t.ID)
	if err != nil {
		return MonthSchedule{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	// Everything from the month start on, so the last service can see the next.
	ls, err := deps.Roster.ListLineups(ctx, t.ID, lineup.FormatDate(query.Month.First()), "")
	if err != nil {
		return MonthSchedule{}, apperr.Classify(apperr.TransportFailure, op, err)
	}

	names := member.NewLookup(members)
	out := MonthSchedule{
		Team:    t,
		Month:   query.Month,
		Theme:   schedule.MonthTheme(ls, query.Month),
		Sundays: schedule.SundaysInMonth(query.Month),
		Members: members,
	}
	for _, l := range schedule.LineupsForMonth(ls, query.Month) {
		e := ScheduleEntry{Lineup: l, Leaders: schedule.LeaderLabel(l, names)}
		if next, ok := schedule.InferNextLeader(ls, l.ServiceDate, names); ok {
			e.NextLeader = next
		}
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

// readableTeam loads a team and hides it behind ErrTeamNotFound when the
// viewer may not read it.
func readableTeam(ctx context.Context, teamID string, viewer membership.Identity, teams interface {
	GetTeam(ctx context.Context, id string) (team.Team, error)
}, memberships MembershipReader) (TeamSummary, error) {
	t, err := teams.GetTeam(ctx, teamID)
	if errors.Is(err, apperr.NotFound) {
		return TeamSummary{}, ErrTeamNotFound
	}
	if err != nil {
		return TeamSummary{}, apperr.Classify(apperr.TransportFailure, "read_team", err)
	}
	caps, err := viewerCapabilities(ctx, viewer, t, memberships)
	if err != nil {
		return TeamSummary{}, err
	}
	if !caps.CanRead {
		return TeamSummary{}, ErrTeamNotFound
	}
	return summarize(t, caps), nil
}
