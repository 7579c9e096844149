package projections

import (
	"context"
	"fmt"
	"time"

	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/schedule"
)

// YearOverviewQuery carries query parameters.
type YearOverviewQuery struct {
	TeamID string
	Year   int
	Viewer membership.Identity
	Today  time.Time
}

// YearOverviewDeps holds dependencies for YearOverview.
type YearOverviewDeps struct {
	Roster      RosterReader
	Memberships MembershipReader
}

// YearOverview is a readable team's calendar year at a glance.
type YearOverview struct {
	Team TeamSummary
	schedule.Year
}

// QueryYearOverview counts a team's services per month of one year.
// PRE: Year is in 1..9999
// INVARIANT: unreadable teams return ErrTeamNotFound
func QueryYearOverview(ctx context.Context, query YearOverviewQuery, deps YearOverviewDeps) (YearOverview, error) {
	const op = "year_overview"
	if query.Year < 1 || query.Year > 9999 {
		return YearOverview{}, apperr.E(apperr.ValidationFailed, op, schedule.ErrInvalidYear)
	}
	t, err := readableTeam(ctx, query.TeamID, query.Viewer, deps.Roster, deps.Memberships)
	if err != nil {
		return YearOverview{}, err
	}
	from := fmt.Sprintf("%04d-01-01", query.Year)
	to := fmt.Sprintf("%04d-01-01", query.Year+1)
	ls, err := deps.Roster.ListLineups(ctx, t.ID, from, to)
	if err != nil {
		return YearOverview{}, apperr.Classify(apperr.TransportFailure, op, err)
	}
	y, err := schedule.YearOverview(ls, query.Year, query.Today)
	if err != nil {
		return YearOverview{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	return YearOverview{Team: t, Year: y}, nil
}
