package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"roster/internal/application/syncstore"
	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/schedule"
)

// RosterSession is the synchronized roster a copy reads from and writes to.
type RosterSession interface {
	View() syncstore.View
	AddLineups(ctx context.Context, ls []lineup.Lineup) ([]lineup.Lineup, error)
}

// CopyMonthInput carries input for the orchestrator.
type CopyMonthInput struct {
	Source schedule.Month
	Target schedule.Month
}

// CopyMonthResult reports what the copy produced.
type CopyMonthResult struct {
	Lineups []lineup.Lineup
	Copied  int
	Blank   int
	Dropped int
	Applied int // documents written; less than len(Lineups) only on failure
}

// CopyMonthDeps holds dependencies for CopyMonth.
type CopyMonthDeps struct {
	Roster RosterSession
}

// ExecuteCopyMonth fills every Sunday of the target month from the source
// month's lineups in one bulk write. Target dates that already hold a
// lineup are overwritten, so re-running after a partial failure repairs
// the month.
// PRE: Roster is ready and the caller can manage it
// POST: on success every target Sunday has exactly one lineup
// INVARIANT: the source month is never written
func ExecuteCopyMonth(ctx context.Context, input CopyMonthInput, deps CopyMonthDeps) (CopyMonthResult, error) {
	const op = "copy_month"
	v := deps.Roster.View()
	if !v.Ready() {
		return CopyMonthResult{}, apperr.Errorf(apperr.Unauthorized, op, "roster is %s", v.Status)
	}

	plan, err := schedule.PlanCopyMonth(v.Lineups, input.Source, input.Target)
	if err != nil {
		return CopyMonthResult{}, apperr.E(apperr.ValidationFailed, op, err)
	}
	res := CopyMonthResult{Copied: plan.Copied, Blank: plan.Blank, Dropped: plan.Dropped}

	written, err := deps.Roster.AddLineups(ctx, plan.Lineups)
	if err != nil {
		var bulk *syncstore.BulkError
		if errors.As(err, &bulk) {
			res.Applied = bulk.Applied
		}
		slog.Warn("schedule_event", "event", "copy_month_failed", "team_id", v.Team.ID,
			"source", input.Source.String(), "target", input.Target.String(), "applied", res.Applied, "error", err.Error())
		return res, err
	}
	res.Lineups = written
	res.Applied = len(written)

	slog.Info("schedule_event", "event", "month_copied", "team_id", v.Team.ID,
		"source", input.Source.String(), "target", input.Target.String(),
		"copied", res.Copied, "blank", res.Blank, "dropped", res.Dropped)
	return res, nil
}
