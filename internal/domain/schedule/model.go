// Package schedule answers calendar questions over a team's lineup list:
// month filtering, duplicate detection, next-leader inference and the
// month-to-month copy plan. Every function is pure; callers pass the
// cached lineups in and write any results back through the sync store.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"roster/internal/domain/lineup"
)

// SeniorTierLeaderLabel stands in for leader names when the next service
// is a senior-tier one.
const SeniorTierLeaderLabel = "Team A"

// LeaderSeparator joins multiple leader names.
const LeaderSeparator = " & "

// MonthLayout is the canonical month encoding.
const MonthLayout = "2006-01"

// Domain errors
var (
	ErrInvalidMonth = errors.New("month must be YYYY-MM")
	ErrSameMonth    = errors.New("source and target month must differ")
)

// NameLookup resolves a member id to a display name.
type NameLookup interface {
	Name(id string) string
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Validate checks the month number.
func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December || m.Year <= 0 {
		return ErrInvalidMonth
	}
	return nil
}

// Contains reports whether t falls in the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// First returns the first day of the month at UTC midnight.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LineupsForMonth filters lineups to month, ascending by service date.
// POST: input slice is not reordered
func LineupsForMonth(ls []lineup.Lineup, m Month) []lineup.Lineup {
	var out []lineup.Lineup
	for _, l := range ls {
		if m.Contains(l.ServiceDate) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, lineup.SortKey)
	return out
}

// DetectDuplicate finds a lineup already occupying date, ignoring
// excludingID so an edit does not collide with itself.
// A duplicate is a warning for the caller; nothing here blocks creation.
func DetectDuplicate(ls []lineup.Lineup, date time.Time, excludingID string) (lineup.Lineup, bool) {
	d := lineup.Date(date)
	for _, l := range ls {
		if excludingID != "" && l.ID == excludingID {
			continue
		}
		if lineup.Date(l.ServiceDate).Equal(d) {
			return l, true
		}
	}
	return lineup.Lineup{}, false
}

// InferNextLeader labels the leaders of the earliest lineup strictly after
// the given date.
// POST: ok is false only when no later lineup exists
// Senior-tier services always yield SeniorTierLeaderLabel. Unknown leaders
// are shown with the lookup's placeholder; a lineup with no assigned
// leader yields an empty label.
func InferNextLeader(ls []lineup.Lineup, after time.Time, names NameLookup) (string, bool) {
	cutoff := lineup.Date(after)
	var next *lineup.Lineup
	for i := range ls {
		l := &ls[i]
		if !lineup.Date(l.ServiceDate).After(cutoff) {
			continue
		}
		if next == nil || lineup.SortKey(*l, *next) < 0 {
			next = l
		}
	}
	if next == nil {
		return "", false
	}
	return LeaderLabel(*next, names), true
}

// LeaderLabel names who leads l: SeniorTierLeaderLabel for senior-tier
// services, otherwise every assigned leader slot's name joined by
// LeaderSeparator. Empty slots are skipped.
func LeaderLabel(l lineup.Lineup, names NameLookup) string {
	if l.SeniorTier {
		return SeniorTierLeaderLabel
	}
	parts := make([]string, 0, len(l.WorshipLeaders))
	for _, s := range l.WorshipLeaders {
		if strings.TrimSpace(s.MemberID) == "" {
			continue
		}
		parts = append(parts, names.Name(s.MemberID))
	}
	return strings.Join(parts, LeaderSeparator)
}

// SundaysInMonth lists every Sunday of the month in ascending order.
// POST: strictly ascending, all in month, 4 or 5 entries
func SundaysInMonth(m Month) []time.Time {
	first := m.First()
	offset := (int(time.Sunday) - int(first.Weekday()) + 7) % 7
	var out []time.Time
	for d := first.AddDate(0, 0, offset); m.Contains(d); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}

// CopyPlan is the outcome of mapping one month onto another.
type CopyPlan struct {
	Lineups []lineup.Lineup // one per target Sunday, ascending
	Copied  int             // lineups taken from the source month
	Blank   int             // unassigned lineups for surplus Sundays
	Dropped int             // source lineups beyond the target's Sundays
}

// PlanCopyMonth maps the source month's lineups, in date order, onto the
// target month's Sundays. The i-th source lineup fills the i-th Sunday;
// surplus Sundays get a blank lineup and surplus source lineups are
// dropped. Copies never carry an id, service date, rehearsal date or
// next-leader hint from the source.
// PRE: src and dst are valid months
// POST: len(plan.Lineups) == len(SundaysInMonth(dst)); every lineup has an id
func PlanCopyMonth(ls []lineup.Lineup, src, dst Month) (CopyPlan, error) {
	if err := src.Validate(); err != nil {
		return CopyPlan{}, err
	}
	if err := dst.Validate(); err != nil {
		return CopyPlan{}, err
	}
	if src == dst {
		return CopyPlan{}, ErrSameMonth
	}

	source := LineupsForMonth(ls, src)
	sundays := SundaysInMonth(dst)
	n := min(len(source), len(sundays))

	plan := CopyPlan{
		Lineups: make([]lineup.Lineup, 0, len(sundays)),
		Copied:  n,
		Blank:   len(sundays) - n,
		Dropped: len(source) - n,
	}
	for i, sunday := range sundays {
		var l lineup.Lineup
		if i < n {
			l = source[i].Retarget(sunday)
		} else {
			l = lineup.Blank(sunday)
		}
		l.AssignID("")
		plan.Lineups = append(plan.Lineups, l)
	}
	return plan, nil
}
