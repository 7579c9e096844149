package schedule

import (
	"errors"
	"time"

	"roster/internal/domain/lineup"
)

// ErrInvalidYear is returned for years outside 1..9999.
var ErrInvalidYear = errors.New("year must be YYYY")

// MonthCount is the number of services scheduled in one month.
type MonthCount struct {
	Month   Month
	Lineups int
}

// Year summarizes a calendar year of services.
type Year struct {
	Year        int
	Months      []MonthCount // January through December
	Scheduled   int          // months holding at least one lineup
	NextService time.Time    // zero when nothing is left this year
}

// YearOverview counts lineups per month of year and finds the earliest
// service on or after today within that year.
// PRE: year is in 1..9999
// POST: len(Months) == 12; lineups outside year are ignored
func YearOverview(ls []lineup.Lineup, year int, today time.Time) (Year, error) {
	if year < 1 || year > 9999 {
		return Year{}, ErrInvalidYear
	}
	out := Year{Year: year, Months: make([]MonthCount, 12)}
	for i := range out.Months {
		out.Months[i].Month = Month{Year: year, Month: time.Month(i + 1)}
	}
	from := lineup.Date(today)
	for _, l := range ls {
		d := lineup.Date(l.ServiceDate)
		if d.Year() != year {
			continue
		}
		out.Months[d.Month()-1].Lineups++
		if d.Before(from) {
			continue
		}
		if out.NextService.IsZero() || d.Before(out.NextService) {
			out.NextService = d
		}
	}
	for _, m := range out.Months {
		if m.Lineups > 0 {
			out.Scheduled++
		}
	}
	return out, nil
}
