package schedule

import (
	"slices"
	"strings"
	"time"

	"roster/internal/domain/lineup"
)

// SongUsage summarises how often a song has been used.
type SongUsage struct {
	Title    string
	Link     string // most recent non-empty link
	Dates    []time.Time
	LastUsed time.Time
}

// SongHistory lists every distinct song title across lineups, grouping
// titles case-insensitively.
// POST: sorted by LastUsed descending, then title; Dates descending
func SongHistory(ls []lineup.Lineup) []SongUsage {
	byKey := map[string]*SongUsage{}
	var order []string
	for _, l := range ls {
		for _, s := range l.Songs {
			key := strings.ToLower(strings.TrimSpace(s.Title))
			if key == "" {
				continue
			}
			u, ok := byKey[key]
			if !ok {
				u = &SongUsage{Title: strings.TrimSpace(s.Title)}
				byKey[key] = u
				order = append(order, key)
			}
			if !slices.ContainsFunc(u.Dates, l.ServiceDate.Equal) {
				u.Dates = append(u.Dates, l.ServiceDate)
			}
			if !l.ServiceDate.Before(u.LastUsed) {
				u.LastUsed = l.ServiceDate
				if s.Link != "" {
					u.Link = s.Link
				}
			} else if u.Link == "" {
				u.Link = s.Link
			}
		}
	}

	out := make([]SongUsage, 0, len(order))
	for _, k := range order {
		u := byKey[k]
		slices.SortFunc(u.Dates, func(a, b time.Time) int { return b.Compare(a) })
		out = append(out, *u)
	}
	slices.SortStableFunc(out, func(a, b SongUsage) int {
		if c := b.LastUsed.Compare(a.LastUsed); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return out
}

// MonthTheme returns the first non-empty theme among the month's lineups.
func MonthTheme(ls []lineup.Lineup, m Month) string {
	for _, l := range LineupsForMonth(ls, m) {
		if l.Theme != "" {
			return l.Theme
		}
	}
	return ""
}
