package schedule_test

import (
	"testing"
	"time"

	"roster/internal/domain/lineup"
	"roster/internal/domain/schedule"
)

func TestSongHistory(t *testing.T) {
	ls := []lineup.Lineup{
		{ServiceDate: date("2026-01-04"), Songs: []lineup.Song{{Title: "Holy", Link: "old"}, {Title: "Grace"}}},
		{ServiceDate: date("2026-02-01"), Songs: []lineup.Song{{Title: "holy ", Link: "new"}}},
		{ServiceDate: date("2026-01-11"), Songs: []lineup.Song{{Title: "Grace", Link: "g"}, {Title: ""}}},
	}
	got := schedule.SongHistory(ls)
	if len(got) != 2 {
		t.Fatalf("history = %+v", got)
	}
	if got[0].Title != "Holy" || got[0].Link != "new" || !got[0].LastUsed.Equal(date("2026-02-01")) {
		t.Errorf("first = %+v", got[0])
	}
	if len(got[0].Dates) != 2 || !got[0].Dates[0].Equal(date("2026-02-01")) {
		t.Errorf("dates not descending: %v", got[0].Dates)
	}
	if got[1].Title != "Grace" || got[1].Link != "g" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestMonthTheme(t *testing.T) {
	ls := []lineup.Lineup{
		{ServiceDate: date("2026-03-08"), Theme: "Later"},
		{ServiceDate: date("2026-03-01")},
		{ServiceDate: date("2026-03-15"), Theme: "Last"},
	}
	if got := schedule.MonthTheme(ls, schedule.Month{Year: 2026, Month: time.March}); got != "Later" {
		t.Errorf("MonthTheme = %q", got)
	}
}
