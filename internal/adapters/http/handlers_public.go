package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"roster/internal/adapters/http/middleware"
	"roster/internal/adapters/lineupimage"
	"roster/internal/application/orchestrators"
	"roster/internal/application/projections"
	"roster/internal/domain/schedule"
)

func (s *server) handleSearchTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := projections.QuerySearchPublicTeams(r.Context(), projections.SearchPublicTeamsQuery{
		Term: r.URL.Query().Get("q"),
	}, projections.SearchPublicTeamsDeps{Teams: s.deps.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]teamJSON, 0, len(teams))
	for _, t := range teams {
		out = append(out, s.fromSummary(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) resolve(r *http.Request) (projections.TeamSummary, error) {
	return projections.QueryResolveByInviteCode(r.Context(), projections.ResolveByInviteCodeQuery{
		Code:   chi.URLParam(r, "code"),
		Viewer: middleware.IdentityFrom(r.Context()),
	}, projections.ResolveByInviteCodeDeps{Teams: s.deps.Backend, Memberships: s.deps.Backend})
}

func (s *server) handleResolveTeam(w http.ResponseWriter, r *http.Request) {
	t, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fromSummary(t))
}

// handleInviteLink serves the public schedule address printed on invites
// and lineup cards: the resolved team plus its schedule for ?month=, or
// the current month.
func (s *server) handleInviteLink(w http.ResponseWriter, r *http.Request) {
	t, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	month := schedule.MonthOf(s.deps.Now())
	if raw := r.URL.Query().Get("month"); raw != "" {
		if month, err = schedule.ParseMonth(raw); err != nil {
			badRequest(w, "month must be YYYY-MM")
			return
		}
	}
	s.writeMonthSchedule(w, r, t.ID, month)
}

func (s *server) handleMonthSchedule(w http.ResponseWriter, r *http.Request) {
	month, err := schedule.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		badRequest(w, "month must be YYYY-MM")
		return
	}
	s.writeMonthSchedule(w, r, chi.URLParam(r, "teamID"), month)
}

func (s *server) writeMonthSchedule(w http.ResponseWriter, r *http.Request, teamID string, month schedule.Month) {
	ms, err := projections.QueryMonthSchedule(r.Context(), projections.MonthScheduleQuery{
		TeamID: teamID,
		Month:  month,
		Viewer: middleware.IdentityFrom(r.Context()),
	}, projections.MonthScheduleDeps{Roster: s.deps.Backend, Memberships: s.deps.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toMonthSchedule(ms))
}

func (s *server) handleYearOverview(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || len(raw) != 4 {
		badRequest(w, "year must be YYYY")
		return
	}
	y, err := projections.QueryYearOverview(r.Context(), projections.YearOverviewQuery{
		TeamID: chi.URLParam(r, "teamID"),
		Year:   year,
		Viewer: middleware.IdentityFrom(r.Context()),
		Today:  s.deps.Now(),
	}, projections.YearOverviewDeps{Roster: s.deps.Backend, Memberships: s.deps.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toYearOverview(y))
}

func (s *server) handleSongHistory(w http.ResponseWriter, r *http.Request) {
	songs, err := projections.QuerySongHistory(r.Context(), projections.SongHistoryQuery{
		TeamID: chi.URLParam(r, "teamID"),
		Viewer: middleware.IdentityFrom(r.Context()),
	}, projections.SongHistoryDeps{Roster: s.deps.Backend, Memberships: s.deps.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSongUsage(songs))
}

// handleLineupImage renders the shareable card. The footer carries the
// public schedule link only for viewers allowed to see the invite code.
func (s *server) handleLineupImage(w http.ResponseWriter, r *http.Request) {
	card, err := projections.QueryLineupCard(r.Context(), projections.LineupCardQuery{
		TeamID:   chi.URLParam(r, "teamID"),
		LineupID: chi.URLParam(r, "lineupID"),
		Viewer:   middleware.IdentityFrom(r.Context()),
	}, projections.LineupCardDeps{Roster: s.deps.Backend, Memberships: s.deps.Backend})
	if err != nil {
		writeError(w, err)
		return
	}

	opts := lineupimage.Options{TeamName: card.Team.Name, NextLeader: card.NextLeader}
	if card.Team.InviteCode != "" {
		opts.PublicURL = orchestrators.ScheduleURL(s.deps.PublicBaseURL, card.Team.InviteCode)
	}
	png, err := s.deps.Renderer.Render(card.Lineup, card.Names, opts)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, no-cache")
	_, _ = w.Write(png)
}
