package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"roster/internal/adapters/http/middleware"
	"roster/internal/application/orchestrators"
	"roster/internal/application/syncstore"
	"roster/internal/domain/schedule"
)

// WarningHeader flags a lineup whose service date is shared with another.
// The write still happens.
const WarningHeader = "X-Roster-Warning"

type copyMonthRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type copyMonthResponse struct {
	Copied  int          `json:"copied"`
	Blank   int          `json:"blank"`
	Dropped int          `json:"dropped"`
	Applied int          `json:"applied"`
	Lineups []lineupJSON `json:"lineups"`
}

// withRoster attaches the caller to their active team for the length of
// one request and hands the session to fn. Mutations on a view that is
// not ready are refused by the session itself.
func (s *server) withRoster(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, store *syncstore.Store, v syncstore.View)) {
	store := s.newSession()
	defer store.Detach()

	ctx, cancel := context.WithTimeout(r.Context(), attachTimeout)
	defer cancel()
	v, err := store.Attach(ctx, middleware.IdentityFrom(r.Context()))
	if err != nil && (v.Status == syncstore.StatusDetached || v.Status == syncstore.StatusLoading) {
		writeError(w, err)
		return
	}
	fn(r.Context(), store, v)
}

func (s *server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberJSON
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid member body")
		return
	}
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, _ syncstore.View) {
		m, err := store.AddMember(ctx, req.domain())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMember(m))
	})
}

func (s *server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberJSON
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid member body")
		return
	}
	req.ID = chi.URLParam(r, "memberID")
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, _ syncstore.View) {
		m, err := store.UpdateMember(ctx, req.domain())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMember(m))
	})
}

func (s *server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberID")
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, _ syncstore.View) {
		if err := store.RemoveMember(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// warnDuplicate sets WarningHeader when another lineup already holds date.
func warnDuplicate(w http.ResponseWriter, v syncstore.View, date time.Time, excludingID string) {
	if dup, ok := v.DetectDuplicate(date, excludingID); ok {
		w.Header().Set(WarningHeader, "duplicate-date="+dup.ID)
	}
}

func (s *server) handleAddLineup(w http.ResponseWriter, r *http.Request) {
	const op = "add_lineup"
	var req lineupJSON
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid lineup body")
		return
	}
	l, err := req.domain(op)
	if err != nil {
		writeError(w, err)
		return
	}
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, v syncstore.View) {
		warnDuplicate(w, v, l.ServiceDate, "")
		out, err := store.AddLineup(ctx, l)
		if err != nil {
			w.Header().Del(WarningHeader)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLineup(out))
	})
}

func (s *server) handleUpdateLineup(w http.ResponseWriter, r *http.Request) {
	const op = "update_lineup"
	var req lineupJSON
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid lineup body")
		return
	}
	req.ID = chi.URLParam(r, "lineupID")
	l, err := req.domain(op)
	if err != nil {
		writeError(w, err)
		return
	}
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, v syncstore.View) {
		warnDuplicate(w, v, l.ServiceDate, l.ID)
		out, err := store.UpdateLineup(ctx, l)
		if err != nil {
			w.Header().Del(WarningHeader)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLineup(out))
	})
}

func (s *server) handleRemoveLineup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "lineupID")
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, _ syncstore.View) {
		if err := store.RemoveLineup(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *server) handleCopyMonth(w http.ResponseWriter, r *http.Request) {
	var req copyMonthRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid copy-month body")
		return
	}
	src, err := schedule.ParseMonth(req.Source)
	if err != nil {
		badRequest(w, "source must be YYYY-MM")
		return
	}
	dst, err := schedule.ParseMonth(req.Target)
	if err != nil {
		badRequest(w, "target must be YYYY-MM")
		return
	}
	s.withRoster(w, r, func(ctx context.Context, store *syncstore.Store, _ syncstore.View) {
		res, err := orchestrators.ExecuteCopyMonth(ctx, orchestrators.CopyMonthInput{Source: src, Target: dst},
			orchestrators.CopyMonthDeps{Roster: store})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, copyMonthResponse{
			Copied:  res.Copied,
			Blank:   res.Blank,
			Dropped: res.Dropped,
			Applied: res.Applied,
			Lineups: toLineups(res.Lineups),
		})
	})
}
