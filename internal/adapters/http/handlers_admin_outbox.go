package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"roster/internal/adapters/http/middleware"
	"roster/internal/domain/outbox"
)

// handleListOutbox lists notice deliveries for operators.
// Query: status (default failed, "all" for everything still queued), limit (1-100, default 50)
func (s *server) handleListOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = outbox.StatusFailed
	}

	var entries []outbox.Entry
	var err error
	switch status {
	case "all":
		entries, err = s.deps.Outbox.ListPending(ctx, limit)
	case outbox.StatusPending, outbox.StatusRetrying, outbox.StatusDone, outbox.StatusFailed, outbox.StatusAbandoned:
		entries, err = s.deps.Outbox.ListByStatus(ctx, status, limit)
	default:
		badRequest(w, "unknown status")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutboxEntries(entries))
}

func (s *server) handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if err := s.deps.Processor.ProcessSingle(r.Context(), entryID); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("outbox_event", "event", "manual_retry", "entry_id", entryID, "by", middleware.IdentityFrom(r.Context()).UID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "retry triggered"})
}

func (s *server) handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if err := s.deps.Processor.AbandonEntry(r.Context(), entryID); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("outbox_event", "event", "manual_abandon", "entry_id", entryID, "by", middleware.IdentityFrom(r.Context()).UID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}
