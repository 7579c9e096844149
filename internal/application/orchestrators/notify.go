package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"roster/internal/domain/outbox"
)

// OutboxWriter persists outbox entries.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// ScheduleURL is the public schedule address for an invite code.
func ScheduleURL(baseURL, inviteCode string) string {
	if baseURL == "" || inviteCode == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/t/" + inviteCode
}

// enqueueNotice writes a notice to the outbox for later delivery. A notice
// that cannot be queued is logged and dropped; it never fails the action
// that produced it.
func enqueueNotice(ctx context.Context, store OutboxWriter, kind string, notice any, now time.Time) {
	if store == nil {
		return
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		slog.Error("notice_encode_failed", "kind", kind, "error", err.Error())
		return
	}
	e := outbox.NewEntry(uuid.NewString(), kind, string(payload), now)
	if err := e.Validate(); err != nil {
		slog.Error("notice_invalid", "kind", kind, "error", err.Error())
		return
	}
	if err := store.Save(ctx, e); err != nil {
		slog.Warn("notice_enqueue_failed", "kind", kind, "entry_id", e.ID, "error", err.Error())
		return
	}
	slog.Info("notice_event", "event", "notice_enqueued", "kind", kind, "entry_id", e.ID)
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}

func newIDOr(newID func() string) string {
	if newID == nil {
		return uuid.NewString()
	}
	return newID()
}

// opError formats an orchestrator failure that carries no kind of its own.
func opError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
