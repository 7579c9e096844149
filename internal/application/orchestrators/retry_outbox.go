package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	outboxStore "roster/internal/adapters/storage/outbox"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/outbox"
)

// ErrUndeliverable marks an executor failure that no retry can fix.
var ErrUndeliverable = errors.New("notice cannot be delivered")

// OutboxProcessor delivers queued notices, retrying failures with
// exponential backoff.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	observer  DeliveryObserver
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int // attempts per pass
	scanLimit int // queued entries examined per pass
	now       func() time.Time
}

// ActionExecutor delivers one kind of notice.
type ActionExecutor interface {
	// Execute delivers the notice in payload and returns the provider's
	// message id. Errors wrapping ErrUndeliverable are never retried.
	Execute(ctx context.Context, payload string) (string, error)
}

// DeliveryObserver is told the status each processed entry ends in.
type DeliveryObserver interface {
	ObserveDelivery(kind, status string)
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, observer DeliveryObserver) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		observer:  observer,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
		scanLimit: 200,
		now:       time.Now,
	}
}

// ProcessPending attempts up to batchSize due entries, oldest first.
// Entries still in backoff are skipped without counting against the batch,
// so a run of failing notices cannot starve newer ones.
// POST: returns an error only when the queue cannot be read
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.scanLimit)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	attempted := 0
	for _, entry := range entries {
		if attempted == p.batchSize || ctx.Err() != nil {
			break
		}
		if !entry.Due(p.now(), p.baseDelay, p.maxDelay) {
			continue
		}
		attempted++
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "kind", entry.Kind, "error", err.Error())
		}
	}
	return nil
}

// processEntry attempts a single entry and saves its new state.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) error {
	executor, ok := p.executors[entry.Kind]
	if !ok {
		entry.MarkAbandoned(fmt.Errorf("no executor registered for kind: %s", entry.Kind))
		return p.save(ctx, entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	switch {
	case errors.Is(err, ErrUndeliverable):
		entry.MarkAbandoned(err)
		slog.Warn("outbox_action_abandoned", "entry_id", entry.ID, "kind", entry.Kind, "error", err.Error())
	case err != nil:
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	default:
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "kind", entry.Kind, "external_id", externalID)
	}

	return p.save(ctx, entry)
}

func (p *OutboxProcessor) save(ctx context.Context, entry domain.Entry) error {
	if p.observer != nil {
		p.observer.ObserveDelivery(entry.Kind, entry.Status)
	}
	return p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry, ignoring backoff.
// PRE: entryID is non-empty
// POST: Entry is processed, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	if entry.IsTerminal() {
		return apperr.Errorf(apperr.ValidationFailed, "retry_outbox", "entry %s is in terminal state and cannot be retried", entryID)
	}

	return p.processEntry(ctx, entry)
}

// AbandonEntry stops further attempts on a queued or failed entry.
// Delivered entries cannot be abandoned.
// POST: entry status is abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == domain.StatusDone {
		return apperr.Errorf(apperr.ValidationFailed, "abandon_outbox", "entry %s was already delivered", entryID)
	}

	entry.MarkAbandoned(errors.New("abandoned by operator"))
	return p.save(ctx, entry)
}

// StartBackgroundWorker periodically processes pending outbox entries.
// POST: Worker runs until ctx ends
func StartBackgroundWorker(ctx context.Context, processor *OutboxProcessor, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				if err := processor.ProcessPending(runCtx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-ctx.Done():
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
