package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roster/internal/adapters/storage"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/outbox"
)

const (
	// Fixed width so created_at orders correctly as text.
	dateLayout = "2006-01-02T15:04:05.000000000Z07:00"
	columns    = "id, kind, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message"
)

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or apperr.NotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM outbox WHERE id = ?", id)
	e, err := scanEntry(row.Scan)
	if storage.IsNoRows(err) {
		return domain.Entry{}, apperr.Errorf(apperr.NotFound, "get_outbox", "outbox entry %s not found", id)
	}
	return e, apperr.Classify(apperr.TransportFailure, "get_outbox", err)
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	var lastAttemptedAt any
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = e.LastAttemptedAt.UTC().Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, external_id=excluded.external_id,
		   error_message=excluded.error_message`,
		e.ID, e.Kind, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, e.CreatedAt.UTC().Format(dateLayout), e.ExternalID, e.ErrorMessage)
	return apperr.Classify(apperr.TransportFailure, "save_outbox", err)
}

// ListPending returns entries that still need delivery.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by created_at
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM outbox WHERE status IN (?, ?) ORDER BY created_at ASC LIMIT ?",
		domain.StatusPending, domain.StatusRetrying, limit)
	if err != nil {
		return nil, apperr.E(apperr.TransportFailure, "list_outbox", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByStatus returns entries in one status, newest first.
// PRE: limit > 0
// POST: Returns up to limit entries
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM outbox WHERE status = ? ORDER BY created_at DESC LIMIT ?", status, limit)
	if err != nil {
		return nil, apperr.E(apperr.TransportFailure, "list_outbox", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// scanEntry scans a single row into an Entry.
func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt string
	var lastAttemptedAt sql.NullString
	err := scan(&e.ID, &e.Kind, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	if e.CreatedAt, err = time.Parse(dateLayout, createdAt); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox %s created_at: %w", e.ID, err)
	}
	if lastAttemptedAt.Valid && lastAttemptedAt.String != "" {
		if e.LastAttemptedAt, err = time.Parse(dateLayout, lastAttemptedAt.String); err != nil {
			return domain.Entry{}, fmt.Errorf("outbox %s last_attempted_at: %w", e.ID, err)
		}
	}
	return e, nil
}

// scanEntries scans multiple rows into a slice of Entries.
func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, apperr.E(apperr.TransportFailure, "scan_outbox", err)
		}
		entries = append(entries, e)
	}
	return entries, apperr.Classify(apperr.TransportFailure, "scan_outbox", rows.Err())
}
