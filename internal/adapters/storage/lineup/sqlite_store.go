package lineup

import (
	"context"
	"database/sql"
	"time"

	"roster/internal/adapters/storage"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/lineup"
)

// SQLiteStore implements Store using SQLite. The lineup body is stored as a
// JSON document next to an indexed service date.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new lineup store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Save persists a lineup, replacing any document with the same id.
// PRE: entity has been validated; team exists
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, teamID string, entity domain.Lineup) error {
	body, err := Encode(entity)
	if err != nil {
		return apperr.E(apperr.ValidationFailed, "save_lineup", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lineup (team_id, id, service_date, body, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(team_id, id) DO UPDATE SET
		   service_date=excluded.service_date, body=excluded.body, updated_at=excluded.updated_at`,
		teamID, entity.ID, domain.FormatDate(entity.ServiceDate), string(body), stamp(s.now()))
	return apperr.Classify(apperr.TransportFailure, "save_lineup", err)
}

// SaveMany writes values one document at a time.
// PRE: every value has been validated
// POST: returns the number of documents written; on error those remain
func (s *SQLiteStore) SaveMany(ctx context.Context, teamID string, values []domain.Lineup) (int, error) {
	for i, v := range values {
		if err := s.Save(ctx, teamID, v); err != nil {
			return i, err
		}
	}
	return len(values), nil
}

// Delete removes a lineup.
// PRE: id is non-empty
// POST: lineup absent; deleting an absent lineup is not an error
func (s *SQLiteStore) Delete(ctx context.Context, teamID, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM lineup WHERE team_id = ? AND id = ?", teamID, id)
	return apperr.Classify(apperr.TransportFailure, "delete_lineup", err)
}

// GetByID retrieves a Lineup by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.NotFound
func (s *SQLiteStore) GetByID(ctx context.Context, teamID, id string) (domain.Lineup, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM lineup WHERE team_id = ? AND id = ?", teamID, id).Scan(&body)
	if err == sql.ErrNoRows {
		return domain.Lineup{}, apperr.E(apperr.NotFound, "get_lineup", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Lineup{}, apperr.E(apperr.TransportFailure, "get_lineup", err)
	}
	l, err := Decode(id, []byte(body))
	if err != nil {
		return domain.Lineup{}, apperr.E(apperr.ValidationFailed, "get_lineup", err)
	}
	return l, nil
}

// List returns a team's lineups ordered by service date.
// PRE: teamID is non-empty
// POST: Returns lineups in ascending date order, filtered by date range
func (s *SQLiteStore) List(ctx context.Context, teamID string, filter ListFilter) ([]domain.Lineup, error) {
	query := "SELECT id, body FROM lineup WHERE team_id = ?"
	args := []any{teamID}
	if filter.From != "" {
		query += " AND service_date >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += " AND service_date < ?"
		args = append(args, filter.To)
	}
	query += " ORDER BY service_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.E(apperr.TransportFailure, "list_lineups", err)
	}
	defer rows.Close()

	var out []domain.Lineup
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, apperr.E(apperr.TransportFailure, "list_lineups", err)
		}
		l, err := Decode(id, []byte(body))
		if err != nil {
			return nil, apperr.E(apperr.ValidationFailed, "list_lineups", err)
		}
		out = append(out, l)
	}
	return out, apperr.Classify(apperr.TransportFailure, "list_lineups", rows.Err())
}
