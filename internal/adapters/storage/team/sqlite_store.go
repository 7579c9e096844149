package team

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"roster/internal/adapters/storage"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/team"
)

const (
	dateLayout = "2006-01-02T15:04:05.999999999Z07:00"
	columns    = "id, name, invite_code, owner_uid, co_admin_uids, visibility, logo_ref, created_at"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new team store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert adds a new team.
// PRE: value has been validated
// POST: team persisted, or apperr.Collision when the invite code or id is taken
func (s *SQLiteStore) Insert(ctx context.Context, value domain.Team) error {
	coAdmins, err := encodeUIDs(value.CoAdminUIDs)
	if err != nil {
		return apperr.E(apperr.ValidationFailed, "insert_team", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO team ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		value.ID, value.Name, value.InviteCode, value.OwnerUID, coAdmins,
		value.Visibility, value.LogoRef, value.CreatedAt.UTC().Format(dateLayout))
	if storage.IsUniqueViolation(err) {
		return apperr.E(apperr.Collision, "insert_team", err)
	}
	return apperr.Classify(apperr.TransportFailure, "insert_team", err)
}

// Save updates the mutable fields of an existing team. The invite code and
// owner never change after creation.
// PRE: value has been validated
// POST: row updated, or apperr.NotFound when absent
func (s *SQLiteStore) Save(ctx context.Context, value domain.Team) error {
	coAdmins, err := encodeUIDs(value.CoAdminUIDs)
	if err != nil {
		return apperr.E(apperr.ValidationFailed, "save_team", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE team SET name = ?, co_admin_uids = ?, visibility = ?, logo_ref = ? WHERE id = ?",
		value.Name, coAdmins, value.Visibility, value.LogoRef, value.ID)
	if err != nil {
		return apperr.E(apperr.TransportFailure, "save_team", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.E(apperr.NotFound, "save_team", domain.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a Team by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.NotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Team, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM team WHERE id = ?", id)
	return scanTeam(row.Scan, "get_team")
}

// GetByInviteCode retrieves a Team by its normalized invite code.
// PRE: code is normalized
// POST: Returns the entity or apperr.NotFound
func (s *SQLiteStore) GetByInviteCode(ctx context.Context, code string) (domain.Team, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM team WHERE invite_code = ?", code)
	return scanTeam(row.Scan, "get_team_by_code")
}

// SearchPublicByName returns public teams whose name contains term,
// ignoring case. Both sides are Unicode case folded.
// PRE: term is non-empty
// POST: at most limit teams, ordered by name
func (s *SQLiteStore) SearchPublicByName(ctx context.Context, term string, limit int) ([]domain.Team, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM team WHERE visibility = ? AND instr("+storage.FoldFunc+"(name), ?) > 0 ORDER BY "+storage.FoldFunc+"(name), id LIMIT ?",
		domain.VisibilityPublic, storage.FoldCase(term), limit)
	if err != nil {
		return nil, apperr.E(apperr.TransportFailure, "search_teams", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		t, err := scanTeam(rows.Scan, "search_teams")
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, apperr.Classify(apperr.TransportFailure, "search_teams", rows.Err())
}

// scanTeam decodes one row and validates it at the boundary.
func scanTeam(scan func(dest ...any) error, op string) (domain.Team, error) {
	var t domain.Team
	var coAdmins, createdAt string
	err := scan(&t.ID, &t.Name, &t.InviteCode, &t.OwnerUID, &coAdmins, &t.Visibility, &t.LogoRef, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Team{}, apperr.E(apperr.NotFound, op, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Team{}, apperr.E(apperr.TransportFailure, op, err)
	}
	if err := json.Unmarshal([]byte(coAdmins), &t.CoAdminUIDs); err != nil {
		return domain.Team{}, apperr.E(apperr.ValidationFailed, op, fmt.Errorf("team %s co-admins: %w", t.ID, err))
	}
	if t.CreatedAt, err = time.Parse(dateLayout, createdAt); err != nil {
		return domain.Team{}, apperr.E(apperr.ValidationFailed, op, fmt.Errorf("team %s created_at: %w", t.ID, err))
	}
	if err := t.Validate(); err != nil {
		return domain.Team{}, apperr.E(apperr.ValidationFailed, op, fmt.Errorf("team %s: %w", t.ID, err))
	}
	return t, nil
}

func encodeUIDs(uids []string) (string, error) {
	if uids == nil {
		uids = []string{}
	}
	b, err := json.Marshal(uids)
	return string(b), err
}
