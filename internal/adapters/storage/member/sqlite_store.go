package member

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"roster/internal/adapters/storage"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/member"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a Member to the database.
// PRE: entity has been validated; team exists
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, teamID string, entity domain.Member) error {
	fields := []string{"team_id", "id", "name", "nickname", "roles", "senior_tier"}
	placeholders := []string{"?", "?", "?", "?", "?", "?"}
	updates := []string{"name=excluded.name", "nickname=excluded.nickname", "roles=excluded.roles", "senior_tier=excluded.senior_tier"}

	query := fmt.Sprintf(
		"INSERT INTO team_member (%s) VALUES (%s) ON CONFLICT(team_id, id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	roles, err := json.Marshal(entity.Roles)
	if err != nil {
		return apperr.E(apperr.ValidationFailed, "save_member", err)
	}
	_, err = s.db.ExecContext(ctx, query,
		teamID, entity.ID, entity.Name, entity.Nickname, string(roles), boolToInt(entity.SeniorTier))
	return apperr.Classify(apperr.TransportFailure, "save_member", err)
}

// Delete removes a member. Lineups keep their references.
// PRE: id is non-empty
// POST: member absent; deleting an absent member is not an error
func (s *SQLiteStore) Delete(ctx context.Context, teamID, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM team_member WHERE team_id = ? AND id = ?", teamID, id)
	return apperr.Classify(apperr.TransportFailure, "delete_member", err)
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.NotFound
func (s *SQLiteStore) GetByID(ctx context.Context, teamID, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, nickname, roles, senior_tier FROM team_member WHERE team_id = ? AND id = ?", teamID, id)
	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Member{}, apperr.E(apperr.NotFound, "get_member", domain.ErrNotFound)
	}
	return m, err
}

// ListByTeam returns all members of a team ordered by name.
// PRE: teamID is non-empty
// POST: Returns members sorted case-insensitively by name
func (s *SQLiteStore) ListByTeam(ctx context.Context, teamID string) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, nickname, roles, senior_tier FROM team_member WHERE team_id = ? ORDER BY name COLLATE NOCASE, id", teamID)
	if err != nil {
		return nil, apperr.E(apperr.TransportFailure, "list_members", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, apperr.Classify(apperr.TransportFailure, "list_members", rows.Err())
}

// scanMember decodes one row and rejects malformed documents.
func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var roles string
	var senior int
	if err := scan(&m.ID, &m.Name, &m.Nickname, &roles, &senior); err != nil {
		if err == sql.ErrNoRows {
			return domain.Member{}, err
		}
		return domain.Member{}, apperr.E(apperr.TransportFailure, "scan_member", err)
	}
	if err := json.Unmarshal([]byte(roles), &m.Roles); err != nil {
		return domain.Member{}, apperr.E(apperr.ValidationFailed, "scan_member", fmt.Errorf("member %s roles: %w", m.ID, err))
	}
	m.SeniorTier = senior != 0
	if err := m.Validate(); err != nil {
		return domain.Member{}, apperr.E(apperr.ValidationFailed, "scan_member", fmt.Errorf("member %s: %w", m.ID, err))
	}
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
