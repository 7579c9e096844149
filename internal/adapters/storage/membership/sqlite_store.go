package membership

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"roster/internal/adapters/storage"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/membership"
)

// SQLiteStore implements Store using the app_user table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new membership store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type historyDoc struct {
	TeamID     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	InviteCode string `json:"inviteCode"`
}

// Get retrieves the membership for uid.
// PRE: uid is non-empty
// POST: unknown users yield an empty membership, not an error
func (s *SQLiteStore) Get(ctx context.Context, uid string) (domain.Membership, error) {
	var m domain.Membership
	var history string
	err := s.db.QueryRowContext(ctx,
		"SELECT uid, email, display_name, active_team_id, team_history FROM app_user WHERE uid = ?", uid).
		Scan(&m.Identity.UID, &m.Identity.Email, &m.Identity.DisplayName, &m.ActiveTeamID, &history)
	if err == sql.ErrNoRows {
		return domain.New(domain.Identity{UID: uid}), nil
	}
	if err != nil {
		return domain.Membership{}, apperr.E(apperr.TransportFailure, "get_membership", err)
	}
	var docs []historyDoc
	if err := json.Unmarshal([]byte(history), &docs); err != nil {
		return domain.Membership{}, apperr.E(apperr.ValidationFailed, "get_membership", fmt.Errorf("user %s history: %w", uid, err))
	}
	for _, d := range docs {
		m.History = append(m.History, domain.HistoryEntry{TeamID: d.TeamID, TeamName: d.TeamName, InviteCode: d.InviteCode})
	}
	if err := m.Validate(); err != nil {
		return domain.Membership{}, apperr.E(apperr.ValidationFailed, "get_membership", fmt.Errorf("user %s: %w", uid, err))
	}
	return m, nil
}

// Save persists the membership record.
// PRE: value has been validated
// POST: record inserted or replaced
func (s *SQLiteStore) Save(ctx context.Context, value domain.Membership) error {
	docs := make([]historyDoc, 0, len(value.History))
	for _, h := range value.History {
		docs = append(docs, historyDoc{TeamID: h.TeamID, TeamName: h.TeamName, InviteCode: h.InviteCode})
	}
	history, err := json.Marshal(docs)
	if err != nil {
		return apperr.E(apperr.ValidationFailed, "save_membership", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO app_user (uid, email, display_name, active_team_id, team_history) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		   email=excluded.email, display_name=excluded.display_name,
		   active_team_id=excluded.active_team_id, team_history=excluded.team_history`,
		value.Identity.UID, value.Identity.Email, value.Identity.DisplayName, value.ActiveTeamID, string(history))
	return apperr.Classify(apperr.TransportFailure, "save_membership", err)
}
