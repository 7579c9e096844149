package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DSN builds the SQLite connection string with the pragmas every
// connection needs.
func DSN(path string) string {
	if path == ":memory:" {
		return path + "?_pragma=foreign_keys(ON)"
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
}

// Open opens and initialises the database at path.
// POST: schema exists; caller owns the returned handle
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, foreign keys enforced
func InitDB(db *sql.DB) error {
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS team (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		invite_code TEXT NOT NULL UNIQUE,
		owner_uid TEXT NOT NULL,
		co_admin_uids TEXT NOT NULL DEFAULT '[]',
		visibility TEXT NOT NULL DEFAULT 'public',
		logo_ref TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_visibility_name ON team(visibility, name COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS team_member (
		team_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		nickname TEXT NOT NULL DEFAULT '',
		roles TEXT NOT NULL,
		senior_tier INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (team_id, id),
		FOREIGN KEY (team_id) REFERENCES team(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS lineup (
		team_id TEXT NOT NULL,
		id TEXT NOT NULL,
		service_date TEXT NOT NULL,
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (team_id, id),
		FOREIGN KEY (team_id) REFERENCES team(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_lineup_team_date ON lineup(team_id, service_date);

	CREATE TABLE IF NOT EXISTS app_user (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		active_team_id TEXT NOT NULL DEFAULT '',
		team_history TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}

// IsNoRows reports whether err wraps sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
