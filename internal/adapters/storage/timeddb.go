package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQuery is the slow-statement threshold when ROSTER_SLOW_QUERY_MS
// is unset.
const DefaultSlowQuery = 50 * time.Millisecond

// QueryObserver receives the duration of every statement, labelled by
// StatementLabel. *metrics.Metrics satisfies it.
type QueryObserver interface {
	ObserveQuery(op string, d time.Duration)
}

// TimedDB wraps a *sql.DB, warning on slow statements and reporting every
// duration to an observer.
type TimedDB struct {
	db       *sql.DB
	observer QueryObserver
	slow     time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db. observer may be nil.
// POST: the slow threshold is read from ROSTER_SLOW_QUERY_MS once, here
func NewTimedDB(db *sql.DB, observer QueryObserver) *TimedDB {
	slow := DefaultSlowQuery
	if v := os.Getenv("ROSTER_SLOW_QUERY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			slow = time.Duration(n) * time.Millisecond
		}
	}
	return &TimedDB{db: db, observer: observer, slow: slow}
}

// RawDB returns the wrapped handle.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// StatementLabel reduces a statement to "<verb> <table>", e.g.
// "insert lineup" or "select team". Labels stay bounded because every
// statement in this module is a constant.
func StatementLabel(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return "empty"
	}
	verb := fields[0]
	var marker string
	switch verb {
	case "select", "delete":
		marker = "from"
	case "insert", "replace":
		marker = "into"
	case "update":
		if len(fields) > 1 {
			return verb + " " + tableName(fields[1])
		}
		return verb
	default:
		return verb
	}
	for i, f := range fields[:len(fields)-1] {
		if f == marker {
			return verb + " " + tableName(fields[i+1])
		}
	}
	return verb
}

func tableName(tok string) string {
	return strings.TrimRight(strings.Trim(tok, `"`+"`"), "(,;")
}

func (t *TimedDB) observe(op string, start time.Time) {
	elapsed := time.Since(start)
	if elapsed >= t.slow {
		slog.Warn("slow_query", "op", op, "duration_ms", float64(elapsed.Microseconds())/1000)
	}
	if t.observer != nil {
		t.observer.ObserveQuery(op, elapsed)
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer t.observe(StatementLabel(query), time.Now())
	return t.db.ExecContext(ctx, query, args...)
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer t.observe(StatementLabel(query), time.Now())
	return t.db.QueryContext(ctx, query, args...)
}

// QueryRowContext observes only the time to issue the query; the scan
// happens after it returns.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.observe(StatementLabel(query), time.Now())
	return t.db.QueryRowContext(ctx, query, args...)
}

func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	defer t.observe("begin", time.Now())
	return t.db.BeginTx(ctx, opts)
}

func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the wrapped handle.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
