package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"roster/internal/adapters/changefeed"
	"roster/internal/adapters/email"
	"roster/internal/adapters/http/middleware"
	"roster/internal/adapters/lineupimage"
	"roster/internal/adapters/livestore"
	"roster/internal/adapters/metrics"
	"roster/internal/adapters/storage"
	outboxStore "roster/internal/adapters/storage/outbox"
	"roster/internal/application/orchestrators"
	"roster/internal/domain/membership"
)

var testTokenKey = []byte(strings.Repeat("t", 32))

// testNow is the fixed clock every test server runs on: a Tuesday in March 2026.
var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// testEnv is a router over a fresh in-memory database.
type testEnv struct {
	t       *testing.T
	handler http.Handler
	backend *livestore.Backend
	outbox  *outboxStore.SQLiteStore
	sender  *email.NoopSender
	tokens  *middleware.Tokens
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.New()
	backend := livestore.NewSQLite(db, changefeed.NewHub(), m)
	ob := outboxStore.NewSQLiteStore(db)
	sender := email.NewNoopSender()
	renderer, err := lineupimage.New()
	if err != nil {
		t.Fatalf("lineupimage.New: %v", err)
	}
	tokens := middleware.NewTokens(testTokenKey, "roster", time.Hour)

	var seq atomic.Int64
	env := &testEnv{t: t, backend: backend, outbox: ob, sender: sender, tokens: tokens, metrics: m}
	env.handler = NewRouter(Deps{
		Backend:       backend,
		Outbox:        ob,
		Processor:     orchestrators.NewOutboxProcessor(ob, orchestrators.NoticeExecutors(sender), m),
		Renderer:      renderer,
		Tokens:        tokens,
		Limiter:       middleware.NewRateLimiter(1000, time.Minute),
		Metrics:       m,
		CSRFKey:       []byte(strings.Repeat("c", 32)),
		AdminUIDs:     []string{"admin"},
		PublicBaseURL: "https://roster.example.com",
		Now:           func() time.Time { return testNow },
		NewID:         func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
	return env
}

// token issues an identity token for uid.
func (e *testEnv) token(uid string) string {
	e.t.Helper()
	raw, err := e.tokens.Issue(membership.Identity{UID: uid, Email: uid + "@example.com", DisplayName: strings.ToUpper(uid[:1]) + uid[1:]})
	if err != nil {
		e.t.Fatalf("Issue: %v", err)
	}
	return raw
}

// do sends a JSON request as uid; an empty uid is anonymous.
func (e *testEnv) do(method, path, body, uid string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(uid))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorder body, failing the test on bad JSON.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

// createTeam creates a team owned by uid and returns it.
func (e *testEnv) createTeam(uid, name, visibility string) teamJSON {
	e.t.Helper()
	rec := e.do("POST", "/api/teams", fmt.Sprintf(`{"name":%q,"visibility":%q}`, name, visibility), uid)
	expectStatus(e.t, rec, http.StatusCreated)
	return decode[teamJSON](e.t, rec)
}

// addMember adds a member to uid's active team and returns it.
func (e *testEnv) addMember(uid, name, role string) memberJSON {
	e.t.Helper()
	rec := e.do("POST", "/api/roster/members", fmt.Sprintf(`{"name":%q,"roles":[%q]}`, name, role), uid)
	expectStatus(e.t, rec, http.StatusCreated)
	return decode[memberJSON](e.t, rec)
}

// addLineup adds a lineup led by leaderID to uid's active team.
func (e *testEnv) addLineup(uid, date, leaderID, song string) *httptest.ResponseRecorder {
	e.t.Helper()
	body := fmt.Sprintf(`{"serviceDate":%q,"worshipLeaders":[{"memberId":%q,"role":""}],"instruments":{},"songs":[{"section":"Worship","title":%q}]}`,
		date, leaderID, song)
	return e.do("POST", "/api/roster/lineups", body, uid)
}
