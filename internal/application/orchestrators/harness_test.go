package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"roster/internal/adapters/changefeed"
	"roster/internal/adapters/livestore"
	"roster/internal/adapters/storage"
	outboxStore "roster/internal/adapters/storage/outbox"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	backend *livestore.Backend
	outbox  *outboxStore.SQLiteStore
	ids     int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &harness{
		backend: livestore.NewSQLite(db, changefeed.NewHub(), nil),
		outbox:  outboxStore.NewSQLiteStore(db),
	}
}

func (h *harness) newID() string {
	h.ids++
	return fmt.Sprintf("id-%d", h.ids)
}

func (h *harness) createDeps(r *bytes.Reader) CreateTeamDeps {
	deps := CreateTeamDeps{
		Teams:         h.backend,
		Memberships:   h.backend,
		Outbox:        h.outbox,
		NewID:         h.newID,
		Now:           func() time.Time { return fixedNow },
		PublicBaseURL: "https://roster.example",
	}
	if r != nil {
		deps.Rand = r
	}
	return deps
}

func (h *harness) activeDeps() ActiveTeamDeps {
	return ActiveTeamDeps{Teams: h.backend, Memberships: h.backend}
}

func (h *harness) membership(t *testing.T, uid string) membership.Membership {
	t.Helper()
	m, err := h.backend.GetMembership(context.Background(), uid)
	if err != nil {
		t.Fatalf("GetMembership(%s): %v", uid, err)
	}
	return m
}

func (h *harness) team(t *testing.T, id string) team.Team {
	t.Helper()
	tm, err := h.backend.GetTeam(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTeam(%s): %v", id, err)
	}
	return tm
}

func (h *harness) createTeam(t *testing.T, owner membership.Identity, name, visibility string) team.Team {
	t.Helper()
	tm, err := ExecuteCreateTeam(context.Background(), CreateTeamInput{Owner: owner, Name: name, Visibility: visibility}, h.createDeps(nil))
	if err != nil {
		t.Fatalf("ExecuteCreateTeam: %v", err)
	}
	return tm
}

var (
	owner  = membership.Identity{UID: "owner", Email: "owner@example.com", DisplayName: "Olivia"}
	joiner = membership.Identity{UID: "joiner", Email: "joiner@example.com", DisplayName: "Jonah"}
	viewer = membership.Identity{UID: "viewer", Email: "viewer@example.com"}
)

// codeBytes yields random bytes that GenerateInviteCode maps to a code of
// one repeated symbol.
func codeBytes(symbols ...byte) *bytes.Reader {
	var buf []byte
	for _, s := range symbols {
		buf = append(buf, bytes.Repeat([]byte{s}, 2*team.InviteCodeGroup)...)
	}
	return bytes.NewReader(buf)
}
