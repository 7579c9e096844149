package member

import (
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"roster/internal/adapters/storage"
	"roster/internal/domain/apperr"
	domain "roster/internal/domain/member"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, id := range []string{"t1", "t2"} {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO team (id, name, invite_code, owner_uid, created_at) VALUES (?, ?, ?, 'o', '2026-01-01T00:00:00Z')",
			id, id, id+"-CODE"); err != nil {
			t.Fatalf("seed team: %v", err)
		}
	}
	return NewSQLiteStore(db)
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	members := []domain.Member{
		{ID: "m1", Name: "carla", Roles: []string{domain.RoleDrums}},
		{ID: "m2", Name: "Ana", Nickname: "A", Roles: []string{domain.RoleVocalist, domain.RoleKeyboard}, SeniorTier: true},
	}
	for _, m := range members {
		if err := s.Save(ctx, "t1", m); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := s.Save(ctx, "t2", domain.Member{ID: "m1", Name: "Other team", Roles: []string{domain.RoleBass}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListByTeam(ctx, "t1")
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ana" || got[1].Name != "carla" {
		t.Fatalf("ListByTeam = %+v", got)
	}
	if !got[0].SeniorTier || len(got[0].Roles) != 2 || got[0].Roles[1] != domain.RoleKeyboard {
		t.Errorf("decoded member = %+v", got[0])
	}
}

func TestSQLiteStore_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := domain.Member{ID: "m1", Name: "Ana", Roles: []string{domain.RoleVocalist}}
	if err := s.Save(ctx, "t1", m); err != nil {
		t.Fatal(err)
	}
	m.Name = "Ana Maria"
	if err := s.Save(ctx, "t1", m); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetByID(ctx, "t1", "m1")
	if err != nil || got.Name != "Ana Maria" {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, "t1", domain.Member{ID: "m1", Name: "Ana", Roles: []string{domain.RoleVocalist}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "t1", "m1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, "t1", "m1"); !errors.Is(err, apperr.NotFound) {
		t.Errorf("after delete err = %v, want NotFound", err)
	}
	if err := s.Delete(ctx, "t1", "m1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
