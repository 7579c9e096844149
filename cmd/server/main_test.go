package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roster/internal/domain/team"
)

const seedJSON = `{
  "team": {"id": "grace", "name": "Grace Worship", "inviteCode": "ABCD-2345", "owner": "owner"},
  "members": [
    {"id": "m1", "name": "Grace Lee", "roles": ["Vocalist"]},
    {"id": "m2", "name": "Daniel Park", "roles": ["Drums"]}
  ],
  "lineups": [
    {"date": "2026-03-01", "worshipLeaders": [{"memberId": "m1", "role": "Worship Leader"}],
     "instruments": {"drums": ["m2"]}, "songs": [{"section": "Opening", "title": "Cornerstone"}]}
  ]
}`

// execute runs the root command with args against a scratch database.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func scratchDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ROSTER_DB_PATH", filepath.Join(dir, "roster.db"))
	return dir
}

func TestInviteCodeCommand(t *testing.T) {
	out, err := execute(t, "invite-code", "-n", "3")
	if err != nil {
		t.Fatalf("invite-code: %v", err)
	}
	codes := strings.Fields(out)
	if len(codes) != 3 {
		t.Fatalf("got %d codes: %q", len(codes), out)
	}
	for _, c := range codes {
		if !team.IsValidInviteCode(c) {
			t.Errorf("invalid code %q", c)
		}
	}
}

func TestSeedThenRender(t *testing.T) {
	dir := scratchDB(t)
	seedPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedPath, []byte(seedJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "seed", seedPath)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "team grace: 2 members, 1 lineups") {
		t.Errorf("seed output = %q", out)
	}

	png := filepath.Join(dir, "card.png")
	if _, err := execute(t, "render", "--team", "grace", "--date", "2026-03-01", "-o", png); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}

	if _, err := execute(t, "render", "--team", "grace", "--date", "2026-03-08", "-o", png); err == nil {
		t.Error("rendering a date without a lineup should fail")
	}
}

// TestCopyMonthCommand_NeedsActiveTeam verifies the command acts with the
// user's own permissions: seeding does not make the owner active anywhere.
func TestCopyMonthCommand_NeedsActiveTeam(t *testing.T) {
	scratchDB(t)
	_, err := execute(t, "copy-month", "--as", "owner", "2026-03", "2026-04")
	if err == nil || !strings.Contains(err.Error(), "no_team") {
		t.Errorf("err = %v, want no_team", err)
	}

	if _, err := execute(t, "copy-month", "--as", "owner", "March", "2026-04"); err == nil {
		t.Error("bad month should fail")
	}
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("ROSTER_SECRET", "")
	if _, err := execute(t, "token", "--uid", "u1"); err == nil {
		t.Error("token without a secret should fail")
	}

	t.Setenv("ROSTER_SECRET", strings.Repeat("s", 32))
	out, err := execute(t, "token", "--uid", "u1")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), ".") != 2 {
		t.Errorf("output %q is not a JWT", out)
	}
}
