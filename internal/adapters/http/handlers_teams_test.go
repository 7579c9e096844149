package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roster/internal/adapters/http/middleware"
	emailDomain "roster/internal/domain/email"
)

// TestCreateTeam_BecomesActive verifies the creator owns and views the new team.
func TestCreateTeam_BecomesActive(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTeam("owner", "Grace Band", "public")

	if created.InviteCode == "" || !strings.HasPrefix(created.ScheduleURL, "https://roster.example.com/t/") {
		t.Errorf("owner should see invite code and link, got %+v", created)
	}
	if created.Capabilities == nil || !created.Capabilities.IsPrimaryOwner {
		t.Errorf("capabilities = %+v, want primary owner", created.Capabilities)
	}

	rec := env.do("GET", "/api/me", "", "owner")
	expectStatus(t, rec, http.StatusOK)
	v := decode[viewJSON](t, rec)
	if v.Status != "ready" || v.Team == nil || v.Team.ID != created.ID {
		t.Fatalf("view = %+v, want ready on %s", v, created.ID)
	}
	if len(v.History) != 1 || v.History[0].TeamName != "Grace Band" {
		t.Errorf("history = %+v", v.History)
	}

	pending, err := env.outbox.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != emailDomain.KindTeamCreated {
		t.Errorf("outbox = %+v, want one team-created notice", pending)
	}
}

func TestCreateTeam_Rejections(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
		uid  string
		want int
	}{
		{"anonymous", `{"name":"Grace Band"}`, "", http.StatusUnauthorized},
		{"blank name", `{"name":"  "}`, "owner", http.StatusUnprocessableEntity},
		{"unknown field", `{"name":"Grace Band","color":"red"}`, "owner", http.StatusBadRequest},
		{"bad visibility", `{"name":"Grace Band","visibility":"secret"}`, "owner", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.do("POST", "/api/teams", tt.body, tt.uid), tt.want)
		})
	}
}

// TestJoinTeam_GrantsCoAdmin verifies a code holder gains roster rights.
func TestJoinTeam_GrantsCoAdmin(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTeam("owner", "Grace Band", "private")

	rec := env.do("POST", "/api/teams/join", `{"inviteCode":"`+strings.ToLower(created.InviteCode)+`"}`, "alice")
	expectStatus(t, rec, http.StatusOK)
	joined := decode[teamJSON](t, rec)
	if joined.ID != created.ID || !joined.Capabilities.CanManageRoster || joined.Capabilities.IsPrimaryOwner {
		t.Errorf("joined = %+v", joined)
	}

	expectStatus(t, env.do("POST", "/api/teams/join", `{"inviteCode":"ZZZZ-ZZZZ"}`, "bob"), http.StatusNotFound)
	expectStatus(t, env.do("POST", "/api/teams/join", `{"inviteCode":"nope"}`, "bob"), http.StatusNotFound)
}

// TestJoinTeam_FormPost verifies the plain form path and its CSRF guard.
func TestJoinTeam_FormPost(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTeam("owner", "Grace Band", "public")
	form := "code=" + created.InviteCode

	req := httptest.NewRequest("POST", "/api/teams/join", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+env.token("alice"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	req = httptest.NewRequest("POST", "/api/teams/join", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: env.token("bob")})
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("cookie form post without CSRF token: status = %d, want 403", rec.Code)
	}
}

// TestFollowTeam_RespectsVisibility verifies private teams stay hidden.
func TestFollowTeam_RespectsVisibility(t *testing.T) {
	env := newTestEnv(t)
	public := env.createTeam("owner", "Grace Band", "public")
	private := env.createTeam("owner2", "Hidden Choir", "private")

	rec := env.do("POST", "/api/teams/"+public.ID+"/follow", "", "bob")
	expectStatus(t, rec, http.StatusOK)
	followed := decode[teamJSON](t, rec)
	if followed.InviteCode != "" || followed.Capabilities.CanManageRoster || !followed.Capabilities.CanRead {
		t.Errorf("follower view = %+v", followed)
	}

	missing := env.do("POST", "/api/teams/no-such-team/follow", "", "bob")
	hidden := env.do("POST", "/api/teams/"+private.ID+"/follow", "", "bob")
	expectStatus(t, missing, http.StatusNotFound)
	expectStatus(t, hidden, http.StatusNotFound)
	if missing.Body.String() != hidden.Body.String() {
		t.Errorf("private team must read like a missing one: %q vs %q", hidden.Body.String(), missing.Body.String())
	}
}

// TestFollowTeam_HistoryHidesInviteCode verifies a follower cannot read the
// invite code back from their own history and so cannot promote themselves.
func TestFollowTeam_HistoryHidesInviteCode(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTeam("owner", "Grace Band", "public")

	expectStatus(t, env.do("POST", "/api/teams/"+created.ID+"/follow", "", "bob"), http.StatusOK)
	v := decode[viewJSON](t, env.do("GET", "/api/me", "", "bob"))
	if len(v.History) != 1 || v.History[0].TeamID != created.ID {
		t.Fatalf("history = %+v", v.History)
	}
	if v.History[0].InviteCode != "" {
		t.Errorf("follower history carries invite code %q", v.History[0].InviteCode)
	}
	if v.Team == nil || v.Team.InviteCode != "" {
		t.Errorf("follower team = %+v", v.Team)
	}

	stored, err := env.backend.GetMembership(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetMembership: %v", err)
	}
	if h, _ := stored.Entry(created.ID); h.InviteCode != "" {
		t.Errorf("stored follower entry = %+v", h)
	}

	owner := decode[viewJSON](t, env.do("GET", "/api/me", "", "owner"))
	if len(owner.History) != 1 || owner.History[0].InviteCode != created.InviteCode {
		t.Errorf("owner history = %+v, want code %s", owner.History, created.InviteCode)
	}
}

func TestSwitchLeaveForget(t *testing.T) {
	env := newTestEnv(t)
	first := env.createTeam("owner", "Grace Band", "public")
	second := env.createTeam("owner", "Youth Band", "public")

	expectStatus(t, env.do("POST", "/api/teams/"+first.ID+"/switch", "", "owner"), http.StatusOK)
	v := decode[viewJSON](t, env.do("GET", "/api/me", "", "owner"))
	if v.ActiveTeamID != first.ID {
		t.Errorf("active = %q, want %q", v.ActiveTeamID, first.ID)
	}
	expectStatus(t, env.do("POST", "/api/teams/"+second.ID+"/switch", "", "stranger"), http.StatusNotFound)

	expectStatus(t, env.do("POST", "/api/me/leave", "", "owner"), http.StatusNoContent)
	v = decode[viewJSON](t, env.do("GET", "/api/me", "", "owner"))
	if v.Status != "no_team" || len(v.History) != 2 {
		t.Errorf("after leave: status %q, history %d", v.Status, len(v.History))
	}

	expectStatus(t, env.do("DELETE", "/api/me/history/"+first.ID, "", "owner"), http.StatusNoContent)
	expectStatus(t, env.do("DELETE", "/api/me/history/"+first.ID, "", "owner"), http.StatusNotFound)
}

// TestTeamSettings_OwnerOnly verifies co-admins cannot change settings.
func TestTeamSettings_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTeam("owner", "Grace Band", "public")
	expectStatus(t, env.do("POST", "/api/teams/join", `{"inviteCode":"`+created.InviteCode+`"}`, "alice"), http.StatusOK)

	path := "/api/teams/" + created.ID
	expectStatus(t, env.do("PATCH", path, `{"name":"Alice Band"}`, "alice"), http.StatusForbidden)

	rec := env.do("PATCH", path, `{"name":"Grace Worship","visibility":"private"}`, "owner")
	expectStatus(t, rec, http.StatusOK)
	updated := decode[teamJSON](t, rec)
	if updated.Name != "Grace Worship" || updated.Visibility != "private" {
		t.Errorf("updated = %+v", updated)
	}

	// alice keeps access through her history entry.
	expectStatus(t, env.do("GET", "/api/teams/"+created.ID+"/songs", "", "alice"), http.StatusOK)
	expectStatus(t, env.do("GET", "/api/teams/"+created.ID+"/songs", "", ""), http.StatusNotFound)
}

func TestCoAdmins_GrantAndRevoke(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTeam("owner", "Grace Band", "public")
	path := "/api/teams/" + created.ID + "/co-admins/"

	expectStatus(t, env.do("PUT", path+"bob", "", "alice"), http.StatusForbidden)
	expectStatus(t, env.do("PUT", path+"bob", "", "owner"), http.StatusOK)
	expectStatus(t, env.do("PUT", path+"owner", "", "owner"), http.StatusUnprocessableEntity)

	// bob can now edit the roster once the team is active for him.
	expectStatus(t, env.do("POST", "/api/teams/"+created.ID+"/follow", "", "bob"), http.StatusOK)
	env.addMember("bob", "Ana", "Vocalist")

	before := decode[viewJSON](t, env.do("GET", "/api/me", "", "bob"))
	if len(before.History) != 1 || before.History[0].InviteCode != created.InviteCode {
		t.Errorf("co-admin history = %+v, want code", before.History)
	}

	expectStatus(t, env.do("DELETE", path+"bob", "", "owner"), http.StatusOK)
	expectStatus(t, env.do("POST", "/api/roster/members", `{"name":"Ben","roles":["Bass"]}`, "bob"), http.StatusForbidden)

	after := decode[viewJSON](t, env.do("GET", "/api/me", "", "bob"))
	if len(after.History) != 1 || after.History[0].InviteCode != "" {
		t.Errorf("revoked co-admin history = %+v, want no code", after.History)
	}
	stored, err := env.backend.GetMembership(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetMembership: %v", err)
	}
	if h, _ := stored.Entry(created.ID); h.InviteCode != "" {
		t.Errorf("revoked co-admin stored entry = %+v", h)
	}
}
