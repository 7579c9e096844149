package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roster/internal/adapters/http/middleware"
	"roster/internal/application/orchestrators"
	"roster/internal/application/syncstore"
	"roster/internal/domain/access"
	"roster/internal/domain/team"
)

type createTeamRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
	LogoRef    string `json:"logoRef"`
}

type joinTeamRequest struct {
	InviteCode string `json:"inviteCode"`
}

type teamSettingsRequest struct {
	Name       *string `json:"name"`
	Visibility *string `json:"visibility"`
	LogoRef    *string `json:"logoRef"`
}

// handleMe returns the caller's synchronized view, including its active
// team and roster. A degraded view is still a 200; its status says so.
func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	store := s.newSession()
	defer store.Detach()

	ctx, cancel := context.WithTimeout(r.Context(), attachTimeout)
	defer cancel()
	v, err := store.Attach(ctx, middleware.IdentityFrom(r.Context()))
	if err != nil && (v.Status == syncstore.StatusDetached || v.Status == syncstore.StatusLoading) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toView(v))
}

func (s *server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid team body")
		return
	}
	t, err := orchestrators.ExecuteCreateTeam(r.Context(), orchestrators.CreateTeamInput{
		Owner:      middleware.IdentityFrom(r.Context()),
		Name:       req.Name,
		Visibility: req.Visibility,
		LogoRef:    req.LogoRef,
	}, orchestrators.CreateTeamDeps{
		Teams:         s.deps.Backend,
		Memberships:   s.deps.Backend,
		Outbox:        s.deps.Outbox,
		NewID:         s.deps.NewID,
		Now:           s.deps.Now,
		PublicBaseURL: s.deps.PublicBaseURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	id := middleware.IdentityFrom(r.Context())
	writeJSON(w, http.StatusCreated, s.fromTeam(t, access.Derive(id.UID, t, true)))
}

// handleJoinTeam accepts the invite code as JSON or as the "code" form
// field, so the invite link page can post a plain form.
func (s *server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	var code string
	if isJSONRequest(r) {
		var req joinTeamRequest
		if err := strictDecode(w, r, &req); err != nil {
			badRequest(w, "invalid join body")
			return
		}
		code = req.InviteCode
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			badRequest(w, "invalid form")
			return
		}
		code = r.PostFormValue("code")
	}

	id := middleware.IdentityFrom(r.Context())
	t, err := orchestrators.ExecuteJoinTeam(r.Context(), orchestrators.JoinTeamInput{
		Identity:   id,
		InviteCode: code,
	}, orchestrators.JoinTeamDeps{
		Teams:         s.deps.Backend,
		Memberships:   s.deps.Backend,
		Outbox:        s.deps.Outbox,
		Now:           s.deps.Now,
		PublicBaseURL: s.deps.PublicBaseURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fromTeam(t, access.Derive(id.UID, t, true)))
}

func (s *server) activeTeamDeps() orchestrators.ActiveTeamDeps {
	return orchestrators.ActiveTeamDeps{Teams: s.deps.Backend, Memberships: s.deps.Backend}
}

func (s *server) activeTeamInput(r *http.Request) orchestrators.ActiveTeamInput {
	return orchestrators.ActiveTeamInput{
		Identity: middleware.IdentityFrom(r.Context()),
		TeamID:   chi.URLParam(r, "teamID"),
	}
}

func (s *server) handleFollowTeam(w http.ResponseWriter, r *http.Request) {
	in := s.activeTeamInput(r)
	t, err := orchestrators.ExecuteFollowTeam(r.Context(), in, s.activeTeamDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fromTeam(t, access.Derive(in.Identity.UID, t, true)))
}

func (s *server) handleSwitchTeam(w http.ResponseWriter, r *http.Request) {
	in := s.activeTeamInput(r)
	t, err := orchestrators.ExecuteSwitchTeam(r.Context(), in, s.activeTeamDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fromTeam(t, access.Derive(in.Identity.UID, t, true)))
}

func (s *server) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteLeaveTeam(r.Context(), middleware.IdentityFrom(r.Context()), s.activeTeamDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleForgetTeam(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteForgetTeam(r.Context(), s.activeTeamInput(r), s.activeTeamDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) settingsDeps() orchestrators.TeamSettingsDeps {
	return orchestrators.TeamSettingsDeps{Teams: s.deps.Backend, Memberships: s.deps.Backend}
}

// ownerView shows a team as its owner sees it.
func (s *server) ownerView(uid string, t team.Team) teamJSON {
	return s.fromTeam(t, access.Derive(uid, t, true))
}

func (s *server) handleUpdateTeamSettings(w http.ResponseWriter, r *http.Request) {
	var req teamSettingsRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid settings body")
		return
	}
	id := middleware.IdentityFrom(r.Context())
	t, err := orchestrators.ExecuteUpdateTeamSettings(r.Context(), orchestrators.UpdateTeamSettingsInput{
		Identity:   id,
		TeamID:     chi.URLParam(r, "teamID"),
		Name:       req.Name,
		Visibility: req.Visibility,
		LogoRef:    req.LogoRef,
	}, s.settingsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ownerView(id.UID, t))
}

func (s *server) coAdminInput(r *http.Request) orchestrators.CoAdminInput {
	return orchestrators.CoAdminInput{
		Identity: middleware.IdentityFrom(r.Context()),
		TeamID:   chi.URLParam(r, "teamID"),
		UID:      chi.URLParam(r, "uid"),
	}
}

func (s *server) handleGrantCoAdmin(w http.ResponseWriter, r *http.Request) {
	in := s.coAdminInput(r)
	t, err := orchestrators.ExecuteGrantCoAdmin(r.Context(), in, s.settingsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ownerView(in.Identity.UID, t))
}

func (s *server) handleRevokeCoAdmin(w http.ResponseWriter, r *http.Request) {
	in := s.coAdminInput(r)
	t, err := orchestrators.ExecuteRevokeCoAdmin(r.Context(), in, s.settingsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ownerView(in.Identity.UID, t))
}
