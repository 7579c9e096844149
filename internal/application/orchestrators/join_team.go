package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"roster/internal/domain/apperr"
	emailDomain "roster/internal/domain/email"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// JoinTeamStore finds teams by code and records new co-admins.
type JoinTeamStore interface {
	GetTeamByInviteCode(ctx context.Context, code string) (team.Team, error)
	SaveTeam(ctx context.Context, t team.Team) error
}

// JoinTeamInput carries input for the orchestrator.
type JoinTeamInput struct {
	Identity   membership.Identity
	InviteCode string
}

// JoinTeamDeps holds dependencies for JoinTeam.
type JoinTeamDeps struct {
	Teams         JoinTeamStore
	Memberships   MembershipStore
	Outbox        OutboxWriter // optional
	Now           func() time.Time
	PublicBaseURL string
}

// ExecuteJoinTeam makes the caller a co-admin of the team holding the
// invite code and activates it. Holding the code is the credential, so
// private teams can be joined too.
// PRE: Identity is signed in
// POST: caller is owner or co-admin; team is active and in their history
// INVARIANT: a malformed or unknown code yields the same NotFound
func ExecuteJoinTeam(ctx context.Context, input JoinTeamInput, deps JoinTeamDeps) (team.Team, error) {
	const op = "join_team"
	if input.Identity.IsAnonymous() {
		return team.Team{}, apperr.E(apperr.Unauthorized, op, membership.ErrAnonymousUser)
	}
	code := team.NormalizeInviteCode(input.InviteCode)
	if !team.IsValidInviteCode(code) {
		return team.Team{}, apperr.E(apperr.NotFound, op, team.ErrNotFound)
	}
	t, err := deps.Teams.GetTeamByInviteCode(ctx, code)
	if err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}

	uid := input.Identity.UID
	added := t.AddCoAdmin(uid)
	if added {
		if err := deps.Teams.SaveTeam(ctx, t); err != nil {
			return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
		}
	}

	m, err := deps.Memberships.GetMembership(ctx, uid)
	if err != nil {
		return t, apperr.Classify(apperr.TransportFailure, op, err)
	}
	m.Identity = input.Identity
	_ = m.Remember(historyEntry(uid, t))
	_ = m.Activate(t.ID)
	if err := deps.Memberships.SaveMembership(ctx, m); err != nil {
		return t, apperr.Classify(apperr.TransportFailure, op, err)
	}

	slog.Info("team_event", "event", "team_joined", "team_id", t.ID, "uid", uid, "new_co_admin", added)

	if added {
		notice := emailDomain.TeamJoinedNotice{
			JoinerEmail: input.Identity.Email,
			JoinerName:  input.Identity.Name(),
			TeamName:    t.Name,
			ScheduleURL: ScheduleURL(deps.PublicBaseURL, t.InviteCode),
		}
		if owner, err := deps.Memberships.GetMembership(ctx, t.OwnerUID); err == nil {
			notice.AdminEmail = owner.Identity.Email
			notice.AdminName = owner.Identity.Name()
		}
		if notice.Validate() == nil {
			enqueueNotice(ctx, deps.Outbox, emailDomain.KindTeamJoined, notice, nowOr(deps.Now))
		}
	}
	return t, nil
}
