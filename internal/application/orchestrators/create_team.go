package orchestrators

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	emailDomain "roster/internal/domain/email"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// MaxInviteCodeAttempts bounds invite-code draws before team creation
// gives up.
const MaxInviteCodeAttempts = 5

// ErrInviteCodesExhausted is returned when every drawn code collided.
var ErrInviteCodesExhausted = errors.New("could not draw an unused invite code")

// MembershipStore reads and writes per-user membership records.
type MembershipStore interface {
	GetMembership(ctx context.Context, uid string) (membership.Membership, error)
	SaveMembership(ctx context.Context, m membership.Membership) error
}

// TeamInserter creates teams.
type TeamInserter interface {
	InsertTeam(ctx context.Context, t team.Team) error
}

// CreateTeamInput carries input for the orchestrator.
type CreateTeamInput struct {
	Owner      membership.Identity
	Name       string
	Visibility string // empty defaults to public
	LogoRef    string
}

// CreateTeamDeps holds dependencies for CreateTeam.
type CreateTeamDeps struct {
	Teams         TeamInserter
	Memberships   MembershipStore
	Outbox        OutboxWriter // optional
	Rand          io.Reader    // nil uses crypto/rand
	NewID         func() string
	Now           func() time.Time
	PublicBaseURL string
}

// ExecuteCreateTeam creates a team owned by the caller and makes it their
// active team.
// PRE: Owner is signed in
// POST: team persisted with a unique invite code; owner's history holds it
// INVARIANT: a colliding code is re-drawn, never accepted
func ExecuteCreateTeam(ctx context.Context, input CreateTeamInput, deps CreateTeamDeps) (team.Team, error) {
	const op = "create_team"
	if input.Owner.IsAnonymous() {
		return team.Team{}, apperr.E(apperr.Unauthorized, op, membership.ErrAnonymousUser)
	}

	t := team.Team{
		ID:         newIDOr(deps.NewID),
		Name:       strings.TrimSpace(input.Name),
		OwnerUID:   input.Owner.UID,
		Visibility: team.NormalizeVisibility(input.Visibility),
		LogoRef:    strings.TrimSpace(input.LogoRef),
		CreatedAt:  nowOr(deps.Now).UTC(),
	}

	var err error
	for attempt := 1; attempt <= MaxInviteCodeAttempts; attempt++ {
		if t.InviteCode, err = team.GenerateInviteCode(deps.Rand); err != nil {
			return team.Team{}, opError(op, err)
		}
		if attempt == 1 {
			if verr := t.Validate(); verr != nil {
				return team.Team{}, apperr.E(apperr.ValidationFailed, op, verr)
			}
		}
		err = deps.Teams.InsertTeam(ctx, t)
		if !errors.Is(err, apperr.Collision) {
			break
		}
		slog.Warn("team_event", "event", "invite_code_collision", "attempt", attempt)
	}
	if errors.Is(err, apperr.Collision) {
		return team.Team{}, apperr.E(apperr.Collision, op, ErrInviteCodesExhausted)
	}
	if err != nil {
		return team.Team{}, apperr.Classify(apperr.TransportFailure, op, err)
	}

	m, err := deps.Memberships.GetMembership(ctx, input.Owner.UID)
	if err != nil {
		return t, apperr.Classify(apperr.TransportFailure, op, err)
	}
	m.Identity = input.Owner
	if err := m.Remember(historyEntry(input.Owner.UID, t)); err != nil {
		return t, apperr.E(apperr.ValidationFailed, op, err)
	}
	_ = m.Activate(t.ID)
	if err := deps.Memberships.SaveMembership(ctx, m); err != nil {
		return t, apperr.Classify(apperr.TransportFailure, op, err)
	}

	slog.Info("team_event", "event", "team_created", "team_id", t.ID, "owner_uid", t.OwnerUID, "visibility", t.Visibility)

	notice := emailDomain.TeamCreatedNotice{
		RecipientEmail: input.Owner.Email,
		RecipientName:  input.Owner.Name(),
		TeamName:       t.Name,
		InviteCode:     t.InviteCode,
		ScheduleURL:    ScheduleURL(deps.PublicBaseURL, t.InviteCode),
	}
	if notice.Validate() == nil {
		enqueueNotice(ctx, deps.Outbox, emailDomain.KindTeamCreated, notice, nowOr(deps.Now))
	}
	return t, nil
}

// historyEntry records t for uid. The invite code is kept only for
// viewers allowed to see it.
func historyEntry(uid string, t team.Team) membership.HistoryEntry {
	h := membership.HistoryEntry{TeamID: t.ID, TeamName: t.Name}
	if access.Derive(uid, t, true).CanSeeInviteCode {
		h.InviteCode = t.InviteCode
	}
	return h
}
