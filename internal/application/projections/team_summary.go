package projections

import (
	"context"

	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	"roster/internal/domain/membership"
	"roster/internal/domain/team"
)

// TeamSummary is a team as shown to a particular viewer. InviteCode is
// empty unless the viewer may see it.
type TeamSummary struct {
	ID           string
	Name         string
	Visibility   string
	LogoRef      string
	InviteCode   string
	Capabilities access.Capabilities
}

// MembershipReader reads a viewer's membership record.
type MembershipReader interface {
	GetMembership(ctx context.Context, uid string) (membership.Membership, error)
}

// ErrTeamNotFound is the single result for a team the viewer cannot see,
// whether it does not exist or is private.
var ErrTeamNotFound = apperr.E(apperr.NotFound, "resolve_team", team.ErrNotFound)

func summarize(t team.Team, caps access.Capabilities) TeamSummary {
	s := TeamSummary{
		ID:           t.ID,
		Name:         t.Name,
		Visibility:   t.Visibility,
		LogoRef:      t.LogoRef,
		Capabilities: caps,
	}
	if caps.CanSeeInviteCode {
		s.InviteCode = t.InviteCode
	}
	return s
}

// viewerCapabilities derives what viewer may do with t. Anonymous viewers
// have no history.
func viewerCapabilities(ctx context.Context, viewer membership.Identity, t team.Team, memberships MembershipReader) (access.Capabilities, error) {
	inHistory := false
	if !viewer.IsAnonymous() && memberships != nil {
		m, err := memberships.GetMembership(ctx, viewer.UID)
		if err != nil {
			return access.Capabilities{}, apperr.Classify(apperr.TransportFailure, "viewer_capabilities", err)
		}
		inHistory = m.Has(t.ID)
	}
	return access.Derive(viewer.UID, t, inHistory), nil
}
