// Package access derives what a viewer may do with a team. Capabilities
// are never stored; they are recomputed from the team document and the
// viewer's membership whenever either changes.
package access

import "roster/internal/domain/team"

// Capabilities is the derived permission set for one viewer and one team.
type Capabilities struct {
	CanManageRoster  bool // add, edit and remove members and lineups
	IsPrimaryOwner   bool // team settings and co-admin management
	CanSeeInviteCode bool
	IsMember         bool // owner, co-admin, or team in the viewer's history
	CanRead          bool
}

// Derive computes capabilities.
// PRE: viewerUID may be empty for anonymous viewers
// POST: CanManageRoster implies CanRead; IsPrimaryOwner implies CanManageRoster
func Derive(viewerUID string, t team.Team, inHistory bool) Capabilities {
	owner := t.IsOwner(viewerUID)
	admin := owner || t.IsCoAdmin(viewerUID)
	member := admin || (viewerUID != "" && inHistory)
	return Capabilities{
		CanManageRoster:  admin,
		IsPrimaryOwner:   owner,
		CanSeeInviteCode: admin,
		IsMember:         member,
		CanRead:          member || t.IsPublic(),
	}
}

// CanManageTeam reports whether settings and co-admins may be changed.
func (c Capabilities) CanManageTeam() bool {
	return c.IsPrimaryOwner
}
