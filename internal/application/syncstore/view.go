package syncstore

import (
	"time"

	"roster/internal/domain/access"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/membership"
	"roster/internal/domain/schedule"
	"roster/internal/domain/team"
)

// Status is the lifecycle state of a Store's view.
type Status int

const (
	// StatusDetached: no identity is attached.
	StatusDetached Status = iota
	// StatusLoading: waiting for the first snapshot of a layer.
	StatusLoading
	// StatusReady: team, members and lineups are all current.
	StatusReady
	// StatusNoTeam: the viewer has no active team.
	StatusNoTeam
	// StatusAccessLost: the active team is gone or no longer readable.
	StatusAccessLost
	// StatusDegraded: a subscription failed; the view holds no roster data
	// until it recovers.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusDetached:
		return "detached"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusNoTeam:
		return "no_team"
	case StatusAccessLost:
		return "access_lost"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// View is an immutable snapshot of the synchronized state. Team, Members,
// Lineups and Capabilities are populated only when Status is StatusReady.
type View struct {
	Identity     membership.Identity
	Membership   membership.Membership
	Team         team.Team
	Members      []member.Member // sorted by name
	Lineups      []lineup.Lineup // sorted by service date
	Capabilities access.Capabilities
	Status       Status
	Err          error
}

// Ready reports whether the view holds a current roster.
func (v View) Ready() bool {
	return v.Status == StatusReady
}

// Names returns a member-name lookup over the view's members.
func (v View) Names() member.Lookup {
	return member.NewLookup(v.Members)
}

// Lineup returns the cached lineup with id.
func (v View) Lineup(id string) (lineup.Lineup, bool) {
	for _, l := range v.Lineups {
		if l.ID == id {
			return l, true
		}
	}
	return lineup.Lineup{}, false
}

// Member returns the cached member with id.
func (v View) Member(id string) (member.Member, bool) {
	for _, m := range v.Members {
		if m.ID == id {
			return m, true
		}
	}
	return member.Member{}, false
}

// DetectDuplicate returns a cached lineup already on date, other than
// excludingID.
func (v View) DetectDuplicate(date time.Time, excludingID string) (lineup.Lineup, bool) {
	return schedule.DetectDuplicate(v.Lineups, date, excludingID)
}
