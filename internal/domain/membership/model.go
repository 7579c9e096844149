package membership

import (
	"errors"
	"slices"
	"strings"
)

// Domain errors
var (
	ErrEmptyUID      = errors.New("identity must have a uid")
	ErrEmptyTeamID   = errors.New("team id cannot be empty")
	ErrNotInHistory  = errors.New("team is not in the user's history")
	ErrAnonymousUser = errors.New("anonymous users have no membership")
)

// Identity is the authenticated user as reported by the identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// IsAnonymous reports whether no user is signed in.
func (i Identity) IsAnonymous() bool {
	return strings.TrimSpace(i.UID) == ""
}

// Name returns the display name, falling back to the email address.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// HistoryEntry remembers a team the user has joined or followed.
type HistoryEntry struct {
	TeamID     string
	TeamName   string
	InviteCode string
}

// Membership is a user's per-user record: which team is active and which
// teams they have been part of.
type Membership struct {
	Identity     Identity
	ActiveTeamID string
	History      []HistoryEntry
}

// New returns an empty membership for id.
func New(id Identity) Membership {
	return Membership{Identity: id}
}

// Validate checks if the Membership has valid data.
// PRE: Membership struct is populated
// POST: Returns nil if valid, error otherwise
func (m Membership) Validate() error {
	if m.Identity.IsAnonymous() {
		return ErrEmptyUID
	}
	for _, h := range m.History {
		if strings.TrimSpace(h.TeamID) == "" {
			return ErrEmptyTeamID
		}
	}
	return nil
}

// Has reports whether teamID is in the history.
func (m Membership) Has(teamID string) bool {
	return m.index(teamID) >= 0
}

// Entry returns the history entry for teamID.
func (m Membership) Entry(teamID string) (HistoryEntry, bool) {
	i := m.index(teamID)
	if i < 0 {
		return HistoryEntry{}, false
	}
	return m.History[i], true
}

// Remember appends entry to the history, or refreshes the name and code of
// an existing entry in place.
// PRE: entry.TeamID is non-empty
// POST: exactly one entry exists for entry.TeamID; order of others unchanged
func (m *Membership) Remember(entry HistoryEntry) error {
	if strings.TrimSpace(entry.TeamID) == "" {
		return ErrEmptyTeamID
	}
	if i := m.index(entry.TeamID); i >= 0 {
		m.History[i] = entry
		return nil
	}
	m.History = append(m.History, entry)
	return nil
}

// Forget removes teamID from the history. Forgetting the active team also
// clears it.
// POST: Has(teamID) is false
func (m *Membership) Forget(teamID string) error {
	i := m.index(teamID)
	if i < 0 {
		return ErrNotInHistory
	}
	m.History = slices.Delete(m.History, i, i+1)
	if m.ActiveTeamID == teamID {
		m.ActiveTeamID = ""
	}
	return nil
}

// Activate makes teamID the active team.
// PRE: teamID is in the history
func (m *Membership) Activate(teamID string) error {
	if !m.Has(teamID) {
		return ErrNotInHistory
	}
	m.ActiveTeamID = teamID
	return nil
}

// Deactivate clears the active team; the history is kept.
func (m *Membership) Deactivate() {
	m.ActiveTeamID = ""
}

func (m Membership) index(teamID string) int {
	if teamID == "" {
		return -1
	}
	return slices.IndexFunc(m.History, func(h HistoryEntry) bool { return h.TeamID == teamID })
}
