package team

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Domain errors
var (
	ErrEmptyName         = errors.New("team name cannot be empty")
	ErrNameTooLong       = errors.New("team name cannot exceed 100 characters")
	ErrEmptyOwner        = errors.New("team must have an owner")
	ErrInvalidVisibility = errors.New("visibility must be 'public' or 'private'")
	ErrOwnerIsCoAdmin    = errors.New("owner cannot also be a co-admin")
	ErrNotFound          = errors.New("team not found")
)

// Team is an independent roster tenant. The owner is the single primary
// administrator; co-admins share roster editing rights.
type Team struct {
	ID          string
	Name        string
	InviteCode  string
	OwnerUID    string
	CoAdminUIDs []string
	Visibility  string
	LogoRef     string
	CreatedAt   time.Time
}

// Validate checks if the Team has valid data.
// PRE: Team struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: exactly one owner, owner never listed as a co-admin
func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(t.OwnerUID) == "" {
		return ErrEmptyOwner
	}
	if t.Visibility != VisibilityPublic && t.Visibility != VisibilityPrivate {
		return ErrInvalidVisibility
	}
	if !IsValidInviteCode(t.InviteCode) {
		return ErrInvalidInviteCode
	}
	if slices.Contains(t.CoAdminUIDs, t.OwnerUID) {
		return ErrOwnerIsCoAdmin
	}
	return nil
}

// IsPublic reports whether non-members may read the team.
func (t Team) IsPublic() bool {
	return t.Visibility == VisibilityPublic
}

// IsOwner reports whether uid is the primary owner.
func (t Team) IsOwner(uid string) bool {
	return uid != "" && t.OwnerUID == uid
}

// IsCoAdmin reports whether uid is in the co-admin set.
func (t Team) IsCoAdmin(uid string) bool {
	return uid != "" && slices.Contains(t.CoAdminUIDs, uid)
}

// AddCoAdmin grants co-admin rights.
// POST: uid is in CoAdminUIDs exactly once unless uid is the owner
// Returns true when the set changed.
func (t *Team) AddCoAdmin(uid string) bool {
	if uid == "" || t.IsOwner(uid) || t.IsCoAdmin(uid) {
		return false
	}
	t.CoAdminUIDs = append(t.CoAdminUIDs, uid)
	return true
}

// RemoveCoAdmin revokes co-admin rights.
// Returns true when the set changed.
func (t *Team) RemoveCoAdmin(uid string) bool {
	i := slices.Index(t.CoAdminUIDs, uid)
	if i < 0 {
		return false
	}
	t.CoAdminUIDs = slices.Delete(t.CoAdminUIDs, i, i+1)
	return true
}

// NormalizeVisibility maps an empty value to the public default.
func NormalizeVisibility(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return VisibilityPublic
	}
	return v
}
