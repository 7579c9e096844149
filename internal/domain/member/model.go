package member

import (
	"errors"
	"slices"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength     = 100
	MaxNicknameLength = 50
)

// Role vocabulary. Order here is the display order.
const (
	RoleVocalist = "Vocalist"
	RoleKeyboard = "Keyboard"
	RoleGuitar   = "Guitar"
	RoleBass     = "Bass"
	RoleDrums    = "Drums"
	RoleSound    = "Sound"
)

// Roles lists the accepted role values.
var Roles = []string{RoleVocalist, RoleKeyboard, RoleGuitar, RoleBass, RoleDrums, RoleSound}

// MissingName is displayed wherever a lineup references a deleted member.
const MissingName = "—"

// Domain errors
var (
	ErrEmptyName      = errors.New("member name cannot be empty")
	ErrNameTooLong    = errors.New("member name cannot exceed 100 characters")
	ErrNicknameLength = errors.New("member nickname cannot exceed 50 characters")
	ErrNoRoles        = errors.New("member must have at least one role")
	ErrUnknownRole    = errors.New("member role is not recognised")
	ErrDuplicateRole  = errors.New("member role is listed twice")
	ErrNotFound       = errors.New("member not found")
)

// Member is a musician on a team roster. Members are referenced from
// lineups by ID only; deleting one leaves dangling references behind.
type Member struct {
	ID         string
	Name       string
	Nickname   string
	Roles      []string
	SeniorTier bool
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Roles is non-empty, duplicate-free and drawn from Roles
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(m.Nickname) > MaxNicknameLength {
		return ErrNicknameLength
	}
	if len(m.Roles) == 0 {
		return ErrNoRoles
	}
	for i, r := range m.Roles {
		if !IsKnownRole(r) {
			return ErrUnknownRole
		}
		if slices.Contains(m.Roles[:i], r) {
			return ErrDuplicateRole
		}
	}
	return nil
}

// HasRole reports whether the member plays role.
func (m *Member) HasRole(role string) bool {
	return slices.Contains(m.Roles, role)
}

// IsKnownRole reports whether role is part of the vocabulary.
func IsKnownRole(role string) bool {
	return slices.Contains(Roles, role)
}

// Lookup resolves member ids to display names.
type Lookup map[string]Member

// NewLookup indexes members by ID.
func NewLookup(members []Member) Lookup {
	l := make(Lookup, len(members))
	for _, m := range members {
		l[m.ID] = m
	}
	return l
}

// Name returns the member's name or MissingName for unknown or empty ids.
func (l Lookup) Name(id string) string {
	if m, ok := l[id]; ok && id != "" {
		return m.Name
	}
	return MissingName
}

// SortKey orders members by name case-insensitively, falling back to ID.
func SortKey(a, b Member) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
