package member_test

import (
	"slices"
	"strings"
	"testing"

	"roster/internal/domain/member"
)

// TestMemberValidation tests validation of Member.
func TestMemberValidation(t *testing.T) {
	tests := []struct {
		name    string
		member  member.Member
		wantErr error
	}{
		{
			name:   "valid member",
			member: member.Member{ID: "m1", Name: "Ana", Roles: []string{member.RoleVocalist}},
		},
		{
			name:   "valid senior multi-role member",
			member: member.Member{ID: "m1", Name: "Ana", Nickname: "A", Roles: []string{member.RoleGuitar, member.RoleBass}, SeniorTier: true},
		},
		{
			name:    "empty name",
			member:  member.Member{ID: "m1", Name: " ", Roles: []string{member.RoleVocalist}},
			wantErr: member.ErrEmptyName,
		},
		{
			name:    "name too long",
			member:  member.Member{ID: "m1", Name: strings.Repeat("a", 101), Roles: []string{member.RoleVocalist}},
			wantErr: member.ErrNameTooLong,
		},
		{
			name:    "no roles",
			member:  member.Member{ID: "m1", Name: "Ana"},
			wantErr: member.ErrNoRoles,
		},
		{
			name:    "unknown role",
			member:  member.Member{ID: "m1", Name: "Ana", Roles: []string{"Tuba"}},
			wantErr: member.ErrUnknownRole,
		},
		{
			name:    "duplicate role",
			member:  member.Member{ID: "m1", Name: "Ana", Roles: []string{member.RoleBass, member.RoleBass}},
			wantErr: member.ErrDuplicateRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.member.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookup_Name(t *testing.T) {
	l := member.NewLookup([]member.Member{{ID: "m1", Name: "Ana"}})
	if got := l.Name("m1"); got != "Ana" {
		t.Errorf("Name(m1) = %q", got)
	}
	if got := l.Name("gone"); got != member.MissingName {
		t.Errorf("Name(gone) = %q, want placeholder", got)
	}
	if got := l.Name(""); got != member.MissingName {
		t.Errorf("Name(\"\") = %q, want placeholder", got)
	}
}

func TestSortKey(t *testing.T) {
	ms := []member.Member{
		{ID: "3", Name: "carla"},
		{ID: "2", Name: "Ben"},
		{ID: "1", Name: "Ben"},
		{ID: "4", Name: "ana"},
	}
	slices.SortFunc(ms, member.SortKey)
	var got []string
	for _, m := range ms {
		got = append(got, m.ID)
	}
	want := []string{"4", "1", "2", "3"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
