// Package email defines the notification payloads handed to the outbound
// mail collaborator. The shapes are fixed; delivery lives in the adapter.
package email

import (
	"errors"
	"net/mail"
	"strings"
)

// Notice kinds, used as outbox action types.
const (
	KindTeamCreated = "email_team_created"
	KindTeamJoined  = "email_team_joined"
)

// Domain errors
var (
	ErrInvalidAddress = errors.New("email address is invalid")
	ErrEmptyTeamName  = errors.New("team name is required")
	ErrEmptyCode      = errors.New("invite code is required")
	ErrUnknownKind    = errors.New("unknown notice kind")
)

// TeamCreatedNotice welcomes the owner of a new team.
type TeamCreatedNotice struct {
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName"`
	TeamName       string `json:"teamName"`
	InviteCode     string `json:"inviteCode"`
	ScheduleURL    string `json:"scheduleUrl"`
}

// Validate checks if the notice has the fields the mailer needs.
// PRE: notice is populated
// POST: Returns nil if deliverable, error otherwise
func (n *TeamCreatedNotice) Validate() error {
	if !isAddress(n.RecipientEmail) {
		return ErrInvalidAddress
	}
	if strings.TrimSpace(n.TeamName) == "" {
		return ErrEmptyTeamName
	}
	if strings.TrimSpace(n.InviteCode) == "" {
		return ErrEmptyCode
	}
	return nil
}

// TeamJoinedNotice tells the joiner and the team owner about a new
// co-admin. ScheduleURL is optional.
type TeamJoinedNotice struct {
	JoinerEmail string `json:"joinerEmail"`
	JoinerName  string `json:"joinerName"`
	AdminEmail  string `json:"adminEmail"`
	AdminName   string `json:"adminName"`
	TeamName    string `json:"teamName"`
	ScheduleURL string `json:"scheduleUrl,omitempty"`
}

// Validate checks if the notice has the fields the mailer needs.
// PRE: notice is populated
// POST: Returns nil if deliverable, error otherwise
// INVARIANT: at least the joiner address is deliverable
func (n *TeamJoinedNotice) Validate() error {
	if !isAddress(n.JoinerEmail) {
		return ErrInvalidAddress
	}
	if n.AdminEmail != "" && !isAddress(n.AdminEmail) {
		return ErrInvalidAddress
	}
	if strings.TrimSpace(n.TeamName) == "" {
		return ErrEmptyTeamName
	}
	return nil
}

// Recipients lists the joiner and, when known, the admin.
func (n *TeamJoinedNotice) Recipients() []string {
	out := []string{n.JoinerEmail}
	if n.AdminEmail != "" && !strings.EqualFold(n.AdminEmail, n.JoinerEmail) {
		out = append(out, n.AdminEmail)
	}
	return out
}

func isAddress(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
