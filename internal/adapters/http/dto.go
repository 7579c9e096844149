package web

import (
	"time"

	"roster/internal/application/orchestrators"
	"roster/internal/application/projections"
	"roster/internal/application/syncstore"
	"roster/internal/domain/access"
	"roster/internal/domain/apperr"
	"roster/internal/domain/lineup"
	"roster/internal/domain/member"
	"roster/internal/domain/outbox"
	"roster/internal/domain/schedule"
	"roster/internal/domain/team"
)

type capabilitiesJSON struct {
	CanManageRoster  bool `json:"canManageRoster"`
	IsPrimaryOwner   bool `json:"isPrimaryOwner"`
	CanSeeInviteCode bool `json:"canSeeInviteCode"`
	IsMember         bool `json:"isMember"`
	CanRead          bool `json:"canRead"`
}

func toCapabilities(c access.Capabilities) capabilitiesJSON {
	return capabilitiesJSON{
		CanManageRoster:  c.CanManageRoster,
		IsPrimaryOwner:   c.IsPrimaryOwner,
		CanSeeInviteCode: c.CanSeeInviteCode,
		IsMember:         c.IsMember,
		CanRead:          c.CanRead,
	}
}

type teamJSON struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Visibility   string            `json:"visibility"`
	LogoRef      string            `json:"logoRef,omitempty"`
	InviteCode   string            `json:"inviteCode,omitempty"`
	ScheduleURL  string            `json:"scheduleUrl,omitempty"`
	Capabilities *capabilitiesJSON `json:"capabilities,omitempty"`
}

func (s *server) fromSummary(t projections.TeamSummary) teamJSON {
	caps := toCapabilities(t.Capabilities)
	out := teamJSON{
		ID:           t.ID,
		Name:         t.Name,
		Visibility:   t.Visibility,
		LogoRef:      t.LogoRef,
		InviteCode:   t.InviteCode,
		Capabilities: &caps,
	}
	if t.InviteCode != "" {
		out.ScheduleURL = orchestrators.ScheduleURL(s.deps.PublicBaseURL, t.InviteCode)
	}
	return out
}

// fromTeam shows a team to a viewer with capabilities caps.
func (s *server) fromTeam(t team.Team, caps access.Capabilities) teamJSON {
	out := teamJSON{ID: t.ID, Name: t.Name, Visibility: t.Visibility, LogoRef: t.LogoRef}
	c := toCapabilities(caps)
	out.Capabilities = &c
	if caps.CanSeeInviteCode {
		out.InviteCode = t.InviteCode
		out.ScheduleURL = orchestrators.ScheduleURL(s.deps.PublicBaseURL, t.InviteCode)
	}
	return out
}

type memberJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Nickname   string   `json:"nickname,omitempty"`
	Roles      []string `json:"roles"`
	SeniorTier bool     `json:"seniorTier,omitempty"`
}

func toMember(m member.Member) memberJSON {
	return memberJSON{ID: m.ID, Name: m.Name, Nickname: m.Nickname, Roles: m.Roles, SeniorTier: m.SeniorTier}
}

func (m memberJSON) domain() member.Member {
	return member.Member{ID: m.ID, Name: m.Name, Nickname: m.Nickname, Roles: m.Roles, SeniorTier: m.SeniorTier}
}

func toMembers(ms []member.Member) []memberJSON {
	out := make([]memberJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMember(m))
	}
	return out
}

type leaderJSON struct {
	MemberID string `json:"memberId"`
	Role     string `json:"role"`
}

type extraJSON struct {
	Label     string   `json:"label"`
	Icon      string   `json:"icon,omitempty"`
	MemberIDs []string `json:"memberIds"`
}

type instrumentsJSON struct {
	Keyboard1      string      `json:"keyboard1,omitempty"`
	Keyboard2      string      `json:"keyboard2,omitempty"`
	Bass           []string    `json:"bass,omitempty"`
	LeadGuitar     []string    `json:"leadGuitar,omitempty"`
	AcousticGuitar []string    `json:"acousticGuitar,omitempty"`
	Drums          []string    `json:"drums,omitempty"`
	SoundEngineer  string      `json:"soundEngineer,omitempty"`
	Extras         []extraJSON `json:"extras,omitempty"`
}

type songJSON struct {
	Section string `json:"section"`
	Title   string `json:"title"`
	Key     string `json:"key,omitempty"`
	Capo    int    `json:"capo,omitempty"`
	Link    string `json:"link,omitempty"`
}

type lineupJSON struct {
	ID              string          `json:"id,omitempty"`
	ServiceDate     string          `json:"serviceDate"`
	RehearsalDate   string          `json:"rehearsalDate,omitempty"`
	Theme           string          `json:"theme,omitempty"`
	Scripture       string          `json:"scripture,omitempty"`
	SeniorTier      bool            `json:"seniorTier,omitempty"`
	WorshipLeaders  []leaderJSON    `json:"worshipLeaders"`
	BackupVocalists []string        `json:"backupVocalists,omitempty"`
	Instruments     instrumentsJSON `json:"instruments"`
	Songs           []songJSON      `json:"songs,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	NextLeader      string          `json:"nextLeader,omitempty"`
}

func toLineup(l lineup.Lineup) lineupJSON {
	out := lineupJSON{
		ID:              l.ID,
		ServiceDate:     lineup.FormatDate(l.ServiceDate),
		RehearsalDate:   lineup.FormatDate(l.RehearsalDate),
		Theme:           l.Theme,
		Scripture:       l.Scripture,
		SeniorTier:      l.SeniorTier,
		BackupVocalists: l.BackupVocalists,
		Instruments: instrumentsJSON{
			Keyboard1:      l.Instruments.Keyboard1,
			Keyboard2:      l.Instruments.Keyboard2,
			Bass:           l.Instruments.Bass,
			LeadGuitar:     l.Instruments.LeadGuitar,
			AcousticGuitar: l.Instruments.AcousticGuitar,
			Drums:          l.Instruments.Drums,
			SoundEngineer:  l.Instruments.SoundEngineer,
		},
		Notes:      l.Notes,
		NextLeader: l.NextLeader,
	}
	for _, s := range l.WorshipLeaders {
		out.WorshipLeaders = append(out.WorshipLeaders, leaderJSON{MemberID: s.MemberID, Role: s.Role})
	}
	for _, x := range l.Instruments.Extras {
		out.Instruments.Extras = append(out.Instruments.Extras, extraJSON{Label: x.Label, Icon: x.Icon, MemberIDs: x.MemberIDs})
	}
	for _, s := range l.Songs {
		out.Songs = append(out.Songs, songJSON{Section: s.Section, Title: s.Title, Key: s.Key, Capo: s.Capo, Link: s.Link})
	}
	return out
}

func toLineups(ls []lineup.Lineup) []lineupJSON {
	out := make([]lineupJSON, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLineup(l))
	}
	return out
}

// domain converts a request body into a lineup.
// POST: dates parse or a ValidationFailed error is returned
func (j lineupJSON) domain(op string) (lineup.Lineup, error) {
	l := lineup.Lineup{
		ID:              j.ID,
		Theme:           j.Theme,
		Scripture:       j.Scripture,
		SeniorTier:      j.SeniorTier,
		BackupVocalists: j.BackupVocalists,
		Instruments: lineup.Instruments{
			Keyboard1:      j.Instruments.Keyboard1,
			Keyboard2:      j.Instruments.Keyboard2,
			Bass:           j.Instruments.Bass,
			LeadGuitar:     j.Instruments.LeadGuitar,
			AcousticGuitar: j.Instruments.AcousticGuitar,
			Drums:          j.Instruments.Drums,
			SoundEngineer:  j.Instruments.SoundEngineer,
		},
		Notes:      j.Notes,
		NextLeader: j.NextLeader,
	}
	var err error
	if j.ServiceDate != "" {
		if l.ServiceDate, err = lineup.ParseDate(j.ServiceDate); err != nil {
			return lineup.Lineup{}, apperr.E(apperr.ValidationFailed, op, err)
		}
	}
	if j.RehearsalDate != "" {
		if l.RehearsalDate, err = lineup.ParseDate(j.RehearsalDate); err != nil {
			return lineup.Lineup{}, apperr.E(apperr.ValidationFailed, op, err)
		}
	}
	for _, s := range j.WorshipLeaders {
		l.WorshipLeaders = append(l.WorshipLeaders, lineup.LeaderSlot{MemberID: s.MemberID, Role: s.Role})
	}
	for _, x := range j.Instruments.Extras {
		l.Instruments.Extras = append(l.Instruments.Extras, lineup.ExtraSlot{Label: x.Label, Icon: x.Icon, MemberIDs: x.MemberIDs})
	}
	for _, s := range j.Songs {
		l.Songs = append(l.Songs, lineup.Song{Section: s.Section, Title: s.Title, Key: s.Key, Capo: s.Capo, Link: s.Link})
	}
	return l, nil
}

type historyJSON struct {
	TeamID     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	InviteCode string `json:"inviteCode,omitempty"`
}

type viewJSON struct {
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	UID          string            `json:"uid"`
	ActiveTeamID string            `json:"activeTeamId,omitempty"`
	History      []historyJSON     `json:"history"`
	Team         *teamJSON         `json:"team,omitempty"`
	Members      []memberJSON      `json:"members,omitempty"`
	Lineups      []lineupJSON      `json:"lineups,omitempty"`
	Capabilities *capabilitiesJSON `json:"capabilities,omitempty"`
}

func (s *server) toView(v syncstore.View) viewJSON {
	out := viewJSON{
		Status:       v.Status.String(),
		UID:          v.Identity.UID,
		ActiveTeamID: v.Membership.ActiveTeamID,
		History:      toHistory(v),
	}
	if v.Err != nil {
		out.Error = string(apperr.KindOf(v.Err))
		if out.Error == "" {
			out.Error = "error"
		}
	}
	if v.Ready() {
		t := s.fromTeam(v.Team, v.Capabilities)
		caps := toCapabilities(v.Capabilities)
		out.Team = &t
		out.Members = toMembers(v.Members)
		out.Lineups = toLineups(v.Lineups)
		out.Capabilities = &caps
	}
	return out
}

// toHistory lists the caller's teams. An invite code is only sent for the
// active team and only while the derived capabilities allow it.
func toHistory(v syncstore.View) []historyJSON {
	out := make([]historyJSON, 0, len(v.Membership.History))
	for _, h := range v.Membership.History {
		j := historyJSON{TeamID: h.TeamID, TeamName: h.TeamName}
		if v.Ready() && h.TeamID == v.Team.ID && v.Capabilities.CanSeeInviteCode {
			j.InviteCode = v.Team.InviteCode
		}
		out = append(out, j)
	}
	return out
}

type scheduleEntryJSON struct {
	Lineup     lineupJSON `json:"lineup"`
	Leaders    string     `json:"leaders"`
	NextLeader string     `json:"nextLeader,omitempty"`
}

type monthScheduleJSON struct {
	Team    teamJSON            `json:"team"`
	Month   string              `json:"month"`
	Theme   string              `json:"theme,omitempty"`
	Sundays []string            `json:"sundays"`
	Entries []scheduleEntryJSON `json:"entries"`
	Members []memberJSON        `json:"members"`
}

func (s *server) toMonthSchedule(ms projections.MonthSchedule) monthScheduleJSON {
	out := monthScheduleJSON{
		Team:    s.fromSummary(ms.Team),
		Month:   ms.Month.String(),
		Theme:   ms.Theme,
		Sundays: make([]string, 0, len(ms.Sundays)),
		Entries: make([]scheduleEntryJSON, 0, len(ms.Entries)),
		Members: toMembers(ms.Members),
	}
	for _, d := range ms.Sundays {
		out.Sundays = append(out.Sundays, lineup.FormatDate(d))
	}
	for _, e := range ms.Entries {
		out.Entries = append(out.Entries, scheduleEntryJSON{Lineup: toLineup(e.Lineup), Leaders: e.Leaders, NextLeader: e.NextLeader})
	}
	return out
}

type monthCountJSON struct {
	Month   string `json:"month"`
	Lineups int    `json:"lineups"`
}

type yearOverviewJSON struct {
	Team        teamJSON         `json:"team"`
	Year        int              `json:"year"`
	Months      []monthCountJSON `json:"months"`
	Scheduled   int              `json:"scheduledMonths"`
	NextService string           `json:"nextService,omitempty"`
}

func (s *server) toYearOverview(y projections.YearOverview) yearOverviewJSON {
	out := yearOverviewJSON{
		Team:      s.fromSummary(y.Team),
		Year:      y.Year.Year,
		Months:    make([]monthCountJSON, 0, len(y.Months)),
		Scheduled: y.Scheduled,
	}
	for _, m := range y.Months {
		out.Months = append(out.Months, monthCountJSON{Month: m.Month.String(), Lineups: m.Lineups})
	}
	if !y.NextService.IsZero() {
		out.NextService = lineup.FormatDate(y.NextService)
	}
	return out
}

type songUsageJSON struct {
	Title    string   `json:"title"`
	Link     string   `json:"link,omitempty"`
	Dates    []string `json:"dates"`
	LastUsed string   `json:"lastUsed"`
}

func toSongUsage(us []schedule.SongUsage) []songUsageJSON {
	out := make([]songUsageJSON, 0, len(us))
	for _, u := range us {
		j := songUsageJSON{
			Title:    u.Title,
			Link:     u.Link,
			Dates:    make([]string, 0, len(u.Dates)),
			LastUsed: lineup.FormatDate(u.LastUsed),
		}
		for _, d := range u.Dates {
			j.Dates = append(j.Dates, lineup.FormatDate(d))
		}
		out = append(out, j)
	}
	return out
}

type outboxEntryJSON struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	Attempts        int        `json:"attempts"`
	MaxAttempts     int        `json:"maxAttempts"`
	LastAttemptedAt *time.Time `json:"lastAttemptedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExternalID      string     `json:"externalId,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
}

// toOutboxEntries omits payloads, which carry recipient addresses.
func toOutboxEntries(es []outbox.Entry) []outboxEntryJSON {
	out := make([]outboxEntryJSON, 0, len(es))
	for _, e := range es {
		j := outboxEntryJSON{
			ID: e.ID, Kind: e.Kind, Status: e.Status, Attempts: e.Attempts, MaxAttempts: e.MaxAttempts,
			CreatedAt: e.CreatedAt, ExternalID: e.ExternalID, ErrorMessage: e.ErrorMessage,
		}
		if !e.LastAttemptedAt.IsZero() {
			t := e.LastAttemptedAt
			j.LastAttemptedAt = &t
		}
		out = append(out, j)
	}
	return out
}
