package lineup

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date encoding.
const DateLayout = "2006-01-02"

// IDPrefix prefixes every lineup id.
const IDPrefix = "lineup-"

// DefaultLeaderRole is the role given to leaders of ordinary services.
const DefaultLeaderRole = "Worship Leader"

// Max length constants for user-editable fields.
const (
	MaxThemeLength = 200
	MaxNotesLength = 2000
	MaxTitleLength = 200
	MaxCapo        = 12
)

// SeniorTierRoles are the leader roles used on senior-tier services.
var SeniorTierRoles = []string{"OpWelcome", "Praise", "Worship", "Lord's Table", "Opening", "Other"}

// Song sections in the order they occur in a service.
const (
	SectionOpening    = "Opening"
	SectionPraise     = "Praise"
	SectionWorship    = "Worship"
	SectionOffertory  = "Offertory"
	SectionLordsTable = "Lord's Table"
	SectionClosing    = "Closing"
	SectionOther      = "Other"
)

// Domain errors
var (
	ErrMissingDate      = errors.New("lineup must have a service date")
	ErrNoLeaders        = errors.New("lineup must have at least one worship leader slot")
	ErrDuplicateMember  = errors.New("a member appears twice in the same slot")
	ErrEmptySongTitle   = errors.New("song title cannot be empty")
	ErrSongTitleTooLong = errors.New("song title cannot exceed 200 characters")
	ErrThemeTooLong     = errors.New("theme cannot exceed 200 characters")
	ErrNotesTooLong     = errors.New("notes cannot exceed 2000 characters")
	ErrInvalidCapo      = errors.New("capo must be between 0 and 12")
	ErrNotFound         = errors.New("lineup not found")
)

// LeaderSlot assigns a member to a leading role. An empty MemberID is an
// unassigned slot.
type LeaderSlot struct {
	MemberID string
	Role     string
}

// ExtraSlot is a team-defined instrument cell.
type ExtraSlot struct {
	Label     string
	Icon      string
	MemberIDs []string
}

// Instruments holds the band assignment. Keyboards and sound are single
// seats; the rest may be shared.
type Instruments struct {
	Keyboard1      string
	Keyboard2      string
	Bass           []string
	LeadGuitar     []string
	AcousticGuitar []string
	Drums          []string
	SoundEngineer  string
	Extras         []ExtraSlot
}

// Song is one entry in the setlist. Capo zero means no capo.
type Song struct {
	Section string
	Title   string
	Key     string
	Capo    int
	Link    string
}

// Lineup is the roster for one service date.
type Lineup struct {
	ID              string
	ServiceDate     time.Time
	RehearsalDate   time.Time // zero when there is no rehearsal
	Theme           string
	Scripture       string
	SeniorTier      bool
	WorshipLeaders  []LeaderSlot
	BackupVocalists []string
	Instruments     Instruments
	Songs           []Song
	Notes           string
	NextLeader      string
}

// IDForDate derives the deterministic id of the lineup for a service date.
// Re-submitting a lineup for the same date therefore overwrites rather
// than duplicates.
func IDForDate(d time.Time) string {
	return IDPrefix + FormatDate(d)
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Date returns the calendar date of t as UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Blank returns an unassigned lineup for date with one open leader slot.
func Blank(date time.Time) Lineup {
	return Lineup{
		ServiceDate:    Date(date),
		WorshipLeaders: []LeaderSlot{{Role: DefaultLeaderRole}},
	}
}

// AssignID fills an empty ID from the service date, or from fallback when
// the date is unset.
// POST: ID is non-empty when ServiceDate or fallback is set
func (l *Lineup) AssignID(fallback string) {
	if l.ID != "" {
		return
	}
	if !l.ServiceDate.IsZero() {
		l.ID = IDForDate(l.ServiceDate)
		return
	}
	if fallback != "" {
		l.ID = IDPrefix + fallback
	}
}

// Normalize trims text, fills default leader roles, drops untitled songs
// and removes repeated members from each slot list, keeping the first.
// POST: Validate reports no ErrDuplicateMember
func (l *Lineup) Normalize() {
	l.ServiceDate = dateOrZero(l.ServiceDate)
	l.RehearsalDate = dateOrZero(l.RehearsalDate)
	l.Theme = strings.TrimSpace(l.Theme)
	l.Scripture = strings.TrimSpace(l.Scripture)
	l.Notes = strings.TrimSpace(l.Notes)
	l.NextLeader = strings.TrimSpace(l.NextLeader)

	leaders := l.WorshipLeaders[:0]
	for _, s := range l.WorshipLeaders {
		s.MemberID = strings.TrimSpace(s.MemberID)
		s.Role = strings.TrimSpace(s.Role)
		if s.Role == "" {
			s.Role = DefaultLeaderRole
		}
		if s.MemberID != "" && slices.Contains(leaders, s) {
			continue
		}
		leaders = append(leaders, s)
	}
	l.WorshipLeaders = leaders

	l.BackupVocalists = dedupe(l.BackupVocalists)
	in := &l.Instruments
	in.Bass = dedupe(in.Bass)
	in.LeadGuitar = dedupe(in.LeadGuitar)
	in.AcousticGuitar = dedupe(in.AcousticGuitar)
	in.Drums = dedupe(in.Drums)
	for i := range in.Extras {
		in.Extras[i].Label = strings.TrimSpace(in.Extras[i].Label)
		in.Extras[i].MemberIDs = dedupe(in.Extras[i].MemberIDs)
	}

	songs := l.Songs[:0]
	for _, s := range l.Songs {
		s.Title = strings.TrimSpace(s.Title)
		s.Section = strings.TrimSpace(s.Section)
		if s.Title == "" {
			continue
		}
		if s.Section == "" {
			s.Section = SectionOther
		}
		songs = append(songs, s)
	}
	l.Songs = songs
}

// Validate checks if the Lineup has valid data.
// PRE: Lineup struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: at least one leader slot, no member twice within one slot list
func (l *Lineup) Validate() error {
	if l.ServiceDate.IsZero() {
		return ErrMissingDate
	}
	if len(l.WorshipLeaders) == 0 {
		return ErrNoLeaders
	}
	if len(l.Theme) > MaxThemeLength {
		return ErrThemeTooLong
	}
	if len(l.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	lists := [][]string{
		l.BackupVocalists,
		l.Instruments.Bass,
		l.Instruments.LeadGuitar,
		l.Instruments.AcousticGuitar,
		l.Instruments.Drums,
	}
	for _, x := range l.Instruments.Extras {
		lists = append(lists, x.MemberIDs)
	}
	for _, ids := range lists {
		if hasDuplicate(ids) {
			return ErrDuplicateMember
		}
	}
	for i, s := range l.WorshipLeaders {
		if s.MemberID != "" && slices.Contains(l.WorshipLeaders[:i], s) {
			return ErrDuplicateMember
		}
	}
	for _, s := range l.Songs {
		if strings.TrimSpace(s.Title) == "" {
			return ErrEmptySongTitle
		}
		if len(s.Title) > MaxTitleLength {
			return ErrSongTitleTooLong
		}
		if s.Capo < 0 || s.Capo > MaxCapo {
			return ErrInvalidCapo
		}
	}
	return nil
}

// AssignedLeaders returns the leader slots that name a member.
func (l *Lineup) AssignedLeaders() []LeaderSlot {
	var out []LeaderSlot
	for _, s := range l.WorshipLeaders {
		if s.MemberID != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasLeader reports whether memberID leads any part of the service.
func (l *Lineup) HasLeader(memberID string) bool {
	for _, s := range l.WorshipLeaders {
		if memberID != "" && s.MemberID == memberID {
			return true
		}
	}
	return false
}

// IsSeniorTier reports whether the lineup belongs to the senior tier.
func (l *Lineup) IsSeniorTier() bool {
	return l.SeniorTier
}

// Clone returns a deep copy.
// POST: mutating the result never affects l
func (l Lineup) Clone() Lineup {
	c := l
	c.WorshipLeaders = slices.Clone(l.WorshipLeaders)
	c.BackupVocalists = slices.Clone(l.BackupVocalists)
	c.Instruments.Bass = slices.Clone(l.Instruments.Bass)
	c.Instruments.LeadGuitar = slices.Clone(l.Instruments.LeadGuitar)
	c.Instruments.AcousticGuitar = slices.Clone(l.Instruments.AcousticGuitar)
	c.Instruments.Drums = slices.Clone(l.Instruments.Drums)
	if l.Instruments.Extras != nil {
		c.Instruments.Extras = make([]ExtraSlot, len(l.Instruments.Extras))
		for i, x := range l.Instruments.Extras {
			x.MemberIDs = slices.Clone(x.MemberIDs)
			c.Instruments.Extras[i] = x
		}
	}
	c.Songs = slices.Clone(l.Songs)
	return c
}

// Retarget returns a deep copy moved to date with identity and
// date-specific hints cleared.
func (l Lineup) Retarget(date time.Time) Lineup {
	c := l.Clone()
	c.ID = ""
	c.ServiceDate = Date(date)
	c.RehearsalDate = time.Time{}
	c.NextLeader = ""
	return c
}

// SortKey orders lineups by service date, then ID.
func SortKey(a, b Lineup) int {
	if c := a.ServiceDate.Compare(b.ServiceDate); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func dateOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return Date(t)
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func hasDuplicate(ids []string) bool {
	for i, id := range ids {
		if slices.Contains(ids[:i], id) {
			return true
		}
	}
	return false
}
