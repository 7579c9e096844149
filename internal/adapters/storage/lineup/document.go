package lineup

import (
	"encoding/json"
	"fmt"
	"time"

	domain "roster/internal/domain/lineup"
)

// document is the persisted JSON shape of a lineup body. Field names follow
// the collection layout shared with exported seed files.
type document struct {
	Date            string         `json:"date"`
	PracticeDate    string         `json:"practiceDate,omitempty"`
	Theme           string         `json:"theme,omitempty"`
	Scripture       string         `json:"scripture,omitempty"`
	IsTeamA         bool           `json:"isTeamA,omitempty"`
	WorshipLeaders  []leaderDoc    `json:"worshipLeaders"`
	BackupVocalists []string       `json:"backupVocals,omitempty"`
	Instruments     instrumentsDoc `json:"instruments"`
	Songs           []songDoc      `json:"songs,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	NextWL          string         `json:"nextWL,omitempty"`
}

type leaderDoc struct {
	MemberID string `json:"memberId"`
	Role     string `json:"role"`
}

type extraDoc struct {
	Label     string   `json:"label"`
	Icon      string   `json:"icon,omitempty"`
	MemberIDs []string `json:"memberIds"`
}

type instrumentsDoc struct {
	K1             string     `json:"k1,omitempty"`
	K2             string     `json:"k2,omitempty"`
	Bass           []string   `json:"bass,omitempty"`
	LeadGuitar     []string   `json:"leadGuitar,omitempty"`
	AcousticGuitar []string   `json:"acousticGuitar,omitempty"`
	Drums          []string   `json:"drums,omitempty"`
	SoundEngineer  string     `json:"soundEngineer,omitempty"`
	Extras         []extraDoc `json:"extras,omitempty"`
}

type songDoc struct {
	Section string `json:"section"`
	Title   string `json:"title"`
	Key     string `json:"key,omitempty"`
	Capo    int    `json:"capo,omitempty"`
	Link    string `json:"youtubeUrl,omitempty"`
}

// Encode serialises a lineup body.
func Encode(l domain.Lineup) ([]byte, error) {
	d := document{
		Date:            domain.FormatDate(l.ServiceDate),
		PracticeDate:    domain.FormatDate(l.RehearsalDate),
		Theme:           l.Theme,
		Scripture:       l.Scripture,
		IsTeamA:         l.SeniorTier,
		BackupVocalists: l.BackupVocalists,
		Instruments: instrumentsDoc{
			K1:             l.Instruments.Keyboard1,
			K2:             l.Instruments.Keyboard2,
			Bass:           l.Instruments.Bass,
			LeadGuitar:     l.Instruments.LeadGuitar,
			AcousticGuitar: l.Instruments.AcousticGuitar,
			Drums:          l.Instruments.Drums,
			SoundEngineer:  l.Instruments.SoundEngineer,
		},
		Notes:  l.Notes,
		NextWL: l.NextLeader,
	}
	for _, s := range l.WorshipLeaders {
		d.WorshipLeaders = append(d.WorshipLeaders, leaderDoc{MemberID: s.MemberID, Role: s.Role})
	}
	for _, x := range l.Instruments.Extras {
		d.Instruments.Extras = append(d.Instruments.Extras, extraDoc{Label: x.Label, Icon: x.Icon, MemberIDs: x.MemberIDs})
	}
	for _, s := range l.Songs {
		d.Songs = append(d.Songs, songDoc{Section: s.Section, Title: s.Title, Key: s.Key, Capo: s.Capo, Link: s.Link})
	}
	return json.Marshal(d)
}

// Decode parses and validates a lineup body.
// POST: returned lineup satisfies Validate, or an error explains why not
func Decode(id string, body []byte) (domain.Lineup, error) {
	var d document
	if err := json.Unmarshal(body, &d); err != nil {
		return domain.Lineup{}, fmt.Errorf("lineup %s: %w", id, err)
	}
	l := domain.Lineup{
		ID:              id,
		Theme:           d.Theme,
		Scripture:       d.Scripture,
		SeniorTier:      d.IsTeamA,
		BackupVocalists: d.BackupVocalists,
		Instruments: domain.Instruments{
			Keyboard1:      d.Instruments.K1,
			Keyboard2:      d.Instruments.K2,
			Bass:           d.Instruments.Bass,
			LeadGuitar:     d.Instruments.LeadGuitar,
			AcousticGuitar: d.Instruments.AcousticGuitar,
			Drums:          d.Instruments.Drums,
			SoundEngineer:  d.Instruments.SoundEngineer,
		},
		Notes:      d.Notes,
		NextLeader: d.NextWL,
	}
	var err error
	if l.ServiceDate, err = domain.ParseDate(d.Date); err != nil {
		return domain.Lineup{}, fmt.Errorf("lineup %s: %w", id, err)
	}
	if d.PracticeDate != "" {
		if l.RehearsalDate, err = domain.ParseDate(d.PracticeDate); err != nil {
			return domain.Lineup{}, fmt.Errorf("lineup %s: %w", id, err)
		}
	}
	for _, s := range d.WorshipLeaders {
		l.WorshipLeaders = append(l.WorshipLeaders, domain.LeaderSlot{MemberID: s.MemberID, Role: s.Role})
	}
	for _, x := range d.Instruments.Extras {
		l.Instruments.Extras = append(l.Instruments.Extras, domain.ExtraSlot{Label: x.Label, Icon: x.Icon, MemberIDs: x.MemberIDs})
	}
	for _, s := range d.Songs {
		l.Songs = append(l.Songs, domain.Song{Section: s.Section, Title: s.Title, Key: s.Key, Capo: s.Capo, Link: s.Link})
	}
	if err := l.Validate(); err != nil {
		return domain.Lineup{}, fmt.Errorf("lineup %s: %w", id, err)
	}
	return l, nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
