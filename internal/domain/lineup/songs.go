package lineup

// SongGroup is a run of songs sharing a section heading.
type SongGroup struct {
	Section string
	Songs   []Song
}

// SongGroups groups the setlist by section. Sections appear in the order
// they are first used and songs keep their setlist order within a section.
func (l *Lineup) SongGroups() []SongGroup {
	var groups []SongGroup
	index := map[string]int{}
	for _, s := range l.Songs {
		section := s.Section
		if section == "" {
			section = SectionOther
		}
		i, ok := index[section]
		if !ok {
			i = len(groups)
			index[section] = i
			groups = append(groups, SongGroup{Section: section})
		}
		groups[i].Songs = append(groups[i].Songs, s)
	}
	return groups
}

// InstrumentCell is one labelled seat in the band grid.
type InstrumentCell struct {
	Label     string
	Icon      string
	MemberIDs []string
}

// Fixed instrument labels.
const (
	LabelKeyboard1      = "Keys 1"
	LabelKeyboard2      = "Keys 2"
	LabelBass           = "Bass"
	LabelLeadGuitar     = "Lead Guitar"
	LabelAcousticGuitar = "Acoustic"
	LabelDrums          = "Drums"
	LabelSoundEngineer  = "Sound"
)

// Cells lists the band seats in display order: fixed instruments, then
// team-defined extras, then the sound engineer.
func (in *Instruments) Cells() []InstrumentCell {
	cells := []InstrumentCell{
		{Label: LabelKeyboard1, MemberIDs: single(in.Keyboard1)},
		{Label: LabelKeyboard2, MemberIDs: single(in.Keyboard2)},
		{Label: LabelBass, MemberIDs: in.Bass},
		{Label: LabelLeadGuitar, MemberIDs: in.LeadGuitar},
		{Label: LabelAcousticGuitar, MemberIDs: in.AcousticGuitar},
		{Label: LabelDrums, MemberIDs: in.Drums},
	}
	for _, x := range in.Extras {
		cells = append(cells, InstrumentCell{Label: x.Label, Icon: x.Icon, MemberIDs: x.MemberIDs})
	}
	return append(cells, InstrumentCell{Label: LabelSoundEngineer, MemberIDs: single(in.SoundEngineer)})
}

// MemberIDs returns every member referenced by the lineup, first
// occurrence first.
func (l *Lineup) MemberIDs() []string {
	seen := map[string]bool{}
	var out []string
	add := func(ids ...string) {
		for _, id := range ids {
			if id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	for _, s := range l.WorshipLeaders {
		add(s.MemberID)
	}
	add(l.BackupVocalists...)
	for _, c := range l.Instruments.Cells() {
		add(c.MemberIDs...)
	}
	return out
}

func single(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}
