package lineupimage

import (
	"strconv"
	"strings"

	"golang.org/x/image/font"

	"roster/internal/domain/lineup"
	"roster/internal/domain/schedule"
)

// Logical layout, in points. Pixels are points times Scale.
const (
	Width        = 688
	Padding      = 24
	Scale        = 2
	ContentWidth = Width - 2*Padding

	gridCols  = 4
	gridGap   = 6
	cellH     = 42
	cellW     = (ContentWidth - (gridCols-1)*gridGap) / gridCols
	chipPadX  = 10
	chipGap   = 8
	chipH     = 28
	badgePadX = 8
)

type kind int

const (
	kindTitle kind = iota
	kindTheme
	kindRehearsal
	kindDivider
	kindLabel
	kindLeader
	kindChips
	kindGrid
	kindSongHeader
	kindSong
	kindNextLeader
	kindFooter
	numKinds
)

// extent is an element's height: fixed + perRow*rows.
type extent struct {
	fixed  int
	perRow int
}

// heights is the single source of element heights for both passes.
var heights = [numKinds]extent{
	kindTitle:      {fixed: 44},
	kindTheme:      {fixed: 8, perRow: 22},
	kindRehearsal:  {fixed: 36},
	kindDivider:    {fixed: 17},
	kindLabel:      {fixed: 26},
	kindLeader:     {fixed: 30},
	kindChips:      {fixed: 4, perRow: chipH + chipGap - 2},
	kindGrid:       {perRow: cellH + gridGap},
	kindSongHeader: {fixed: 28},
	kindSong:       {fixed: 24},
	kindNextLeader: {fixed: 34},
	kindFooter:     {fixed: 32},
}

type gridCell struct {
	label string
	names string
}

// element is one laid-out block. Which fields are used depends on kind.
type element struct {
	kind  kind
	text  string
	aside string     // title badge, leader role, song detail
	lines []string   // theme
	rows  [][]string // backup chips
	cells []gridCell // instrument grid
}

func (e *element) rowCount() int {
	switch e.kind {
	case kindTheme:
		return len(e.lines)
	case kindChips:
		return len(e.rows)
	case kindGrid:
		return (len(e.cells) + gridCols - 1) / gridCols
	}
	return 0
}

func (e *element) height() int {
	h := heights[e.kind]
	return h.fixed + h.perRow*e.rowCount()
}

// planHeight is the measure pass: the canvas height the plan needs.
func planHeight(p []element) int {
	h := 2 * Padding
	for i := range p {
		h += p[i].height()
	}
	return h
}

// Names resolves member ids to display names.
type Names interface {
	Name(id string) string
}

const (
	titleLayout     = "Monday 2 January 2006"
	rehearsalLayout = "Mon 2 Jan"
)

// plan lays the lineup out as an ordered element list.
func plan(l lineup.Lineup, names Names, opts Options, f *faces) []element {
	var p []element

	title := element{kind: kindTitle, text: l.ServiceDate.Format(titleLayout)}
	if l.SeniorTier {
		title.aside = schedule.SeniorTierLeaderLabel
	}
	title.text = f.truncate(f.title, title.text, ContentWidth-f.badgeWidth(title.aside))
	p = append(p, title)

	if theme := themeText(l); theme != "" {
		p = append(p, element{kind: kindTheme, lines: f.wrap(f.body, theme, ContentWidth)})
	}
	if !l.RehearsalDate.IsZero() {
		p = append(p, element{kind: kindRehearsal, text: "Practice " + l.RehearsalDate.Format(rehearsalLayout)})
	}
	p = append(p, element{kind: kindDivider})

	p = append(p, element{kind: kindLabel, text: "Worship Leaders"})
	for _, s := range l.WorshipLeaders {
		role := s.Role
		if role == "" {
			role = lineup.DefaultLeaderRole
		}
		roleW := f.width(f.small, role) + 2*badgePadX
		p = append(p, element{
			kind:  kindLeader,
			text:  f.truncate(f.bold, names.Name(s.MemberID), ContentWidth-roleW-chipGap),
			aside: role,
		})
	}

	if len(l.BackupVocalists) > 0 {
		labels := make([]string, 0, len(l.BackupVocalists))
		for _, id := range l.BackupVocalists {
			labels = append(labels, names.Name(id))
		}
		p = append(p, element{kind: kindLabel, text: "Backup Vocals"})
		p = append(p, element{kind: kindChips, rows: f.chipRows(labels)})
	}

	cells := l.Instruments.Cells()
	grid := element{kind: kindGrid, cells: make([]gridCell, 0, len(cells))}
	for _, c := range cells {
		who := make([]string, 0, len(c.MemberIDs))
		for _, id := range c.MemberIDs {
			who = append(who, names.Name(id))
		}
		text := strings.Join(who, ", ")
		if text == "" {
			text = "—"
		}
		label := c.Label
		if c.Icon != "" {
			label = c.Icon + " " + label
		}
		grid.cells = append(grid.cells, gridCell{
			label: f.truncate(f.small, label, cellW-2*chipPadX),
			names: f.truncate(f.bold, text, cellW-2*chipPadX),
		})
	}
	p = append(p, element{kind: kindLabel, text: "Band"}, grid)

	if groups := l.SongGroups(); len(groups) > 0 {
		p = append(p, element{kind: kindDivider}, element{kind: kindLabel, text: "Songs"})
		for _, g := range groups {
			p = append(p, element{kind: kindSongHeader, text: f.truncate(f.header, g.Section, ContentWidth)})
			for _, s := range g.Songs {
				detail := songDetail(s)
				maxW := ContentWidth - chipPadX
				if detail != "" {
					maxW -= f.width(f.small, detail) + chipGap
				}
				p = append(p, element{kind: kindSong, text: f.truncate(f.body, s.Title, maxW), aside: detail})
			}
		}
	}

	next := l.NextLeader
	if next == "" {
		next = opts.NextLeader
	}
	if next != "" {
		p = append(p, element{kind: kindNextLeader, text: f.truncate(f.body, "Next: "+next, ContentWidth)})
	}

	footer := opts.PublicURL
	if footer == "" {
		footer = opts.TeamName
	}
	if footer != "" {
		p = append(p, element{kind: kindFooter, text: f.truncate(f.small, footer, ContentWidth)})
	}
	return p
}

func themeText(l lineup.Lineup) string {
	switch {
	case l.Theme != "" && l.Scripture != "":
		return l.Theme + " · " + l.Scripture
	case l.Theme != "":
		return l.Theme
	default:
		return l.Scripture
	}
}

func songDetail(s lineup.Song) string {
	var parts []string
	if s.Key != "" {
		parts = append(parts, "Key "+s.Key)
	}
	if s.Capo > 0 {
		parts = append(parts, "Capo "+strconv.Itoa(s.Capo))
	}
	return strings.Join(parts, " · ")
}

// wrap breaks text into lines no wider than maxW, splitting inside a word
// only when the word alone is too wide.
func (f *faces) wrap(face font.Face, text string, maxW int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if f.width(face, candidate) <= maxW {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = word
		for f.width(face, line) > maxW {
			head, rest := f.split(face, line, maxW)
			lines = append(lines, head)
			line = rest
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// split returns the longest prefix of s that fits maxW and the remainder.
// POST: the prefix holds at least one rune, even when that rune alone is
// wider than maxW
func (f *faces) split(face font.Face, s string, maxW int) (string, string) {
	runes := []rune(s)
	if len(runes) == 0 {
		return "", ""
	}
	n := len(runes) - 1
	for n > 0 && f.width(face, string(runes[:n])) > maxW {
		n--
	}
	n = max(n, 1)
	return string(runes[:n]), string(runes[n:])
}

// truncate shortens s with an ellipsis until it fits maxW.
func (f *faces) truncate(face font.Face, s string, maxW int) string {
	if f.width(face, s) <= maxW {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		t := strings.TrimSpace(string(runes[:n])) + "…"
		if f.width(face, t) <= maxW {
			return t
		}
	}
	return "…"
}

// chipRows packs chips into rows by measured width.
func (f *faces) chipRows(labels []string) [][]string {
	var rows [][]string
	var row []string
	x := 0
	for _, label := range labels {
		label = f.truncate(f.body, label, ContentWidth-2*chipPadX)
		w := f.width(f.body, label) + 2*chipPadX
		if len(row) > 0 && x+chipGap+w > ContentWidth {
			rows = append(rows, row)
			row, x = nil, 0
		}
		if len(row) > 0 {
			x += chipGap
		}
		row = append(row, label)
		x += w
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func (f *faces) badgeWidth(text string) int {
	if text == "" {
		return 0
	}
	return f.width(f.small, text) + 2*badgePadX + chipGap
}
