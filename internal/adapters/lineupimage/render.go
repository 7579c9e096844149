// Package lineupimage draws a shareable PNG card for one lineup.
//
// Layout is a two-pass affair over a single element plan: Measure sums the
// element heights, Render draws each element and sizes the canvas from the
// same plan. Both passes read heights from one table, so the canvas always
// fits what is drawn.
package lineupimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"roster/internal/domain/lineup"
)

// ErrLayoutDrift means the draw pass consumed a different height than the
// measure pass planned.
var ErrLayoutDrift = errors.New("lineup image layout drift")

// Options carries the card context that is not part of the lineup.
type Options struct {
	TeamName string
	// PublicURL is printed in the footer; TeamName is used when empty.
	PublicURL string
	// NextLeader is shown when the lineup has no hint of its own.
	NextLeader string
}

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink        = color.RGBA{0x1f, 0x23, 0x2b, 0xff}
	muted      = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	accent     = color.RGBA{0x4f, 0x46, 0xe5, 0xff}
	accentSoft = color.RGBA{0xee, 0xf2, 0xff, 0xff}
	rule       = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	cellFill   = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
)

// Renderer holds the parsed fonts. Faces are created per call because
// opentype faces are not safe for concurrent use.
type Renderer struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// New parses the embedded Go fonts.
func New() (*Renderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold}, nil
}

// Measure returns the logical card height for l.
// POST: equals the height Render draws for the same inputs
func (r *Renderer) Measure(l lineup.Lineup, names Names, opts Options) (int, error) {
	f, err := r.newFaces()
	if err != nil {
		return 0, err
	}
	defer f.close()
	return planHeight(plan(l, names, opts, f)), nil
}

// Render draws l as a PNG of Width*Scale by Measure*Scale pixels.
// PRE: l has been validated
// POST: output is deterministic for equal inputs
func (r *Renderer) Render(l lineup.Lineup, names Names, opts Options) ([]byte, error) {
	f, err := r.newFaces()
	if err != nil {
		return nil, err
	}
	defer f.close()

	p := plan(l, names, opts, f)
	h := planHeight(p)
	c := &canvas{img: image.NewRGBA(image.Rect(0, 0, Width*Scale, h*Scale)), f: f}
	c.fill(0, 0, Width, h, background)

	y := Padding
	for i := range p {
		y += c.draw(&p[i], y)
	}
	y += Padding
	if y != h {
		return nil, fmt.Errorf("%w: measured %d, drew %d", ErrLayoutDrift, h, y)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encode lineup image: %w", err)
	}
	return buf.Bytes(), nil
}

type faces struct {
	title  font.Face
	body   font.Face
	bold   font.Face
	small  font.Face
	label  font.Face
	header font.Face
}

func (r *Renderer) newFaces() (*faces, error) {
	f := &faces{}
	specs := []struct {
		dst  *font.Face
		font *opentype.Font
		size float64
	}{
		{&f.title, r.bold, 22},
		{&f.body, r.regular, 15},
		{&f.bold, r.bold, 15},
		{&f.small, r.regular, 12},
		{&f.label, r.bold, 12},
		{&f.header, r.bold, 14},
	}
	for _, s := range specs {
		face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
			Size:    s.size * Scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			f.close()
			return nil, fmt.Errorf("create font face: %w", err)
		}
		*s.dst = face
	}
	return f, nil
}

func (f *faces) close() {
	for _, face := range []font.Face{f.title, f.body, f.bold, f.small, f.label, f.header} {
		if face != nil {
			_ = face.Close()
		}
	}
}

// width is the logical advance of s, rounded up.
func (f *faces) width(face font.Face, s string) int {
	px := font.MeasureString(face, s).Ceil()
	return (px + Scale - 1) / Scale
}

type canvas struct {
	img *image.RGBA
	f   *faces
}

func (c *canvas) fill(x, y, w, h int, col color.Color) {
	r := image.Rect(x*Scale, y*Scale, (x+w)*Scale, (y+h)*Scale)
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *canvas) text(face font.Face, x, baseline int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x*Scale, baseline*Scale),
	}
	d.DrawString(s)
}

// badge draws a filled pill and returns its width.
func (c *canvas) badge(x, top, h int, s string, fill, col color.Color) int {
	w := c.f.width(c.f.small, s) + 2*badgePadX
	c.fill(x, top, w, h, fill)
	c.text(c.f.small, x+badgePadX, top+h-7, s, col)
	return w
}

// draw paints e at top and returns the height it consumed.
func (c *canvas) draw(e *element, top int) int {
	f := c.f
	switch e.kind {
	case kindTitle:
		c.text(f.title, Padding, top+30, e.text, ink)
		if e.aside != "" {
			w := f.width(f.small, e.aside) + 2*badgePadX
			c.badge(Padding+ContentWidth-w, top+10, 22, e.aside, accent, background)
		}
		return heights[kindTitle].fixed

	case kindTheme:
		ext := heights[kindTheme]
		y := top + ext.fixed/2
		for _, line := range e.lines {
			c.text(f.body, Padding, y+16, line, muted)
			y += ext.perRow
		}
		return y + ext.fixed - ext.fixed/2 - top

	case kindRehearsal:
		c.badge(Padding, top+6, 24, e.text, accentSoft, accent)
		return heights[kindRehearsal].fixed

	case kindDivider:
		c.fill(Padding, top+8, ContentWidth, 1, rule)
		return heights[kindDivider].fixed

	case kindLabel:
		c.text(f.label, Padding, top+18, e.text, muted)
		return heights[kindLabel].fixed

	case kindLeader:
		w := c.badge(Padding, top+3, 24, e.aside, accentSoft, accent)
		c.text(f.bold, Padding+w+chipGap, top+21, e.text, ink)
		return heights[kindLeader].fixed

	case kindChips:
		ext := heights[kindChips]
		y := top + ext.fixed/2
		for _, row := range e.rows {
			x := Padding
			for _, chip := range row {
				w := f.width(f.body, chip) + 2*chipPadX
				c.fill(x, y, w, chipH, cellFill)
				c.text(f.body, x+chipPadX, y+19, chip, ink)
				x += w + chipGap
			}
			y += ext.perRow
		}
		return y + ext.fixed - ext.fixed/2 - top

	case kindGrid:
		y := top
		for start := 0; start < len(e.cells); start += gridCols {
			end := min(start+gridCols, len(e.cells))
			for col, cell := range e.cells[start:end] {
				x := Padding + col*(cellW+gridGap)
				c.fill(x, y, cellW, cellH, cellFill)
				c.text(f.small, x+chipPadX, y+15, cell.label, muted)
				c.text(f.bold, x+chipPadX, y+34, cell.names, ink)
			}
			y += cellH + gridGap
		}
		return y + heights[kindGrid].fixed - top

	case kindSongHeader:
		c.text(f.header, Padding, top+21, e.text, accent)
		return heights[kindSongHeader].fixed

	case kindSong:
		c.text(f.body, Padding+chipPadX, top+17, e.text, ink)
		if e.aside != "" {
			w := f.width(f.small, e.aside)
			c.text(f.small, Padding+ContentWidth-w, top+17, e.aside, muted)
		}
		return heights[kindSong].fixed

	case kindNextLeader:
		c.fill(Padding, top+4, ContentWidth, 26, accentSoft)
		c.text(f.body, Padding+chipPadX, top+22, e.text, accent)
		return heights[kindNextLeader].fixed

	case kindFooter:
		c.text(f.small, Padding, top+22, e.text, muted)
		return heights[kindFooter].fixed
	}
	return 0
}
