// Package render turns engine snapshots into character frames.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/lguibr/arcade/game"
)

// ASCII characters for grayscale, from lighter to darker
const asciiChars = " .,:;i1tfLCG08@"

// Dividing factor to convert the summed RGB range to a ramp index
const grayFactor = 3 * 255.0 / float64(len(asciiChars)-1)

var (
	colorPlayer     = [3]int{80, 220, 255}
	colorProjectile = [3]int{255, 255, 255}
	colorTarget     = [3]int{255, 210, 60}
	colorFiller     = [3]int{140, 140, 140}
	colorLocked     = [3]int{255, 60, 60}
	colorGhost      = [3]int{90, 90, 90}
	colorHUD        = [3]int{200, 200, 200}
)

// Pixel is one character cell of a frame. A zero Ch is blank.
type Pixel struct {
	Ch    rune
	Color [3]int
}

// Frame is a rows x cols grid of pixels; Pixels[y][x].
type Frame struct {
	Width  int
	Height int
	Pixels [][]Pixel
}

func NewFrame(width, height int) Frame {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	px := make([][]Pixel, height)
	for y := range px {
		px[y] = make([]Pixel, width)
	}
	return Frame{Width: width, Height: height, Pixels: px}
}

func (f Frame) set(x, y int, ch rune, color [3]int) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Pixels[y][x] = Pixel{Ch: ch, Color: color}
}

// At returns the pixel at x, y, or a blank pixel outside the frame.
func (f Frame) At(x, y int) Pixel {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return Pixel{}
	}
	return f.Pixels[y][x]
}

// Rasterize draws snap into a frame of at most width x height cells. Grid
// modes draw one cell per grid slot and ignore the requested size.
func Rasterize(snap game.Snapshot, width, height int) Frame {
	if snap.GridColumns > 0 && snap.GridRows > 0 {
		return rasterizeGrid(snap)
	}

	f := NewFrame(width, height)
	pf := snap.Playfield
	if pf.W <= 0 || pf.H <= 0 {
		return f
	}
	sx := float64(f.Width) / pf.W
	sy := float64(f.Height) / pf.H
	toCell := func(x, y float64) (int, int) {
		return int(math.Floor((x - pf.X) * sx)), int(math.Floor((y - pf.Y) * sy))
	}
	fill := func(x, y, w, h float64, ch rune, color [3]int) {
		x0, y0 := toCell(x, y)
		x1, y1 := toCell(x+w, y+h)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for cy := y0; cy < y1; cy++ {
			for cx := x0; cx < x1; cx++ {
				f.set(cx, cy, ch, color)
			}
		}
	}

	locked := make(map[game.EntityID]bool, len(snap.Locked))
	for _, id := range snap.Locked {
		locked[id] = true
	}

	// Particles first so solid entities draw over them.
	for _, e := range snap.Entities {
		if e.Kind != game.KindParticle || e.Particle == nil {
			continue
		}
		color := scale(e.Particle.Color, e.Particle.Opacity)
		cx, cy := toCell(e.Center())
		f.set(cx, cy, grayToASCII(color), color)
	}

	for _, e := range snap.Entities {
		b := e.Bounds()
		switch e.Kind {
		case game.KindTarget:
			ch, color := '@', colorTarget
			if e.Target == nil || e.Target.Filler {
				ch, color = '*', colorFiller
			}
			if locked[e.ID] {
				ch, color = 'X', colorLocked
			}
			fill(b.X, b.Y, b.W, b.H, ch, color)
		case game.KindProjectile:
			fill(b.X, b.Y, b.W, b.H, '|', colorProjectile)
		}
	}

	if snap.Player != nil {
		p := snap.Player
		fill(p.X, p.Y, p.W, p.H, 'A', colorPlayer)
	}

	for _, e := range snap.Entities {
		if e.Kind != game.KindFloatingText || e.Text == nil {
			continue
		}
		cx, cy := toCell(e.X, e.Y)
		for i, r := range e.Text.Text {
			f.set(cx+i, cy, r, e.Text.Color)
		}
	}
	return f
}

func rasterizeGrid(snap game.Snapshot) Frame {
	f := NewFrame(snap.GridColumns, snap.GridRows)
	for _, p := range snap.Ghost {
		f.set(p.X, p.Y, '.', colorGhost)
	}
	for _, e := range snap.Entities {
		switch e.Kind {
		case game.KindSettledCell:
			color := colorFiller
			if e.Cell != nil {
				color = e.Cell.Color
			}
			f.set(int(e.X), int(e.Y), '#', color)
		case game.KindFallingPiece:
			if e.Piece == nil {
				continue
			}
			color := e.Piece.Piece.Shape.Color()
			for _, c := range e.Piece.Piece.Cells() {
				f.set(c.X, c.Y, '#', color)
			}
		}
	}
	return f
}

// HUD formats the session line shown above the playfield.
func HUD(snap game.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  score %d  combo x%d  hp %d/%d  lvl %d", snap.Phase, snap.Score, snap.Combo, snap.Health, snap.MaxHealth, snap.Level)
	switch {
	case snap.GridColumns > 0:
		fmt.Fprintf(&b, "  lines %d", snap.Lines)
	case snap.Wave > 0:
		fmt.Fprintf(&b, "  wave %d", snap.Wave)
	case snap.Player != nil:
		fmt.Fprintf(&b, "  bombs %d", snap.Bombs)
	}
	if snap.Quiz != "" {
		fmt.Fprintf(&b, "\nQ: %s  [T/F]", snap.Quiz)
	}
	if n := len(snap.Reveals); n > 0 {
		r := snap.Reveals[n-1]
		fmt.Fprintf(&b, "\n%s: %s", r.Term, r.Text)
	}
	return b.String()
}

// grayToASCII maps a colour's brightness onto the character ramp.
func grayToASCII(color [3]int) rune {
	gray := float64(color[0] + color[1] + color[2])
	index := int(gray / grayFactor)
	if index < 0 {
		index = 0
	}
	if index >= len(asciiChars) {
		index = len(asciiChars) - 1
	}
	return rune(asciiChars[index])
}

func scale(color [3]int, k float64) [3]int {
	if k < 0 {
		k = 0
	}
	if k > 1 {
		k = 1
	}
	return [3]int{int(float64(color[0]) * k), int(float64(color[1]) * k), int(float64(color[2]) * k)}
}

// rgbToAnsi converts a colour to an ANSI 24-bit foreground escape code
func rgbToAnsi(color [3]int) string {
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", color[0], color[1], color[2])
}

// ToANSI renders a frame as coloured text, one line per row. Blank cells are
// spaces without escape codes.
func ToANSI(f Frame) string {
	var ascii strings.Builder
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			p := f.Pixels[y][x]
			if p.Ch == 0 {
				ascii.WriteByte(' ')
				continue
			}
			ascii.WriteString(rgbToAnsi(p.Color))
			ascii.WriteRune(p.Ch)
			ascii.WriteString("\033[0m") // Reset color after each character
		}
		ascii.WriteString("\n")
	}
	return ascii.String()
}

// ToText renders a frame without colour.
func ToText(f Frame) string {
	var b strings.Builder
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if ch := f.Pixels[y][x].Ch; ch != 0 {
				b.WriteRune(ch)
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ClearScreen moves the cursor home and clears the terminal.
func ClearScreen(w io.Writer) {
	_, _ = io.WriteString(w, "\033[H\033[2J")
}
