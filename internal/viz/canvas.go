package viz

import (
	"math"
	"strings"
)

// Each cell is a braille glyph of 2x4 dots. dotBits[row][col] is the bit of
// that dot in the glyph offset from U+2800.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a dot raster drawn with braille glyphs, cols x rows cells or
// 2*cols x 4*rows dots. Dot (0, 0) is the top left.
type Canvas struct {
	cols, rows int
	cells      []uint8
}

func NewCanvas(cols, rows int) *Canvas {
	return &Canvas{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
}

// Dots returns the raster size in dots.
func (c *Canvas) Dots() (w, h int) { return 2 * c.cols, 4 * c.rows }

// Set lights one dot. Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	w, h := c.Dots()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	c.cells[(y/4)*c.cols+x/2] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() { clear(c.cells) }

// Line lights the dots nearest to the segment from (x0, y0) to (x1, y1).
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := float64(x1-x0), float64(y1-y0)
	n := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if n == 0 {
		c.Set(x0, y0)
		return
	}
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		c.Set(x0+int(math.Round(f*dx)), y0+int(math.Round(f*dy)))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.rows * (3*c.cols + 1))
	for r := 0; r < c.rows; r++ {
		for _, bits := range c.cells[r*c.cols : (r+1)*c.cols] {
			b.WriteRune(brailleBlank + rune(bits))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
