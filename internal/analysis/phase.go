package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

type PhasePoint struct{ X, Y float64 }

// PhasePortrait2D is one channel plotted against another.
type PhasePortrait2D struct {
	Points []PhasePoint
}

// NewPhasePortrait pairs two recorded channels; the shorter one sets the length.
func NewPhasePortrait(xs, ys []float64) *PhasePortrait2D {
	n := min(len(xs), len(ys))
	p := &PhasePortrait2D{Points: make([]PhasePoint, n)}
	for i := 0; i < n; i++ {
		p.Points[i] = PhasePoint{X: xs[i], Y: ys[i]}
	}
	return p
}

// PoincareSection records (xs, ys) where cross passes upward through
// threshold, interpolated linearly between samples.
func PoincareSection(cross []float64, threshold float64, xs, ys []float64) *PhasePortrait2D {
	n := min(len(cross), len(xs), len(ys))
	section := &PhasePortrait2D{}
	for i := 1; i < n; i++ {
		prev, curr := cross[i-1], cross[i]
		if !(prev < threshold && curr >= threshold) {
			continue
		}
		frac := (threshold - prev) / (curr - prev)
		section.Points = append(section.Points, PhasePoint{
			X: xs[i-1] + frac*(xs[i]-xs[i-1]),
			Y: ys[i-1] + frac*(ys[i]-ys[i-1]),
		})
	}
	return section
}

// ASCII draws the points on a width x height character canvas, with axes
// where they cross the visible area.
func (p *PhasePortrait2D) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	minX, maxX := pad(floats.Min(xs), floats.Max(xs))
	minY, maxY := pad(floats.Min(ys), floats.Max(ys))
	rangeX, rangeY := maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int(-minX / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int(-minY/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// pad widens [lo, hi] by a tenth on each side.
func pad(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - r*0.1, hi + r*0.1
}
