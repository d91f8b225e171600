package viz

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DrawTrack draws the path (xs[i], ys[i]) for i < n, scaled to fill the
// canvas with equal units on both axes. North is up.
func (c *Canvas) DrawTrack(xs, ys []float64, n int) {
	n = min(n, len(xs), len(ys))
	if n == 0 {
		return
	}

	// scale from the whole run so the view does not jump during replay
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	dw, dh := c.Dots()
	w, h := float64(dw-1), float64(dh-1)
	span := math.Max(math.Max(maxX-minX, maxY-minY), 1e-9)
	scale := math.Min(w, h) / span
	offX := (w - (maxX-minX)*scale) / 2
	offY := (h - (maxY-minY)*scale) / 2

	px := func(i int) (int, int) {
		x := offX + (xs[i]-minX)*scale
		y := h - (offY + (ys[i]-minY)*scale)
		return int(math.Round(x)), int(math.Round(y))
	}

	x0, y0 := px(0)
	c.Set(x0, y0)
	for i := 1; i < n; i++ {
		x1, y1 := px(i)
		c.Line(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}

// DrawLean draws the ground line and the bicycle seen from behind, leaning
// by roll radians. Positive roll leans to the right of the rider.
func (c *Canvas) DrawLean(roll float64) {
	w, h := c.Dots()
	ground := h - 2
	c.Line(0, ground, w-1, ground)

	cx := w / 2
	length := float64(ground) * 0.85
	tx := cx + int(math.Round(length*math.Sin(roll)))
	ty := ground - int(math.Round(length*math.Cos(roll)))
	c.Line(cx, ground, tx, ty)
}
