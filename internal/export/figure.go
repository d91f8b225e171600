// Package export draws stored trajectories as stacked time-series figures.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/bikesim/internal/storage"
)

// Panel is one subplot: a channel and its axis label.
type Panel struct {
	Channel string
	Label   string
}

// ConfigurationPanels are the six coordinates of the classic figures, top to
// bottom.
var ConfigurationPanels = []Panel{
	{"q1", "q1 / m"},
	{"q2", "q2 / m"},
	{"q3", "q3 / rad"},
	{"q4", "q4 / rad"},
	{"q7", "q7 / rad"},
	{"q5", "q5 / rad"},
}

// Size of a figure in inches.
type Size struct {
	Width, Height float64
}

var DefaultSize = Size{Width: 5, Height: 10}

const dpi = 150

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

// Plots builds one plot per panel sharing the time axis. Only the bottom plot
// carries the time label.
func Plots(traj *storage.Trajectory, panels []Panel) ([]*plot.Plot, error) {
	if len(panels) == 0 {
		return nil, errors.New("no panels")
	}
	if len(traj.Times) == 0 {
		return nil, errors.New("empty trajectory")
	}

	plots := make([]*plot.Plot, len(panels))
	for i, panel := range panels {
		col, err := traj.Column(panel.Channel)
		if err != nil {
			return nil, err
		}

		p := plot.New()
		p.Y.Label.Text = panel.Label
		p.Y.Tick.Marker = limitedTicker(4, "%.3g")
		p.X.Tick.Marker = limitedTicker(6, "%.1f")
		if i == len(panels)-1 {
			p.X.Label.Text = "t / s"
		}

		pts := make(plotter.XYs, len(col))
		for k := range col {
			pts[k].X = traj.Times[k]
			pts[k].Y = col[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "panel %s", panel.Channel)
		}
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		plots[i] = p
	}
	return plots, nil
}

// Write renders the stacked panels to w as "png" or "svg".
func Write(w io.Writer, format string, traj *storage.Trajectory, panels []Panel, size Size) error {
	plots, err := Plots(traj, panels)
	if err != nil {
		return err
	}

	width := vg.Length(size.Width) * vg.Inch
	height := vg.Length(size.Height) * vg.Inch

	var (
		canvas draw.Canvas
		out    io.WriterTo
	)
	switch format {
	case "png":
		c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
		canvas, out = draw.New(c), vgimg.PngCanvas{Canvas: c}
	case "svg":
		c := vgsvg.New(width, height)
		canvas, out = draw.New(c), c
	default:
		return errors.Errorf("unsupported figure format %q", format)
	}

	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(4),
	}
	canvases := plot.Align(rows, tiles, canvas)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	_, err = out.WriteTo(w)
	return err
}

// Save writes the figure to path, choosing the format from its extension.
func Save(path string, traj *storage.Trajectory, panels []Panel, size Size) (err error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "png" && format != "svg" {
		return errors.Errorf("figure %s: extension must be .png or .svg", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating figure %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, format, traj, panels, size); err != nil {
		return errors.Wrapf(err, "figure %s", path)
	}
	return errors.Wrapf(bw.Flush(), "figure %s", path)
}
