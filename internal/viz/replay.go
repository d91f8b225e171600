package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bikesim/internal/storage"
)

const (
	fps          = 30
	historyWidth = 60
	minRate      = 0.125
	maxRate      = 8
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay plays a stored trajectory back in simulated time.
type Replay struct {
	title string
	times []float64
	x, y  []float64
	roll  []float64
	steer []float64
	speed []float64

	idx    int
	clock  float64
	rate   float64
	paused bool
	theme  int
}

// NewReplay needs the q1, q2, q4 and q7 channels; u1 is shown when present.
func NewReplay(title string, traj *storage.Trajectory) (*Replay, error) {
	if len(traj.Times) == 0 {
		return nil, fmt.Errorf("replay %s: empty trajectory", title)
	}

	r := &Replay{title: title, times: traj.Times, rate: 1, clock: traj.Times[0]}
	for _, c := range []struct {
		name string
		dst  *[]float64
	}{
		{"q1", &r.x}, {"q2", &r.y}, {"q4", &r.roll}, {"q7", &r.steer},
	} {
		col, err := traj.Column(c.name)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", title, err)
		}
		*c.dst = col
	}
	r.speed, _ = traj.Column("u1")
	return r, nil
}

// SetTheme selects a color theme by name.
func (m *Replay) SetTheme(name string) error {
	for i, t := range Themes {
		if t.Name == name {
			m.theme = i
			return nil
		}
	}
	return fmt.Errorf("unknown theme %q (have %v)", name, ThemeNames())
}

// Run takes over the terminal until the user quits.
func Run(r *Replay) error {
	_, err := tea.NewProgram(*r, tea.WithAltScreen()).Run()
	return err
}

func (m Replay) Init() tea.Cmd { return tick() }

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.seek(0)
			m.paused = false
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "[":
			m.rate = max(m.rate/2, minRate)
		case "]":
			m.rate = min(m.rate*2, maxRate)
		case "left", "h":
			if m.paused {
				m.seek(m.idx - 1)
			}
		case "right", "l":
			if m.paused {
				m.seek(m.idx + 1)
			}
		}
	case TickMsg:
		if !m.paused {
			m.advance(m.rate / fps)
		}
		return m, tick()
	}
	return m, nil
}

// advance moves the clock by dt of simulated time and pauses at the end.
func (m *Replay) advance(dt float64) {
	m.clock += dt
	last := len(m.times) - 1
	if m.clock >= m.times[last] {
		m.seek(last)
		m.paused = true
		return
	}
	// last sample at or before the clock
	m.idx = sort.Search(len(m.times), func(i int) bool { return m.times[i] > m.clock }) - 1
	m.idx = max(m.idx, 0)
}

func (m *Replay) seek(i int) {
	m.idx = min(max(i, 0), len(m.times)-1)
	m.clock = m.times[m.idx]
}

func (m Replay) View() string {
	st := Themes[m.theme].styles()

	status := fmt.Sprintf("PLAYING x%g", m.rate)
	if m.paused {
		status = "PAUSED"
		if m.idx == len(m.times)-1 {
			status = "FINISHED"
		}
	}

	track := NewCanvas(30, 10)
	track.DrawTrack(m.x, m.y, m.idx+1)
	lean := NewCanvas(12, 10)
	lean.DrawLean(m.roll[m.idx])

	var vals strings.Builder
	row := func(label, value string) {
		vals.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.3f s", m.times[m.idx]))
	row("roll", fmt.Sprintf("%+.4f rad", m.roll[m.idx]))
	row("steer", fmt.Sprintf("%+.4f rad", m.steer[m.idx]))
	if m.speed != nil {
		row("speed", fmt.Sprintf("%.3f m/s", m.speed[m.idx]))
	}
	row("position", fmt.Sprintf("(%.2f, %.2f) m", m.x[m.idx], m.y[m.idx]))

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		st.panel.Render(track.String()),
		st.panel.Render(lean.String()),
		st.panel.Render(vals.String()),
	)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "  " + st.warn.Render(status) + "\n")
	s.WriteString(panels + "\n")
	s.WriteString(history(m.roll, m.idx, "roll q4 / rad") + "\n\n")
	s.WriteString(history(m.steer, m.idx, "steer q7 / rad") + "\n\n")
	s.WriteString(progressBar(st, float64(m.idx)/float64(max(len(m.times)-1, 1)), historyWidth) + "\n")
	s.WriteString(st.muted.Render("SP:Pause R:Restart T:Theme [ ]:Speed ←→:Step Q:Quit"))
	return s.String()
}

// history plots the samples up to i, keeping the most recent ones.
func history(values []float64, i int, caption string) string {
	lo := max(0, i+1-historyWidth*4)
	return asciigraph.Plot(values[lo:i+1],
		asciigraph.Height(5),
		asciigraph.Width(historyWidth),
		asciigraph.Caption(caption),
	)
}
