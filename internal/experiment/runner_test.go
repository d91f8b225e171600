package experiment

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/eom"
)

func short(name string) *config.Config {
	cfg := config.Preset(name)
	cfg.Sim.End = 0.5
	cfg.Sim.Samples = 11
	return cfg
}

func TestSystemCached(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t).Sugar())
	a, err := r.System(bicycle.Benchmark())
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.System(bicycle.Benchmark())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same constants produced two systems")
	}

	c := bicycle.Benchmark()
	c.Mc = 80
	other, err := r.System(c)
	if err != nil {
		t.Fatal(err)
	}
	if other == a {
		t.Error("different constants share a system")
	}
}

func TestRun(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t).Sugar())
	run, err := r.Run(context.Background(), short("fig1"))
	if err != nil {
		t.Fatal(err)
	}

	traj := run.Trajectory()
	if len(traj.Channels) != len(bicycle.Channels)+3 {
		t.Fatalf("got %d channels", len(traj.Channels))
	}
	if len(traj.Rows) != 11 || len(traj.Rows[0]) != len(traj.Channels) {
		t.Fatalf("unexpected table %dx%d", len(traj.Rows), len(traj.Rows[0]))
	}

	u1, err := traj.Column("u1")
	if err != nil {
		t.Fatal(err)
	}
	if u1[0] < 4.5 || u1[0] > 4.7 {
		t.Errorf("initial forward speed %g, want about 4.6", u1[0])
	}

	meta := run.Metadata()
	if meta.Name != "fig1" || meta.Samples != 11 || meta.Error != "" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	for _, m := range []string{MetricResidual, MetricEnergyDrift, MetricRollEnvelope, MetricControlEffort} {
		if _, ok := meta.Metrics[m]; !ok {
			t.Errorf("missing metric %s", m)
		}
	}
	if meta.Initial["u1"] != 4.6 {
		t.Errorf("initial speed not recorded: %v", meta.Initial)
	}
}

func TestRunErrors(t *testing.T) {
	r := NewRunner(nil)

	cfg := short("fig1")
	cfg.Initial = bicycle.InitialConditions{}
	if _, err := r.Run(context.Background(), cfg); !errors.Is(err, bicycle.ErrDegenerateConfiguration) {
		t.Errorf("got %v, want ErrDegenerateConfiguration", err)
	}

	cfg = short("fig1")
	cfg.Integrator = "leapfrog"
	if _, err := r.Run(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown integrator")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run, err := r.Run(ctx, short("fig1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if run == nil || len(run.Rows) != 1 || run.Metadata().Error == "" {
		t.Error("cancelled run should keep its first sample and record the error")
	}
}

func TestSweep(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t).Sugar())
	base := short("fig1")
	base.Sim.End = 3
	base.Sim.Samples = 121

	speeds := []float64{4.1, 5}
	points, err := r.Sweep(context.Background(), base, speeds, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range points {
		if p.Speed != speeds[i] || p.Run == nil {
			t.Fatalf("point %d: %+v", i, p)
		}
		if got := p.Run.Config.Initial.Speed; got != speeds[i] {
			t.Errorf("point %d ran at %g", i, got)
		}
	}
	if base.Initial.Speed != 4.6 {
		t.Error("sweep modified the base config")
	}
}

func TestSweepCapsize(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t).Sugar())
	base := short("fig1")
	base.Sim.End = 3
	base.Sim.Samples = 121

	// at 3 m/s the bicycle falls over and reaches a singular configuration
	// before 3 s; the other speed must still finish
	points, err := r.Sweep(context.Background(), base, []float64{3, 5}, 2)
	if !errors.Is(err, eom.ErrSingularMass) {
		t.Fatalf("got %v, want ErrSingularMass", err)
	}

	slow := points[0]
	if !errors.Is(slow.Err, eom.ErrSingularMass) || slow.Stable() {
		t.Errorf("3 m/s: got %v", slow.Err)
	}
	if slow.Run == nil || len(slow.Run.Rows) < 2 || len(slow.Run.Rows) >= base.Sim.Samples {
		t.Fatalf("3 m/s: want a partial trajectory, got %+v", slow.Run)
	}
	if slow.Run.Metadata().Error == "" {
		t.Error("3 m/s: metadata does not record the failure")
	}

	if fast := points[1]; fast.Err != nil || len(fast.Run.Rows) != base.Sim.Samples {
		t.Errorf("5 m/s: got %v", fast.Err)
	}
}

func TestSweepCancelled(t *testing.T) {
	r := NewRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points, err := r.Sweep(ctx, short("fig1"), []float64{4, 5, 6}, 0)
	if n := len(multierr.Errors(err)); n != 3 {
		t.Fatalf("got %d errors, want 3: %v", n, err)
	}
	for _, p := range points {
		if !errors.Is(p.Err, context.Canceled) || p.Stable() {
			t.Errorf("speed %g: %v", p.Speed, p.Err)
		}
	}
}
