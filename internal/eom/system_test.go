package eom

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/controllers"
	"github.com/san-kum/bikesim/internal/dynamo"
	"github.com/san-kum/bikesim/internal/integrators"
	"github.com/san-kum/bikesim/internal/sim"
)

func newSystem(t testing.TB) *System {
	t.Helper()
	m, err := bicycle.NewModel(bicycle.Benchmark())
	if err != nil {
		t.Fatal(err)
	}
	s, err := Generate(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// leaning returns a consistent state away from upright with every speed
// nonzero.
func leaning(t testing.TB, s *System) dynamo.State {
	t.Helper()
	x, err := s.Model().SolveInitial(bicycle.InitialConditions{
		Yaw: 0.3, Roll: 0.15, Steer: 0.1, Speed: 4.6, RollRate: 0.5, SteerRate: -0.3,
	})
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestGenerateReport(t *testing.T) {
	s := newSystem(t)
	r := s.Report()
	if r.Rank != bicycle.NumNonholonomic {
		t.Errorf("rank %d", r.Rank)
	}
	if r.Condition > 1e6 {
		t.Errorf("condition %g at upright", r.Condition)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	a, b := newSystem(t), newSystem(t)
	x := leaning(t, a)
	u := dynamo.Control{0.5, -1, 2}

	da, err := a.Derive(x, u, 0)
	if err != nil {
		t.Fatal(err)
	}
	db, err := b.Derive(x, u, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(da, db); diff != "" {
		t.Errorf("derivatives differ (-a +b):\n%s", diff)
	}

	// evaluation does not disturb the system
	again, _ := a.Derive(x, u, 0)
	if diff := cmp.Diff(da, again); diff != "" {
		t.Errorf("repeat evaluation differs:\n%s", diff)
	}
}

func TestKinematicalRelations(t *testing.T) {
	s := newSystem(t)
	x := leaning(t, s)

	dx, err := s.Derive(x, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.Speeds(x)
	if err != nil {
		t.Fatal(err)
	}

	for i, c := range bicycle.StateCoords {
		if dx[i] != u[c] {
			t.Errorf("%s' = %g, want %s = %g", bicycle.Coordinates[c].Name, dx[i], bicycle.Speeds[c].Name, u[c])
		}
	}
	if u[bicycle.U4] != x[bicycle.XU4] || u[bicycle.U7] != x[bicycle.XU7] || u[bicycle.U6] != x[bicycle.XU6] {
		t.Errorf("independent speeds not carried: %v", u)
	}
}

func TestDependentSpeedsSatisfyConstraints(t *testing.T) {
	s := newSystem(t)
	x := leaning(t, s)
	u, err := s.Speeds(x)
	if err != nil {
		t.Fatal(err)
	}

	b, err := s.Model().ConstraintJacobian(bicycle.CoordinatesOf(x))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < bicycle.NumNonholonomic; i++ {
		var r float64
		for k := 0; k < bicycle.NumSpeeds; k++ {
			r += b.At(i, k) * u[k]
		}
		if math.Abs(r) > 1e-12 {
			t.Errorf("constraint %d residual %g", i, r)
		}
	}
}

func TestForwardSpeedRecovered(t *testing.T) {
	s := newSystem(t)
	x, err := s.Model().SolveInitial(bicycle.InitialConditions{Speed: 4.6})
	if err != nil {
		t.Fatal(err)
	}
	row, err := s.Expand(x)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != len(bicycle.Channels) {
		t.Fatalf("row length %d", len(row))
	}

	want := map[string]float64{"u1": 4.6, "u2": 0, "u3": 0, "u5": 0, "u8": -4.6 / bicycle.Benchmark().Rf}
	for i, name := range bicycle.Channels {
		w, ok := want[name]
		if !ok {
			continue
		}
		if math.Abs(row[i]-w) > 1e-9 {
			t.Errorf("%s = %g, want %g", name, row[i], w)
		}
	}
}

// The rate of change of energy equals the power of the joint torques.
func TestPowerBalance(t *testing.T) {
	s := newSystem(t)
	x := leaning(t, s)

	tests := []struct {
		name string
		u    dynamo.Control
	}{
		{"unforced", nil},
		{"torqued", dynamo.Control{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, err := s.Derive(x, tt.u, 0)
			if err != nil {
				t.Fatal(err)
			}

			const h = 1e-5
			ep, err := s.Energy(x.Add(dx.Scale(h)))
			if err != nil {
				t.Fatal(err)
			}
			em, err := s.Energy(x.Sub(dx.Scale(h)))
			if err != nil {
				t.Fatal(err)
			}
			got := (ep - em) / (2 * h)

			var want float64
			if tt.u != nil {
				want = tt.u[0]*x[bicycle.XU4] + tt.u[1]*x[bicycle.XU6] + tt.u[2]*x[bicycle.XU7]
			}
			if math.Abs(got-want) > 1e-4 {
				t.Errorf("dE/dt = %g, want %g", got, want)
			}
		})
	}
}

func TestDeriveErrors(t *testing.T) {
	s := newSystem(t)

	if _, err := s.Derive(make(dynamo.State, 4), nil, 0); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("short state: got %v", err)
	}

	x := leaning(t, s)
	x[bicycle.XQ4] = math.NaN()
	if _, err := s.Derive(x, nil, 0); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("NaN state: got %v", err)
	}

	x = leaning(t, s)
	if _, err := s.Derive(x, dynamo.Control{1}, 0); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("one torque: got %v", err)
	}
}

func simulate(t *testing.T, s *System, ic bicycle.InitialConditions, end float64, samples int) (*sim.Result, error) {
	t.Helper()
	x0, err := s.Model().SolveInitial(ic)
	if err != nil {
		t.Fatal(err)
	}
	integ, err := integrators.New("rk45")
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.DefaultConfig()
	cfg.End = end
	cfg.Samples = samples
	return sim.New(s, integ, controllers.NewNone(bicycle.ControlDim)).Run(context.Background(), x0, cfg)
}

func TestCapsizeIsSingularAndLeavesSystemUsable(t *testing.T) {
	s := newSystem(t)
	x := leaning(t, s)
	before, err := s.Derive(x, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	// at 3 m/s the roll diverges until the mass matrix loses rank
	res, err := simulate(t, s, bicycle.InitialConditions{Speed: 3, RollRate: 0.5, Steer: 1e-8}, 3, 121)
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("got %v, want *dynamo.SimulationError", err)
	}
	if !errors.Is(err, ErrSingularMass) {
		t.Errorf("got %v, want ErrSingularMass", err)
	}
	if res == nil {
		t.Fatal("no partial trajectory")
	}
	if res.Len() < 2 || res.Len() >= 121 {
		t.Fatalf("want a partial trajectory, got %d samples", res.Len())
	}
	if simErr.Time <= 0 || simErr.Time >= 3 {
		t.Errorf("failure time %g outside the run", simErr.Time)
	}

	// the same System still evaluates and integrates a regular run
	after, err := s.Derive(x, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("derivatives changed after the failed run (-before +after):\n%s", diff)
	}
	res, err = simulate(t, s, bicycle.InitialConditions{Speed: 4.6, RollRate: 0.5, Steer: 1e-8}, 1, 61)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 61 {
		t.Fatalf("got %d samples", res.Len())
	}
	last := res.States[res.Len()-1]
	if r, err := s.Residual(last); err != nil || math.Abs(r) > 1e-6 {
		t.Errorf("residual %g, err %v", r, err)
	}
}

func TestSpeedsLinearInIndependent(t *testing.T) {
	s := newSystem(t)
	x := leaning(t, s)
	u1, _ := s.Speeds(x)

	x2 := x.Clone()
	for _, i := range []int{bicycle.XU4, bicycle.XU6, bicycle.XU7} {
		x2[i] *= 2
	}
	u2, _ := s.Speeds(x2)

	double := make([]float64, len(u1))
	for i := range u1 {
		double[i] = 2 * u1[i]
	}
	if diff := cmp.Diff(double, u2, cmpopts.EquateApprox(1e-12, 1e-12)); diff != "" {
		t.Errorf("speeds not linear (-want +got):\n%s", diff)
	}
}

func BenchmarkDerive(b *testing.B) {
	s := newSystem(b)
	x := leaning(b, s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Derive(x, nil, 0); err != nil {
			b.Fatal(err)
		}
	}
}
