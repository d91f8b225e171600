package bicycle

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func newBenchmarkModel(t testing.TB) *Model {
	t.Helper()
	m, err := NewModel(Benchmark())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// uprightPitch is the steer axis tilt of the benchmark bicycle, which is
// the pitch of the rear frame when upright and unsteered.
const uprightPitch = math.Pi / 10

func TestConstantsRoundTrip(t *testing.T) {
	c, err := ConstantsFromMap(Benchmark().Map())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Benchmark(), c); diff != "" {
		t.Errorf("constants mismatch (-want +got):\n%s", diff)
	}
	if got := len(ConstantNames()); got != 26 {
		t.Errorf("got %d constant names, want 26", got)
	}
}

func TestConstantsFromMapReportsAll(t *testing.T) {
	values := Benchmark().Map()
	delete(values, "rf")
	delete(values, "ic31")
	values["wheelbase"] = 1.02

	_, err := ConstantsFromMap(values)
	if err == nil {
		t.Fatal("expected error")
	}
	errs := multierr.Errors(err)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), err)
	}
	if !errors.Is(err, ErrMissingConstant) || !errors.Is(err, ErrUnknownConstant) {
		t.Errorf("missing sentinel in %v", err)
	}
}

func TestConstantsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Constants)
		errs   int
	}{
		{"benchmark", func(*Constants) {}, 0},
		{"negative mass", func(c *Constants) { c.Mc = -1 }, 1},
		{"zero radius and NaN length", func(c *Constants) { c.Rr = 0; c.L1 = math.NaN() }, 2},
		{"negative offsets are fine", func(c *Constants) { c.D3 = -0.1 }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Benchmark()
			tt.mutate(&c)
			err := c.Validate()
			if got := len(multierr.Errors(err)); got != tt.errs {
				t.Errorf("got %d errors, want %d: %v", got, tt.errs, err)
			}
			if tt.errs > 0 && !errors.Is(err, ErrInvalidConstant) {
				t.Errorf("got %v, want ErrInvalidConstant", err)
			}
		})
	}

	c := Benchmark()
	c.Mf = 0
	if _, err := NewModel(c); !errors.Is(err, ErrInvalidConstant) {
		t.Errorf("NewModel: got %v, want ErrInvalidConstant", err)
	}
}

func TestFrameChain(t *testing.T) {
	m := newBenchmarkModel(t)
	f := m.Frames()
	chain, err := m.Tree().Traceback(f.F)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"F", "E", "C", "B", "A", "N"}
	got := make([]string, len(chain))
	for i, fr := range chain {
		got[i] = m.Tree().FrameName(fr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestHolonomicUpright(t *testing.T) {
	m := newBenchmarkModel(t)
	h, err := m.HolonomicAt(0, uprightPitch, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(h) > 1e-12 {
		t.Errorf("residual at the benchmark pitch %g", h)
	}

	// unpitched, the front wheel would sit below the ground
	h0, _ := m.HolonomicAt(0, 0, 0)
	if h0 <= 0 {
		t.Errorf("residual at zero pitch %g, want > 0", h0)
	}
}

func TestHolonomicIgnoresOtherCoordinates(t *testing.T) {
	m := newBenchmarkModel(t)
	base := []float64{0, 0, 0, 0.1, 0.3, 0, 0.2, 0}
	p, _ := m.RealPose(base)
	want := m.Holonomic(p).Real

	moved := []float64{3, -2, 1.2, 0.1, 0.3, 0.7, 0.2, -1.9}
	p, _ = m.RealPose(moved)
	if got := m.Holonomic(p).Real; math.Abs(got-want) > 1e-14 {
		t.Errorf("got %g, want %g", got, want)
	}
}

func TestRearContactConstraints(t *testing.T) {
	m := newBenchmarkModel(t)
	q := []float64{0, 0, 0.4, 0.1, 0.3, 0, 0.2, 0}
	b, err := m.ConstraintJacobian(q)
	if err != nil {
		t.Fatal(err)
	}

	rr := Benchmark().Rr
	c, s := math.Cos(q[Q3]), math.Sin(q[Q3])
	want := [2][NumSpeeds]float64{
		{c, s, 0, 0, rr, rr, 0, 0},
		{-s, c, 0, 0, 0, 0, 0, 0},
	}
	for i := range want {
		for k := range want[i] {
			if got := b.At(i, k); math.Abs(got-want[i][k]) > 1e-14 {
				t.Errorf("B[%d][%d] = %g, want %g", i, k, got, want[i][k])
			}
		}
	}
}

func TestVerify(t *testing.T) {
	m := newBenchmarkModel(t)

	configs := []struct {
		name        string
		roll, steer float64
	}{
		{"upright", 0, 0},
		{"leaning", 0.2, 0.1},
		{"steered", -0.1, 0.6},
	}

	for _, cfg := range configs {
		t.Run(cfg.name, func(t *testing.T) {
			res, err := m.Pitch(cfg.roll, cfg.steer)
			if err != nil {
				t.Fatal(err)
			}
			q := make([]float64, NumCoords)
			q[Q4], q[Q5], q[Q7] = cfg.roll, res.Root, cfg.steer

			r, err := m.Verify(q)
			if err != nil {
				t.Fatalf("Verify: %v (report %+v)", err, r)
			}
			if r.Rank != NumNonholonomic {
				t.Errorf("rank %d", r.Rank)
			}
			if r.RateMismatch > 1e-12 {
				t.Errorf("rate mismatch %g", r.RateMismatch)
			}
		})
	}
}

func TestEnergyOfTranslation(t *testing.T) {
	m := newBenchmarkModel(t)
	c := Benchmark()
	q := []float64{0, 0, 0, 0, uprightPitch, 0, 0, 0}

	rest, err := m.Energy(q, make([]float64, NumSpeeds))
	if err != nil {
		t.Fatal(err)
	}
	if rest <= 0 {
		t.Errorf("potential energy %g, want > 0", rest)
	}

	u := make([]float64, NumSpeeds)
	u[U1] = 2
	moving, err := m.Energy(q, u)
	if err != nil {
		t.Fatal(err)
	}
	total := c.Mc + c.Md + c.Me + c.Mf
	if got, want := moving-rest, 0.5*total*4; math.Abs(got-want) > 1e-10 {
		t.Errorf("kinetic energy %g, want %g", got, want)
	}
}

func TestInertiaUnrotated(t *testing.T) {
	m := newBenchmarkModel(t)
	p, _ := m.RealPose(make([]float64, NumCoords))
	for _, b := range m.Bodies() {
		if diff := cmp.Diff(b.Inertia, b.InertiaIn(p)); diff != "" {
			t.Errorf("%s inertia (-want +got):\n%s", b.Name, diff)
		}
	}
}

func TestLoads(t *testing.T) {
	m := newBenchmarkModel(t)
	c := Benchmark()
	p, _ := m.RealPose([]float64{0, 0, 0.3, 0.2, uprightPitch, 0, 0.1, 0})

	forces, torques, err := m.Loads(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	var fz float64
	for _, f := range forces {
		fz += f.Vector.Values()[2]
	}
	if want := (c.Mc + c.Md + c.Me + c.Mf) * c.G; math.Abs(fz-want) > 1e-12 {
		t.Errorf("total weight %g, want %g", fz, want)
	}
	for _, tq := range torques {
		if tq.Vector.Values() != [3]float64{} {
			t.Errorf("nonzero torque without input on frame %d", tq.Frame)
		}
	}

	if _, _, err := m.Loads(p, []float64{1, 2}); err == nil {
		t.Error("expected error for two torques")
	}
}
