package kinematics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/num/dual"

	"github.com/san-kum/bikesim/internal/spatial"
)

// pendulum is a rod of length l spinning about N.z, with a second rod hinged
// about its tip.
func pendulum(t *testing.T, l1, l2 float64) (*Tree, Frame, Frame, Point, Point) {
	t.Helper()
	tr := NewTree("N", "O", 2, 2)
	a, err := tr.AddFrame("A", tr.Inertial(), spatial.Z, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.AddFrame("B", a, spatial.Z, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	p1, err := tr.AddPoint("P1", tr.Origin(), Fixed(a, l1, 0, 0), a)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := tr.AddPoint("P2", p1, Fixed(b, l2, 0, 0), b)
	if err != nil {
		t.Fatal(err)
	}
	return tr, a, b, p1, p2
}

func near(a, b [3]float64, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestPosePositions(t *testing.T) {
	tr, _, _, p1, p2 := pendulum(t, 2, 1)
	q1, q2 := 0.4, -0.9
	p, err := tr.Pose([]dual.Number{{Real: q1}, {Real: q2}})
	if err != nil {
		t.Fatal(err)
	}

	want1 := [3]float64{2 * math.Cos(q1), 2 * math.Sin(q1), 0}
	if got := p.Position(p1).Values(); !near(got, want1, 1e-14) {
		t.Errorf("P1 got %v, want %v", got, want1)
	}
	want2 := [3]float64{want1[0] + math.Cos(q1+q2), want1[1] + math.Sin(q1+q2), 0}
	if got := p.Position(p2).Values(); !near(got, want2, 1e-14) {
		t.Errorf("P2 got %v, want %v", got, want2)
	}
	if got := p.Between(p1, p2).Values(); !near(got, [3]float64{math.Cos(q1 + q2), math.Sin(q1 + q2), 0}, 1e-14) {
		t.Errorf("Between got %v", got)
	}
}

func TestMotionMatchesPositionRate(t *testing.T) {
	tr, _, b, _, p2 := pendulum(t, 2, 1)
	u := []float64{1.3, -0.2}

	// seeding q' = u makes the dual part of position its velocity
	p, err := tr.Pose([]dual.Number{{Real: 0.4, Emag: u[0]}, {Real: -0.9, Emag: u[1]}})
	if err != nil {
		t.Fatal(err)
	}
	m, err := p.Motion([]dual.Number{{Real: u[0]}, {Real: u[1]}})
	if err != nil {
		t.Fatal(err)
	}

	if got, want := m.Velocity(p2).Values(), p.Position(p2).Rates(); !near(got, want, 1e-13) {
		t.Errorf("velocity got %v, want %v", got, want)
	}
	if got := m.AngularVelocity(b).Values(); !near(got, [3]float64{0, 0, u[0] + u[1]}, 1e-15) {
		t.Errorf("angular velocity got %v", got)
	}
}

func TestMotionAcceleration(t *testing.T) {
	tr, _, _, p1, _ := pendulum(t, 2, 1)
	q, w := 0.3, 1.5

	p, err := tr.Pose([]dual.Number{{Real: q, Emag: w}, {}})
	if err != nil {
		t.Fatal(err)
	}
	m, err := p.Motion([]dual.Number{{Real: w}, {}})
	if err != nil {
		t.Fatal(err)
	}

	// uniform rotation: centripetal acceleration only
	want := [3]float64{-2 * w * w * math.Cos(q), -2 * w * w * math.Sin(q), 0}
	if got := m.Velocity(p1).Rates(); !near(got, want, 1e-13) {
		t.Errorf("acceleration got %v, want %v", got, want)
	}
}

func TestUnitMotionIsPartialVelocity(t *testing.T) {
	tr, _, _, _, p2 := pendulum(t, 2, 1)
	p, err := tr.Pose([]dual.Number{{Real: 0.1}, {Real: 0.2}})
	if err != nil {
		t.Fatal(err)
	}

	u := []float64{0.7, -1.1}
	full, err := p.Motion([]dual.Number{{Real: u[0]}, {Real: u[1]}})
	if err != nil {
		t.Fatal(err)
	}

	sum := spatial.Vec{}
	for k := range u {
		m, err := p.Unit(k)
		if err != nil {
			t.Fatal(err)
		}
		sum = sum.Add(m.Velocity(p2).Scale(u[k]))
	}
	if got, want := sum.Values(), full.Velocity(p2).Values(); !near(got, want, 1e-14) {
		t.Errorf("superposition got %v, want %v", got, want)
	}

	if _, err := p.Unit(5); !errors.Is(err, ErrIndex) {
		t.Errorf("got %v, want ErrIndex", err)
	}
}

func TestOriginVelocity(t *testing.T) {
	tr := NewTree("N", "O", 1, 2)
	if err := tr.SetOriginVelocity(VelocityTerm{Speed: 0, Axis: spatial.X}, VelocityTerm{Speed: 1, Axis: spatial.Y}); err != nil {
		t.Fatal(err)
	}
	p, err := tr.Pose([]dual.Number{{}})
	if err != nil {
		t.Fatal(err)
	}
	m, err := p.Motion([]dual.Number{{Real: 3}, {Real: -4}})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Velocity(tr.Origin()).Values(); got != [3]float64{3, -4, 0} {
		t.Errorf("got %v", got)
	}
}

func TestComputedOffset(t *testing.T) {
	tr := NewTree("N", "O", 1, 1)
	a, _ := tr.AddFrame("A", tr.Inertial(), spatial.X, 0, 0)
	c, err := tr.AddPoint("C", tr.Origin(), Computed(func(p *Pose) spatial.Vec {
		return p.Basis(a, spatial.Y).Add(p.Basis(a, spatial.Z)).Unit().Scale(2)
	}), a)
	if err != nil {
		t.Fatal(err)
	}

	p, _ := tr.Pose([]dual.Number{{}})
	s := 2 / math.Sqrt2
	if got := p.Position(c).Values(); !near(got, [3]float64{0, s, s}, 1e-14) {
		t.Errorf("got %v", got)
	}
}

func TestComputedOffsetWithoutDirection(t *testing.T) {
	tr := NewTree("N", "O", 1, 1)
	a, _ := tr.AddFrame("A", tr.Inertial(), spatial.X, 0, 0)
	c, err := tr.AddPoint("C", tr.Origin(), Computed(func(p *Pose) spatial.Vec {
		// parallel vectors have no common normal
		return p.Basis(a, spatial.Y).Cross(p.Basis(a, spatial.Y)).Unit()
	}), a)
	if err != nil {
		t.Fatal(err)
	}

	p, _ := tr.Pose([]dual.Number{{Real: 0.2}})
	if p.Position(c).IsFinite() {
		t.Errorf("got finite position %v", p.Position(c).Values())
	}
}

func TestConstructionErrors(t *testing.T) {
	tr := NewTree("N", "O", 1, 1)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown parent frame", second(tr.AddFrame("A", 7, spatial.X, 0, 0)), ErrUnknownParent},
		{"coordinate out of range", second(tr.AddFrame("A", 0, spatial.X, 3, 0)), ErrIndex},
		{"unknown parent point", second(tr.AddPoint("P", 4, Zero(), 0)), ErrUnknownParent},
		{"duplicate frame", second(tr.AddFrame("N", 0, spatial.X, 0, 0)), ErrDuplicate},
		{"origin speed out of range", tr.SetOriginVelocity(VelocityTerm{Speed: 2}), ErrIndex},
		{"unknown name", second(tr.Frame("Q")), ErrUnknownName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("got %v, want %v", tt.err, tt.want)
			}
		})
	}

	if _, err := tr.Pose(nil); !errors.Is(err, ErrDimension) {
		t.Errorf("got %v, want ErrDimension", err)
	}
}

func TestTraceback(t *testing.T) {
	tr, a, b, _, _ := pendulum(t, 1, 1)
	chain, err := tr.Traceback(b)
	if err != nil {
		t.Fatal(err)
	}
	want := []Frame{b, a, tr.Inertial()}
	if len(chain) != len(want) {
		t.Fatalf("got %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("got %v, want %v", chain, want)
		}
	}
	if parent, ok := tr.Parent(tr.Inertial()); ok {
		t.Errorf("inertial frame has parent %d", parent)
	}
}

func second[T any](_ T, err error) error { return err }
