// Package eom forms and evaluates the equations of motion of the bicycle by
// Kane's method.
//
// The integrated state holds the six tracked coordinates and the three
// independent speeds (see bicycle.StateDim). At every evaluation the five
// dependent speeds are solved from the rolling constraints,
//
//	B_d u_d + B_i u_i = 0  =>  u_d = C u_i,  C = -B_d⁻¹ B_i,
//
// and the generalized active and inertia forces are projected onto the
// nonholonomic partial velocities ṽ_r = v_r + Σ_d C_dr v_d. Partial
// velocities come from the linearity of every velocity in u; the velocity
// dependent accelerations come from dual-number time derivatives of the
// kinematic tree seeded with q' = u. What remains is a 3x3 linear system in
// the independent speed rates.
package eom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/dynamo"
	"github.com/san-kum/bikesim/internal/kinematics"
)

var (
	// ErrSingularConstraint is returned at configurations where the rolling
	// constraints do not determine the dependent speeds.
	ErrSingularConstraint = errors.New("eom: dependent constraint block is singular")
	// ErrSingularMass is returned when the reduced mass matrix is singular.
	ErrSingularMass = errors.New("eom: mass matrix is singular")
)

// System is the first-order right-hand side of the bicycle. It holds no
// mutable state and may be shared by concurrent simulations.
type System struct {
	model  *bicycle.Model
	report bicycle.Report
}

// Generate checks the constraint structure of m at its upright reference
// configuration and returns the equations of motion.
func Generate(m *bicycle.Model) (*System, error) {
	pitch, err := m.Pitch(0, 0)
	if err != nil {
		return nil, fmt.Errorf("reference pitch: %w", err)
	}
	q := make([]float64, bicycle.NumCoords)
	q[bicycle.Q5] = pitch.Root

	report, err := m.Verify(q)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &System{model: m, report: report}, nil
}

func (s *System) Model() *bicycle.Model { return s.model }

// Report returns the constraint checks made by Generate.
func (s *System) Report() bicycle.Report { return s.report }

func (s *System) StateDim() int   { return bicycle.StateDim }
func (s *System) ControlDim() int { return bicycle.ControlDim }

// Derive returns dx/dt for state x and torques u (T4, T6, T7; nil for none).
func (s *System) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	k, err := s.kinematics(x)
	if err != nil {
		return nil, err
	}
	rates, err := s.dynamics(k, u)
	if err != nil {
		return nil, err
	}

	dx := make(dynamo.State, bicycle.StateDim)
	for i, c := range bicycle.StateCoords {
		dx[i] = k.u[c]
	}
	copy(dx[len(bicycle.StateCoords):], rates)
	return dx, nil
}

// Speeds returns all eight generalized speeds at state x.
func (s *System) Speeds(x dynamo.State) ([]float64, error) {
	k, err := s.kinematics(x)
	if err != nil {
		return nil, err
	}
	return k.u, nil
}

// Expand returns the state followed by u1, u2, u3, u5 and u8, in the order
// of bicycle.Channels.
func (s *System) Expand(x dynamo.State) ([]float64, error) {
	u, err := s.Speeds(x)
	if err != nil {
		return nil, err
	}
	row := make([]float64, 0, len(bicycle.Channels))
	row = append(row, x...)
	for _, d := range bicycle.DependentSpeeds {
		row = append(row, u[d])
	}
	return row, nil
}

// Energy returns the total mechanical energy at x.
func (s *System) Energy(x dynamo.State) (float64, error) {
	u, err := s.Speeds(x)
	if err != nil {
		return 0, err
	}
	return s.model.Energy(bicycle.CoordinatesOf(x), u)
}

// Residual returns the holonomic constraint at x.
func (s *System) Residual(x dynamo.State) (float64, error) {
	if len(x) != bicycle.StateDim {
		return 0, fmt.Errorf("residual: state length %d: %w", len(x), dynamo.ErrDimensionMismatch)
	}
	return s.model.HolonomicAt(x[bicycle.XQ4], x[bicycle.XQ5], x[bicycle.XQ7])
}

// kinState is everything known once the dependent speeds are solved.
type kinState struct {
	q, u []float64
	pose *kinematics.Pose
	// partial[k] is the motion for the k-th unit speed.
	partial [bicycle.NumSpeeds]*kinematics.Motion
	lu      mat.LU
	// c maps independent to dependent speeds, 5x3.
	c mat.Dense
}

func (s *System) kinematics(x dynamo.State) (*kinState, error) {
	if len(x) != bicycle.StateDim {
		return nil, fmt.Errorf("state length %d, want %d: %w", len(x), bicycle.StateDim, dynamo.ErrDimensionMismatch)
	}
	if !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	k := &kinState{q: bicycle.CoordinatesOf(x), u: make([]float64, bicycle.NumSpeeds)}
	var err error
	if k.pose, err = s.model.RealPose(k.q); err != nil {
		return nil, err
	}
	// a horizontal front wheel plane leaves the contact point undefined
	if !k.pose.Position(s.model.Points().Fn).IsFinite() {
		return nil, fmt.Errorf("front contact undefined at roll %g, pitch %g, steer %g: %w",
			k.q[bicycle.Q4], k.q[bicycle.Q5], k.q[bicycle.Q7], ErrSingularConstraint)
	}

	b, err := s.model.Jacobian(k.pose)
	if err != nil {
		return nil, err
	}
	dep, ind := bicycle.Partition(b)
	k.lu.Factorize(dep)
	if cond := k.lu.Cond(); !(cond <= bicycle.MaxCondition) {
		return nil, fmt.Errorf("condition %g at roll %g, pitch %g, steer %g: %w",
			cond, k.q[bicycle.Q4], k.q[bicycle.Q5], k.q[bicycle.Q7], ErrSingularConstraint)
	}
	if err := k.lu.SolveTo(&k.c, false, ind); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingularConstraint)
	}
	k.c.Scale(-1, &k.c)

	for i, ix := range bicycle.IndependentSpeeds {
		k.u[ix] = x[len(bicycle.StateCoords)+i]
	}
	for d, dx := range bicycle.DependentSpeeds {
		for i, ix := range bicycle.IndependentSpeeds {
			k.u[dx] += k.c.At(d, i) * k.u[ix]
		}
	}

	for j := range k.partial {
		if k.partial[j], err = k.pose.Unit(j); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// reducedVelocity returns ṽ_r of point p for independent speed r.
func (k *kinState) reducedVelocity(r int, p kinematics.Point) r3.Vec {
	v := k.partial[bicycle.IndependentSpeeds[r]].Velocity(p).R3()
	for d, dx := range bicycle.DependentSpeeds {
		v = r3.Add(v, r3.Scale(k.c.At(d, r), k.partial[dx].Velocity(p).R3()))
	}
	return v
}

// reducedAngular returns ω̃_r of frame f for independent speed r.
func (k *kinState) reducedAngular(r int, f kinematics.Frame) r3.Vec {
	w := k.partial[bicycle.IndependentSpeeds[r]].AngularVelocity(f).R3()
	for d, dx := range bicycle.DependentSpeeds {
		w = r3.Add(w, r3.Scale(k.c.At(d, r), k.partial[dx].AngularVelocity(f).R3()))
	}
	return w
}
