// Package bicycle describes the Whipple bicycle: four rigid bodies joined by
// revolute joints and rolling without slip on level ground.
//
// The model is built once from a [Constants] value and is read only
// afterwards. It exposes the kinematic tree, the holonomic and nonholonomic
// constraints, the rigid bodies and the applied loads. Equations of motion
// are formed from these by package eom.
//
// The inertial frame N has z pointing down. Frames chain as
//
//	N -(q3, z)-> A -(q4, x)-> B -(q5, y)-> C -(q6, y)-> D
//	                                        C -(q7, z)-> E -(q8, y)-> F
//
// with C the rear frame, D the rear wheel, E the front frame and F the front
// wheel.
package bicycle

import (
	"fmt"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/dual"

	"github.com/san-kum/bikesim/internal/kinematics"
	"github.com/san-kum/bikesim/internal/spatial"
)

// Frames holds the handles of the model frames.
type Frames struct {
	N, A, B, C, D, E, F kinematics.Frame
}

// Points holds the handles of the model points.
type Points struct {
	// P is the ground point under the rear wheel and the tree origin.
	P kinematics.Point
	// Do and Fo are the wheel centers, Dn and Fn the wheel contacts.
	Do, Dn, Fo, Fn kinematics.Point
	// Co and Eo are the rear and front frame mass centers.
	Co, Eo kinematics.Point
	// Ce is the point of the steer axis at the rear frame origin.
	Ce kinematics.Point
}

type Model struct {
	consts Constants
	tree   *kinematics.Tree
	frames Frames
	points Points
	bodies []Body
}

// NewModel validates c and builds the kinematic tree and the bodies.
func NewModel(c Constants) (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m := &Model{consts: c, tree: kinematics.NewTree("N", "P", NumCoords, NumSpeeds)}
	if err := m.build(); err != nil {
		return nil, fmt.Errorf("build bicycle tree: %w", err)
	}
	m.bodies = m.makeBodies()
	return m, nil
}

func (m *Model) build() error {
	t, c := m.tree, m.consts
	f, p := &m.frames, &m.points
	var err error

	// record appends an AddFrame/AddPoint error and keeps going so a broken
	// tree reports every problem at once
	frame := func(name string, parent kinematics.Frame, axis spatial.Axis, i int) kinematics.Frame {
		h, e := t.AddFrame(name, parent, axis, i, i)
		err = multierr.Append(err, e)
		return h
	}
	point := func(name string, parent kinematics.Point, off kinematics.Offset, in kinematics.Frame) kinematics.Point {
		h, e := t.AddPoint(name, parent, off, in)
		err = multierr.Append(err, e)
		return h
	}

	f.N = t.Inertial()
	f.A = frame("A", f.N, spatial.Z, Q3)
	f.B = frame("B", f.A, spatial.X, Q4)
	f.C = frame("C", f.B, spatial.Y, Q5)
	f.D = frame("D", f.C, spatial.Y, Q6)
	f.E = frame("E", f.C, spatial.Z, Q7)
	f.F = frame("F", f.E, spatial.Y, Q8)

	err = multierr.Append(err, t.SetOriginVelocity(
		kinematics.VelocityTerm{Speed: U1, Axis: spatial.X},
		kinematics.VelocityTerm{Speed: U2, Axis: spatial.Y},
	))

	p.P = t.Origin()
	p.Do = point("do", p.P, kinematics.Fixed(f.B, 0, 0, -c.Rr), f.B)
	p.Dn = point("dn", p.Do, kinematics.Fixed(f.B, 0, 0, c.Rr), f.D)
	p.Co = point("co", p.Do, kinematics.Fixed(f.C, c.L1, 0, c.L2), f.C)
	p.Ce = point("ce", p.Do, kinematics.Fixed(f.C, c.D1, 0, 0), f.C)
	p.Fo = point("fo", p.Ce, kinematics.Fixed(f.E, c.D3, 0, c.D2), f.E)
	p.Eo = point("eo", p.Fo, kinematics.Fixed(f.E, c.L3, 0, c.L4), f.E)

	// the front contact lies in the wheel plane, straight below the center
	// along the steepest descent of that plane
	e, a, rf := f.E, f.A, c.Rf
	p.Fn = point("fn", p.Fo, kinematics.Computed(func(pose *kinematics.Pose) spatial.Vec {
		ey := pose.Basis(e, spatial.Y)
		return ey.Cross(pose.Basis(a, spatial.Z)).Cross(ey).Unit().Scale(rf)
	}), f.F)

	return err
}

func (m *Model) Constants() Constants   { return m.consts }
func (m *Model) Tree() *kinematics.Tree { return m.tree }
func (m *Model) Frames() Frames         { return m.frames }
func (m *Model) Points() Points         { return m.points }

// Bodies returns the four rigid bodies. The slice is shared and must not be
// modified.
func (m *Model) Bodies() []Body { return m.bodies }

// Pose evaluates the tree at q, a full coordinate vector.
func (m *Model) Pose(q []dual.Number) (*kinematics.Pose, error) {
	return m.tree.Pose(q)
}

// RealPose evaluates the tree at real coordinates.
func (m *Model) RealPose(q []float64) (*kinematics.Pose, error) {
	return m.tree.Pose(Duals(q, nil))
}

// Duals pairs values with rates. A nil rates slice gives zero dual parts.
func Duals(values, rates []float64) []dual.Number {
	d := make([]dual.Number, len(values))
	for i, v := range values {
		d[i].Real = v
		if rates != nil {
			d[i].Emag = rates[i]
		}
	}
	return d
}
