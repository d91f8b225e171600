package bicycle

import (
	"fmt"

	"github.com/san-kum/bikesim/internal/kinematics"
	"github.com/san-kum/bikesim/internal/spatial"
)

// Body is a rigid body of the bicycle.
type Body struct {
	Name string
	Mass float64
	// Frame carries the body's angular velocity.
	Frame kinematics.Frame
	// Inertia about Center, in the basis of InertiaFrame.
	Inertia      [3][3]float64
	InertiaFrame kinematics.Frame
	Center       kinematics.Point
}

// InertiaIn returns the central inertia in inertial components at pose p.
func (b Body) InertiaIn(p *kinematics.Pose) [3][3]float64 {
	r := p.Rotation(b.InertiaFrame).Value()
	i := spatial.RealMat(b.Inertia)
	n := r.Mul(i).Mul(r.T())
	var out [3][3]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out[row][col] = n[row][col].Real
		}
	}
	return out
}

// symmetric builds an inertia matrix from principal moments and the single
// product of inertia in the x-z plane.
func symmetric(i11, i22, i33, i31 float64) [3][3]float64 {
	return [3][3]float64{
		{i11, 0, i31},
		{0, i22, 0},
		{i31, 0, i33},
	}
}

func (m *Model) makeBodies() []Body {
	c, f, p := m.consts, m.frames, m.points
	return []Body{
		{Name: "rear frame", Mass: c.Mc, Frame: f.C, Inertia: symmetric(c.Ic11, c.Ic22, c.Ic33, c.Ic31), InertiaFrame: f.C, Center: p.Co},
		{Name: "rear wheel", Mass: c.Md, Frame: f.D, Inertia: symmetric(c.Id11, c.Id22, c.Id11, 0), InertiaFrame: f.C, Center: p.Do},
		{Name: "front frame", Mass: c.Me, Frame: f.E, Inertia: symmetric(c.Ie11, c.Ie22, c.Ie33, c.Ie31), InertiaFrame: f.E, Center: p.Eo},
		{Name: "front wheel", Mass: c.Mf, Frame: f.F, Inertia: symmetric(c.If11, c.If22, c.If11, 0), InertiaFrame: f.E, Center: p.Fo},
	}
}

// Force is applied at a point, in inertial components.
type Force struct {
	Point  kinematics.Point
	Vector spatial.Vec
}

// Torque acts on the body attached to a frame, in inertial components.
type Torque struct {
	Frame  kinematics.Frame
	Vector spatial.Vec
}

// Loads returns gravity at every mass center and the joint torques.
// torques holds T4 (roll), T6 (rear wheel) and T7 (steer); nil means zero.
// T6 and T7 act between neighbouring bodies, so the rear frame takes the
// reactions.
func (m *Model) Loads(p *kinematics.Pose, torques []float64) ([]Force, []Torque, error) {
	var t4, t6, t7 float64
	switch len(torques) {
	case 0:
	case ControlDim:
		t4, t6, t7 = torques[0], torques[1], torques[2]
	default:
		return nil, nil, fmt.Errorf("loads: got %d torques, want %d", len(torques), ControlDim)
	}

	down := p.Basis(m.frames.A, spatial.Z).Value()
	forces := make([]Force, 0, len(m.bodies))
	for _, b := range m.bodies {
		forces = append(forces, Force{Point: b.Center, Vector: down.Scale(b.Mass * m.consts.G)})
	}

	f := m.frames
	ax := p.Basis(f.A, spatial.X).Value()
	by := p.Basis(f.B, spatial.Y).Value()
	cy := p.Basis(f.C, spatial.Y).Value()
	cz := p.Basis(f.C, spatial.Z).Value()

	torqueList := []Torque{
		{Frame: f.C, Vector: ax.Scale(t4).Sub(by.Scale(t6)).Sub(cz.Scale(t7))},
		{Frame: f.D, Vector: cy.Scale(t6)},
		{Frame: f.E, Vector: cz.Scale(t7)},
	}
	return forces, torqueList, nil
}
