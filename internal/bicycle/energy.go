package bicycle

import (
	"fmt"

	"github.com/san-kum/bikesim/internal/spatial"
)

// Energy returns kinetic plus gravitational potential energy, with the
// potential measured from the ground plane. With zero joint torques it is
// conserved along exact solutions, since rolling contacts do no work.
func (m *Model) Energy(q, u []float64) (float64, error) {
	if len(u) != NumSpeeds {
		return 0, fmt.Errorf("energy: got %d speeds, want %d", len(u), NumSpeeds)
	}
	p, err := m.RealPose(q)
	if err != nil {
		return 0, err
	}
	mo, err := p.Motion(Duals(u, nil))
	if err != nil {
		return 0, err
	}

	down := p.Basis(m.frames.A, spatial.Z)
	var e float64
	for _, b := range m.bodies {
		v := mo.Velocity(b.Center).Values()
		w := mo.AngularVelocity(b.Frame).Values()
		in := b.InertiaIn(p)

		e += 0.5 * b.Mass * (v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				e += 0.5 * w[i] * in[i][j] * w[j]
			}
		}
		// z is down, so height is -z
		e -= b.Mass * m.consts.G * p.Position(b.Center).Dot(down).Real
	}
	return e, nil
}
