package bicycle

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dual"

	"github.com/san-kum/bikesim/internal/kinematics"
	"github.com/san-kum/bikesim/internal/spatial"
)

// NumNonholonomic is the number of rolling constraints: two at the rear
// contact and three at the front contact.
const NumNonholonomic = 5

// Holonomic returns the height of the front contact above the rear contact
// along A.z. It vanishes when both wheels touch the ground and depends only
// on roll, pitch and steer.
func (m *Model) Holonomic(p *kinematics.Pose) dual.Number {
	return p.Between(m.points.Dn, m.points.Fn).Dot(p.Basis(m.frames.A, spatial.Z))
}

// HolonomicAt evaluates the holonomic constraint for real roll, pitch and
// steer angles.
func (m *Model) HolonomicAt(roll, pitch, steer float64) (float64, error) {
	q := make([]float64, NumCoords)
	q[Q4], q[Q5], q[Q7] = roll, pitch, steer
	p, err := m.RealPose(q)
	if err != nil {
		return 0, err
	}
	return m.Holonomic(p).Real, nil
}

// Nonholonomic returns the no-slip constraints: the rear contact velocity
// along A.x and A.y, then the front contact velocity along A.x, A.y and A.z.
func (m *Model) Nonholonomic(mo *kinematics.Motion) [NumNonholonomic]dual.Number {
	p := mo.Pose()
	ax := p.Basis(m.frames.A, spatial.X)
	ay := p.Basis(m.frames.A, spatial.Y)
	az := p.Basis(m.frames.A, spatial.Z)
	vd := mo.Velocity(m.points.Dn)
	vf := mo.Velocity(m.points.Fn)
	return [NumNonholonomic]dual.Number{
		vd.Dot(ax),
		vd.Dot(ay),
		vf.Dot(ax),
		vf.Dot(ay),
		vf.Dot(az),
	}
}

// ConstraintJacobian returns the 5x8 matrix B(q) with the nonholonomic
// constraints written as B(q) u = 0. The constraints are linear in u, so
// column k is their value for the k-th unit speed.
func (m *Model) ConstraintJacobian(q []float64) (*mat.Dense, error) {
	if len(q) != NumCoords {
		return nil, fmt.Errorf("constraint jacobian: got %d coordinates, want %d", len(q), NumCoords)
	}
	p, err := m.RealPose(q)
	if err != nil {
		return nil, err
	}
	return m.Jacobian(p)
}

// Jacobian is ConstraintJacobian at an evaluated pose.
func (m *Model) Jacobian(p *kinematics.Pose) (*mat.Dense, error) {
	b := mat.NewDense(NumNonholonomic, NumSpeeds, nil)
	for k := 0; k < NumSpeeds; k++ {
		mo, err := p.Unit(k)
		if err != nil {
			return nil, err
		}
		for i, c := range m.Nonholonomic(mo) {
			b.Set(i, k, c.Real)
		}
	}
	return b, nil
}

// Partition splits B into the dependent block B_d, columns in
// DependentSpeeds order, and the independent block B_i, columns in
// IndependentSpeeds order.
func Partition(b mat.Matrix) (dep, ind *mat.Dense) {
	r, _ := b.Dims()
	dep = mat.NewDense(r, len(DependentSpeeds), nil)
	ind = mat.NewDense(r, len(IndependentSpeeds), nil)
	for i := 0; i < r; i++ {
		for j, k := range DependentSpeeds {
			dep.Set(i, j, b.At(i, k))
		}
		for j, k := range IndependentSpeeds {
			ind.Set(i, j, b.At(i, k))
		}
	}
	return dep, ind
}
