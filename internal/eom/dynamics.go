package eom

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/dynamo"
)

const numIndependent = len(bicycle.IndependentSpeeds)

// dynamics returns the rates of the independent speeds.
func (s *System) dynamics(k *kinState, torques dynamo.Control) ([]float64, error) {
	m := s.model

	// seeding q' = u makes the dual parts of every velocity its time
	// derivative at fixed u, i.e. the velocity-dependent acceleration
	pose, err := m.Pose(bicycle.Duals(k.q, k.u))
	if err != nil {
		return nil, err
	}
	motion, err := pose.Motion(bicycle.Duals(k.u, nil))
	if err != nil {
		return nil, err
	}

	// dependent speed rates at zero independent speed rates: B_d u_d' = -B' u
	cons := m.Nonholonomic(motion)
	rhs := mat.NewVecDense(bicycle.NumNonholonomic, nil)
	for i, c := range cons {
		rhs.SetVec(i, -c.Emag)
	}
	var bias mat.VecDense
	if err := k.lu.SolveVecTo(&bias, false, rhs); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingularConstraint)
	}

	forces, torqueList, err := m.Loads(k.pose, torques)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, dynamo.ErrDimensionMismatch)
	}

	var mass [numIndependent][numIndependent]float64
	var f [numIndependent]float64

	for _, fc := range forces {
		v := fc.Vector.R3()
		for r := 0; r < numIndependent; r++ {
			f[r] += r3.Dot(v, k.reducedVelocity(r, fc.Point))
		}
	}
	for _, tq := range torqueList {
		v := tq.Vector.R3()
		for r := 0; r < numIndependent; r++ {
			f[r] += r3.Dot(v, k.reducedAngular(r, tq.Frame))
		}
	}

	for _, b := range m.Bodies() {
		// accelerations with the independent speed rates set to zero
		acc := motion.Velocity(b.Center).R3Rate()
		alpha := motion.AngularVelocity(b.Frame).R3Rate()
		for d, dx := range bicycle.DependentSpeeds {
			bd := bias.AtVec(d)
			acc = r3.Add(acc, r3.Scale(bd, k.partial[dx].Velocity(b.Center).R3()))
			alpha = r3.Add(alpha, r3.Scale(bd, k.partial[dx].AngularVelocity(b.Frame).R3()))
		}

		in := b.InertiaIn(k.pose)
		w := motion.AngularVelocity(b.Frame).R3()
		moment := r3.Add(apply(in, alpha), r3.Cross(w, apply(in, w)))

		var vr, wr [numIndependent]r3.Vec
		for r := 0; r < numIndependent; r++ {
			vr[r] = k.reducedVelocity(r, b.Center)
			wr[r] = k.reducedAngular(r, b.Frame)
		}

		for r := 0; r < numIndependent; r++ {
			f[r] -= b.Mass*r3.Dot(vr[r], acc) + r3.Dot(wr[r], moment)
			for c := 0; c < numIndependent; c++ {
				mass[r][c] += b.Mass*r3.Dot(vr[r], vr[c]) + r3.Dot(wr[r], apply(in, wr[c]))
			}
		}
	}

	mm := mat.NewDense(numIndependent, numIndependent, nil)
	for r := range mass {
		for c := range mass[r] {
			mm.Set(r, c, mass[r][c])
		}
	}
	var lu mat.LU
	lu.Factorize(mm)
	if cond := lu.Cond(); !(cond <= bicycle.MaxCondition) {
		return nil, fmt.Errorf("condition %g: %w", cond, ErrSingularMass)
	}
	var rates mat.VecDense
	if err := lu.SolveVecTo(&rates, false, mat.NewVecDense(numIndependent, f[:])); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingularMass)
	}
	return rates.RawVector().Data, nil
}

func apply(m [3][3]float64, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}
