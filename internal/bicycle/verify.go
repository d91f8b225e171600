package bicycle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dual"
)

// Tolerances used by Verify.
const (
	// MaxCondition bounds the condition number of the dependent constraint
	// block before it is treated as singular.
	MaxCondition = 1e12
	rankTol      = 1e-10
	rateTol      = 1e-10
)

// Report summarizes the constraint checks at one configuration.
type Report struct {
	SingularValues []float64
	Rank           int
	// Condition is the condition number of the dependent block.
	Condition float64
	// RateMismatch is the largest difference between the vertical front
	// contact constraint row and the gradient of the holonomic constraint.
	RateMismatch float64
}

// Verify checks that the nonholonomic constraints at q can be solved for the
// dependent speeds, and that the vertical front contact constraint is the
// time derivative of the holonomic constraint. The second check makes the
// holonomic constraint hold to integration accuracy without a separate
// position-level correction.
func (m *Model) Verify(q []float64) (Report, error) {
	var r Report

	b, err := m.ConstraintJacobian(q)
	if err != nil {
		return r, err
	}

	var svd mat.SVD
	if !svd.Factorize(b, mat.SVDNone) {
		return r, fmt.Errorf("verify: svd failed: %w", ErrConstraintRank)
	}
	r.SingularValues = svd.Values(nil)
	for _, s := range r.SingularValues {
		if s > rankTol*r.SingularValues[0] {
			r.Rank++
		}
	}
	if r.Rank != NumNonholonomic {
		return r, fmt.Errorf("verify: rank %d, want %d: %w", r.Rank, NumNonholonomic, ErrConstraintRank)
	}

	dep, _ := Partition(b)
	var lu mat.LU
	lu.Factorize(dep)
	r.Condition = lu.Cond()
	if r.Condition > MaxCondition || math.IsNaN(r.Condition) {
		return r, fmt.Errorf("verify: dependent block condition %g: %w", r.Condition, ErrConstraintRank)
	}

	// the holonomic constraint rate along q' = e_k must equal column k of
	// the last constraint row
	for k := 0; k < NumCoords; k++ {
		rates := make([]float64, NumCoords)
		rates[k] = 1
		p, err := m.Pose(Duals(q, rates))
		if err != nil {
			return r, err
		}
		d := math.Abs(m.Holonomic(p).Emag - b.At(NumNonholonomic-1, k))
		r.RateMismatch = math.Max(r.RateMismatch, d)
	}
	if r.RateMismatch > rateTol {
		return r, fmt.Errorf("verify: mismatch %g: %w", r.RateMismatch, ErrConstraintMismatch)
	}

	return r, nil
}

// holonomicIn returns the holonomic constraint as a function of pitch alone.
func (m *Model) holonomicIn(roll, steer float64) func(dual.Number) dual.Number {
	return func(pitch dual.Number) dual.Number {
		q := make([]dual.Number, NumCoords)
		q[Q4].Real = roll
		q[Q7].Real = steer
		q[Q5] = pitch
		p, err := m.Pose(q)
		if err != nil {
			return dual.Number{Real: math.NaN()}
		}
		return m.Holonomic(p)
	}
}
