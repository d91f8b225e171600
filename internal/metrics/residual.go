// Package metrics holds read-only observers of a sampled trajectory. None of
// them can stop or alter a run; thresholds are left to the caller.
package metrics

import (
	"math"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// ResidualFunc evaluates a constraint at a state.
type ResidualFunc func(x dynamo.State) (float64, error)

// ConstraintResidual tracks the largest absolute constraint residual. A
// sample that cannot be evaluated counts as NaN, which sticks.
type ConstraintResidual struct {
	name     string
	residual ResidualFunc
	max      float64
	samples  int
}

func NewConstraintResidual(fn ResidualFunc) *ConstraintResidual {
	return &ConstraintResidual{
		name:     "constraint_residual",
		residual: fn,
	}
}

func (c *ConstraintResidual) Name() string { return c.name }

func (c *ConstraintResidual) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.samples++
	r, err := c.residual(x)
	if err != nil || math.IsNaN(r) {
		c.max = math.NaN()
		return
	}
	if !math.IsNaN(c.max) {
		c.max = math.Max(c.max, math.Abs(r))
	}
}

func (c *ConstraintResidual) Value() float64 { return c.max }

func (c *ConstraintResidual) Reset() {
	c.max = 0
	c.samples = 0
}
