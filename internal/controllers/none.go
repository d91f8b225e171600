// Package controllers supplies the joint torques (T4, T6, T7) applied to the
// bicycle. Controllers with memory must not be shared between runs.
package controllers

import "github.com/san-kum/bikesim/internal/dynamo"

// None applies no torque.
type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{
		dim: dim,
	}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return make(dynamo.Control, n.dim)
}
