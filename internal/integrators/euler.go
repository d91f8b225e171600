package integrators

import "github.com/san-kum/bikesim/internal/dynamo"

// Euler is the explicit first-order method. It is kept as a reference for
// convergence checks; it is far too inaccurate for the bicycle itself.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) (dynamo.State, error) {
	dx, err := sys.Derive(x, u, t)
	if err != nil {
		return nil, err
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result, nil
}
