package controllers

import "github.com/san-kum/bikesim/internal/dynamo"

// Pulse applies constant torques on [On, Off) and nothing otherwise, the
// usual way to perturb a bicycle in simulation.
type Pulse struct {
	Torque dynamo.Control
	On     float64
	Off    float64
}

func NewPulse(torque dynamo.Control, on, off float64) *Pulse {
	return &Pulse{Torque: torque, On: on, Off: off}
}

func (p *Pulse) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(p.Torque))
	if t >= p.On && t < p.Off {
		copy(u, p.Torque)
	}
	return u
}
