package controllers

import "github.com/san-kum/bikesim/internal/dynamo"

// PID drives one state component toward Target through one control channel.
// With RateIndex set, the derivative term uses that state component instead
// of a finite difference; for a roll controller that is the roll rate.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	Index     int
	RateIndex int
	Output    int
	Dim       int

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:        kp,
		Ki:        ki,
		Kd:        kd,
		Target:    target,
		RateIndex: -1,
		Dim:       1,
		first:     true,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, p.Dim)
	if p.Index >= len(x) || p.Output >= p.Dim {
		return u
	}

	err := p.Target - x[p.Index]
	derivative := 0.0
	if p.RateIndex >= 0 && p.RateIndex < len(x) {
		derivative = -x[p.RateIndex]
	}

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		u[p.Output] = p.Kp*err + p.Kd*derivative
		return u
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		if p.RateIndex < 0 {
			derivative = (err - p.prevErr) / dt
		}
		p.prevErr = err
		p.prevT = t
	} else if p.RateIndex < 0 {
		derivative = 0
	}

	u[p.Output] = p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	return u
}

func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}
