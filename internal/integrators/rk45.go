package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince 5(4) embedded pair. The error of each step is
// measured against an absolute and relative tolerance both equal to tol.
// An RK45 keeps scratch buffers and must not be shared between goroutines.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k       [7]dynamo.State
	scratch dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.scratch) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
	}
}

// Step takes one fifth-order step of size dt without error control.
func (r *RK45) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	xNew, _, err := r.step(sys, x, u, t, dt, false)
	return xNew, err
}

func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	if tol <= 0 {
		return x, dt, fmt.Errorf("rk45: tolerance %g: %w", tol, dynamo.ErrParameterBounds)
	}

	xNew, errMax, err := r.step(sys, x, u, t, dt, true)
	if err != nil {
		return x, dt, err
	}

	errRatio := errMax / tol
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		return x, dt * scale, dynamo.ErrStepRejected
	}

	dtNew := dt * r.maxScale
	if errRatio > 0 {
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	}
	return xNew, dtNew, nil
}

// step returns the fifth-order solution and, when estimate is set, the
// largest component of the embedded error estimate scaled by 1+|x|.
func (r *RK45) step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64, estimate bool) (dynamo.State, float64, error) {
	n := len(x)
	r.ensureScratch(n)
	k := &r.k

	stages := []struct {
		c float64
		b []float64
	}{
		{0, nil},
		{a2, []float64{b21}},
		{a3, []float64{b31, b32}},
		{a4, []float64{b41, b42, b43}},
		{a5, []float64{b51, b52, b53, b54}},
		{1, []float64{b61, b62, b63, b64, b65}},
	}

	for s, st := range stages {
		xs := x
		if s > 0 {
			for i := 0; i < n; i++ {
				acc := 0.0
				for j, b := range st.b {
					acc += b * k[j][i]
				}
				r.scratch[i] = x[i] + dt*acc
			}
			xs = r.scratch
		}
		d, err := sys.Derive(xs, u, t+st.c*dt)
		if err != nil {
			return nil, 0, err
		}
		copy(k[s], d)
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k[0][i]+c3*k[2][i]+c4*k[3][i]+c5*k[4][i]+c6*k[5][i])
	}
	if !estimate {
		return xNew, 0, nil
	}

	d, err := sys.Derive(xNew, u, t+dt)
	if err != nil {
		return nil, 0, err
	}
	copy(k[6], d)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k[6][i])
		scale := 1 + math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	if math.IsNaN(errMax) {
		errMax = math.Inf(1)
	}

	return xNew, errMax, nil
}
