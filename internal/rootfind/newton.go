// Package rootfind solves scalar equations with Newton's method. The
// derivative is taken by forward-mode differentiation of the residual, so
// callers write the residual once over dual numbers.
package rootfind

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/dual"
)

var ErrZeroDerivative = errors.New("rootfind: derivative vanished")

// Func evaluates a residual. The dual part of the result must be the
// derivative with respect to x along the dual part of x.
type Func func(x dual.Number) dual.Number

type Options struct {
	// Tolerance on |f(x)|.
	Tolerance float64
	// StepTolerance stops the iteration once a step is smaller than this
	// relative to 1+|x|, provided the residual is within 100*Tolerance.
	StepTolerance float64
	MaxIterations int
}

func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-12,
		StepTolerance: 1e-15,
		MaxIterations: 50,
	}
}

type Result struct {
	Root       float64
	Residual   float64
	Iterations int
}

// NonConvergenceError carries the last iterate when Newton gives up. Err is
// the cause when the iteration could not continue, such as
// ErrZeroDerivative.
type NonConvergenceError struct {
	Iterations int
	Last       float64
	Residual   float64
	Err        error
}

func (e *NonConvergenceError) Error() string {
	msg := fmt.Sprintf("rootfind: no convergence after %d iterations (x=%g, |f|=%g)", e.Iterations, e.Last, e.Residual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NonConvergenceError) Unwrap() error { return e.Err }

// Newton finds a root of f starting from x0.
func Newton(f Func, x0 float64, opts Options) (Result, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultOptions().Tolerance
	}

	x := x0
	var r dual.Number
	for i := 0; i < opts.MaxIterations; i++ {
		r = f(dual.Number{Real: x, Emag: 1})
		res := math.Abs(r.Real)
		if math.IsNaN(r.Real) || math.IsNaN(r.Emag) {
			return Result{}, &NonConvergenceError{Iterations: i, Last: x, Residual: res}
		}
		if res <= opts.Tolerance {
			return Result{Root: x, Residual: res, Iterations: i}, nil
		}
		if r.Emag == 0 {
			return Result{}, &NonConvergenceError{Iterations: i, Last: x, Residual: res, Err: ErrZeroDerivative}
		}

		step := r.Real / r.Emag
		x -= step
		if math.Abs(step) <= opts.StepTolerance*(1+math.Abs(x)) {
			res = math.Abs(f(dual.Number{Real: x}).Real)
			if res <= 100*opts.Tolerance {
				return Result{Root: x, Residual: res, Iterations: i + 1}, nil
			}
		}
	}

	res := math.Abs(f(dual.Number{Real: x}).Real)
	return Result{}, &NonConvergenceError{Iterations: opts.MaxIterations, Last: x, Residual: res}
}
