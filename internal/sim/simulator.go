package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Simulator drives one integrator over a sample grid. It holds the
// integrator's scratch space and stateful metrics, so one Simulator serves
// one run at a time; use Ensemble for concurrent runs.
type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *zap.SugaredLogger
}

func New(sys dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     zap.NewNop().Sugar(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		s.logger = l
	}
}

// Run integrates from x0 at cfg.Start and records the state at every grid
// time. Steps are shortened to land exactly on grid times; the control is
// held over each step. When a step fails the trajectory recorded so far is
// returned with a *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("initial state length %d, want %d: %w", len(x0), s.sys.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("initial state: %w", dynamo.ErrInvalidState)
	}

	grid := cfg.Times()
	result := &Result{
		Times:    make([]float64, 0, len(grid)),
		States:   make([]dynamo.State, 0, len(grid)),
		Controls: make([]dynamo.Control, 0, len(grid)),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	defer func() {
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	x := x0.Clone()
	t := grid[0]
	dt := cfg.Dt
	s.record(result, x, t)

	fail := func(err error) (*Result, error) {
		s.logger.Debugw("run failed", "t", t, "steps", result.StepsTaken, "error", err)
		return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err}
	}

	for _, target := range grid[1:] {
		for t < target {
			select {
			case <-ctx.Done():
				return fail(ctx.Err())
			default:
			}

			h := math.Min(dt, target-t)
			u := s.controller.Compute(x, t)

			var (
				newX  dynamo.State
				dtNew = dt
				err   error
			)
			if cfg.Adaptive {
				newX, dtNew, err = s.adaptiveStep(x, u, t, h, cfg)
				if errors.Is(err, dynamo.ErrStepRejected) {
					result.StepsRejected++
					if dtNew < cfg.MinDt {
						return fail(fmt.Errorf("dt %g: %w", dtNew, dynamo.ErrStepTooSmall))
					}
					dt = dtNew
					continue
				}
			} else {
				newX, err = s.integrator.Step(s.sys, x, u, t, h)
			}
			if err != nil {
				return fail(err)
			}
			if cfg.ValidateState && !newX.IsValid() {
				return fail(dynamo.ErrInvalidState)
			}

			x = newX
			result.StepsTaken++
			if target-(t+h) <= 1e-12*math.Max(1, math.Abs(target)) {
				t = target
			} else {
				t += h
			}
			// a step clipped to the grid says nothing about the next one
			if cfg.Adaptive && (h == dt || dtNew < dt) {
				dt = math.Min(dtNew, cfg.MaxDt)
			}
		}
		s.record(result, x, t)
	}

	s.logger.Debugw("run finished", "samples", result.Len(), "steps", result.StepsTaken, "rejected", result.StepsRejected)
	return result, nil
}

func (s *Simulator) record(r *Result, x dynamo.State, t float64) {
	u := s.controller.Compute(x, t)
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}
	r.Times = append(r.Times, t)
	r.States = append(r.States, x.Clone())
	r.Controls = append(r.Controls, u)
}

// adaptiveStep takes one error-controlled step. Integrators without their
// own error estimate are controlled by step doubling.
func (s *Simulator) adaptiveStep(x dynamo.State, u dynamo.Control, t, dt float64, cfg Config) (dynamo.State, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.sys, x, u, t, dt, cfg.Tolerance)
	}

	x1, err := s.integrator.Step(s.sys, x, u, t, dt)
	if err != nil {
		return x, dt, err
	}
	xHalf, err := s.integrator.Step(s.sys, x, u, t, dt/2)
	if err != nil {
		return x, dt, err
	}
	x2, err := s.integrator.Step(s.sys, xHalf, u, t+dt/2, dt/2)
	if err != nil {
		return x, dt, err
	}

	e := x1.Sub(x2).Norm() / (1 + x2.Norm())
	if e > cfg.Tolerance || math.IsNaN(e) {
		return x, dt / 2, dynamo.ErrStepRejected
	}
	if e < cfg.Tolerance/10 {
		dt *= 2
	}
	return x2, dt, nil
}
