// Package experiment turns a config.Config into a finished run: it derives
// the equations of motion once per set of constants, solves the initial
// conditions, simulates, and collects metrics.
package experiment

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/controllers"
	"github.com/san-kum/bikesim/internal/dynamo"
	"github.com/san-kum/bikesim/internal/eom"
	"github.com/san-kum/bikesim/internal/integrators"
	"github.com/san-kum/bikesim/internal/metrics"
	"github.com/san-kum/bikesim/internal/sim"
	"github.com/san-kum/bikesim/internal/storage"
)

// Metric names recorded for every run.
const (
	MetricResidual      = "constraint_residual"
	MetricEnergyDrift   = "energy_drift"
	MetricRollEnvelope  = "roll_envelope"
	MetricControlEffort = "control_effort"
)

// ControlChannels name the torques appended to every trajectory row.
var ControlChannels = []string{"T4", "T6", "T7"}

// Runner caches one System per set of constants. It is safe for concurrent
// use.
type Runner struct {
	mu      sync.Mutex
	systems map[bicycle.Constants]*eom.System
	logger  *zap.SugaredLogger
}

func NewRunner(logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{
		systems: make(map[bicycle.Constants]*eom.System),
		logger:  logger,
	}
}

// System returns the equations of motion for c, generating them on first use.
func (r *Runner) System(c bicycle.Constants) (*eom.System, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sys, ok := r.systems[c]; ok {
		return sys, nil
	}

	model, err := bicycle.NewModel(c)
	if err != nil {
		return nil, err
	}
	sys, err := eom.Generate(model)
	if err != nil {
		return nil, err
	}
	rep := sys.Report()
	r.logger.Debugw("generated equations of motion", "rank", rep.Rank, "condition", rep.Condition, "rate_mismatch", rep.RateMismatch)
	r.systems[c] = sys
	return sys, nil
}

// Run is one simulated configuration. Rows hold the expanded channels of
// bicycle.Channels followed by the applied torques.
type Run struct {
	Config *config.Config
	System *eom.System
	Result *sim.Result
	Rows   [][]float64
	Err    error
}

// simulator builds a fresh simulator with its own integrator, controller and
// metrics around the shared system.
func (r *Runner) simulator(cfg *config.Config, sys *eom.System) (*sim.Simulator, error) {
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := controllers.New(cfg.Controller, bicycle.ControlDim)
	if err != nil {
		return nil, err
	}

	s := sim.New(sys, integ, ctrl)
	s.SetLogger(r.logger.Named("sim").With("run", cfg.Name))
	s.AddMetric(metrics.NewConstraintResidual(sys.Residual))
	s.AddMetric(metrics.NewEnergyDrift(sys))
	s.AddMetric(metrics.NewEnvelope(MetricRollEnvelope, bicycle.XQ4))
	s.AddMetric(metrics.NewControlEffort())
	return s, nil
}

// Run simulates cfg. A run that fails part way returns the partial Run
// together with the error.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := r.System(cfg.Constants)
	if err != nil {
		return nil, err
	}
	x0, err := sys.Model().SolveInitial(cfg.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial conditions: %w", err)
	}
	s, err := r.simulator(cfg, sys)
	if err != nil {
		return nil, err
	}

	r.logger.Infow("running", "name", cfg.Name, "speed", cfg.Initial.Speed, "integrator", cfg.Integrator, "controller", cfg.Controller.Type)
	res, simErr := s.Run(ctx, x0, cfg.Sim)
	return r.finish(cfg, sys, res, simErr)
}

func (r *Runner) finish(cfg *config.Config, sys *eom.System, res *sim.Result, simErr error) (*Run, error) {
	if res == nil {
		return nil, simErr
	}
	run := &Run{Config: cfg, System: sys, Result: res, Err: simErr}

	rows, err := expand(sys, res)
	if err != nil {
		return nil, err
	}
	run.Rows = rows

	if simErr != nil {
		r.logger.Warnw("run ended early", "name", cfg.Name, "samples", res.Len(), "error", simErr)
	} else {
		r.logger.Infow("run finished", "name", cfg.Name, "samples", res.Len(), "steps", res.StepsTaken, "rejected", res.StepsRejected, "residual", res.Metrics[MetricResidual])
	}
	return run, simErr
}

func expand(sys *eom.System, res *sim.Result) ([][]float64, error) {
	rows := make([][]float64, res.Len())
	for i, x := range res.States {
		row, err := sys.Expand(x)
		if err != nil {
			return nil, fmt.Errorf("sample %d (t=%g): %w", i, res.Times[i], err)
		}
		u := make(dynamo.Control, bicycle.ControlDim)
		if i < len(res.Controls) {
			copy(u, res.Controls[i])
		}
		rows[i] = append(row, u...)
	}
	return rows, nil
}

// Trajectory is the run as named channels.
func (run *Run) Trajectory() *storage.Trajectory {
	channels := append(append([]string(nil), bicycle.Channels[:]...), ControlChannels...)
	return &storage.Trajectory{
		Channels: channels,
		Times:    run.Result.Times,
		Rows:     run.Rows,
	}
}

// Metadata describes the run for storage.
func (run *Run) Metadata() *storage.RunMetadata {
	cfg := run.Config
	meta := &storage.RunMetadata{
		Name:          cfg.Name,
		Integrator:    cfg.Integrator,
		Controller:    cfg.Controller.Type,
		Start:         cfg.Sim.Start,
		End:           cfg.Sim.End,
		Samples:       cfg.Sim.Samples,
		Constants:     cfg.Constants.Map(),
		Initial:       cfg.Initial.Map(),
		Metrics:       make(map[string]float64, len(run.Result.Metrics)),
		StepsTaken:    run.Result.StepsTaken,
		StepsRejected: run.Result.StepsRejected,
	}
	// JSON has no NaN; a metric that could not be evaluated is left out
	for k, v := range run.Result.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}
	if run.Err != nil {
		meta.Error = run.Err.Error()
	}
	return meta
}
