package experiment

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/san-kum/bikesim/internal/analysis"
	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/sim"
)

// SweepPoint summarizes the run at one forward speed. GrowthRate and
// WeaveFrequency describe the roll angle and are NaN when the run is too
// short or too quiet to estimate them.
type SweepPoint struct {
	Speed          float64
	Run            *Run
	GrowthRate     float64
	WeaveFrequency float64
	Err            error
}

// Stable reports a decaying roll oscillation.
func (p SweepPoint) Stable() bool {
	return p.Err == nil && p.GrowthRate < 0
}

// Sweep runs base at each forward speed concurrently, sharing one System.
// Failed speeds are reported in their point and combined into the error; the
// other points are still filled in.
func (r *Runner) Sweep(ctx context.Context, base *config.Config, speeds []float64, workers int) ([]SweepPoint, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	sys, err := r.System(base.Constants)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(speeds))
	configs := make([]*config.Config, len(speeds))
	var (
		scenarios []sim.Scenario
		index     []int
	)
	for i, v := range speeds {
		points[i] = SweepPoint{Speed: v, GrowthRate: math.NaN(), WeaveFrequency: math.NaN()}

		cfg := *base
		cfg.Name = fmt.Sprintf("%s@%g", base.Name, v)
		cfg.Initial.Speed = v
		configs[i] = &cfg

		x0, err := sys.Model().SolveInitial(cfg.Initial)
		if err != nil {
			points[i].Err = fmt.Errorf("initial conditions: %w", err)
			continue
		}
		scenarios = append(scenarios, sim.Scenario{Name: cfg.Name, X0: x0})
		index = append(index, i)
	}

	ens := sim.NewEnsemble(func() (*sim.Simulator, error) { return r.simulator(base, sys) }, workers)
	r.logger.Infow("sweeping", "name", base.Name, "speeds", len(speeds), "workers", workers)
	outcomes, _ := ens.Run(ctx, scenarios, base.Sim)

	for k, o := range outcomes {
		i := index[k]
		run, err := r.finish(configs[i], sys, o.Result, o.Err)
		points[i].Run, points[i].Err = run, err
		if run == nil || err != nil {
			continue
		}

		times, roll := run.Result.Times, run.Result.Channel(bicycle.XQ4)
		if g, err := analysis.GrowthRate(times, roll); err == nil {
			points[i].GrowthRate = g
		}
		if len(times) > 1 {
			if f, err := analysis.DominantFrequency(roll, times[1]-times[0]); err == nil {
				points[i].WeaveFrequency = f
			}
		}
	}

	var errs error
	for _, p := range points {
		if p.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("speed %g: %w", p.Speed, p.Err))
		}
	}
	return points, errs
}
