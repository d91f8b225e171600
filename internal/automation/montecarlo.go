package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/bikesim/internal/analysis"
	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/experiment"
)

// MonteCarloConfig perturbs the initial roll rate and steer angle of Base by
// uniform noise of the given half widths.
type MonteCarloConfig struct {
	Base           *config.Config
	RollRateSpread float64
	SteerSpread    float64
	Trials         int
	Seed           uint64
	Workers        int
}

// MonteCarloResult is one trial. GrowthRate is NaN when it could not be
// estimated.
type MonteCarloResult struct {
	Trial      int
	Initial    bicycle.InitialConditions
	GrowthRate float64
	MaxRoll    float64
	Stable     bool
	Err        error
}

// RunMonteCarlo runs the trials concurrently. Perturbations are drawn up front,
// so a seed reproduces the same trials for any worker count. A trial that
// fails is recorded as unstable; only cancellation aborts the batch.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, runner *experiment.Runner) ([]MonteCarloResult, error) {
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("monte carlo: trials must be positive, got %d", cfg.Trials)
	}
	if cfg.RollRateSpread < 0 || cfg.SteerSpread < 0 {
		return nil, fmt.Errorf("monte carlo: spreads must be non-negative")
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	rollRate := distuv.Uniform{Min: -cfg.RollRateSpread, Max: cfg.RollRateSpread, Src: src}
	steer := distuv.Uniform{Min: -cfg.SteerSpread, Max: cfg.SteerSpread, Src: src}

	results := make([]MonteCarloResult, cfg.Trials)
	for i := range results {
		ic := cfg.Base.Initial
		ic.RollRate += rollRate.Rand()
		ic.Steer += steer.Rand()
		results[i] = MonteCarloResult{Trial: i, Initial: ic, GrowthRate: math.NaN(), MaxRoll: math.NaN()}
	}

	eg, ctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	eg.SetLimit(workers)
	for i := range results {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trial := *cfg.Base
			trial.Name = fmt.Sprintf("%s#%d", cfg.Base.Name, i)
			trial.Initial = results[i].Initial

			run, err := runner.Run(ctx, &trial)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			results[i].Err = err
			if run == nil || err != nil {
				return nil
			}

			roll := run.Result.Channel(bicycle.XQ4)
			results[i].MaxRoll = run.Result.Metrics[experiment.MetricRollEnvelope]
			if g, gerr := analysis.GrowthRate(run.Result.Times, roll); gerr == nil {
				results[i].GrowthRate = g
				results[i].Stable = g < 0
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
