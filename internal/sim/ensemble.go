package sim

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Scenario is one run of an ensemble.
type Scenario struct {
	Name string
	X0   dynamo.State
}

// Outcome is the result of one scenario. Result may be partial when Err is
// set.
type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// Ensemble runs scenarios concurrently. newSim is called once per scenario
// and must return a Simulator with its own integrator and metrics; the
// System inside may be shared.
type Ensemble struct {
	newSim  func() (*Simulator, error)
	workers int
}

func NewEnsemble(newSim func() (*Simulator, error), workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{newSim: newSim, workers: workers}
}

// Run returns one outcome per scenario, in order. A failing scenario does not
// stop the others; all failures are combined into the returned error.
func (e *Ensemble) Run(ctx context.Context, scenarios []Scenario, cfg Config) ([]Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(scenarios))
	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, sc := range scenarios {
		g.Go(func() error {
			outcomes[i].Name = sc.Name
			s, err := e.newSim()
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result, outcomes[i].Err = s.Run(ctx, sc.X0, cfg)
			return nil
		})
	}
	_ = g.Wait()

	var err error
	for _, o := range outcomes {
		if o.Err != nil {
			err = multierr.Append(err, fmt.Errorf("scenario %q: %w", o.Name, o.Err))
		}
	}
	return outcomes, err
}
