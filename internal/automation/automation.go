// Package automation scripts sequences of runs from YAML and runs Monte Carlo
// trials over perturbed initial conditions.
package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/controllers"
	"github.com/san-kum/bikesim/internal/experiment"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a scenario. Unset fields keep the value of the preset,
// or of the default config when no preset is named.
type Step struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Controller *controllers.Spec  `yaml:"controller"`
	Duration   float64            `yaml:"duration"`
	Samples    int                `yaml:"samples"`
	Initial    map[string]float64 `yaml:"initial"`
	Save       bool               `yaml:"save"`
}

// LoadScenario reads a scenario and checks every step builds a valid config.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	for i, step := range sc.Steps {
		if _, err := step.Config(); err != nil {
			return nil, errors.Wrapf(err, "scenario %s step %d", path, i+1)
		}
	}
	return &sc, nil
}

// Config resolves the step into a validated run config.
func (s Step) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.Preset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Name != "" {
		cfg.Name = s.Name
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Controller != nil {
		cfg.Controller = *s.Controller
	}
	if s.Duration > 0 {
		cfg.Sim.End = cfg.Sim.Start + s.Duration
	}
	if s.Samples > 0 {
		cfg.Sim.Samples = s.Samples
	}
	if len(s.Initial) > 0 {
		values := cfg.Initial.Map()
		for k, v := range s.Initial {
			values[k] = v
		}
		ic, err := bicycle.InitialConditionsFromMap(values)
		if err != nil {
			return nil, err
		}
		cfg.Initial = ic
	}
	return cfg, cfg.Validate()
}

// StepResult pairs a step with its run.
type StepResult struct {
	Step Step
	Run  *experiment.Run
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the steps completed so far. A partial run of the failing step is
// included.
func RunScenario(ctx context.Context, sc *Scenario, runner *experiment.Runner, logger *zap.SugaredLogger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Infow("scenario step", "scenario", sc.Name, "step", i+1, "of", len(sc.Steps), "run", cfg.Name)

		run, err := runner.Run(ctx, cfg)
		if run != nil {
			results = append(results, StepResult{Step: step, Run: run})
		}
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, cfg.Name, err)
		}
	}
	return results, nil
}
