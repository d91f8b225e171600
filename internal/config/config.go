// Package config loads and saves run configurations as YAML.
package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/controllers"
	"github.com/san-kum/bikesim/internal/integrators"
	"github.com/san-kum/bikesim/internal/sim"
)

const (
	DefaultIntegrator = "rk45"
	DefaultSpeed      = 4.6
	DefaultRollRate   = 0.5
	DefaultSteer      = 1e-8
)

// Config is everything needed to reproduce one run.
type Config struct {
	Name       string                    `yaml:"name"`
	Integrator string                    `yaml:"integrator"`
	Controller controllers.Spec          `yaml:"controller"`
	Constants  bicycle.Constants         `yaml:"constants"`
	Initial    bicycle.InitialConditions `yaml:"initial"`
	Sim        sim.Config                `yaml:"sim"`
}

// DefaultConfig is the benchmark bicycle at 4.6 m/s, perturbed in roll rate.
func DefaultConfig() *Config {
	return &Config{
		Name:       "default",
		Integrator: DefaultIntegrator,
		Controller: controllers.Spec{Type: "none"},
		Constants:  bicycle.Benchmark(),
		Initial: bicycle.InitialConditions{
			Steer:    DefaultSteer,
			Speed:    DefaultSpeed,
			RollRate: DefaultRollRate,
		},
		Sim: sim.DefaultConfig(),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if _, ierr := integrators.New(c.Integrator); ierr != nil {
		err = multierr.Append(err, ierr)
	}
	if _, cerr := controllers.New(c.Controller, bicycle.ControlDim); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	err = multierr.Append(err, c.Constants.Validate())
	err = multierr.Append(err, c.Sim.Validate())
	return err
}

// Load reads path over the defaults, so a file only names what it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing config %s", path)
}
