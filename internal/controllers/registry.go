package controllers

import (
	"fmt"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Spec selects and parameterizes a controller.
type Spec struct {
	Type string `yaml:"type" json:"type"`

	// pid
	Kp        float64 `yaml:"kp,omitempty" json:"kp,omitempty"`
	Ki        float64 `yaml:"ki,omitempty" json:"ki,omitempty"`
	Kd        float64 `yaml:"kd,omitempty" json:"kd,omitempty"`
	Target    float64 `yaml:"target,omitempty" json:"target,omitempty"`
	Index     int     `yaml:"index,omitempty" json:"index,omitempty"`
	RateIndex *int    `yaml:"rate_index,omitempty" json:"rate_index,omitempty"`
	Output    int     `yaml:"output,omitempty" json:"output,omitempty"`

	// linear
	Gain [][]float64 `yaml:"gain,omitempty" json:"gain,omitempty"`

	// pulse
	Torque []float64 `yaml:"torque,omitempty" json:"torque,omitempty"`
	On     float64   `yaml:"on,omitempty" json:"on,omitempty"`
	Off    float64   `yaml:"off,omitempty" json:"off,omitempty"`
}

// Types lists the controller types New accepts.
func Types() []string {
	return []string{"none", "pid", "linear", "pulse"}
}

// New builds a fresh controller producing dim control channels.
func New(spec Spec, dim int) (dynamo.Controller, error) {
	switch spec.Type {
	case "", "none":
		return NewNone(dim), nil
	case "pid":
		if spec.Output < 0 || spec.Output >= dim {
			return nil, fmt.Errorf("pid output %d outside %d channels", spec.Output, dim)
		}
		p := NewPID(spec.Kp, spec.Ki, spec.Kd, spec.Target)
		p.Index, p.Output, p.Dim = spec.Index, spec.Output, dim
		if spec.RateIndex != nil {
			p.RateIndex = *spec.RateIndex
		}
		return p, nil
	case "linear":
		if len(spec.Gain) != dim {
			return nil, fmt.Errorf("linear gain has %d rows, want %d", len(spec.Gain), dim)
		}
		return NewLinear(spec.Gain, nil)
	case "pulse":
		if len(spec.Torque) != dim {
			return nil, fmt.Errorf("pulse torque has %d channels, want %d", len(spec.Torque), dim)
		}
		return NewPulse(spec.Torque, spec.On, spec.Off), nil
	}
	return nil, fmt.Errorf("unknown controller %q (have %v)", spec.Type, Types())
}
