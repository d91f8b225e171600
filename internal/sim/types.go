package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Config describes an integration request: a uniform grid of Samples times
// from Start to End, both included, and the step control used between them.
type Config struct {
	Start   float64 `yaml:"start" json:"start"`
	End     float64 `yaml:"end" json:"end"`
	Samples int     `yaml:"samples" json:"samples"`

	// Dt is the initial step when Adaptive, the fixed step otherwise.
	Dt        float64 `yaml:"dt" json:"dt"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	MinDt     float64 `yaml:"min_dt" json:"min_dt"`
	MaxDt     float64 `yaml:"max_dt" json:"max_dt"`
	Adaptive  bool    `yaml:"adaptive" json:"adaptive"`

	ValidateState bool `yaml:"validate_state" json:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		Start:         0,
		End:           5,
		Samples:       300,
		Dt:            1e-3,
		Tolerance:     1e-9,
		MinDt:         1e-12,
		MaxDt:         0.05,
		Adaptive:      true,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Start) || math.IsNaN(c.End) || c.End <= c.Start {
		return fmt.Errorf("end %g must be after start %g: %w", c.End, c.Start, dynamo.ErrParameterBounds)
	}
	if c.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d: %w", c.Samples, dynamo.ErrParameterBounds)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Adaptive {
		if c.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping: %w", dynamo.ErrParameterBounds)
		}
		if c.MinDt <= 0 || c.MaxDt < c.MinDt {
			return fmt.Errorf("step bounds [%g, %g] invalid: %w", c.MinDt, c.MaxDt, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// Times returns the sample grid.
func (c Config) Times() []float64 {
	return floats.Span(make([]float64, c.Samples), c.Start, c.End)
}

// Result is a sampled trajectory. States[i] is the state at Times[i] and
// Controls[i] the input applied from there on.
type Result struct {
	Times         []float64
	States        []dynamo.State
	Controls      []dynamo.Control
	Metrics       map[string]float64
	StepsTaken    int
	StepsRejected int
}

// Len is the number of recorded samples.
func (r *Result) Len() int { return len(r.Times) }

// Channel returns column i of the states.
func (r *Result) Channel(i int) []float64 {
	col := make([]float64, len(r.States))
	for k, x := range r.States {
		col[k] = x[i]
	}
	return col
}
