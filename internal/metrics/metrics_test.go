package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/bikesim/internal/dynamo"
)

func TestConstraintResidual(t *testing.T) {
	m := NewConstraintResidual(func(x dynamo.State) (float64, error) { return x[0], nil })

	for _, v := range []float64{0.1, -0.4, 0.2} {
		m.Observe(dynamo.State{v}, nil, 0)
	}
	if got := m.Value(); got != 0.4 {
		t.Errorf("got %g, want 0.4", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestConstraintResidualError(t *testing.T) {
	m := NewConstraintResidual(func(x dynamo.State) (float64, error) {
		if x[0] > 1 {
			return 0, errors.New("out of range")
		}
		return x[0], nil
	})
	m.Observe(dynamo.State{0.5}, nil, 0)
	m.Observe(dynamo.State{2}, nil, 0)
	m.Observe(dynamo.State{0.7}, nil, 0)
	if !math.IsNaN(m.Value()) {
		t.Errorf("got %g, want NaN", m.Value())
	}
}

type oscillator struct{}

func (oscillator) Energy(x dynamo.State) (float64, error) {
	return 0.5 * (x[0]*x[0] + x[1]*x[1]), nil
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(oscillator{})
	m.Observe(dynamo.State{1, 0}, nil, 0)
	m.Observe(dynamo.State{0, 1}, nil, 1)
	if got := m.Value(); got != 0 {
		t.Errorf("conserved energy drift %g", got)
	}

	m.Observe(dynamo.State{0, 1.1}, nil, 2)
	if got, want := m.Value(), 0.21; math.Abs(got-want) > 1e-12 {
		t.Errorf("got %g, want %g", got, want)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnvelope(t *testing.T) {
	m := NewEnvelope("roll_max", 1)
	m.Observe(dynamo.State{5, 0.1}, nil, 0)
	m.Observe(dynamo.State{-7, -0.3}, nil, 1)
	if got := m.Value(); got != 0.3 {
		t.Errorf("got %g, want 0.3", got)
	}
	if m.Name() != "roll_max" {
		t.Errorf("name %q", m.Name())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(nil, dynamo.Control{3, 4}, 0)
	m.Observe(nil, dynamo.Control{0, 0}, 1)
	if got, want := m.Value(), math.Sqrt(12.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %g, want %g", got, want)
	}
}
