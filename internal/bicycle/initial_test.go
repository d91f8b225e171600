package bicycle

import (
	"errors"
	"math"
	"testing"
)

func TestPitchResidual(t *testing.T) {
	m := newBenchmarkModel(t)

	tests := []struct {
		roll, steer float64
	}{
		{0, 1e-8},
		{0.1, 0.2},
		{-0.2, 0.5},
		{0.05, -0.3},
		{0.3, 0},
	}

	for _, tt := range tests {
		res, err := m.Pitch(tt.roll, tt.steer)
		if err != nil {
			t.Errorf("roll %g steer %g: %v", tt.roll, tt.steer, err)
			continue
		}
		h, _ := m.HolonomicAt(tt.roll, res.Root, tt.steer)
		if math.Abs(h) > 1e-10 {
			t.Errorf("roll %g steer %g: residual %g", tt.roll, tt.steer, h)
		}
	}
}

func TestSolveInitialBenchmark(t *testing.T) {
	m := newBenchmarkModel(t)
	x, err := m.SolveInitial(InitialConditions{Speed: 4.6, RollRate: 0.5, Steer: 1e-8})
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != StateDim {
		t.Fatalf("state length %d, want %d", len(x), StateDim)
	}
	if math.Abs(x[XQ5]-uprightPitch) > 1e-8 {
		t.Errorf("pitch %g, want %g", x[XQ5], uprightPitch)
	}
	if want := -4.6 / Benchmark().Rr; x[XU6] != want {
		t.Errorf("rear wheel rate %g, want %g", x[XU6], want)
	}
	if x[XU4] != 0.5 || x[XQ7] != 1e-8 {
		t.Errorf("free values not carried: %v", x)
	}
}

func TestSolveInitialDegenerate(t *testing.T) {
	m := newBenchmarkModel(t)
	if _, err := m.SolveInitial(InitialConditions{}); !errors.Is(err, ErrDegenerateConfiguration) {
		t.Errorf("got %v, want ErrDegenerateConfiguration", err)
	}
	// a tiny steer angle is enough
	if _, err := m.SolveInitial(InitialConditions{Steer: 1e-8}); err != nil {
		t.Errorf("got %v", err)
	}
}

func TestWheelRatesLinear(t *testing.T) {
	c := Benchmark()
	for _, v := range []float64{0.5, 4.1, 4.6, 6} {
		rear, front := WheelRates(c, v)
		if rear != -v/c.Rr || front != -v/c.Rf {
			t.Errorf("speed %g: got (%g, %g)", v, rear, front)
		}
		rear2, front2 := WheelRates(c, 2*v)
		if rear2 != 2*rear || front2 != 2*front {
			t.Errorf("speed %g: doubling gave (%g, %g)", v, rear2, front2)
		}
	}
}

func TestInitialConditionsFromMap(t *testing.T) {
	ic, err := InitialConditionsFromMap(map[string]float64{"u1": 4.6, "u4": 0.5, "q7": 1e-8})
	if err != nil {
		t.Fatal(err)
	}
	if ic.Speed != 4.6 || ic.RollRate != 0.5 || ic.Steer != 1e-8 || ic.Roll != 0 {
		t.Errorf("got %+v", ic)
	}

	back, err := InitialConditionsFromMap(ic.Map())
	if err != nil || back != ic {
		t.Errorf("map round trip: %+v, %v", back, err)
	}

	if _, err := InitialConditionsFromMap(map[string]float64{"q5": 0.3}); err == nil {
		t.Error("pitch is derived and must be rejected")
	}
}
