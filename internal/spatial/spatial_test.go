package spatial

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/dual"
)

func TestCrossBasis(t *testing.T) {
	tests := []struct {
		a, b, want Axis
	}{
		{X, Y, Z},
		{Y, Z, X},
		{Z, X, Y},
	}

	for _, tt := range tests {
		got := tt.a.Unit().Cross(tt.b.Unit()).Values()
		want := tt.want.Unit().Values()
		if got != want {
			t.Errorf("%s x %s = %v, want %v", tt.a, tt.b, got, want)
		}
	}
}

func TestRotationColumns(t *testing.T) {
	q := 0.3
	r := Rotation(Z, dual.Number{Real: q})

	x := r.Col(0).Values()
	if math.Abs(x[0]-math.Cos(q)) > 1e-15 || math.Abs(x[1]-math.Sin(q)) > 1e-15 || x[2] != 0 {
		t.Errorf("rotated x axis = %v", x)
	}

	// rotation about y tips x toward -z
	ry := Rotation(Y, dual.Number{Real: q}).Col(0).Values()
	if ry[2] >= 0 {
		t.Errorf("expected negative z component, got %v", ry)
	}
}

func TestRotationOrthonormal(t *testing.T) {
	for _, a := range []Axis{X, Y, Z} {
		r := Rotation(a, dual.Number{Real: 1.1})
		p := r.Mul(r.T())
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				if math.Abs(p[i][j].Real-want) > 1e-14 {
					t.Errorf("axis %s: (R R^T)[%d][%d] = %g", a, i, j, p[i][j].Real)
				}
			}
		}
	}
}

func TestRotationDerivative(t *testing.T) {
	q, qdot := 0.7, 2.5
	r := Rotation(X, dual.Number{Real: q, Emag: qdot})

	// d/dt of the rotated y axis is qdot times the rotated z axis
	got := r.Col(1).Rates()
	want := r.Col(2).Scale(qdot).Values()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-14 {
			t.Errorf("component %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestUnit(t *testing.T) {
	v := Real(3, 0, 4).Unit()
	if n := v.Norm().Real; math.Abs(n-1) > 1e-15 {
		t.Errorf("norm = %g", n)
	}

	if zero := (Vec{}).Unit(); zero.IsFinite() {
		t.Errorf("zero vector normalized to %v, want NaN", zero.Values())
	}
}

func TestIsFinite(t *testing.T) {
	if !Real(1, 2, 3).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if Real(math.NaN(), 0, 0).IsFinite() {
		t.Error("NaN vector reported finite")
	}
}
