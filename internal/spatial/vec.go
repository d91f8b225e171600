package spatial

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/spatial/r3"
)

type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return "invalid"
}

func (a Axis) Valid() bool { return a >= X && a <= Z }

// Unit returns the basis vector along a.
func (a Axis) Unit() Vec {
	var v Vec
	switch a {
	case X:
		v.X.Real = 1
	case Y:
		v.Y.Real = 1
	case Z:
		v.Z.Real = 1
	}
	return v
}

// Vec is a 3-vector of dual numbers.
type Vec struct {
	X, Y, Z dual.Number
}

// Real builds a constant vector.
func Real(x, y, z float64) Vec {
	return Vec{X: dual.Number{Real: x}, Y: dual.Number{Real: y}, Z: dual.Number{Real: z}}
}

func (v Vec) Add(w Vec) Vec {
	return Vec{X: dual.Add(v.X, w.X), Y: dual.Add(v.Y, w.Y), Z: dual.Add(v.Z, w.Z)}
}

func (v Vec) Sub(w Vec) Vec {
	return Vec{X: dual.Sub(v.X, w.X), Y: dual.Sub(v.Y, w.Y), Z: dual.Sub(v.Z, w.Z)}
}

// Mul scales v by a dual scalar.
func (v Vec) Mul(s dual.Number) Vec {
	return Vec{X: dual.Mul(s, v.X), Y: dual.Mul(s, v.Y), Z: dual.Mul(s, v.Z)}
}

// Scale scales v by a real scalar.
func (v Vec) Scale(f float64) Vec {
	return Vec{X: dual.Scale(f, v.X), Y: dual.Scale(f, v.Y), Z: dual.Scale(f, v.Z)}
}

func (v Vec) Dot(w Vec) dual.Number {
	return dual.Add(dual.Add(dual.Mul(v.X, w.X), dual.Mul(v.Y, w.Y)), dual.Mul(v.Z, w.Z))
}

func (v Vec) Cross(w Vec) Vec {
	return Vec{
		X: dual.Sub(dual.Mul(v.Y, w.Z), dual.Mul(v.Z, w.Y)),
		Y: dual.Sub(dual.Mul(v.Z, w.X), dual.Mul(v.X, w.Z)),
		Z: dual.Sub(dual.Mul(v.X, w.Y), dual.Mul(v.Y, w.X)),
	}
}

func (v Vec) Norm() dual.Number {
	return dual.Sqrt(v.Dot(v))
}

// Unit returns v normalized. The zero vector has no direction and gives
// NaN components, so the failure reaches IsFinite checks downstream.
func (v Vec) Unit() Vec {
	n := v.Norm()
	if n.Real == 0 {
		nan := dual.Number{Real: math.NaN(), Emag: math.NaN()}
		return Vec{X: nan, Y: nan, Z: nan}
	}
	return v.Mul(dual.Inv(n))
}

// Values returns the real parts.
func (v Vec) Values() [3]float64 {
	return [3]float64{v.X.Real, v.Y.Real, v.Z.Real}
}

// Rates returns the dual parts, the derivative along the seeded direction.
func (v Vec) Rates() [3]float64 {
	return [3]float64{v.X.Emag, v.Y.Emag, v.Z.Emag}
}

// Value drops the dual parts.
func (v Vec) Value() Vec {
	return Real(v.X.Real, v.Y.Real, v.Z.Real)
}

// Rate promotes the dual parts to a constant vector.
func (v Vec) Rate() Vec {
	return Real(v.X.Emag, v.Y.Emag, v.Z.Emag)
}

// IsFinite reports whether every real and dual part is finite.
func (v Vec) IsFinite() bool {
	for _, c := range [...]dual.Number{v.X, v.Y, v.Z} {
		if math.IsNaN(c.Real) || math.IsInf(c.Real, 0) || math.IsNaN(c.Emag) || math.IsInf(c.Emag, 0) {
			return false
		}
	}
	return true
}

// R3 returns the real part as a gonum vector.
func (v Vec) R3() r3.Vec {
	return r3.Vec{X: v.X.Real, Y: v.Y.Real, Z: v.Z.Real}
}

// R3Rate returns the dual part as a gonum vector.
func (v Vec) R3Rate() r3.Vec {
	return r3.Vec{X: v.X.Emag, Y: v.Y.Emag, Z: v.Z.Emag}
}
