package spatial

import "gonum.org/v1/gonum/num/dual"

// Mat is a 3x3 matrix of dual numbers, row major.
type Mat [3][3]dual.Number

func Identity() Mat {
	var m Mat
	for i := 0; i < 3; i++ {
		m[i][i].Real = 1
	}
	return m
}

// RealMat builds a constant matrix from rows.
func RealMat(rows [3][3]float64) Mat {
	var m Mat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j].Real = rows[i][j]
		}
	}
	return m
}

// Rotation returns the direction cosine matrix of a frame rotated by angle
// about axis a of its parent. Columns are the child basis vectors in parent
// components, so parent = R * child.
func Rotation(a Axis, angle dual.Number) Mat {
	c, s := dual.Cos(angle), dual.Sin(angle)
	ns := dual.Scale(-1, s)
	one := dual.Number{Real: 1}
	var zero dual.Number

	switch a {
	case X:
		return Mat{
			{one, zero, zero},
			{zero, c, ns},
			{zero, s, c},
		}
	case Y:
		return Mat{
			{c, zero, s},
			{zero, one, zero},
			{ns, zero, c},
		}
	default:
		return Mat{
			{c, ns, zero},
			{s, c, zero},
			{zero, zero, one},
		}
	}
}

func (m Mat) Mul(n Mat) Mat {
	var r Mat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := dual.Mul(m[i][0], n[0][j])
			sum = dual.Add(sum, dual.Mul(m[i][1], n[1][j]))
			sum = dual.Add(sum, dual.Mul(m[i][2], n[2][j]))
			r[i][j] = sum
		}
	}
	return r
}

// Apply returns m*v.
func (m Mat) Apply(v Vec) Vec {
	row := func(i int) dual.Number {
		return dual.Add(dual.Add(dual.Mul(m[i][0], v.X), dual.Mul(m[i][1], v.Y)), dual.Mul(m[i][2], v.Z))
	}
	return Vec{X: row(0), Y: row(1), Z: row(2)}
}

func (m Mat) Col(j int) Vec {
	return Vec{X: m[0][j], Y: m[1][j], Z: m[2][j]}
}

func (m Mat) T() Mat {
	var r Mat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Value drops the dual parts.
func (m Mat) Value() Mat {
	var r Mat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j].Real = m[i][j].Real
		}
	}
	return r
}
