package controllers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Linear is full state feedback u = -K (x - target).
type Linear struct {
	k      *mat.Dense
	target *mat.VecDense
}

// NewLinear takes the gain as rows, one per control channel. A nil target is
// the zero state.
func NewLinear(gain [][]float64, target dynamo.State) (*Linear, error) {
	if len(gain) == 0 || len(gain[0]) == 0 {
		return nil, fmt.Errorf("linear feedback: empty gain")
	}
	rows, cols := len(gain), len(gain[0])
	k := mat.NewDense(rows, cols, nil)
	for i, row := range gain {
		if len(row) != cols {
			return nil, fmt.Errorf("linear feedback: gain row %d has %d columns, want %d", i, len(row), cols)
		}
		k.SetRow(i, row)
	}

	tv := mat.NewVecDense(cols, nil)
	if target != nil {
		if len(target) != cols {
			return nil, fmt.Errorf("linear feedback: target length %d, want %d: %w", len(target), cols, dynamo.ErrDimensionMismatch)
		}
		tv = mat.NewVecDense(cols, target.Clone())
	}
	return &Linear{k: k, target: tv}, nil
}

func (l *Linear) Compute(x dynamo.State, t float64) dynamo.Control {
	rows, cols := l.k.Dims()
	u := make(dynamo.Control, rows)
	if len(x) != cols {
		return u
	}

	var e mat.VecDense
	e.SubVec(mat.NewVecDense(cols, x.Clone()), l.target)
	out := mat.NewVecDense(rows, u)
	out.MulVec(l.k, &e)
	out.ScaleVec(-1, out)
	return u
}
