// Package optim searches parameter grids, used to tune controller gains.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var ErrNoCandidate = errors.New("optim: no grid point could be evaluated")

// Objective scores one parameter assignment; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %q", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}, nil
}

// SetWorkers bounds the number of concurrent evaluations.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Points enumerates the grid, first parameter slowest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)
	return points
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, val := range g.ranges[depth] {
		current[g.paramNames[depth]] = val
		g.enumerate(depth+1, current, out)
	}
}

// Search evaluates every grid point and returns the lowest scoring one. Points
// that fail or score NaN are skipped; their errors are returned alongside the
// best point. Ties keep the earlier point.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	points := g.Points()
	scores := make([]float64, len(points))

	var (
		mu   sync.Mutex
		errs error
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, p := range points {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := objective(ctx, p)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%v: %w", p, err))
				mu.Unlock()
				v = math.NaN()
			}
			scores[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, math.Inf(1), err
	}

	best, bestIdx := math.Inf(1), -1
	for i, v := range scores {
		if !math.IsNaN(v) && v < best {
			best, bestIdx = v, i
		}
	}
	if bestIdx < 0 {
		return nil, best, multierr.Append(ErrNoCandidate, errs)
	}
	return points[bestIdx], best, errs
}
