package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Envelope is max - min over the last window samples, or over all of them
// when window is not positive or exceeds the length.
func Envelope(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if window > 0 && window < len(values) {
		values = values[len(values)-window:]
	}
	return floats.Max(values) - floats.Min(values)
}

// Peaks returns the indices of strict local maxima of |values|.
func Peaks(values []float64) []int {
	var idx []int
	for i := 1; i+1 < len(values); i++ {
		a, b, c := math.Abs(values[i-1]), math.Abs(values[i]), math.Abs(values[i+1])
		if b > a && b >= c {
			idx = append(idx, i)
		}
	}
	return idx
}

// GrowthRate fits log|x| at the oscillation peaks against time and returns
// the slope in 1/s. Positive rates grow, negative rates decay.
func GrowthRate(times, values []float64) (float64, error) {
	if len(times) != len(values) {
		return 0, fmt.Errorf("growth rate: %d times for %d values", len(times), len(values))
	}

	peaks := Peaks(values)
	ts := make([]float64, 0, len(peaks))
	logs := make([]float64, 0, len(peaks))
	for _, i := range peaks {
		if a := math.Abs(values[i]); a > 0 {
			ts = append(ts, times[i])
			logs = append(logs, math.Log(a))
		}
	}
	if len(ts) < 2 {
		return 0, fmt.Errorf("growth rate from %d peaks: %w", len(ts), ErrTooShort)
	}

	_, beta := stat.LinearRegression(ts, logs, nil, false)
	return beta, nil
}
