package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: not enough samples")

// Spectrum returns the one-sided power spectrum of uniformly sampled values
// with the mean removed. Frequencies are in Hz for a sample spacing dt.
func Spectrum(values []float64, dt float64) (freqs, power []float64, err error) {
	n := len(values)
	if n < 4 {
		return nil, nil, fmt.Errorf("spectrum of %d samples: %w", n, ErrTooShort)
	}
	if dt <= 0 {
		return nil, nil, fmt.Errorf("spectrum: sample spacing %g must be positive", dt)
	}

	centered := make([]float64, n)
	copy(centered, values)
	floats.AddConst(-stat.Mean(values, nil), centered)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c)
		power[i] = a * a / float64(n)
	}
	return freqs, power, nil
}

// DominantFrequency is the frequency of the largest non-DC spectral peak.
func DominantFrequency(values []float64, dt float64) (float64, error) {
	freqs, power, err := Spectrum(values, dt)
	if err != nil {
		return 0, err
	}
	i := floats.MaxIdx(power[1:]) + 1
	return freqs[i], nil
}
