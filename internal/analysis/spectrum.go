package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the first half of the FFT of data
// with its mean removed. data is zero-padded to a power of two.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	n := 1
	for n < len(data) {
		n <<= 1
	}
	padded := make([]float64, n)
	mean := stat.Mean(data, nil)
	for i, v := range data {
		padded[i] = v - mean
	}

	coeffs := fft.FFTReal(padded)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantFrequency returns the frequency of the strongest non-DC bin of a
// spectrum computed from samples spaced dt apart.
func DominantFrequency(ps []float64, dt float64) float64 {
	if len(ps) < 2 || dt <= 0 {
		return 0
	}
	bin := floats.MaxIdx(ps[1:]) + 1
	return float64(bin) / (float64(2*len(ps)) * dt)
}
