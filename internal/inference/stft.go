package inference

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// hann returns a periodic Hann window. At 50% overlap periodic Hann windows
// sum to exactly one, so windowed frames overlap-add back to the input.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// mixdown averages all channels into one slice.
func mixdown(b *waveform.Buffer) []float64 {
	out := make([]float64, b.NumFrames())
	if b.NumChannels() == 0 {
		return out
	}
	scale := 1 / float64(b.NumChannels())
	for _, data := range b.Channels {
		for i, s := range data {
			out[i] += s * scale
		}
	}
	return out
}

// powerSpectra returns the windowed power spectrum of consecutive frames of x.
// A signal shorter than one frame is zero-padded into a single frame.
func powerSpectra(x []float64, size, hop int) [][]float64 {
	fft := fourier.NewFFT(size)
	window := hann(size)
	frame := make([]float64, size)
	var coeffs []complex128

	var out [][]float64
	for start := 0; start == 0 || start+size <= len(x); start += hop {
		for i := range frame {
			frame[i] = 0
			if start+i < len(x) {
				frame[i] = x[start+i] * window[i]
			}
		}
		coeffs = fft.Coefficients(coeffs, frame)
		power := make([]float64, len(coeffs))
		for k, c := range coeffs {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		out = append(out, power)
	}
	return out
}
