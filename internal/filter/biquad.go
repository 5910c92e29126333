// Package filter adapts the algo-dsp biquad and dynamics packages to the
// mastering stages: RBJ cookbook coefficient designs run through biquad
// sections, a linked-stereo compressor, and the envelope follower and
// expander gain computer the noise and transient stages use.
package filter

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"

	"github.com/tphakala/go-audio-mastering/internal/mathutil"
)

const (
	// maxNyquistFraction keeps design frequencies below Nyquist.
	maxNyquistFraction = 0.45

	// minDesignFrequency avoids degenerate coefficients at DC.
	minDesignFrequency = 1.0

	// ButterworthQ is the Q of a maximally flat second-order section.
	ButterworthQ = 0.7071067811865476

	// shelfSlope is the shelf slope S used by the shelving designs.
	shelfSlope = 1.0
)

// Biquad holds normalized second-order coefficients (a0 == 1).
type Biquad = biquad.Coefficients

// normalize divides all coefficients by a0.
func normalize(b0, b1, b2, a0, a1, a2 float64) Biquad {
	inv := 1 / a0
	return Biquad{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}

// clampFrequency keeps f inside (0, 0.45*fs).
func clampFrequency(f float64, sampleRate int) float64 {
	return mathutil.Clamp(f, minDesignFrequency, maxNyquistFraction*float64(sampleRate))
}

// HighPass designs a second-order high-pass section.
func HighPass(sampleRate int, freq, q float64) Biquad {
	freq = clampFrequency(freq, sampleRate)
	omega := 2 * math.Pi * freq / float64(sampleRate)
	sinW, cosW := math.Sincos(omega)
	alpha := sinW / (2 * q)

	return normalize(
		(1+cosW)/2, -(1 + cosW), (1+cosW)/2,
		1+alpha, -2*cosW, 1-alpha,
	)
}

// Peaking designs a peaking EQ section with gainDB at freq.
func Peaking(sampleRate int, freq, q, gainDB float64) Biquad {
	freq = clampFrequency(freq, sampleRate)
	a := math.Pow(10, gainDB/40)
	omega := 2 * math.Pi * freq / float64(sampleRate)
	sinW, cosW := math.Sincos(omega)
	alpha := sinW / (2 * q)

	return normalize(
		1+alpha*a, -2*cosW, 1-alpha*a,
		1+alpha/a, -2*cosW, 1-alpha/a,
	)
}

// LowShelf designs a low-shelf section with gainDB below freq.
func LowShelf(sampleRate int, freq, gainDB float64) Biquad {
	freq = clampFrequency(freq, sampleRate)
	a := math.Pow(10, gainDB/40)
	omega := 2 * math.Pi * freq / float64(sampleRate)
	sinW, cosW := math.Sincos(omega)
	alpha := sinW / 2 * math.Sqrt((a+1/a)*(1/shelfSlope-1)+2)
	sqrtA2alpha := 2 * math.Sqrt(a) * alpha

	return normalize(
		a*((a+1)-(a-1)*cosW+sqrtA2alpha),
		2*a*((a-1)-(a+1)*cosW),
		a*((a+1)-(a-1)*cosW-sqrtA2alpha),
		(a+1)+(a-1)*cosW+sqrtA2alpha,
		-2*((a-1)+(a+1)*cosW),
		(a+1)+(a-1)*cosW-sqrtA2alpha,
	)
}

// HighShelf designs a high-shelf section with gainDB above freq.
func HighShelf(sampleRate int, freq, gainDB float64) Biquad {
	freq = clampFrequency(freq, sampleRate)
	a := math.Pow(10, gainDB/40)
	omega := 2 * math.Pi * freq / float64(sampleRate)
	sinW, cosW := math.Sincos(omega)
	alpha := sinW / 2 * math.Sqrt((a+1/a)*(1/shelfSlope-1)+2)
	sqrtA2alpha := 2 * math.Sqrt(a) * alpha

	return normalize(
		a*((a+1)+(a-1)*cosW+sqrtA2alpha),
		-2*a*((a-1)+(a+1)*cosW),
		a*((a+1)+(a-1)*cosW-sqrtA2alpha),
		(a+1)-(a-1)*cosW+sqrtA2alpha,
		2*((a-1)-(a+1)*cosW),
		(a+1)-(a-1)*cosW-sqrtA2alpha,
	)
}

// Apply filters src into dst through a fresh section. dst and src may alias.
func Apply(c Biquad, dst, src []float64) {
	sec := biquad.NewSection(c)
	for i, x := range src {
		dst[i] = sec.ProcessSample(x)
	}
}

// Cascade runs src through every section in order, writing into dst.
func Cascade(dst, src []float64, sections ...Biquad) {
	if len(sections) == 0 {
		copy(dst, src)
		return
	}
	Apply(sections[0], dst, src)
	for _, c := range sections[1:] {
		Apply(c, dst, dst)
	}
}
