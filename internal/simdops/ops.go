// Package simdops wraps the SIMD vector kernels used on hot sample paths:
// gain application, energy accumulation, dry/wet blending and stereo
// interleaving. Everything operates on float64, the precision of the mastering
// chain.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f64"
)

// Ops bundles the vector kernels the helpers below dispatch through.
type Ops struct {
	// Scale multiplies each element by s: dst[i] = a[i] * s.
	Scale func(dst, a []float64, s float64)

	// DotProduct returns sum(a[i] * b[i]).
	DotProduct func(a, b []float64) float64

	// Interleave2 interleaves two slices: dst[0]=a[0], dst[1]=b[0], dst[2]=a[1], ...
	Interleave2 func(dst, a, b []float64)
}

var simd = Ops{
	Scale:       f64.Scale,
	DotProduct:  f64.DotProduct,
	Interleave2: f64.Interleave2,
}

// Info describes the instruction set the kernels dispatch to.
func Info() string {
	return cpu.Info()
}

// Gain writes src*g into dst. dst and src may alias.
func Gain(dst, src []float64, g float64) {
	if len(src) == 0 {
		return
	}
	simd.Scale(dst[:len(src)], src, g)
}

// Energy returns the sum of squares of x.
func Energy(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return simd.DotProduct(x, x)
}

// Dot returns sum(a[i] * b[i]) over the shorter of the two slices.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	return simd.DotProduct(a[:n], b[:n])
}

// Blend writes a*wa + b*wb into dst. All slices must share a length.
func Blend(dst, a, b []float64, wa, wb float64) {
	n := len(dst)
	if n == 0 {
		return
	}
	scratch := make([]float64, n)
	simd.Scale(dst, a[:n], wa)
	simd.Scale(scratch, b[:n], wb)
	for i := range dst {
		dst[i] += scratch[i]
	}
}

// Interleave writes planar channels into frame-interleaved order.
// len(dst) must be at least frames*len(channels).
func Interleave(dst []float64, channels [][]float64) {
	switch len(channels) {
	case 0:
		return
	case 1:
		copy(dst, channels[0])
	case 2:
		n := len(channels[0])
		if n == 0 {
			return
		}
		simd.Interleave2(dst[:2*n], channels[0], channels[1])
	default:
		numChannels := len(channels)
		for ch, data := range channels {
			for i, s := range data {
				dst[i*numChannels+ch] = s
			}
		}
	}
}
