package simdops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGainScalesInPlace(t *testing.T) {
	x := []float64{0.5, -0.25, 1}
	Gain(x, x, 2)
	assert.Equal(t, []float64{1, -0.5, 2}, x)
}

func TestEnergy(t *testing.T) {
	x := []float64{1, -2, 3, -4}
	assert.InDelta(t, 30.0, Energy(x), 1e-12)
	assert.Zero(t, Energy(nil))
}

func TestBlendMatchesScalar(t *testing.T) {
	a := []float64{1, 0.5, -1, 0.25, 0}
	b := []float64{-1, 0.5, 1, 0.75, 1}
	dst := make([]float64, len(a))
	Blend(dst, a, b, 0.3, 0.7)
	for i := range dst {
		assert.InDelta(t, a[i]*0.3+b[i]*0.7, dst[i], 1e-12, "index %d", i)
	}
}

func TestInterleave(t *testing.T) {
	tests := []struct {
		name     string
		channels [][]float64
		want     []float64
	}{
		{"mono", [][]float64{{1, 2, 3}}, []float64{1, 2, 3}},
		{"stereo", [][]float64{{1, 2}, {-1, -2}}, []float64{1, -1, 2, -2}},
		{"three", [][]float64{{1, 2}, {3, 4}, {5, 6}}, []float64{1, 3, 5, 2, 4, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float64, len(tt.want))
			Interleave(dst, tt.channels)
			assert.Equal(t, tt.want, dst)
		})
	}
}

func TestInfoNamesInstructionSet(t *testing.T) {
	assert.NotEmpty(t, Info())
}

func TestDotUsesShorterLength(t *testing.T) {
	assert.InDelta(t, 1*4+2*5, Dot([]float64{1, 2}, []float64{4, 5, 6}), 1e-12)
	assert.Zero(t, Dot(nil, []float64{1}))
}
