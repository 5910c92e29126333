package mix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/testutil"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

func TestMixEndpointsReturnInputs(t *testing.T) {
	dry := testutil.Noise(testutil.TestRate, 2, 256, 0.5, 1)
	wet := testutil.Noise(testutil.TestRate, 2, 256, 0.5, 2)

	for _, pct := range []float64{100, 150} {
		out, err := Mix(dry, wet, pct)
		require.NoError(t, err)
		assert.Same(t, wet, out)
	}
	for _, pct := range []float64{0, -5} {
		out, err := Mix(dry, wet, pct)
		require.NoError(t, err)
		assert.Same(t, dry, out)
	}
}

func TestMixHalfIsAverage(t *testing.T) {
	dry := testutil.Noise(testutil.TestRate, 2, 1000, 0.9, 3)
	wet := testutil.Noise(testutil.TestRate, 2, 1000, 0.9, 4)

	out, err := Mix(dry, wet, 50)
	require.NoError(t, err)
	for ch := range out.Channels {
		for i, v := range out.Channels[ch] {
			assert.InDelta(t, (dry.Channels[ch][i]+wet.Channels[ch][i])/2, v, 1e-12)
		}
	}
}

func TestMixLinearWeights(t *testing.T) {
	dry := testutil.Constant(48000, 1, 8, 1)
	wet := testutil.Constant(48000, 1, 8, -1)

	tests := []struct {
		pct  float64
		want float64
	}{
		{25, 0.5},
		{75, -0.5},
		{10, 0.8},
	}
	for _, tt := range tests {
		out, err := Mix(dry, wet, tt.pct)
		require.NoError(t, err)
		testutil.AssertAllInRange(t, out.Channels[0], tt.want-1e-12, tt.want+1e-12)
		assert.NotSame(t, dry, out)
	}
}

func TestMixDimensionMismatch(t *testing.T) {
	base := waveform.New(44100, 2, 100)
	tests := []struct {
		name string
		wet  *waveform.Buffer
	}{
		{"frames", waveform.New(44100, 2, 99)},
		{"channels", waveform.New(44100, 1, 100)},
		{"rate", waveform.New(48000, 2, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Mismatch is reported even when the wet percentage would short-circuit.
			for _, pct := range []float64{0, 50, 100} {
				out, err := Mix(base, tt.wet, pct)
				assert.ErrorIs(t, err, fault.ErrDimensionMismatch)
				assert.Nil(t, out)
			}
		})
	}

	_, err := Mix(nil, base, 50)
	assert.ErrorIs(t, err, fault.ErrInvalidState)
}

func TestMixDoesNotMutateInputs(t *testing.T) {
	dry := testutil.Sine(testutil.TestRate, 2, 512, 440, 0.7)
	wet := testutil.Sine(testutil.TestRate, 2, 512, 880, 0.3)
	dryBefore, wetBefore := dry.Clone(), wet.Clone()

	out, err := Mix(dry, wet, 33)
	require.NoError(t, err)
	assert.Equal(t, dryBefore, dry)
	assert.Equal(t, wetBefore, wet)
	assert.False(t, math.IsNaN(out.Channels[1][17]))
}

func TestMixRejectsNaN(t *testing.T) {
	dry := testutil.Noise(testutil.TestRate, 2, 64, 0.5, 1)
	wet := testutil.Noise(testutil.TestRate, 2, 64, 0.5, 2)

	out, err := Mix(dry, wet, math.NaN())
	require.ErrorIs(t, err, fault.ErrInvalidSettings)
	assert.Nil(t, out)
}
