package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowerAttackFasterThanRelease(t *testing.T) {
	f := NewFollower(testRate, 0.001, 0.1)

	var env float64
	for range 480 { // 10 ms of full-scale input
		env = f.Next(1)
	}
	assert.Greater(t, env, 0.99)

	for range 480 {
		env = f.Next(0)
	}
	assert.Greater(t, env, 0.8, "100 ms release should decay slowly over 10 ms")
}

func TestNewCompressorAppliesSettings(t *testing.T) {
	c, err := NewCompressor(testRate, CompressorSettings{
		ThresholdDB: -18,
		Ratio:       2.5,
		KneeDB:      6,
		AttackSec:   0.010,
		ReleaseSec:  0.150,
		MakeupDB:    1.5,
	})
	require.NoError(t, err)

	assert.InDelta(t, -18, c.Threshold(), 1e-12)
	assert.InDelta(t, 2.5, c.Ratio(), 1e-12)
	assert.InDelta(t, 6, c.Knee(), 1e-12)
	assert.InDelta(t, 10, c.Attack(), 1e-9, "attack is set in milliseconds")
	assert.InDelta(t, 150, c.Release(), 1e-9)
	assert.InDelta(t, 1.5, c.MakeupGain(), 1e-12)
	assert.False(t, c.AutoMakeup())
}

func TestNewCompressorRejectsBadSettings(t *testing.T) {
	good := CompressorSettings{ThresholdDB: -20, Ratio: 2, AttackSec: 0.01, ReleaseSec: 0.1}

	_, err := NewCompressor(0, good)
	require.Error(t, err, "sample rate")

	bad := good
	bad.Ratio = 0
	_, err = NewCompressor(testRate, bad)
	require.ErrorContains(t, err, "ratio")
}

func TestCompressLinkedKeepsChannelsLinked(t *testing.T) {
	c, err := NewCompressor(testRate, CompressorSettings{
		ThresholdDB: -20, Ratio: 4, AttackSec: 0.001, ReleaseSec: 0.05,
	})
	require.NoError(t, err)

	const n = 4800
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range n {
		left[i] = 0.9
		right[i] = 0.45
	}
	CompressLinked([][]float64{left, right}, c)

	for i := range n {
		require.InDelta(t, 2, left[i]/right[i], 1e-9, "frame %d", i)
	}
	assert.Less(t, left[n-1], 0.9*0.5, "-1 dBFS at 4:1 above -20 dB is reduced well past 6 dB")
}

func TestExpanderGainDB(t *testing.T) {
	assert.Zero(t, ExpanderGainDB(-30, -40, 2, 20))
	assert.InDelta(t, -10, ExpanderGainDB(-50, -40, 2, 20), 1e-12)
	assert.InDelta(t, -20, ExpanderGainDB(-90, -40, 2, 20), 1e-12, "range limit")
}

func TestLinkedLevels(t *testing.T) {
	levels := LinkedLevels([][]float64{{0.1, -0.9, 0}, {-0.5, 0.2, 0}})
	assert.Equal(t, []float64{0.5, 0.9, 0}, levels)
	assert.Nil(t, LinkedLevels(nil))
}
