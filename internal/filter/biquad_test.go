package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-mastering/internal/mathutil"
)

const testRate = 48000

func magnitudeDB(c Biquad, freq float64) float64 {
	return mathutil.PowerToDB(c.MagnitudeSquared(freq, testRate), mathutil.PeakFloorDB)
}

func TestHighPassResponse(t *testing.T) {
	hp := HighPass(testRate, 100, ButterworthQ)

	assert.InDelta(t, -3.01, magnitudeDB(hp, 100), 0.05, "Butterworth corner is -3 dB")
	assert.Less(t, magnitudeDB(hp, 20), -20.0, "20 Hz should be well attenuated")
	assert.InDelta(t, 0, magnitudeDB(hp, 5000), 0.01, "passband should be flat")
}

func TestShelvesAndPeakReachGain(t *testing.T) {
	tests := []struct {
		name   string
		filter Biquad
		freq   float64
		want   float64
	}{
		{"low shelf boost", LowShelf(testRate, 200, 4), 20, 4},
		{"low shelf cut", LowShelf(testRate, 200, -3), 20, -3},
		{"high shelf boost", HighShelf(testRate, 6000, 2.5), 23000, 2.5},
		{"peak cut", Peaking(testRate, 1000, 1, -2), 1000, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, magnitudeDB(tt.filter, tt.freq), 0.2)
		})
	}
}

func TestZeroGainDesignsAreTransparent(t *testing.T) {
	for _, b := range []Biquad{LowShelf(testRate, 200, 0), HighShelf(testRate, 5000, 0), Peaking(testRate, 1000, 1, 0)} {
		for _, f := range []float64{50, 500, 5000, 15000} {
			assert.InDelta(t, 0, magnitudeDB(b, f), 1e-9)
		}
	}
}

func TestFrequencyAboveNyquistIsClamped(t *testing.T) {
	hp := HighPass(8000, 20000, ButterworthQ)
	for _, c := range []float64{hp.B0, hp.B1, hp.B2, hp.A1, hp.A2} {
		assert.False(t, math.IsNaN(c))
		assert.False(t, math.IsInf(c, 0))
	}
}

func TestApplyAliasesAndCascade(t *testing.T) {
	src := make([]float64, 256)
	src[0] = 1

	separate := make([]float64, len(src))
	Apply(Biquad{B0: 1}, separate, src)
	require.Equal(t, src, separate)

	inPlace := append([]float64(nil), src...)
	hp := HighPass(testRate, 2000, ButterworthQ)
	Apply(hp, inPlace, inPlace)
	assert.NotEqual(t, src, inPlace)

	viaCascade := make([]float64, len(src))
	Cascade(viaCascade, src, hp)
	assert.Equal(t, inPlace, viaCascade)

	passthrough := make([]float64, len(src))
	Cascade(passthrough, src)
	assert.Equal(t, src, passthrough)
}
