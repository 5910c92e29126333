// Package testutil provides reusable signal generators and assertions for mastering tests.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	SampleTolerance  = 1e-9
	DBTolerance      = 0.01
)

// TestRate is the sample rate used by generators unless a test needs another.
const TestRate = 44100

// Sine returns a buffer with the same sine wave on every channel.
func Sine(sampleRate, channels, frames int, freq, amplitude float64) *waveform.Buffer {
	b := waveform.New(sampleRate, channels, frames)
	for ch := range b.Channels {
		for i := range b.Channels[ch] {
			b.Channels[ch][i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		}
	}
	return b
}

// Noise returns seeded uniform white noise in [-amplitude, amplitude],
// independent per channel.
func Noise(sampleRate, channels, frames int, amplitude float64, seed uint64) *waveform.Buffer {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := waveform.New(sampleRate, channels, frames)
	for ch := range b.Channels {
		for i := range b.Channels[ch] {
			b.Channels[ch][i] = amplitude * (2*rng.Float64() - 1)
		}
	}
	return b
}

// Constant returns a buffer where every sample equals v.
func Constant(sampleRate, channels, frames int, v float64) *waveform.Buffer {
	b := waveform.New(sampleRate, channels, frames)
	for ch := range b.Channels {
		for i := range b.Channels[ch] {
			b.Channels[ch][i] = v
		}
	}
	return b
}

// Music returns a deterministic stereo test program: a bass tone, a mid tone
// with per-channel phase offset, a click track every 500 ms and low-level noise.
func Music(sampleRate, frames int, seed uint64) *waveform.Buffer {
	noise := Noise(sampleRate, 2, frames, 0.02, seed)
	beat := sampleRate / 2
	for ch := range noise.Channels {
		phase := float64(ch) * 0.4
		for i := range noise.Channels[ch] {
			t := float64(i) / float64(sampleRate)
			s := 0.25*math.Sin(2*math.Pi*80*t) + 0.2*math.Sin(2*math.Pi*660*t+phase)
			if pos := i % beat; pos < sampleRate/200 {
				s += 0.3 * math.Exp(-float64(pos)/float64(sampleRate/1000+1))
			}
			noise.Channels[ch][i] += s
		}
	}
	return noise
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertBufferFinite verifies that every channel of b is free of NaN and Inf.
func AssertBufferFinite(t *testing.T, b *waveform.Buffer) bool {
	t.Helper()
	for _, data := range b.Channels {
		if !AssertNoNaNOrInf(t, data) {
			return false
		}
	}
	return true
}

// AssertSameShape verifies that two buffers share rate, channel and frame count.
func AssertSameShape(t *testing.T, want, got *waveform.Buffer) bool {
	t.Helper()
	return assert.Equal(t, want.SampleRate, got.SampleRate, "sample rate") &&
		assert.Equal(t, want.NumChannels(), got.NumChannels(), "channel count") &&
		assert.Equal(t, want.NumFrames(), got.NumFrames(), "frame count")
}

// AssertBuffersEqual verifies that two buffers hold the same samples within tolerance.
func AssertBuffersEqual(t *testing.T, want, got *waveform.Buffer, tolerance float64) bool {
	t.Helper()
	if !AssertSameShape(t, want, got) {
		return false
	}
	for ch := range want.Channels {
		for i := range want.Channels[ch] {
			if !assert.InDelta(t, want.Channels[ch][i], got.Channels[ch][i], tolerance,
				"channel %d sample %d differs", ch, i) {
				return false
			}
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

// RMS returns the root-mean-square of a slice.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

// AssertStrictlyIncreasing verifies that every element is greater than the one before it.
func AssertStrictlyIncreasing(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return assert.Fail(t, "not strictly increasing",
				"s[%d]=%f <= s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}
