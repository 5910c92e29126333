package filter

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/tphakala/go-audio-mastering/internal/mathutil"
)

// minTimeConstant guards against zero attack or release times.
const minTimeConstant = 1e-5

// CompressorSettings configures a downward compressor. Times are in seconds.
type CompressorSettings struct {
	ThresholdDB float64
	Ratio       float64
	KneeDB      float64
	AttackSec   float64
	ReleaseSec  float64
	MakeupDB    float64
}

// NewCompressor builds a compressor for sampleRate with a fixed makeup gain.
// Auto makeup is always off so the stage gain stays predictable.
func NewCompressor(sampleRate int, s CompressorSettings) (*dynamics.Compressor, error) {
	c, err := dynamics.NewCompressor(float64(sampleRate))
	if err != nil {
		return nil, err
	}
	steps := []struct {
		name string
		set  func() error
	}{
		{"threshold", func() error { return c.SetThreshold(s.ThresholdDB) }},
		{"ratio", func() error { return c.SetRatio(s.Ratio) }},
		{"knee", func() error { return c.SetKnee(s.KneeDB) }},
		{"attack", func() error { return c.SetAttack(s.AttackSec * 1000) }},
		{"release", func() error { return c.SetRelease(s.ReleaseSec * 1000) }},
		{"makeup", func() error { return c.SetMakeupGain(s.MakeupDB) }},
	}
	for _, st := range steps {
		if err := st.set(); err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return c, nil
}

// CompressLinked compresses every channel in place with one gain per frame,
// detected from the loudest channel of that frame.
func CompressLinked(channels [][]float64, c *dynamics.Compressor) {
	for i, level := range LinkedLevels(channels) {
		// A unit input returns the gain the compressor would apply.
		g := c.ProcessSampleSidechain(1, level)
		for ch := range channels {
			channels[ch][i] *= g
		}
	}
}

// Follower is a peak envelope follower with separate attack and release
// smoothing. The zero value is not usable; construct with NewFollower.
type Follower struct {
	attackCoef  float64
	releaseCoef float64
	env         float64
}

// NewFollower creates a follower for the given sample rate and time constants in seconds.
func NewFollower(sampleRate int, attack, release float64) *Follower {
	return &Follower{
		attackCoef:  timeCoefficient(sampleRate, attack),
		releaseCoef: timeCoefficient(sampleRate, release),
	}
}

func timeCoefficient(sampleRate int, seconds float64) float64 {
	seconds = math.Max(seconds, minTimeConstant)
	return math.Exp(-1 / (seconds * float64(sampleRate)))
}

// Next feeds a rectified level and returns the smoothed envelope.
func (f *Follower) Next(level float64) float64 {
	coef := f.releaseCoef
	if level > f.env {
		coef = f.attackCoef
	}
	f.env = level + coef*(f.env-level)
	return f.env
}

// ExpanderGainDB returns the (non-positive) gain in dB a downward expander
// applies below thresholdDB, limited to rangeDB of attenuation.
func ExpanderGainDB(levelDB, thresholdDB, ratio, rangeDB float64) float64 {
	if ratio <= 1 || levelDB >= thresholdDB {
		return 0
	}
	gain := (levelDB - thresholdDB) * (ratio - 1)
	return math.Max(gain, -math.Abs(rangeDB))
}

// LinkedLevels returns, per frame, the maximum absolute sample across all
// channels. Linked detection keeps the stereo image stable under gain changes.
func LinkedLevels(channels [][]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	levels := make([]float64, len(channels[0]))
	for _, data := range channels {
		for i, s := range data {
			if a := math.Abs(s); a > levels[i] {
				levels[i] = a
			}
		}
	}
	return levels
}

// LevelDB converts a linear envelope value to dBFS with the peak floor.
func LevelDB(env float64) float64 {
	return mathutil.LinearToDB(env, mathutil.PeakFloorDB)
}
