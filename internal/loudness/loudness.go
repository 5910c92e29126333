// Package loudness measures integrated loudness and sample peak of a buffer.
//
// Both measurements are deterministic, side-effect free and bounded:
// loudness lies in [-70, 0] dB and peak in [PeakFloorDB, 0] dBFS. Empty or
// silent buffers report the floors instead of failing.
package loudness

import (
	"math"

	"github.com/tphakala/go-audio-mastering/internal/mathutil"
	"github.com/tphakala/go-audio-mastering/internal/simdops"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Estimator computes an integrated loudness in dB. Implementations must be
// monotonic in signal energy; the Analyzer applies the bounds.
type Estimator interface {
	Name() string
	Loudness(b *waveform.Buffer) float64
}

// Measurement is the pair of levels the pipeline needs before and after processing.
type Measurement struct {
	LoudnessDB float64 `json:"loudness_db"`
	PeakDB     float64 `json:"peak_db"`
}

// Analyzer measures loudness with a pluggable estimator and sample peak.
type Analyzer struct {
	estimator Estimator
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEstimator selects the loudness estimator. The default is RMS.
func WithEstimator(e Estimator) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.estimator = e
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{estimator: RMS{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EstimatorName reports which estimator is in use.
func (a *Analyzer) EstimatorName() string {
	return a.estimator.Name()
}

// MeasureLoudness returns the integrated loudness in [-70, 0] dB.
func (a *Analyzer) MeasureLoudness(b *waveform.Buffer) float64 {
	if isEmpty(b) {
		return mathutil.LoudnessFloorDB
	}
	return mathutil.Clamp(a.estimator.Loudness(b), mathutil.LoudnessFloorDB, mathutil.FullScaleDB)
}

// MeasurePeak returns the sample peak in dBFS, capped at 0 and floored at PeakFloorDB.
func (a *Analyzer) MeasurePeak(b *waveform.Buffer) float64 {
	if isEmpty(b) {
		return mathutil.PeakFloorDB
	}
	return math.Min(mathutil.FullScaleDB, mathutil.LinearToDB(SamplePeak(b), mathutil.PeakFloorDB))
}

// Measure returns loudness and peak together.
func (a *Analyzer) Measure(b *waveform.Buffer) Measurement {
	return Measurement{
		LoudnessDB: a.MeasureLoudness(b),
		PeakDB:     a.MeasurePeak(b),
	}
}

// SamplePeak returns the largest absolute sample value across all channels.
func SamplePeak(b *waveform.Buffer) float64 {
	var peak float64
	for _, data := range b.Channels {
		for _, s := range data {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
	}
	return peak
}

func isEmpty(b *waveform.Buffer) bool {
	return b == nil || b.NumChannels() == 0 || b.NumFrames() == 0
}

// RMS is the simplified heuristic: mean-square energy over every sample of
// every channel, expressed in dB relative to a full-scale square wave.
type RMS struct{}

// Name implements Estimator.
func (RMS) Name() string { return "rms" }

// Loudness implements Estimator.
func (RMS) Loudness(b *waveform.Buffer) float64 {
	var energy float64
	for _, data := range b.Channels {
		energy += simdops.Energy(data)
	}
	meanSquare := energy / float64(b.NumChannels()*b.NumFrames())
	return mathutil.PowerToDB(meanSquare, mathutil.LoudnessFloorDB)
}
