// Package engine implements the concrete mastering stages: noise
// suppression, content-aware tone shaping, stereo imaging, transient
// shaping and the final normalization gain.
//
// Every stage follows the same contract: Configure derives coefficients
// from pipeline.Params without touching audio, and Process allocates a new
// buffer of the input's shape. Sample-rate dependent filter designs happen
// inside Process, so one configured stage can serve any input rate.
package engine

import (
	"fmt"

	"github.com/tphakala/go-audio-mastering/internal/filter"
	"github.com/tphakala/go-audio-mastering/internal/inference"
	"github.com/tphakala/go-audio-mastering/internal/mathutil"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// NoiseCoefficients are the derived settings of the noise stage.
type NoiseCoefficients struct {
	CutoffHz    float64 `json:"cutoff_hz"`
	Ratio       float64 `json:"ratio"`
	AttackSec   float64 `json:"attack_sec"`
	ReleaseSec  float64 `json:"release_sec"`
	ThresholdDB float64 `json:"threshold_db"`
	RangeDB     float64 `json:"range_db"`
}

// NoiseSuppressor is a high-pass plus downward-expander noise floor reducer.
// When a ready Denoiser is attached it runs first; the deterministic path
// always runs after it.
type NoiseSuppressor struct {
	amount   float64
	preserve bool
	mode     pipeline.Mode
	coef     NoiseCoefficients
	denoiser inference.Denoiser
}

// NoiseOption configures a NoiseSuppressor.
type NoiseOption func(*NoiseSuppressor)

// WithDenoiser attaches an inference denoiser. It is only used while ready.
func WithDenoiser(d inference.Denoiser) NoiseOption {
	return func(n *NoiseSuppressor) {
		n.denoiser = d
	}
}

// NewNoiseSuppressor creates a noise stage configured for amount 0.
func NewNoiseSuppressor(opts ...NoiseOption) *NoiseSuppressor {
	n := &NoiseSuppressor{}
	for _, opt := range opts {
		opt(n)
	}
	n.Configure(pipeline.Params{})
	return n
}

// Name implements pipeline.Stage.
func (n *NoiseSuppressor) Name() string { return "noise" }

// Configure implements pipeline.Stage.
func (n *NoiseSuppressor) Configure(p pipeline.Params) {
	n.amount = mathutil.Clamp01(p.NoiseAmount)
	n.preserve = p.PreserveTone
	n.mode = p.Mode
	n.coef = noiseCoefficients(n.amount, n.preserve)
}

func noiseCoefficients(a float64, preserve bool) NoiseCoefficients {
	if preserve {
		return NoiseCoefficients{
			CutoffHz:    preserveCutoffBase + preserveCutoffSpan*a,
			Ratio:       preserveRatioBase + preserveRatioSpan*a,
			AttackSec:   preserveAttackSec,
			ReleaseSec:  preserveReleaseSec,
			ThresholdDB: preserveThresholdBase + preserveThresholdSpan*a,
			RangeDB:     preserveRangeBase + preserveRangeSpan*a,
		}
	}
	return NoiseCoefficients{
		CutoffHz:    noiseCutoffBase + noiseCutoffSpan*a,
		Ratio:       noiseRatioBase + noiseRatioSpan*a,
		AttackSec:   noiseAttackSec,
		ReleaseSec:  noiseReleaseSec,
		ThresholdDB: noiseThresholdBase + noiseThresholdSpan*a,
		RangeDB:     noiseRangeBase + noiseRangeSpan*a,
	}
}

// Coefficients returns the currently derived coefficients.
func (n *NoiseSuppressor) Coefficients() NoiseCoefficients {
	return n.coef
}

// EstimateReduction returns the expected noise floor reduction in dB. It is
// strictly increasing in amount and strictly lower when tone is preserved.
func (n *NoiseSuppressor) EstimateReduction() float64 {
	if n.preserve {
		return preserveEstimateBase + preserveEstimateSpan*n.amount
	}
	return noiseEstimateBase + noiseEstimateSpan*n.amount
}

// Describe implements pipeline.Stage.
func (n *NoiseSuppressor) Describe() pipeline.Descriptor {
	return pipeline.Descriptor{
		Stage:        n.Name(),
		Preset:       n.mode.String(),
		PreserveTone: n.preserve,
		Details: map[string]float64{
			"amount":       n.amount,
			"cutoff_hz":    n.coef.CutoffHz,
			"ratio":        n.coef.Ratio,
			"threshold_db": n.coef.ThresholdDB,
			"estimate_db":  n.EstimateReduction(),
		},
	}
}

// Process implements pipeline.Stage.
func (n *NoiseSuppressor) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	src := in
	if n.denoiser != nil && n.denoiser.IsReady() {
		d, err := n.denoiser.Denoise(in)
		if err != nil {
			return nil, fmt.Errorf("denoiser: %w", err)
		}
		if err := waveform.CheckShape(in, d); err != nil {
			return nil, fmt.Errorf("denoiser: %w", err)
		}
		src = d
	}

	hp := filter.HighPass(in.SampleRate, n.coef.CutoffHz, filter.ButterworthQ)
	out := src.MapChannels(func(_ int, dst, s []float64) {
		filter.Apply(hp, dst, s)
	})

	c := n.coef
	applyLinkedGain(out, filter.NewFollower(in.SampleRate, c.AttackSec, c.ReleaseSec), func(levelDB float64) float64 {
		return filter.ExpanderGainDB(levelDB, c.ThresholdDB, c.Ratio, c.RangeDB)
	})
	return out, nil
}

// applyLinkedGain runs a linked envelope over b and multiplies every channel
// in place by the gain computer's result. b must be owned by the caller.
func applyLinkedGain(b *waveform.Buffer, env *filter.Follower, gainDB func(levelDB float64) float64) {
	levels := filter.LinkedLevels(b.Channels)
	for i, level := range levels {
		g := mathutil.DBToLinear(gainDB(filter.LevelDB(env.Next(level))))
		for ch := range b.Channels {
			b.Channels[ch][i] *= g
		}
	}
}
