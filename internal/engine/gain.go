package engine

import (
	"github.com/tphakala/go-audio-mastering/internal/mathutil"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/simdops"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Gain is the final normalization stage: a single linear factor on every sample.
type Gain struct {
	db float64
}

// NewGain creates a gain stage of db decibels.
func NewGain(db float64) *Gain {
	return &Gain{db: db}
}

// Name implements pipeline.Stage.
func (g *Gain) Name() string { return "gain" }

// Configure implements pipeline.Stage. The gain is fixed at construction.
func (g *Gain) Configure(pipeline.Params) {}

// DB returns the gain in decibels.
func (g *Gain) DB() float64 { return g.db }

// Describe implements pipeline.Stage.
func (g *Gain) Describe() pipeline.Descriptor {
	return pipeline.Descriptor{
		Stage:   g.Name(),
		Preset:  "normalize",
		Details: map[string]float64{"gain_db": g.db},
	}
}

// Process implements pipeline.Stage.
func (g *Gain) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	lin := mathutil.DBToLinear(g.db)
	return in.MapChannels(func(_ int, dst, src []float64) {
		simdops.Gain(dst, src, lin)
	}), nil
}

// DefaultChain returns the four mastering stages in processing order,
// starting with noise. Callers keep noise to read its reduction estimate.
func DefaultChain(noise *NoiseSuppressor) *pipeline.Chain {
	return pipeline.NewChain(
		noise,
		NewToneShaper(),
		NewStereoImager(),
		NewTransientShaper(),
	)
}

var (
	_ pipeline.Stage = (*NoiseSuppressor)(nil)
	_ pipeline.Stage = (*ToneShaper)(nil)
	_ pipeline.Stage = (*StereoImager)(nil)
	_ pipeline.Stage = (*TransientShaper)(nil)
	_ pipeline.Stage = (*Gain)(nil)
)
