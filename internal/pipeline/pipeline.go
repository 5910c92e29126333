// Package pipeline implements the stage contract of the mastering chain and
// the offline renderer that drives it. Concrete stages live in the engine
// package; the chain only knows them through the Stage interface.
package pipeline

import (
	"fmt"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Stage represents a single processing stage in the mastering chain.
// Each stage performs one transformation (noise floor, tone, stereo, dynamics).
type Stage interface {
	// Name returns a short identifier used in logs and errors.
	Name() string

	// Configure replaces the stage's coefficients. It touches no audio and
	// calling it twice with the same Params leaves the stage in the same state.
	Configure(p Params)

	// Process returns a new buffer with the same shape as in.
	// It must not mutate in.
	Process(in *waveform.Buffer) (*waveform.Buffer, error)

	// Describe reports the preset and preservation flag the stage was
	// configured with.
	Describe() Descriptor
}

// Params is the parameter set every stage reads its configuration from.
// Each stage picks the fields it cares about.
type Params struct {
	// Mode selects the content-aware preset row.
	Mode Mode

	// NoiseAmount is the noise reduction amount in [0, 1].
	NoiseAmount float64

	// PreserveTone softens tone-altering processing.
	PreserveTone bool

	// BeatQuantization is the transient shaping amount in [0, 1].
	BeatQuantization float64

	// SwingPreservation lengthens release times so groove is not flattened.
	SwingPreservation bool

	// PreserveTempo makes the transient stage less aggressive.
	PreserveTempo bool

	// BeatCorrection selects the base coefficient set for transient shaping.
	BeatCorrection BeatCorrection
}

// Descriptor is the diagnostic summary of a configured stage.
type Descriptor struct {
	Stage        string             `json:"stage"`
	Preset       string             `json:"preset"`
	PreserveTone bool               `json:"preserve_tone"`
	Details      map[string]float64 `json:"details,omitempty"`
}

// Chain is an ordered list of stages run in series.
type Chain struct {
	stages []Stage
}

// NewChain creates a chain from stages in processing order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Stages returns the stages in processing order.
func (c *Chain) Stages() []Stage {
	return c.stages
}

// Len returns the number of stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Configure configures every stage with p.
func (c *Chain) Configure(p Params) {
	for _, s := range c.stages {
		s.Configure(p)
	}
}

// Describe returns the descriptors of every stage in order.
func (c *Chain) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(c.stages))
	for _, s := range c.stages {
		out = append(out, s.Describe())
	}
	return out
}

// RunStage processes in through s and verifies the output shape and that
// no sample slice is shared with the input.
func RunStage(s Stage, in *waveform.Buffer) (*waveform.Buffer, error) {
	out, err := s.Process(in)
	if err != nil {
		return nil, err
	}
	if err := waveform.CheckShape(in, out); err != nil {
		return nil, fmt.Errorf("stage %s changed buffer shape: %w", s.Name(), err)
	}
	for ch := range in.Channels {
		if in.NumFrames() > 0 && &in.Channels[ch][0] == &out.Channels[ch][0] {
			return nil, fmt.Errorf("%w: stage %s returned its input channel %d",
				fault.ErrInvalidState, s.Name(), ch)
		}
	}
	return out, nil
}
