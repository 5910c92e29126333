package engine

import (
	"math"

	"github.com/tphakala/go-audio-mastering/internal/filter"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/simdops"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

var stereoWidths = [...]float64{
	pipeline.ModeMusic:        widthMusic,
	pipeline.ModePodcast:      widthPodcast,
	pipeline.ModeVocal:        widthVocal,
	pipeline.ModeInstrumental: widthInstrumental,
}

// StereoImager works on channel pairs (0,1), (2,3), ... in mid/side form:
// the side signal is high-passed so bass stays centred, then scaled by the
// mode's width. A trailing unpaired channel and mono buffers are copied.
type StereoImager struct {
	mode     pipeline.Mode
	preserve bool
	width    float64
}

// NewStereoImager creates a stereo stage configured for music.
func NewStereoImager() *StereoImager {
	s := &StereoImager{}
	s.Configure(pipeline.Params{})
	return s
}

// Name implements pipeline.Stage.
func (s *StereoImager) Name() string { return "stereo" }

// Configure implements pipeline.Stage.
func (s *StereoImager) Configure(p pipeline.Params) {
	s.mode = p.Mode
	s.preserve = p.PreserveTone

	m := p.Mode
	if !m.Valid() {
		m = pipeline.ModeMusic
	}
	factor := toneFullFactor
	if s.preserve {
		factor = tonePreserveFactor
	}
	s.width = 1 + (stereoWidths[m]-1)*factor
}

// Width returns the side-channel scale in use.
func (s *StereoImager) Width() float64 {
	return s.width
}

// Describe implements pipeline.Stage.
func (s *StereoImager) Describe() pipeline.Descriptor {
	return pipeline.Descriptor{
		Stage:        s.Name(),
		Preset:       s.mode.String(),
		PreserveTone: s.preserve,
		Details: map[string]float64{
			"width":        s.width,
			"bass_mono_hz": bassMonoHz,
		},
	}
}

// Process implements pipeline.Stage.
func (s *StereoImager) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.NumChannels() < 2 {
		return in.Clone(), nil
	}

	out := in.EmptyLike()
	hp := filter.HighPass(in.SampleRate, bassMonoHz, filter.ButterworthQ)
	frames := in.NumFrames()
	mid := make([]float64, frames)
	side := make([]float64, frames)

	pairs := in.NumChannels() / 2
	for p := range pairs {
		l, r := in.Channels[2*p], in.Channels[2*p+1]
		for i := range frames {
			mid[i] = 0.5 * (l[i] + r[i])
			side[i] = 0.5 * (l[i] - r[i])
		}
		filter.Apply(hp, side, side)
		simdops.Gain(side, side, s.width)

		outL, outR := out.Channels[2*p], out.Channels[2*p+1]
		for i := range frames {
			outL[i] = mid[i] + side[i]
			outR[i] = mid[i] - side[i]
		}
	}
	if in.NumChannels()%2 == 1 {
		last := in.NumChannels() - 1
		copy(out.Channels[last], in.Channels[last])
	}
	return out, nil
}

// Correlation returns the normalized correlation of two channels in [-1, 1]:
// 1 for identical content, -1 for polarity-inverted content, 0 when either is silent.
func Correlation(l, r []float64) float64 {
	n := min(len(l), len(r))
	if n == 0 {
		return 0
	}
	l, r = l[:n], r[:n]
	el, er := simdops.Energy(l), simdops.Energy(r)
	if el == 0 || er == 0 {
		return 0
	}
	return simdops.Dot(l, r) / math.Sqrt(el*er)
}
