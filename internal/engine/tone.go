package engine

import (
	"fmt"

	"github.com/tphakala/go-audio-mastering/internal/filter"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// ToneSettings is one row of the content-aware tone table, or the resolved
// settings after the preservation factor has been applied.
type ToneSettings struct {
	LowShelfHz  float64 `json:"low_shelf_hz"`
	LowGainDB   float64 `json:"low_gain_db"`
	MidHz       float64 `json:"mid_hz"`
	MidQ        float64 `json:"mid_q"`
	MidGainDB   float64 `json:"mid_gain_db"`
	HighShelfHz float64 `json:"high_shelf_hz"`
	HighGainDB  float64 `json:"high_gain_db"`

	ThresholdDB float64 `json:"threshold_db"`
	Ratio       float64 `json:"ratio"`
	AttackSec   float64 `json:"attack_sec"`
	ReleaseSec  float64 `json:"release_sec"`
	MakeupDB    float64 `json:"makeup_db"`
}

// toneTable holds one row per mode, indexed by pipeline.Mode.
var toneTable = [...]ToneSettings{
	pipeline.ModeMusic: {
		LowShelfHz: 100, LowGainDB: 2.0,
		MidHz: 2500, MidQ: 0.8, MidGainDB: -1.0,
		HighShelfHz: 10000, HighGainDB: 2.0,
		ThresholdDB: -18, Ratio: 2.5, AttackSec: 0.010, ReleaseSec: 0.150, MakeupDB: 1.5,
	},
	pipeline.ModePodcast: {
		LowShelfHz: 120, LowGainDB: -3.0,
		MidHz: 3000, MidQ: 1.0, MidGainDB: 3.0,
		HighShelfHz: 8000, HighGainDB: 1.5,
		ThresholdDB: -20, Ratio: 3.5, AttackSec: 0.005, ReleaseSec: 0.100, MakeupDB: 2.5,
	},
	pipeline.ModeVocal: {
		LowShelfHz: 150, LowGainDB: -2.0,
		MidHz: 2800, MidQ: 1.2, MidGainDB: 2.0,
		HighShelfHz: 12000, HighGainDB: 2.5,
		ThresholdDB: -22, Ratio: 3.0, AttackSec: 0.008, ReleaseSec: 0.120, MakeupDB: 2.0,
	},
	pipeline.ModeInstrumental: {
		LowShelfHz: 80, LowGainDB: 1.5,
		MidHz: 1000, MidQ: 0.7, MidGainDB: -1.5,
		HighShelfHz: 9000, HighGainDB: 1.5,
		ThresholdDB: -16, Ratio: 2.0, AttackSec: 0.015, ReleaseSec: 0.200, MakeupDB: 1.0,
	},
}

// ToneRow returns the unscaled table row for m. Unknown modes use music.
func ToneRow(m pipeline.Mode) ToneSettings {
	if !m.Valid() {
		m = pipeline.ModeMusic
	}
	return toneTable[m]
}

// ToneShaper is a three-band equalizer followed by a single-band compressor,
// with coefficients selected by content mode.
type ToneShaper struct {
	mode     pipeline.Mode
	preserve bool
	factor   float64
	settings ToneSettings
}

// NewToneShaper creates a tone stage configured for music.
func NewToneShaper() *ToneShaper {
	t := &ToneShaper{}
	t.Configure(pipeline.Params{})
	return t
}

// Name implements pipeline.Stage.
func (t *ToneShaper) Name() string { return "tone" }

// Configure implements pipeline.Stage.
func (t *ToneShaper) Configure(p pipeline.Params) {
	t.mode = p.Mode
	t.preserve = p.PreserveTone
	t.factor = toneFullFactor
	if t.preserve {
		t.factor = tonePreserveFactor
	}

	row := ToneRow(p.Mode)
	row.LowGainDB *= t.factor
	row.MidGainDB *= t.factor
	row.HighGainDB *= t.factor
	row.MakeupDB *= t.factor
	row.Ratio = 1 + (row.Ratio-1)*t.factor
	t.settings = row
}

// Factor returns the tone preservation factor in use.
func (t *ToneShaper) Factor() float64 {
	return t.factor
}

// Settings returns the resolved settings after scaling.
func (t *ToneShaper) Settings() ToneSettings {
	return t.settings
}

// Describe implements pipeline.Stage.
func (t *ToneShaper) Describe() pipeline.Descriptor {
	s := t.settings
	return pipeline.Descriptor{
		Stage:        t.Name(),
		Preset:       t.mode.String(),
		PreserveTone: t.preserve,
		Details: map[string]float64{
			"factor":       t.factor,
			"low_gain_db":  s.LowGainDB,
			"mid_gain_db":  s.MidGainDB,
			"high_gain_db": s.HighGainDB,
			"ratio":        s.Ratio,
			"makeup_db":    s.MakeupDB,
		},
	}
}

// Process implements pipeline.Stage.
func (t *ToneShaper) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s := t.settings
	rate := in.SampleRate

	bands := []filter.Biquad{
		filter.LowShelf(rate, s.LowShelfHz, s.LowGainDB),
		filter.Peaking(rate, s.MidHz, s.MidQ, s.MidGainDB),
		filter.HighShelf(rate, s.HighShelfHz, s.HighGainDB),
	}
	out := in.MapChannels(func(_ int, dst, src []float64) {
		filter.Cascade(dst, src, bands...)
	})

	comp, err := filter.NewCompressor(rate, filter.CompressorSettings{
		ThresholdDB: s.ThresholdDB,
		Ratio:       s.Ratio,
		KneeDB:      toneKneeDB,
		AttackSec:   s.AttackSec,
		ReleaseSec:  s.ReleaseSec,
		MakeupDB:    s.MakeupDB,
	})
	if err != nil {
		return nil, fmt.Errorf("tone compressor: %w", err)
	}
	filter.CompressLinked(out.Channels, comp)
	return out, nil
}
