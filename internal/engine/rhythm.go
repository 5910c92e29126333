package engine

import (
	"fmt"

	"github.com/tphakala/go-audio-mastering/internal/filter"
	"github.com/tphakala/go-audio-mastering/internal/mathutil"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// RhythmCoefficients drive the transient enhancer and the compressor behind it.
type RhythmCoefficients struct {
	ThresholdDB float64 `json:"threshold_db"`
	Ratio       float64 `json:"ratio"`
	AttackSec   float64 `json:"attack_sec"`
	ReleaseSec  float64 `json:"release_sec"`
	EnhanceDB   float64 `json:"enhance_db"`
}

// rhythmBase holds the base set per correction mode, each more aggressive
// than the one before it.
var rhythmBase = [...]RhythmCoefficients{
	pipeline.BeatGentle:   {ThresholdDB: -18, Ratio: 1.5, AttackSec: 0.020, ReleaseSec: 0.200, EnhanceDB: 1.5},
	pipeline.BeatBalanced: {ThresholdDB: -20, Ratio: 2.5, AttackSec: 0.010, ReleaseSec: 0.120, EnhanceDB: 3.0},
	pipeline.BeatPrecise:  {ThresholdDB: -22, Ratio: 4.0, AttackSec: 0.005, ReleaseSec: 0.060, EnhanceDB: 5.0},
}

// RhythmBase returns the unscaled base set for b. Unknown values use gentle.
func RhythmBase(b pipeline.BeatCorrection) RhythmCoefficients {
	if !b.Valid() {
		b = pipeline.BeatGentle
	}
	return rhythmBase[b]
}

// TransientShaper emphasizes onsets by comparing a fast and a slow envelope,
// then compresses. It only reshapes dynamics; no sample moves in time.
type TransientShaper struct {
	mode     pipeline.Mode
	preserve bool
	beat     pipeline.BeatCorrection
	amount   float64
	swing    bool
	tempo    bool
	coef     RhythmCoefficients
}

// NewTransientShaper creates a transient stage configured with gentle correction.
func NewTransientShaper() *TransientShaper {
	t := &TransientShaper{}
	t.Configure(pipeline.Params{})
	return t
}

// Name implements pipeline.Stage.
func (t *TransientShaper) Name() string { return "rhythm" }

// Configure implements pipeline.Stage.
func (t *TransientShaper) Configure(p pipeline.Params) {
	t.mode = p.Mode
	t.preserve = p.PreserveTone
	t.beat = p.BeatCorrection
	t.amount = mathutil.Clamp01(p.BeatQuantization)
	t.swing = p.SwingPreservation
	t.tempo = p.PreserveTempo
	t.coef = rhythmCoefficients(p.BeatCorrection, t.amount, t.swing, t.tempo)
}

func rhythmCoefficients(b pipeline.BeatCorrection, amount float64, swing, tempo bool) RhythmCoefficients {
	c := RhythmBase(b)
	scale := 0.5 + 0.5*amount
	c.Ratio = 1 + (c.Ratio-1)*scale
	c.EnhanceDB *= scale

	if tempo {
		c.ThresholdDB += preserveTempoThresholdDB
		c.Ratio = 1 + (c.Ratio-1)*preserveTempoScale
		c.EnhanceDB *= preserveTempoScale
		c.AttackSec *= preserveTempoTimeScale
		c.ReleaseSec *= preserveTempoTimeScale
	}
	if swing {
		c.ReleaseSec *= swingReleaseScale
	}
	return c
}

// Coefficients returns the derived coefficients.
func (t *TransientShaper) Coefficients() RhythmCoefficients {
	return t.coef
}

// Describe implements pipeline.Stage.
func (t *TransientShaper) Describe() pipeline.Descriptor {
	return pipeline.Descriptor{
		Stage:        t.Name(),
		Preset:       t.beat.String(),
		PreserveTone: t.preserve,
		Details: map[string]float64{
			"amount":       t.amount,
			"ratio":        t.coef.Ratio,
			"threshold_db": t.coef.ThresholdDB,
			"enhance_db":   t.coef.EnhanceDB,
			"release_sec":  t.coef.ReleaseSec,
		},
	}
}

// Process implements pipeline.Stage.
func (t *TransientShaper) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := t.coef
	rate := in.SampleRate
	out := in.Clone()

	fast := filter.NewFollower(rate, transientFastAttackSec, transientFastRelease)
	slow := filter.NewFollower(rate, c.AttackSec, c.ReleaseSec)
	levels := filter.LinkedLevels(in.Channels)
	for i, level := range levels {
		diff := filter.LevelDB(fast.Next(level)) - filter.LevelDB(slow.Next(level))
		boost := c.EnhanceDB * mathutil.Clamp01(diff/transientRangeDB)
		if boost == 0 {
			continue
		}
		g := mathutil.DBToLinear(boost)
		for ch := range out.Channels {
			out.Channels[ch][i] *= g
		}
	}

	comp, err := filter.NewCompressor(rate, filter.CompressorSettings{
		ThresholdDB: c.ThresholdDB,
		Ratio:       c.Ratio,
		KneeDB:      rhythmKneeDB,
		AttackSec:   c.AttackSec,
		ReleaseSec:  c.ReleaseSec,
	})
	if err != nil {
		return nil, fmt.Errorf("rhythm compressor: %w", err)
	}
	filter.CompressLinked(out.Channels, comp)
	return out, nil
}
