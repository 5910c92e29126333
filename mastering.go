package mastering

import (
	"fmt"
	"math"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/loudness"
	"github.com/tphakala/go-audio-mastering/internal/mathutil"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Buffer is a planar multi-channel waveform. See NewBuffer.
type Buffer = waveform.Buffer

// Mode is the content type the tone and stereo presets are tuned for.
type Mode = pipeline.Mode

// BeatCorrection selects the base aggressiveness of transient shaping.
type BeatCorrection = pipeline.BeatCorrection

// Descriptor is the diagnostic summary of one configured stage.
type Descriptor = pipeline.Descriptor

// Measurement is a loudness and peak reading of a buffer.
type Measurement = loudness.Measurement

// RenderError names the stage that stopped a render. It matches
// ErrRenderFailure and its cause under errors.Is.
type RenderError = pipeline.RenderError

// Content modes.
const (
	ModeMusic        = pipeline.ModeMusic
	ModePodcast      = pipeline.ModePodcast
	ModeVocal        = pipeline.ModeVocal
	ModeInstrumental = pipeline.ModeInstrumental
)

// Beat correction modes, from least to most aggressive.
const (
	BeatGentle   = pipeline.BeatGentle
	BeatBalanced = pipeline.BeatBalanced
	BeatPrecise  = pipeline.BeatPrecise
)

// Error categories. Match them with errors.Is.
var (
	// ErrInvalidState indicates an operation ran before a buffer was loaded
	// or rendered.
	ErrInvalidState = fault.ErrInvalidState

	// ErrDimensionMismatch indicates buffers of incompatible shape.
	ErrDimensionMismatch = fault.ErrDimensionMismatch

	// ErrRenderFailure indicates the offline render could not complete.
	// The original cause is reachable through errors.Is and errors.As.
	ErrRenderFailure = fault.ErrRenderFailure

	// ErrDecodeFailure indicates the input could not be decoded.
	ErrDecodeFailure = fault.ErrDecodeFailure

	// ErrInvalidSettings indicates a Settings value outside its range.
	ErrInvalidSettings = fault.ErrInvalidSettings

	// ErrStaleRender indicates a render finished after a newer buffer was loaded.
	ErrStaleRender = fault.ErrStaleRender

	// ErrJobNotFound indicates an unknown job identifier.
	ErrJobNotFound = fault.ErrJobNotFound
)

// NewBuffer allocates a zeroed buffer.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	return waveform.New(sampleRate, channels, frames)
}

// BufferFromChannels wraps planar channel slices without copying them.
func BufferFromChannels(sampleRate int, channels [][]float64) (*Buffer, error) {
	return waveform.FromChannels(sampleRate, channels)
}

// ParseMode parses "music", "podcast", "vocal" or "instrumental".
func ParseMode(s string) (Mode, error) {
	return pipeline.ParseMode(s)
}

// ParseBeatCorrection parses "gentle", "balanced" or "precise".
func ParseBeatCorrection(s string) (BeatCorrection, error) {
	return pipeline.ParseBeatCorrection(s)
}

// Settings is the parameter record for one mastering run.
// Percentages are in [0, 100].
type Settings struct {
	// Mode selects the content-aware tone and stereo preset.
	Mode Mode `json:"mode"`

	// TargetLUFS is the loudness the normalization gain aims for.
	TargetLUFS float64 `json:"target_lufs"`

	// DryWet is the percentage of processed signal in the exported mix.
	DryWet float64 `json:"dry_wet"`

	// NoiseReduction is the noise suppression amount.
	NoiseReduction float64 `json:"noise_reduction"`

	// BeatQuantization is the transient shaping amount. It shapes dynamics
	// only and never moves audio in time.
	BeatQuantization float64 `json:"beat_quantization"`

	SwingPreservation bool           `json:"swing_preservation"`
	PreserveTempo     bool           `json:"preserve_tempo"`
	PreserveTone      bool           `json:"preserve_tone"`
	BeatCorrection    BeatCorrection `json:"beat_correction"`
}

// DefaultSettings returns the settings used when the caller supplies none.
func DefaultSettings() Settings {
	return Settings{
		Mode:              ModeMusic,
		TargetLUFS:        DefaultTargetLUFS,
		DryWet:            percentMax,
		NoiseReduction:    defaultNoiseReduction,
		BeatQuantization:  0,
		SwingPreservation: true,
		PreserveTempo:     true,
		PreserveTone:      false,
		BeatCorrection:    BeatGentle,
	}
}

// Validate checks every field against its documented range.
func (s Settings) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidSettings, int(s.Mode))
	}
	if !s.BeatCorrection.Valid() {
		return fmt.Errorf("%w: unknown beat correction %d", ErrInvalidSettings, int(s.BeatCorrection))
	}
	if math.IsNaN(s.TargetLUFS) || s.TargetLUFS < mathutil.LoudnessFloorDB || s.TargetLUFS > mathutil.FullScaleDB {
		return fmt.Errorf("%w: target loudness %.2f outside [%.0f, %.0f]",
			ErrInvalidSettings, s.TargetLUFS, mathutil.LoudnessFloorDB, mathutil.FullScaleDB)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"dry/wet", s.DryWet},
		{"noise reduction", s.NoiseReduction},
		{"beat quantization", s.BeatQuantization},
	} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > percentMax {
			return fmt.Errorf("%w: %s %.2f outside [0, 100]", ErrInvalidSettings, f.name, f.v)
		}
	}
	return nil
}

// params converts percentages to the [0, 1] amounts the stages read.
func (s Settings) params() pipeline.Params {
	return pipeline.Params{
		Mode:              s.Mode,
		NoiseAmount:       s.NoiseReduction / percentMax,
		PreserveTone:      s.PreserveTone,
		BeatQuantization:  s.BeatQuantization / percentMax,
		SwingPreservation: s.SwingPreservation,
		PreserveTempo:     s.PreserveTempo,
		BeatCorrection:    s.BeatCorrection,
	}
}

// Results reports the measurements and decisions of one run. Levels are
// in dB. All but WetPeak never exceed 0.
type Results struct {
	InputLUFS float64 `json:"input_lufs"`
	InputPeak float64 `json:"input_peak"`

	// OutputLUFS and OutputPeak are projected from the input measurement
	// plus GainDB, not measured on the rendered audio. Stage makeup and
	// transient gain can put the real peak above OutputPeak.
	OutputLUFS float64 `json:"output_lufs"`
	OutputPeak float64 `json:"output_peak"`

	// WetPeak is the peak measured on the rendered buffer. Samples above
	// 0 dB clip when encoded.
	WetPeak float64 `json:"wet_peak"`

	// NoiseReduction is the noise stage's estimated reduction in dB.
	NoiseReduction float64 `json:"noise_reduction"`

	// GainDB is the normalization gain that was applied.
	GainDB float64 `json:"gain_db"`

	// PeakLimited is set when the gain was reduced to keep the projected
	// peak below full scale. OutputLUFS is then below the target.
	PeakLimited bool `json:"peak_limited"`

	// Estimator names the loudness algorithm used for the LUFS fields.
	Estimator string `json:"estimator"`

	Stages []Descriptor `json:"stages"`
}
