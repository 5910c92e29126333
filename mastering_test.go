package mastering

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-mastering/internal/testutil"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, ModeMusic, s.Mode)
	assert.InDelta(t, -14.0, s.TargetLUFS, 0)
	assert.True(t, s.SwingPreservation)
	assert.Equal(t, BeatGentle, s.BeatCorrection)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"mode", func(s *Settings) { s.Mode = Mode(9) }},
		{"beat correction", func(s *Settings) { s.BeatCorrection = BeatCorrection(-1) }},
		{"target above full scale", func(s *Settings) { s.TargetLUFS = 0.5 }},
		{"target below floor", func(s *Settings) { s.TargetLUFS = -80 }},
		{"target NaN", func(s *Settings) { s.TargetLUFS = math.NaN() }},
		{"dry/wet", func(s *Settings) { s.DryWet = 101 }},
		{"noise", func(s *Settings) { s.NoiseReduction = -1 }},
		{"beat quantization", func(s *Settings) { s.BeatQuantization = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}

func TestSettingsParamsScalePercentages(t *testing.T) {
	s := DefaultSettings()
	s.NoiseReduction = 25
	s.BeatQuantization = 80
	p := s.params()
	assert.InDelta(t, 0.25, p.NoiseAmount, 1e-12)
	assert.InDelta(t, 0.8, p.BeatQuantization, 1e-12)
	assert.Equal(t, s.PreserveTempo, p.PreserveTempo)
}

func TestSettingsJSON(t *testing.T) {
	in := `{"mode":"vocal","target_lufs":-16,"dry_wet":80,"noise_reduction":30,
		"beat_quantization":10,"swing_preservation":false,"preserve_tempo":true,
		"preserve_tone":true,"beat_correction":"precise"}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	assert.Equal(t, ModeVocal, s.Mode)
	assert.Equal(t, BeatPrecise, s.BeatCorrection)
	assert.InDelta(t, -16.0, s.TargetLUFS, 0)
	require.NoError(t, s.Validate())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"mode":"vocal"`)
	assert.Contains(t, string(out), `"beat_correction":"precise"`)

	require.ErrorIs(t, json.Unmarshal([]byte(`{"mode":"jazz"}`), &s), ErrInvalidSettings)
}

func TestResultsJSONHasNoInfinities(t *testing.T) {
	_, res, err := NewPipeline().Run(context.Background(), NewBuffer(8000, 1, 400), DefaultSettings())
	require.NoError(t, err)
	assert.InDelta(t, -70.0, res.InputLUFS, 0)
	assert.False(t, math.IsInf(res.InputPeak, 0))

	_, err = json.Marshal(res)
	require.NoError(t, err)
}

func TestMeasure(t *testing.T) {
	m := Measure(testutil.Sine(testutil.TestRate, 1, testutil.TestRate, 1000, 0.5))
	assert.InDelta(t, -6.02, m.PeakDB, 0.01)
	assert.InDelta(t, -9.03, m.LoudnessDB, 0.01)

	silent := Measure(NewBuffer(testutil.TestRate, 2, 0))
	assert.InDelta(t, -70.0, silent.LoudnessDB, 0)
}

func TestSuggestModeFallsBackWhenUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := SuggestMode(ctx, testutil.Music(testutil.TestRate, 4096, 1), ModePodcast)
	assert.Equal(t, ModePodcast, got)
}

func TestMasterWAV(t *testing.T) {
	dry := testutil.Music(testutil.TestRate, 6000, 4)
	src, err := EncodeWAV(dry)
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := MasterWAV(context.Background(), bytes.NewReader(src), &out, DefaultSettings())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.OutputPeak, 0.0)

	got, info, err := DecodeWAV(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, WAVInfo{SampleRate: testutil.TestRate, Channels: 2, BitDepth: 16, Frames: 6000, Seconds: 6000.0 / testutil.TestRate}, info)
	testutil.AssertAllInRange(t, got.Channels[0], -1, 1)
}

func TestMasterWAVRejectsGarbage(t *testing.T) {
	_, err := MasterWAV(context.Background(), bytes.NewReader([]byte("RIFF but not really a wave file")), &bytes.Buffer{}, DefaultSettings())
	assert.ErrorIs(t, err, ErrDecodeFailure)
}

func TestMasterFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	require.NoError(t, WriteWAVFile(in, testutil.Sine(22050, 1, 2205, 300, 0.2)))

	settings := DefaultSettings()
	settings.DryWet = 50
	_, err := MasterFile(context.Background(), in, out, settings)
	require.NoError(t, err)

	buf, _, err := ReadWAVFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2205, buf.NumFrames())

	_, err = MasterFile(context.Background(), filepath.Join(dir, "missing.wav"), filepath.Join(dir, "never.wav"), settings)
	require.ErrorIs(t, err, ErrDecodeFailure)
	_, statErr := os.Stat(filepath.Join(dir, "never.wav"))
	assert.True(t, os.IsNotExist(statErr))
}
