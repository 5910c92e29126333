package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// scaleStage multiplies every sample by a factor.
type scaleStage struct {
	name   string
	factor float64
	params Params
}

func (s *scaleStage) Name() string       { return s.name }
func (s *scaleStage) Configure(p Params) { s.params = p }
func (s *scaleStage) Describe() Descriptor {
	return Descriptor{Stage: s.name, Preset: s.params.Mode.String(), PreserveTone: s.params.PreserveTone}
}

func (s *scaleStage) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	return in.MapChannels(func(_ int, dst, src []float64) {
		for i, v := range src {
			dst[i] = v * s.factor
		}
	}), nil
}

type failingStage struct{ scaleStage }

func (f *failingStage) Process(*waveform.Buffer) (*waveform.Buffer, error) {
	return nil, errors.New("backend unavailable")
}

type panickingStage struct{ scaleStage }

func (p *panickingStage) Process(*waveform.Buffer) (*waveform.Buffer, error) {
	panic("boom")
}

type truncatingStage struct{ scaleStage }

func (s *truncatingStage) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	return waveform.New(in.SampleRate, in.NumChannels(), in.NumFrames()-1), nil
}

type aliasingStage struct{ scaleStage }

func (s *aliasingStage) Process(in *waveform.Buffer) (*waveform.Buffer, error) {
	return &waveform.Buffer{SampleRate: in.SampleRate, Channels: in.Channels}, nil
}

func testBuffer() *waveform.Buffer {
	b := waveform.New(48000, 2, 4)
	copy(b.Channels[0], []float64{0.1, 0.2, 0.3, 0.4})
	copy(b.Channels[1], []float64{-0.1, -0.2, -0.3, -0.4})
	return b
}

func TestOfflineRendererRunsStagesInOrder(t *testing.T) {
	var order []string
	r := NewOfflineRenderer(WithStageHook(func(d Descriptor, _ time.Duration) {
		order = append(order, d.Stage)
	}))

	chain := NewChain(
		&scaleStage{name: "a", factor: 2},
		&scaleStage{name: "b", factor: 0.5},
		&scaleStage{name: "c", factor: 3},
	)
	chain.Configure(Params{Mode: ModeVocal, PreserveTone: true})

	in := testBuffer()
	before := in.Clone()

	out, err := r.Render(context.Background(), chain, in)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.InDelta(t, 0.3, out.Channels[0][0], 1e-12)
	assert.Equal(t, before, in, "input must not be mutated")

	for _, d := range chain.Describe() {
		assert.Equal(t, "vocal", d.Preset)
		assert.True(t, d.PreserveTone)
	}
}

func TestOfflineRendererEmptyChainCopies(t *testing.T) {
	in := testBuffer()
	out, err := NewOfflineRenderer().Render(context.Background(), NewChain(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.NotSame(t, &in.Channels[0][0], &out.Channels[0][0])
}

func TestOfflineRendererFailures(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		stage   Stage
		wantErr error
	}{
		{"stage error", context.Background(), &failingStage{scaleStage{name: "fail"}}, fault.ErrRenderFailure},
		{"stage panic", context.Background(), &panickingStage{scaleStage{name: "panic"}}, fault.ErrRenderFailure},
		{"canceled", canceled, &scaleStage{name: "ok", factor: 1}, context.Canceled},
		{"shape change", context.Background(), &truncatingStage{scaleStage{name: "trunc"}}, fault.ErrDimensionMismatch},
		{"aliased output", context.Background(), &aliasingStage{scaleStage{name: "alias"}}, fault.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewOfflineRenderer().Render(tt.ctx, NewChain(tt.stage), testBuffer())
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, fault.ErrRenderFailure)

			var re *RenderError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.stage.Name(), re.Stage)
		})
	}
}

func TestOfflineRendererRejectsInvalidInput(t *testing.T) {
	ragged := &waveform.Buffer{SampleRate: 48000, Channels: [][]float64{{1, 2}, {1}}}
	_, err := NewOfflineRenderer().Render(context.Background(), NewChain(), ragged)
	assert.ErrorIs(t, err, fault.ErrDimensionMismatch)
	assert.ErrorIs(t, err, fault.ErrRenderFailure)
}

func TestModeParsingAndText(t *testing.T) {
	for _, m := range Modes() {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	m, err := ParseMode(" Podcast ")
	require.NoError(t, err)
	assert.Equal(t, ModePodcast, m)

	_, err = ParseMode("opera")
	assert.ErrorIs(t, err, fault.ErrInvalidSettings)

	data, err := json.Marshal(struct {
		Mode Mode           `json:"mode"`
		Beat BeatCorrection `json:"beat"`
	}{ModeInstrumental, BeatPrecise})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"instrumental","beat":"precise"}`, string(data))

	_, err = Mode(42).MarshalText()
	assert.ErrorIs(t, err, fault.ErrInvalidSettings)
	assert.Equal(t, "mode(42)", Mode(42).String())
}

func TestBeatCorrectionParsing(t *testing.T) {
	var b BeatCorrection
	require.NoError(t, b.UnmarshalText([]byte("BALANCED")))
	assert.Equal(t, BeatBalanced, b)

	assert.Error(t, b.UnmarshalText([]byte("sloppy")))
	assert.Equal(t, BeatBalanced, b, "failed parse leaves value untouched")

	assert.Len(t, BeatCorrections(), 3)
	assert.False(t, BeatCorrection(-1).Valid())
}
