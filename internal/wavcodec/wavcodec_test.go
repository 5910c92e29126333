package wavcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/testutil"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

func TestHeaderLayout(t *testing.T) {
	buf := testutil.Sine(44100, 2, 1000, 440, 0.5)
	data, err := Encode(buf)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+4000)

	le := binary.LittleEndian
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(4036), le.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint32(16), le.Uint32(data[16:20]))
	assert.Equal(t, uint16(1), le.Uint16(data[20:22]))
	assert.Equal(t, uint16(2), le.Uint16(data[22:24]))
	assert.Equal(t, uint32(44100), le.Uint32(data[24:28]))
	assert.Equal(t, uint32(44100*2*2), le.Uint32(data[28:32]))
	assert.Equal(t, uint16(4), le.Uint16(data[32:34]))
	assert.Equal(t, uint16(16), le.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(4000), le.Uint32(data[40:44]))

	h, err := Probe(data)
	require.NoError(t, err)
	assert.Equal(t, 1000, h.Frames())
	assert.Equal(t, uint32(4036), h.RIFFSize)
	assert.Equal(t, uint32(4000), h.DataLength)
}

func TestQuantizeAsymmetry(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{-1, -32768},
		{1, 32767},
		{0, 0},
		{-0.5, -16384},
		{0.5, 16383},
		{-3, -32768},
		{2.5, 32767},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantize(tt.in), "sample %v", tt.in)
	}
}

func TestSamplesAreInterleaved(t *testing.T) {
	buf, err := waveform.FromChannels(8000, [][]float64{{1, -1}, {0.5, -0.5}, {0, 0.25}})
	require.NoError(t, err)

	data, err := Encode(buf)
	require.NoError(t, err)

	var got []int16
	for i := HeaderSize; i < len(data); i += 2 {
		got = append(got, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	assert.Equal(t, []int16{32767, 16383, 0, -32768, -16384, 8191}, got)
}

func TestRoundTripThroughGoAudioDecoder(t *testing.T) {
	buf := testutil.Noise(44100, 2, 1000, 0.8, 21)
	data, err := Encode(buf)
	require.NoError(t, err)

	d := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, d.IsValidFile())
	assert.Equal(t, uint16(2), d.NumChans)
	assert.Equal(t, uint32(44100), d.SampleRate)
	assert.Equal(t, uint16(16), d.BitDepth)

	pcm, err := d.FullPCMBuffer()
	require.NoError(t, err)
	require.Len(t, pcm.Data, 2000)
	for i := range 1000 {
		assert.Equal(t, int(Quantize(buf.Channels[0][i])), pcm.Data[2*i])
		assert.Equal(t, int(Quantize(buf.Channels[1][i])), pcm.Data[2*i+1])
	}
}

func TestDecodeRecoversSamples(t *testing.T) {
	buf := testutil.Music(48000, 3000, 6)
	data, err := Encode(buf)
	require.NoError(t, err)

	got, info, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	testutil.AssertSameShape(t, buf, got)
	assert.Equal(t, Info{SampleRate: 48000, Channels: 2, BitDepth: 16, Frames: 3000, Seconds: 0.0625}, info)
	testutil.AssertBuffersEqual(t, buf, got, 1.0/32767)

	full, err := waveform.FromChannels(48000, [][]float64{{-1, 1, 0}})
	require.NoError(t, err)
	data, err = Encode(full)
	require.NoError(t, err)
	got, _, err = Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1, 0}, got.Channels[0], "full scale survives exactly")
}

func TestWriteToMatchesEncode(t *testing.T) {
	buf := testutil.Noise(22050, 3, 9000, 0.5, 2) // spans several chunks
	want, err := Encode(buf)
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := WriteTo(&out, buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, out.Bytes())
}

func TestEncodeEmptyBuffer(t *testing.T) {
	data, err := Encode(waveform.New(44100, 1, 0))
	require.NoError(t, err)
	require.Len(t, data, HeaderSize)
	h, err := Probe(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(36), h.RIFFSize)
	assert.Zero(t, h.DataLength)
}

func TestEncodeRejectsInvalidBuffers(t *testing.T) {
	ragged := &waveform.Buffer{SampleRate: 44100, Channels: [][]float64{{0, 0}, {0}}}
	_, err := Encode(ragged)
	assert.ErrorIs(t, err, fault.ErrDimensionMismatch)

	_, err = WriteTo(&bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, fault.ErrInvalidState)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteToPropagatesWriterErrors(t *testing.T) {
	_, err := WriteTo(failingWriter{}, testutil.Noise(44100, 2, 100000, 0.1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestProbeRejectsGarbage(t *testing.T) {
	good, err := Encode(waveform.New(44100, 2, 10))
	require.NoError(t, err)

	tests := []struct {
		name string
		mut  func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:20] }},
		{"riff", func(b []byte) []byte { copy(b[0:4], "RIFX"); return b }},
		{"wave", func(b []byte) []byte { copy(b[8:12], "AVI "); return b }},
		{"data", func(b []byte) []byte { copy(b[36:40], "LIST"); return b }},
		{"fmt size", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[16:20], 18); return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Probe(tt.mut(append([]byte(nil), good...)))
			assert.ErrorIs(t, err, fault.ErrDecodeFailure)
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("definitely not a wav file, just some text padding it out")))
	assert.ErrorIs(t, err, fault.ErrDecodeFailure)

	_, _, err = DecodeFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, fault.ErrDecodeFailure)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	buf := testutil.Sine(32000, 1, 640, 1000, 0.25)
	require.NoError(t, EncodeFile(path, buf))

	got, info, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 640, info.Frames)
	testutil.AssertBuffersEqual(t, buf, got, 1.0/32767)
}
