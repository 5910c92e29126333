// Package wavcodec reads and writes the canonical RIFF/WAVE container.
//
// Encoding always produces a 44-byte header followed by interleaved
// little-endian 16-bit PCM. Decoding accepts any integer PCM file the
// go-audio/wav decoder understands.
package wavcodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/simdops"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Container layout constants.
const (
	HeaderSize = 44

	riffChunkOverhead  = 36 // header bytes counted by the RIFF size field
	pcmFormatChunkSize = 16
	formatPCM          = 1
	bitsPerSample      = 16
	bytesPerSample     = bitsPerSample / 8

	// Asymmetric scaling keeps both ends of [-1, 1] inside int16.
	negativeScale = 32768.0
	positiveScale = 32767.0

	// chunkFrames is how many frames WriteTo converts per write.
	chunkFrames = 4096

	writerBufferSize = 64 * 1024
)

// Header mirrors the fields of the canonical 44-byte header.
type Header struct {
	RIFFSize      uint32 `json:"riff_size"`
	AudioFormat   uint16 `json:"audio_format"`
	Channels      uint16 `json:"channels"`
	SampleRate    uint32 `json:"sample_rate"`
	ByteRate      uint32 `json:"byte_rate"`
	BlockAlign    uint16 `json:"block_align"`
	BitsPerSample uint16 `json:"bits_per_sample"`
	DataLength    uint32 `json:"data_length"`
}

// Frames returns the number of frames described by the header.
func (h Header) Frames() int {
	if h.BlockAlign == 0 {
		return 0
	}
	return int(h.DataLength) / int(h.BlockAlign)
}

// HeaderFor computes the header for a buffer. The buffer must be valid.
func HeaderFor(b *waveform.Buffer) (Header, error) {
	if err := b.Validate(); err != nil {
		return Header{}, err
	}
	dataLength := uint64(b.NumFrames()) * uint64(b.NumChannels()) * bytesPerSample
	byteRate := uint64(b.SampleRate) * uint64(b.NumChannels()) * bytesPerSample
	if dataLength+riffChunkOverhead > math.MaxUint32 || byteRate > math.MaxUint32 || b.NumChannels() > math.MaxUint16/bytesPerSample {
		return Header{}, fmt.Errorf("%w: %d channels x %d frames at %d Hz does not fit a RIFF container",
			fault.ErrDimensionMismatch, b.NumChannels(), b.NumFrames(), b.SampleRate)
	}
	channels := uint16(b.NumChannels())
	return Header{
		RIFFSize:      riffChunkOverhead + uint32(dataLength),
		AudioFormat:   formatPCM,
		Channels:      channels,
		SampleRate:    uint32(b.SampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    channels * bytesPerSample,
		BitsPerSample: bitsPerSample,
		DataLength:    uint32(dataLength),
	}, nil
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	header := make([]byte, HeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], h.RIFFSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], pcmFormatChunkSize)
	binary.LittleEndian.PutUint16(header[20:22], h.AudioFormat)
	binary.LittleEndian.PutUint16(header[22:24], h.Channels)
	binary.LittleEndian.PutUint32(header[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], h.ByteRate)
	binary.LittleEndian.PutUint16(header[32:34], h.BlockAlign)
	binary.LittleEndian.PutUint16(header[34:36], h.BitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], h.DataLength)
	return header
}

// Probe parses a canonical 44-byte header.
func Probe(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes, need %d", fault.ErrDecodeFailure, len(data), HeaderSize)
	}
	for _, m := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(data[m.off : m.off+4]); got != m.want {
			return Header{}, fmt.Errorf("%w: expected %q at byte %d, got %q", fault.ErrDecodeFailure, m.want, m.off, got)
		}
	}
	if size := binary.LittleEndian.Uint32(data[16:20]); size != pcmFormatChunkSize {
		return Header{}, fmt.Errorf("%w: format chunk is %d bytes, need %d", fault.ErrDecodeFailure, size, pcmFormatChunkSize)
	}
	return Header{
		RIFFSize:      binary.LittleEndian.Uint32(data[4:8]),
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(data[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(data[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
		DataLength:    binary.LittleEndian.Uint32(data[40:44]),
	}, nil
}

// Quantize converts a sample to int16: clamp to [-1, 1], then scale
// negatives by 32768 and non-negatives by 32767.
func Quantize(s float64) int16 {
	switch {
	case math.IsNaN(s):
		return 0
	case s < -1:
		s = -1
	case s > 1:
		s = 1
	}
	if s < 0 {
		return int16(s * negativeScale)
	}
	return int16(s * positiveScale)
}

// Encode serializes b into a complete container in memory.
func Encode(b *waveform.Buffer) ([]byte, error) {
	h, err := HeaderFor(b)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Grow(HeaderSize + int(h.DataLength))
	if _, err := writeContainer(&out, b, h); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// WriteTo streams the container for b to w and returns the bytes written.
func WriteTo(w io.Writer, b *waveform.Buffer) (int64, error) {
	h, err := HeaderFor(b)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(w, writerBufferSize)
	n, err := writeContainer(bw, b, h)
	if err != nil {
		return n, err
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flush output: %w", err)
	}
	return n, nil
}

func writeContainer(w io.Writer, b *waveform.Buffer, h Header) (int64, error) {
	written, err := w.Write(h.Bytes())
	total := int64(written)
	if err != nil {
		return total, fmt.Errorf("write header: %w", err)
	}

	numChannels := b.NumChannels()
	frames := b.NumFrames()
	interleaved := make([]float64, min(chunkFrames, frames)*numChannels)
	pcm := make([]byte, len(interleaved)*bytesPerSample)
	view := make([][]float64, numChannels)

	for start := 0; start < frames; start += chunkFrames {
		end := min(start+chunkFrames, frames)
		for ch := range view {
			view[ch] = b.Channels[ch][start:end]
		}
		n := (end - start) * numChannels
		simdops.Interleave(interleaved[:n], view)
		for i, s := range interleaved[:n] {
			binary.LittleEndian.PutUint16(pcm[i*bytesPerSample:], uint16(Quantize(s)))
		}
		written, err := w.Write(pcm[:n*bytesPerSample])
		total += int64(written)
		if err != nil {
			return total, fmt.Errorf("write samples: %w", err)
		}
	}
	return total, nil
}
