package wavcodec

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// Unsigned 8-bit PCM is centred on this value.
	unsigned8BitOffset = 128
)

// Info describes a decoded file.
type Info struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Frames     int     `json:"frames"`
	Seconds    float64 `json:"seconds"`
}

// Decode reads an integer PCM WAV stream into a float buffer. Samples map
// back to [-1, 1] with the same asymmetric scale the encoder uses, so an
// encoded buffer decodes to its quantized values exactly.
// All errors match fault.ErrDecodeFailure.
func Decode(r io.ReadSeeker) (*waveform.Buffer, Info, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, Info{}, fmt.Errorf("%w: not a valid WAV stream", fault.ErrDecodeFailure)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, Info{}, fmt.Errorf("%w: unsupported WAV format tag %d", fault.ErrDecodeFailure, d.WavAudioFormat)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: read PCM: %w", fault.ErrDecodeFailure, err)
	}

	numChannels := pcm.Format.NumChannels
	bitDepth := int(d.BitDepth)
	if numChannels < 1 || pcm.Format.SampleRate <= 0 {
		return nil, Info{}, fmt.Errorf("%w: %d channels at %d Hz", fault.ErrDecodeFailure, numChannels, pcm.Format.SampleRate)
	}
	posMax := float64(audio.IntMaxSignedValue(bitDepth))
	if posMax == 0 {
		return nil, Info{}, fmt.Errorf("%w: unsupported bit depth %d", fault.ErrDecodeFailure, bitDepth)
	}
	negMax := posMax + 1

	frames := len(pcm.Data) / numChannels
	buf := waveform.New(pcm.Format.SampleRate, numChannels, frames)
	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			v := pcm.Data[base+ch]
			if bitDepth == 8 {
				v -= unsigned8BitOffset
			}
			if v < 0 {
				buf.Channels[ch][i] = float64(v) / negMax
			} else {
				buf.Channels[ch][i] = float64(v) / posMax
			}
		}
	}

	info := Info{
		SampleRate: buf.SampleRate,
		Channels:   numChannels,
		BitDepth:   bitDepth,
		Frames:     frames,
		Seconds:    buf.Duration(),
	}
	return buf, info, nil
}

// DecodeFile opens and decodes a WAV file.
func DecodeFile(path string) (*waveform.Buffer, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", fault.ErrDecodeFailure, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// EncodeFile writes b to path, replacing any existing file.
func EncodeFile(path string, b *waveform.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := WriteTo(f, b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
