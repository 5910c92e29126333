// Package waveform implements the in-memory multi-channel sample container
// shared by the analyzer, the processing stages, the mixer and the encoder.
//
// A Buffer is immutable by convention: every stage reads its input and
// materializes a new Buffer for its output, so no sample slice is aliased
// across a stage boundary.
package waveform

import (
	"fmt"

	"github.com/tphakala/go-audio-mastering/internal/fault"
)

// Buffer holds planar float64 samples. Samples are nominally in [-1, 1] but
// are only clamped at encoding time.
type Buffer struct {
	// SampleRate is the sampling rate in Hz.
	SampleRate int

	// Channels holds one sample slice per channel, all of equal length.
	Channels [][]float64
}

// New allocates a zeroed buffer.
func New(sampleRate, channels, frames int) *Buffer {
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Channels: data}
}

// FromChannels wraps existing channel slices after validating them.
// The slices are not copied.
func FromChannels(sampleRate int, channels [][]float64) (*Buffer, error) {
	b := &Buffer{SampleRate: sampleRate, Channels: channels}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// NumFrames returns the number of frames per channel.
func (b *Buffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.NumFrames()) / float64(b.SampleRate)
}

// Validate checks the buffer invariants: positive sample rate, at least one
// channel, and identical channel lengths.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: buffer is nil", fault.ErrInvalidState)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", fault.ErrDimensionMismatch, b.SampleRate)
	}
	if len(b.Channels) < 1 {
		return fmt.Errorf("%w: buffer has no channels", fault.ErrDimensionMismatch)
	}
	frames := len(b.Channels[0])
	for ch, data := range b.Channels {
		if len(data) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				fault.ErrDimensionMismatch, ch, len(data), frames)
		}
	}
	return nil
}

// SameShape reports whether two buffers share sample rate, channel count and frame count.
func (b *Buffer) SameShape(other *Buffer) bool {
	if b == nil || other == nil {
		return false
	}
	return b.SampleRate == other.SampleRate &&
		b.NumChannels() == other.NumChannels() &&
		b.NumFrames() == other.NumFrames()
}

// CheckShape returns ErrDimensionMismatch when the buffers differ in shape.
func CheckShape(a, b *Buffer) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: buffer is nil", fault.ErrInvalidState)
	}
	if !a.SameShape(b) {
		return fmt.Errorf("%w: %dch/%d frames/%d Hz vs %dch/%d frames/%d Hz",
			fault.ErrDimensionMismatch,
			a.NumChannels(), a.NumFrames(), a.SampleRate,
			b.NumChannels(), b.NumFrames(), b.SampleRate)
	}
	return nil
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Channels: make([][]float64, len(b.Channels))}
	for ch, data := range b.Channels {
		out.Channels[ch] = append([]float64(nil), data...)
	}
	return out
}

// EmptyLike allocates a zeroed buffer with the same shape as b.
func (b *Buffer) EmptyLike() *Buffer {
	return New(b.SampleRate, b.NumChannels(), b.NumFrames())
}

// MapChannels builds a new buffer by applying fn to every channel.
// fn receives the source slice and must fill dst; it must not retain src.
func (b *Buffer) MapChannels(fn func(ch int, dst, src []float64)) *Buffer {
	out := b.EmptyLike()
	for ch, src := range b.Channels {
		fn(ch, out.Channels[ch], src)
	}
	return out
}
