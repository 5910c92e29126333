package mastering

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tphakala/go-audio-mastering/internal/inference"
	"github.com/tphakala/go-audio-mastering/internal/loudness"
	"github.com/tphakala/go-audio-mastering/internal/mix"
	"github.com/tphakala/go-audio-mastering/internal/wavcodec"
)

// WAVInfo describes a decoded WAV file.
type WAVInfo = wavcodec.Info

// Mix blends dry and wet: dry*(1-w) + wet*w with w = wetPercent/100.
// At 100 or more it returns wet itself, at 0 or less dry itself.
// Shapes must match or the error matches ErrDimensionMismatch.
func Mix(dry, wet *Buffer, wetPercent float64) (*Buffer, error) {
	return mix.Mix(dry, wet, wetPercent)
}

// Measure returns the loudness and peak of b with the default estimator.
func Measure(b *Buffer) Measurement {
	return loudness.New().Measure(b)
}

// SuggestMode classifies b with the deterministic spectral classifier and
// returns fallback if classification is not possible.
func SuggestMode(ctx context.Context, b *Buffer, fallback Mode) Mode {
	return inference.ResolveMode(ctx, inference.NewSpectralClassifier(), b, fallback)
}

// EncodeWAV serializes b as a canonical 16-bit PCM WAV file.
func EncodeWAV(b *Buffer) ([]byte, error) {
	return wavcodec.Encode(b)
}

// WriteWAV streams b to w as a canonical 16-bit PCM WAV file.
func WriteWAV(w io.Writer, b *Buffer) (int64, error) {
	return wavcodec.WriteTo(w, b)
}

// DecodeWAV reads an integer PCM WAV stream. Errors match ErrDecodeFailure.
func DecodeWAV(r io.ReadSeeker) (*Buffer, WAVInfo, error) {
	return wavcodec.Decode(r)
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (*Buffer, WAVInfo, error) {
	return wavcodec.DecodeFile(path)
}

// WriteWAVFile encodes b to path.
func WriteWAVFile(path string, b *Buffer) error {
	return wavcodec.EncodeFile(path, b)
}

// MasterWAV decodes a WAV stream, masters it, mixes at settings.DryWet and
// writes the result to out.
func MasterWAV(ctx context.Context, in io.ReadSeeker, out io.Writer, settings Settings, opts ...Option) (Results, error) {
	dry, _, err := wavcodec.Decode(in)
	if err != nil {
		return Results{}, err
	}
	wet, res, err := NewPipeline(opts...).Run(ctx, dry, settings)
	if err != nil {
		return Results{}, err
	}
	mixed, err := mix.Mix(dry, wet, settings.DryWet)
	if err != nil {
		return Results{}, err
	}
	if _, err := wavcodec.WriteTo(out, mixed); err != nil {
		return Results{}, fmt.Errorf("write output: %w", err)
	}
	return res, nil
}

// MasterFile is MasterWAV for file paths. The output is written to memory
// first so a failed run never leaves a truncated file behind.
func MasterFile(ctx context.Context, inPath, outPath string, settings Settings, opts ...Option) (Results, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return Results{}, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	res, err := MasterWAV(ctx, f, &buf, settings, opts...)
	if err != nil {
		return Results{}, err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return Results{}, fmt.Errorf("write %s: %w", outPath, err)
	}
	return res, nil
}
