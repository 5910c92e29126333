// Package inference defines the contract for learned processors (denoisers,
// content classifiers) and ships deterministic spectral fallbacks that satisfy
// it without any model weights.
//
// Callers never assume a learned model is present: every consumer checks
// IsReady and falls back to the deterministic path when it is not.
package inference

import (
	"context"
	"sync/atomic"

	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Model is the lifecycle shared by every inference strategy.
type Model interface {
	// Initialize prepares the model. It reports whether the model is ready;
	// a false result with a nil error means the model is unavailable and the
	// caller should use its fallback.
	Initialize(ctx context.Context) (bool, error)

	// IsReady reports whether a previous Initialize succeeded.
	IsReady() bool
}

// Denoiser removes broadband noise. Output must have the same shape as input
// and must not alias it.
type Denoiser interface {
	Model
	Denoise(b *waveform.Buffer) (*waveform.Buffer, error)
}

// Classifier suggests a content mode for a buffer.
type Classifier interface {
	Model
	Classify(b *waveform.Buffer) (Analysis, error)
}

// readiness is embedded by the deterministic fallbacks. They need no weights,
// so Initialize always succeeds unless the context is already done.
type readiness struct {
	ready atomic.Bool
}

func (r *readiness) Initialize(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.ready.Store(true)
	return true, nil
}

func (r *readiness) IsReady() bool {
	return r.ready.Load()
}

// Ensure initializes m if it is not ready yet and reports readiness along
// with any Initialize error. A nil model is simply not ready.
func Ensure(ctx context.Context, m Model) (bool, error) {
	if m == nil {
		return false, nil
	}
	if m.IsReady() {
		return true, nil
	}
	ok, err := m.Initialize(ctx)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ResolveMode returns the classifier's suggestion, or fallback when the
// classifier is missing, cannot be initialized or fails.
func ResolveMode(ctx context.Context, c Classifier, b *waveform.Buffer, fallback pipeline.Mode) pipeline.Mode {
	if ready, err := Ensure(ctx, c); !ready || err != nil {
		return fallback
	}
	a, err := c.Classify(b)
	if err != nil || !a.Mode.Valid() {
		return fallback
	}
	return a.Mode
}
