package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Renderer runs a configured chain over a complete buffer in one pass.
// Implementations either return a full output buffer or an error that
// matches fault.ErrRenderFailure; they never expose partial output.
type Renderer interface {
	Render(ctx context.Context, chain *Chain, in *waveform.Buffer) (*waveform.Buffer, error)
}

// StageHook is called after each stage completes.
type StageHook func(d Descriptor, elapsed time.Duration)

// OfflineRenderer is the default non-real-time Renderer. It checks ctx
// between stages and converts stage errors and panics into *RenderError.
type OfflineRenderer struct {
	hook StageHook
}

// RendererOption configures an OfflineRenderer.
type RendererOption func(*OfflineRenderer)

// WithStageHook registers a callback invoked after every stage.
func WithStageHook(h StageHook) RendererOption {
	return func(r *OfflineRenderer) {
		r.hook = h
	}
}

// NewOfflineRenderer creates an offline renderer.
func NewOfflineRenderer(opts ...RendererOption) *OfflineRenderer {
	r := &OfflineRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements Renderer.
func (r *OfflineRenderer) Render(ctx context.Context, chain *Chain, in *waveform.Buffer) (*waveform.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, &RenderError{Stage: "input", Err: err}
	}
	if chain == nil || chain.Len() == 0 {
		return in.Clone(), nil
	}

	current := in
	for _, s := range chain.Stages() {
		if err := ctx.Err(); err != nil {
			return nil, &RenderError{Stage: s.Name(), Err: err}
		}

		start := time.Now()
		out, err := runGuarded(s, current)
		if err != nil {
			return nil, &RenderError{Stage: s.Name(), Err: err}
		}
		if r.hook != nil {
			r.hook(s.Describe(), time.Since(start))
		}
		current = out
	}
	return current, nil
}

func runGuarded(s Stage, in *waveform.Buffer) (out *waveform.Buffer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return RunStage(s, in)
}

// RenderError reports which stage stopped a render. It matches both
// fault.ErrRenderFailure and the underlying cause under errors.Is.
type RenderError struct {
	Stage string
	Err   error
}

// Error implements error.
func (e *RenderError) Error() string {
	return fmt.Sprintf("%v: stage %s: %v", fault.ErrRenderFailure, e.Stage, e.Err)
}

// Unwrap exposes the failure category and the cause.
func (e *RenderError) Unwrap() []error {
	return []error{fault.ErrRenderFailure, e.Err}
}
