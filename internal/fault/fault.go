// Package fault defines the error categories shared by every mastering package.
// Callers match categories with errors.Is; the original cause stays reachable
// through wrapping.
package fault

import "errors"

var (
	// ErrInvalidState indicates an operation ran before its required buffer was loaded.
	ErrInvalidState = errors.New("invalid state")

	// ErrDimensionMismatch indicates buffers with incompatible shape or sample rate.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrRenderFailure indicates the offline render could not complete.
	ErrRenderFailure = errors.New("render failure")

	// ErrDecodeFailure indicates the input could not be decoded into a buffer.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrInvalidSettings indicates a settings record outside its documented ranges.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrStaleRender indicates a render finished after a newer buffer was loaded.
	ErrStaleRender = errors.New("stale render")

	// ErrJobNotFound indicates an unknown job identifier.
	ErrJobNotFound = errors.New("job not found")
)
