// Package mix blends the unprocessed and processed versions of a program.
package mix

import (
	"fmt"
	"math"

	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/simdops"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Bounds of the wet percentage.
const (
	FullyDry = 0.0
	FullyWet = 100.0
)

// Mix returns dry*(1-w) + wet*w per sample, with w = wetPercent/100.
// At or above 100 it returns wet itself, at or below 0 dry itself.
// The buffers must have identical shape; otherwise the error matches
// fault.ErrDimensionMismatch (or fault.ErrInvalidState for nil input).
// A NaN wetPercent fails with fault.ErrInvalidSettings.
func Mix(dry, wet *waveform.Buffer, wetPercent float64) (*waveform.Buffer, error) {
	if math.IsNaN(wetPercent) {
		return nil, fmt.Errorf("%w: wet percentage is NaN", fault.ErrInvalidSettings)
	}
	if err := waveform.CheckShape(dry, wet); err != nil {
		return nil, err
	}
	if err := dry.Validate(); err != nil {
		return nil, err
	}

	switch {
	case wetPercent >= FullyWet:
		return wet, nil
	case wetPercent <= FullyDry:
		return dry, nil
	}

	w := wetPercent / FullyWet
	out := dry.EmptyLike()
	for ch := range out.Channels {
		simdops.Blend(out.Channels[ch], dry.Channels[ch], wet.Channels[ch], 1-w, w)
	}
	return out, nil
}
