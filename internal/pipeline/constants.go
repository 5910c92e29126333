package pipeline

import (
	"fmt"
	"strings"

	"github.com/tphakala/go-audio-mastering/internal/fault"
)

// Mode enumerates the content types the tone and stereo presets are tuned for.
type Mode int

const (
	// ModeMusic is full-range program material.
	ModeMusic Mode = iota

	// ModePodcast is spoken word, often several voices.
	ModePodcast

	// ModeVocal is a single voice or vocal-forward mix.
	ModeVocal

	// ModeInstrumental is music without a lead vocal.
	ModeInstrumental
)

var modeNames = [...]string{"music", "podcast", "vocal", "instrumental"}

// Modes lists every mode in table order.
func Modes() []Mode {
	return []Mode{ModeMusic, ModePodcast, ModeVocal, ModeInstrumental}
}

// String returns the lower-case mode name.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeMusic && m <= ModeInstrumental
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Mode(i), nil
		}
	}
	return ModeMusic, fmt.Errorf("%w: unknown mode %q", fault.ErrInvalidSettings, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %d", fault.ErrInvalidSettings, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// BeatCorrection selects how aggressively the transient stage works.
// Values are ordered from least to most aggressive.
type BeatCorrection int

const (
	// BeatGentle applies light transient shaping.
	BeatGentle BeatCorrection = iota

	// BeatBalanced is the middle setting.
	BeatBalanced

	// BeatPrecise applies the strongest shaping.
	BeatPrecise
)

var beatNames = [...]string{"gentle", "balanced", "precise"}

// BeatCorrections lists every correction mode from gentle to precise.
func BeatCorrections() []BeatCorrection {
	return []BeatCorrection{BeatGentle, BeatBalanced, BeatPrecise}
}

// String returns the lower-case correction name.
func (b BeatCorrection) String() string {
	if b < 0 || int(b) >= len(beatNames) {
		return fmt.Sprintf("beat(%d)", int(b))
	}
	return beatNames[b]
}

// Valid reports whether b is one of the defined correction modes.
func (b BeatCorrection) Valid() bool {
	return b >= BeatGentle && b <= BeatPrecise
}

// ParseBeatCorrection parses a correction mode name, case-insensitively.
func ParseBeatCorrection(s string) (BeatCorrection, error) {
	for i, name := range beatNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return BeatCorrection(i), nil
		}
	}
	return BeatGentle, fmt.Errorf("%w: unknown beat correction %q", fault.ErrInvalidSettings, s)
}

// MarshalText implements encoding.TextMarshaler.
func (b BeatCorrection) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: unknown beat correction %d", fault.ErrInvalidSettings, int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BeatCorrection) UnmarshalText(text []byte) error {
	parsed, err := ParseBeatCorrection(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
