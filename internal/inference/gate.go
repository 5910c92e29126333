package inference

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Spectral gate defaults.
const (
	defaultGateFrameSize = 2048
	defaultGateStrength  = 1.5
	defaultGateFloor     = 0.1

	// noiseProfileFraction is the share of quietest frames averaged into the noise profile.
	noiseProfileFraction = 0.1

	gateEpsilon = 1e-12
)

// SpectralGate is the deterministic Denoiser: spectral subtraction against a
// noise profile estimated from the quietest frames of each channel, with 50%
// overlapping Hann frames so unity gains reconstruct the input exactly.
type SpectralGate struct {
	readiness
	frameSize int
	strength  float64
	floor     float64
}

// GateOption configures a SpectralGate.
type GateOption func(*SpectralGate)

// WithFrameSize sets the analysis frame size. It is rounded up to an even value.
func WithFrameSize(n int) GateOption {
	return func(g *SpectralGate) {
		if n >= 16 {
			g.frameSize = n + n%2
		}
	}
}

// WithStrength sets the over-subtraction factor.
func WithStrength(s float64) GateOption {
	return func(g *SpectralGate) {
		if s > 0 {
			g.strength = s
		}
	}
}

// WithFloor sets the minimum per-bin gain in (0, 1].
func WithFloor(f float64) GateOption {
	return func(g *SpectralGate) {
		if f > 0 && f <= 1 {
			g.floor = f
		}
	}
}

// NewSpectralGate creates a spectral gate. It still has to be initialized.
func NewSpectralGate(opts ...GateOption) *SpectralGate {
	g := &SpectralGate{
		frameSize: defaultGateFrameSize,
		strength:  defaultGateStrength,
		floor:     defaultGateFloor,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Denoise implements Denoiser.
func (g *SpectralGate) Denoise(b *waveform.Buffer) (*waveform.Buffer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	fft := fourier.NewFFT(g.frameSize)
	window := hann(g.frameSize)
	return b.MapChannels(func(_ int, dst, src []float64) {
		g.processChannel(dst, src, fft, window)
	}), nil
}

func (g *SpectralGate) processChannel(dst, src []float64, fft *fourier.FFT, window []float64) {
	n := g.frameSize
	hop := n / 2

	// Pad so every input sample is covered by exactly two frames.
	padded := make([]float64, hop+len(src)+n)
	copy(padded[hop:], src)
	numFrames := (len(padded)-n)/hop + 1

	frame := make([]float64, n)
	load := func(idx int) {
		start := idx * hop
		for i := range frame {
			frame[i] = padded[start+i] * window[i]
		}
	}

	noise := g.noiseProfile(padded, len(src), numFrames, fft, load, frame)
	if noise == nil {
		copy(dst, src)
		return
	}

	out := make([]float64, len(padded))
	var coeffs []complex128
	scale := 1 / float64(n)
	for idx := range numFrames {
		load(idx)
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			mag := math.Hypot(real(c), imag(c))
			gain := math.Max(g.floor, 1-g.strength*noise[k]/(mag+gateEpsilon))
			coeffs[k] = c * complex(gain, 0)
		}
		frame = fft.Sequence(frame, coeffs)
		start := idx * hop
		for i, v := range frame {
			out[start+i] += v * scale
		}
	}
	copy(dst, out[hop:hop+len(src)])
}

// noiseProfile averages the magnitude spectra of the quietest non-silent
// frames that lie fully inside the signal. It returns nil when the channel
// is digital silence.
func (g *SpectralGate) noiseProfile(padded []float64, signalLen, numFrames int, fft *fourier.FFT,
	load func(int), frame []float64,
) []float64 {
	n := g.frameSize
	hop := n / 2

	type frameEnergy struct {
		idx    int
		energy float64
	}
	var inner, all []frameEnergy
	for idx := range numFrames {
		load(idx)
		var e float64
		for _, v := range frame {
			e += v * v
		}
		if e <= 0 {
			continue
		}
		fe := frameEnergy{idx: idx, energy: e}
		all = append(all, fe)
		start := idx * hop
		if start >= hop && start+n <= hop+signalLen {
			inner = append(inner, fe)
		}
	}

	candidates := inner
	if len(candidates) == 0 {
		candidates = all
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].energy < candidates[j].energy
	})
	count := max(1, int(float64(len(candidates))*noiseProfileFraction))

	profile := make([]float64, n/2+1)
	var coeffs []complex128
	for _, fe := range candidates[:count] {
		load(fe.idx)
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			profile[k] += math.Hypot(real(c), imag(c))
		}
	}
	for k := range profile {
		profile[k] /= float64(count)
	}
	return profile
}
