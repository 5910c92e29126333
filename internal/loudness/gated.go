package loudness

import (
	"math"

	"github.com/tphakala/go-audio-mastering/internal/filter"
	"github.com/tphakala/go-audio-mastering/internal/mathutil"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Gating parameters for the BS.1770 integrated measurement.
const (
	gateBlockSeconds = 0.4
	gateHopSeconds   = 0.1
	absoluteGateLUFS = -70.0
	relativeGateLU   = -10.0
	lkfsOffset       = -0.691
)

// K-weighting prototype parameters.
const (
	preFilterFreq  = 1681.974450955533
	preFilterGain  = 3.999843853973347
	preFilterQ     = 0.7071752369554196
	preFilterShelf = 0.4996667741545416
	rlbFreq        = 38.13547087602444
	rlbQ           = 0.5003270373238773
)

// Gated is an ITU-R BS.1770 style estimator: K-weighted, 400 ms blocks with
// 75% overlap, absolute gate at -70 LUFS and a relative gate 10 LU below the
// ungated mean.
type Gated struct{}

// Name implements Estimator.
func (Gated) Name() string { return "bs1770" }

// Loudness implements Estimator.
func (Gated) Loudness(b *waveform.Buffer) float64 {
	pre, rlb := KWeighting(b.SampleRate)
	numFrames := b.NumFrames()

	// K-weighted power per frame, summed over channels.
	power := make([]float64, numFrames)
	scratch := make([]float64, numFrames)
	for ch, data := range b.Channels {
		filter.Cascade(scratch, data, pre, rlb)
		w := channelWeight(ch, b.NumChannels())
		for i, s := range scratch {
			power[i] += w * s * s
		}
	}

	blocks := blockPowers(power, b.SampleRate)

	absGated := blocks[:0:0]
	for _, z := range blocks {
		if blockLoudness(z) > absoluteGateLUFS {
			absGated = append(absGated, z)
		}
	}
	if len(absGated) == 0 {
		return mathutil.LoudnessFloorDB
	}

	relGate := blockLoudness(mean(absGated)) + relativeGateLU
	relGated := absGated[:0:0]
	for _, z := range absGated {
		if blockLoudness(z) > relGate {
			relGated = append(relGated, z)
		}
	}
	if len(relGated) == 0 {
		return mathutil.LoudnessFloorDB
	}
	return blockLoudness(mean(relGated))
}

// blockPowers returns the mean power of each gating block. Buffers shorter
// than one block are measured as a single block.
func blockPowers(power []float64, sampleRate int) []float64 {
	size := int(gateBlockSeconds * float64(sampleRate))
	hop := int(gateHopSeconds * float64(sampleRate))
	if size < 1 || hop < 1 || len(power) <= size {
		return []float64{mean(power)}
	}

	var blocks []float64
	for start := 0; start+size <= len(power); start += hop {
		blocks = append(blocks, mean(power[start:start+size]))
	}
	return blocks
}

func blockLoudness(z float64) float64 {
	if z <= 0 {
		return math.Inf(-1)
	}
	return lkfsOffset + 10*math.Log10(z)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// channelWeight applies the surround weighting: rear channels of a 5.x layout
// count +1.5 dB, everything else unity.
func channelWeight(ch, numChannels int) float64 {
	if numChannels > 4 && (ch == 3 || ch == 4) {
		return 1.41
	}
	return 1.0
}

// KWeighting returns the two K-weighting sections (pre-filter high shelf and
// RLB high-pass) designed for sampleRate.
func KWeighting(sampleRate int) (pre, rlb filter.Biquad) {
	fs := float64(sampleRate)

	k := math.Tan(math.Pi * preFilterFreq / fs)
	vh := math.Pow(10, preFilterGain/20)
	vb := math.Pow(vh, preFilterShelf)
	a0 := 1 + k/preFilterQ + k*k
	pre = filter.Biquad{
		B0: (vh + vb*k/preFilterQ + k*k) / a0,
		B1: 2 * (k*k - vh) / a0,
		B2: (vh - vb*k/preFilterQ + k*k) / a0,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/preFilterQ + k*k) / a0,
	}

	k = math.Tan(math.Pi * rlbFreq / fs)
	a0 = 1 + k/rlbQ + k*k
	rlb = filter.Biquad{
		B0: 1 / a0,
		B1: -2 / a0,
		B2: 1 / a0,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/rlbQ + k*k) / a0,
	}
	return pre, rlb
}
