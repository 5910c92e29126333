package inference

import (
	"math"

	"github.com/tphakala/go-audio-mastering/internal/pipeline"
	"github.com/tphakala/go-audio-mastering/internal/waveform"
)

// Classifier analysis parameters.
const (
	classifyFrameSize  = 4096
	classifyMaxSeconds = 60

	lowBandHz      = 150.0
	voiceBandLowHz = 300.0
	voiceBandHiHz  = 3400.0

	// silentFrameDB is the frame level below which a frame counts as a pause.
	silentFrameDB = -50.0

	speechLowRatio     = 0.1
	speechCentroidHz   = 2500.0
	podcastPauseRatio  = 0.2
	instrumentalVoiceR = 0.3
)

// Analysis is the spectral summary a classification is based on.
type Analysis struct {
	Mode           pipeline.Mode `json:"mode"`
	CentroidHz     float64       `json:"centroid_hz"`
	Flatness       float64       `json:"flatness"`
	LowRatio       float64       `json:"low_ratio"`
	VoiceRatio     float64       `json:"voice_ratio"`
	SilentFraction float64       `json:"silent_fraction"`
}

// SpectralClassifier is the deterministic Classifier. It looks at where the
// energy sits and how often the program pauses:
//   - little bass, energy centred below 2.5 kHz: speech, split into podcast
//     (frequent pauses) and vocal
//   - little energy in the voice band: instrumental
//   - everything else: music
type SpectralClassifier struct {
	readiness
}

// NewSpectralClassifier creates a spectral classifier. It still has to be initialized.
func NewSpectralClassifier() *SpectralClassifier {
	return &SpectralClassifier{}
}

// Classify implements Classifier.
func (c *SpectralClassifier) Classify(b *waveform.Buffer) (Analysis, error) {
	if err := b.Validate(); err != nil {
		return Analysis{}, err
	}

	x := mixdown(b)
	if limit := classifyMaxSeconds * b.SampleRate; len(x) > limit {
		x = x[:limit]
	}

	spectra := powerSpectra(x, classifyFrameSize, classifyFrameSize)
	binHz := float64(b.SampleRate) / classifyFrameSize

	avg := make([]float64, classifyFrameSize/2+1)
	var silent int
	for _, power := range spectra {
		var frameEnergy float64
		for k, p := range power {
			avg[k] += p
			frameEnergy += p
		}
		// Normalize by window energy (N * 3/8 for Hann) and frame length.
		meanSquare := 2 * frameEnergy / (classifyFrameSize * classifyFrameSize * 0.375)
		if meanSquare <= 0 || 10*math.Log10(meanSquare) < silentFrameDB {
			silent++
		}
	}

	a := Analysis{SilentFraction: float64(silent) / float64(len(spectra))}

	var total, weighted, low, voice, logSum float64
	var counted int
	for k := 1; k < len(avg); k++ {
		p := avg[k]
		f := float64(k) * binHz
		total += p
		weighted += p * f
		if f < lowBandHz {
			low += p
		}
		if f >= voiceBandLowHz && f <= voiceBandHiHz {
			voice += p
		}
		logSum += math.Log(p + 1e-20)
		counted++
	}

	if total <= 0 {
		a.Mode = pipeline.ModeMusic
		return a, nil
	}

	a.CentroidHz = weighted / total
	a.LowRatio = low / total
	a.VoiceRatio = voice / total
	a.Flatness = math.Exp(logSum/float64(counted)) / (total / float64(counted))
	a.Mode = decideMode(a)
	return a, nil
}

func decideMode(a Analysis) pipeline.Mode {
	switch {
	case a.LowRatio < speechLowRatio && a.CentroidHz < speechCentroidHz && a.VoiceRatio >= instrumentalVoiceR:
		if a.SilentFraction >= podcastPauseRatio {
			return pipeline.ModePodcast
		}
		return pipeline.ModeVocal
	case a.VoiceRatio < instrumentalVoiceR:
		return pipeline.ModeInstrumental
	default:
		return pipeline.ModeMusic
	}
}
