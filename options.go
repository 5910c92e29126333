package mastering

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-audio-mastering/internal/inference"
	"github.com/tphakala/go-audio-mastering/internal/logging"
	"github.com/tphakala/go-audio-mastering/internal/loudness"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
)

// Estimator computes the loudness of a buffer in dB.
type Estimator = loudness.Estimator

// Renderer runs a configured stage chain over a whole buffer.
type Renderer = pipeline.Renderer

// Denoiser is a learned or deterministic broadband noise remover.
type Denoiser = inference.Denoiser

// Classifier suggests a content mode for a buffer.
type Classifier = inference.Classifier

type config struct {
	log       logrus.FieldLogger
	estimator Estimator
	denoiser  Denoiser
	renderer  Renderer
}

// Option configures a Pipeline or Session.
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithEstimator replaces the loudness estimator. The default is RMSLoudness.
func WithEstimator(e Estimator) Option {
	return func(c *config) {
		c.estimator = e
	}
}

// WithDenoiser attaches a denoiser to the noise stage. It is initialized
// lazily and bypassed whenever it is not ready.
func WithDenoiser(d Denoiser) Option {
	return func(c *config) {
		c.denoiser = d
	}
}

// WithRenderer replaces the offline renderer.
func WithRenderer(r Renderer) Option {
	return func(c *config) {
		c.renderer = r
	}
}

func newConfig(opts []Option) config {
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.estimator == nil {
		c.estimator = loudness.RMS{}
	}
	if c.renderer == nil {
		log := c.log
		c.renderer = pipeline.NewOfflineRenderer(pipeline.WithStageHook(func(d Descriptor, elapsed time.Duration) {
			log.WithFields(logrus.Fields{
				"stage":         d.Stage,
				"preset":        d.Preset,
				"preserve_tone": d.PreserveTone,
				"elapsed":       elapsed,
			}).Debug("stage rendered")
		}))
	}
	return c
}

// RMSLoudness is the default estimator: mean-square energy across all
// channels converted to dB.
func RMSLoudness() Estimator { return loudness.RMS{} }

// GatedLoudness is an ITU-R BS.1770 style estimator with K-weighting and
// absolute and relative gating.
func GatedLoudness() Estimator { return loudness.Gated{} }

// SpectralDenoiser returns the deterministic spectral-gate denoiser.
func SpectralDenoiser() Denoiser { return inference.NewSpectralGate() }

// SpectralClassifier returns the deterministic content classifier.
func SpectralClassifier() Classifier { return inference.NewSpectralClassifier() }
