package mastering

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-audio-mastering/internal/engine"
	"github.com/tphakala/go-audio-mastering/internal/inference"
	"github.com/tphakala/go-audio-mastering/internal/loudness"
	"github.com/tphakala/go-audio-mastering/internal/pipeline"
)

// Pipeline measures a buffer, runs the four mastering stages and the
// normalization gain in one offline render, and reports the results.
//
// A Pipeline holds no audio between runs. Each Run builds its own stage
// instances, so concurrent runs on one Pipeline are safe.
type Pipeline struct {
	cfg      config
	analyzer *loudness.Analyzer
}

// NewPipeline creates a pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	cfg := newConfig(opts)
	return &Pipeline{
		cfg:      cfg,
		analyzer: loudness.New(loudness.WithEstimator(cfg.estimator)),
	}
}

// Measure returns the loudness and peak of b.
func (p *Pipeline) Measure(b *Buffer) Measurement {
	return p.analyzer.Measure(b)
}

// EstimatorName names the loudness algorithm behind Measure and Results.
func (p *Pipeline) EstimatorName() string {
	return p.analyzer.EstimatorName()
}

// Run masters buf with settings and returns the wet buffer. buf is not
// modified. On error no buffer is returned.
func (p *Pipeline) Run(ctx context.Context, buf *Buffer, settings Settings) (*Buffer, Results, error) {
	if buf == nil || buf.NumChannels() == 0 {
		return nil, Results{}, fmt.Errorf("%w: no buffer loaded", ErrInvalidState)
	}
	if err := buf.Validate(); err != nil {
		return nil, Results{}, err
	}
	if err := settings.Validate(); err != nil {
		return nil, Results{}, err
	}

	in := p.analyzer.Measure(buf)

	if p.cfg.denoiser != nil {
		ready, err := inference.Ensure(ctx, p.cfg.denoiser)
		switch {
		case err != nil:
			p.cfg.log.WithError(err).Warn("denoiser failed to initialize, using deterministic noise suppression only")
		case !ready:
			p.cfg.log.Warn("denoiser unavailable, using deterministic noise suppression only")
		}
	}
	noise := engine.NewNoiseSuppressor(engine.WithDenoiser(p.cfg.denoiser))
	chain := engine.DefaultChain(noise)
	chain.Configure(settings.params())

	sol := SolveGain(in.LoudnessDB, in.PeakDB, settings.TargetLUFS)
	chain = pipeline.NewChain(append(chain.Stages(), engine.NewGain(sol.GainDB))...)

	wet, err := p.cfg.renderer.Render(ctx, chain, buf)
	if err != nil {
		if !errors.Is(err, ErrRenderFailure) {
			err = fmt.Errorf("%w: %w", ErrRenderFailure, err)
		}
		p.cfg.log.WithError(err).Error("render failed")
		return nil, Results{}, err
	}

	res := Results{
		InputLUFS:      in.LoudnessDB,
		OutputLUFS:     sol.OutputLUFS,
		InputPeak:      in.PeakDB,
		OutputPeak:     sol.OutputPeak,
		WetPeak:        p.analyzer.MeasurePeak(wet),
		NoiseReduction: noise.EstimateReduction(),
		GainDB:         sol.GainDB,
		PeakLimited:    sol.Limited,
		Estimator:      p.analyzer.EstimatorName(),
		Stages:         chain.Describe(),
	}

	p.cfg.log.WithFields(logrus.Fields{
		"mode":         settings.Mode.String(),
		"input_lufs":   res.InputLUFS,
		"output_lufs":  res.OutputLUFS,
		"input_peak":   res.InputPeak,
		"output_peak":  res.OutputPeak,
		"wet_peak":     res.WetPeak,
		"gain_db":      res.GainDB,
		"peak_limited": res.PeakLimited,
	}).Info("mastering run complete")

	return wet, res, nil
}

// GainSolution is the outcome of SolveGain.
type GainSolution struct {
	GainDB     float64 `json:"gain_db"`
	OutputLUFS float64 `json:"output_lufs"`
	OutputPeak float64 `json:"output_peak"`
	Limited    bool    `json:"limited"`
}

// SolveGain computes the normalization gain that moves inputLUFS to
// targetLUFS. If that gain would push inputPeak above PeakCeilingDB, the
// gain is reduced to land the peak exactly on the ceiling; the reported
// output loudness is then the achieved, lower value.
func SolveGain(inputLUFS, inputPeak, targetLUFS float64) GainSolution {
	gain := targetLUFS - inputLUFS
	sol := GainSolution{GainDB: gain, OutputLUFS: targetLUFS}
	if inputPeak+gain > PeakCeilingDB {
		sol.GainDB = PeakCeilingDB - inputPeak
		sol.OutputLUFS = min(0, inputLUFS+sol.GainDB)
		sol.Limited = true
	}
	sol.OutputPeak = min(0, inputPeak+sol.GainDB)
	return sol
}
