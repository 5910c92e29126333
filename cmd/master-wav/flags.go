package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	mastering "github.com/tphakala/go-audio-mastering"
	"github.com/tphakala/go-audio-mastering/internal/logging"
	"github.com/tphakala/go-audio-mastering/internal/simdops"
)

const modeAuto = "auto"

// Flag names shared by several commands.
const (
	flagMode             = "mode"
	flagTargetLUFS       = "target-lufs"
	flagDryWet           = "dry-wet"
	flagNoiseReduction   = "noise-reduction"
	flagBeatQuantization = "beat-quantization"
	flagSwing            = "swing"
	flagPreserveTempo    = "preserve-tempo"
	flagPreserveTone     = "preserve-tone"
	flagBeatCorrection   = "beat-correction"
	flagLoudness         = "loudness"
	flagDenoiser         = "denoiser"
	flagJSON             = "json"
	flagOutDir           = "out-dir"
	flagWorkers          = "workers"
	flagLogLevel         = "log-level"
	flagLogFormat        = "log-format"
)

type loggerKey struct{}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level: debug, info, warn, error",
			Value:   "info",
			Sources: cli.EnvVars("MASTER_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    flagLogFormat,
			Usage:   "Log format: text or json",
			Value:   string(logging.FormatText),
			Sources: cli.EnvVars("MASTER_LOG_FORMAT"),
		},
	}
}

func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger, err := logging.New(logging.Options{
		Level:  cmd.String(flagLogLevel),
		Format: logging.Format(cmd.String(flagLogFormat)),
		Output: cmd.Root().ErrWriter,
	})
	if err != nil {
		return ctx, err
	}
	logger.WithField("simd", simdops.Info()).Debug("vector kernels selected")
	return context.WithValue(ctx, loggerKey{}, logger), nil
}

// loggerFrom returns the logger stored by setupLogger, or a discard logger.
func loggerFrom(ctx context.Context) *logrus.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*logrus.Logger); ok {
		return l
	}
	return logging.Discard()
}

func settingsFlags() []cli.Flag {
	d := mastering.DefaultSettings()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagMode,
			Aliases: []string{"m"},
			Usage:   "Content mode: music, podcast, vocal, instrumental or auto",
			Value:   d.Mode.String(),
			Sources: cli.EnvVars("MASTER_MODE"),
		},
		&cli.FloatFlag{
			Name:    flagTargetLUFS,
			Aliases: []string{"t"},
			Usage:   "Target loudness in dB (-70 to 0)",
			Value:   d.TargetLUFS,
			Sources: cli.EnvVars("MASTER_TARGET_LUFS"),
		},
		&cli.FloatFlag{
			Name:    flagDryWet,
			Usage:   "Percentage of processed signal in the output (0-100)",
			Value:   d.DryWet,
			Sources: cli.EnvVars("MASTER_DRY_WET"),
		},
		&cli.FloatFlag{
			Name:    flagNoiseReduction,
			Aliases: []string{"n"},
			Usage:   "Noise reduction amount (0-100)",
			Value:   d.NoiseReduction,
			Sources: cli.EnvVars("MASTER_NOISE_REDUCTION"),
		},
		&cli.FloatFlag{
			Name:    flagBeatQuantization,
			Usage:   "Transient shaping amount (0-100)",
			Value:   d.BeatQuantization,
			Sources: cli.EnvVars("MASTER_BEAT_QUANTIZATION"),
		},
		&cli.BoolFlag{
			Name:    flagSwing,
			Usage:   "Lengthen transient release to keep swing feel",
			Value:   d.SwingPreservation,
			Sources: cli.EnvVars("MASTER_SWING"),
		},
		&cli.BoolFlag{
			Name:    flagPreserveTempo,
			Usage:   "Use gentler transient shaping",
			Value:   d.PreserveTempo,
			Sources: cli.EnvVars("MASTER_PRESERVE_TEMPO"),
		},
		&cli.BoolFlag{
			Name:    flagPreserveTone,
			Usage:   "Soften tone-altering processing",
			Value:   d.PreserveTone,
			Sources: cli.EnvVars("MASTER_PRESERVE_TONE"),
		},
		&cli.StringFlag{
			Name:    flagBeatCorrection,
			Usage:   "Transient shaping base: gentle, balanced, precise",
			Value:   d.BeatCorrection.String(),
			Sources: cli.EnvVars("MASTER_BEAT_CORRECTION"),
		},
		&cli.StringFlag{
			Name:    flagLoudness,
			Usage:   "Loudness estimator: rms or bs1770",
			Value:   "rms",
			Sources: cli.EnvVars("MASTER_LOUDNESS"),
		},
		&cli.StringFlag{
			Name:    flagDenoiser,
			Usage:   "Extra denoiser ahead of the noise stage: none or spectral",
			Value:   "none",
			Sources: cli.EnvVars("MASTER_DENOISER"),
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagOutDir,
			Aliases: []string{"o"},
			Usage:   "Directory for mastered files",
			Value:   ".",
			Sources: cli.EnvVars("MASTER_OUT_DIR"),
		},
		&cli.IntFlag{
			Name:    flagWorkers,
			Aliases: []string{"w"},
			Usage:   "Number of files mastered concurrently",
			Value:   runtime.GOMAXPROCS(0),
			Sources: cli.EnvVars("MASTER_WORKERS"),
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: flagJSON, Usage: "Print results as JSON"}
}

// jobConfig is everything a command needs to master one file.
type jobConfig struct {
	settings mastering.Settings
	autoMode bool
	options  []mastering.Option
}

func jobConfigFrom(ctx context.Context, cmd *cli.Command) (jobConfig, error) {
	s := mastering.DefaultSettings()
	cfg := jobConfig{}

	if m := cmd.String(flagMode); strings.EqualFold(strings.TrimSpace(m), modeAuto) {
		cfg.autoMode = true
	} else {
		mode, err := mastering.ParseMode(m)
		if err != nil {
			return cfg, fmt.Errorf("--%s: %w", flagMode, err)
		}
		s.Mode = mode
	}

	beat, err := mastering.ParseBeatCorrection(cmd.String(flagBeatCorrection))
	if err != nil {
		return cfg, fmt.Errorf("--%s: %w", flagBeatCorrection, err)
	}
	s.BeatCorrection = beat
	s.TargetLUFS = cmd.Float(flagTargetLUFS)
	s.DryWet = cmd.Float(flagDryWet)
	s.NoiseReduction = cmd.Float(flagNoiseReduction)
	s.BeatQuantization = cmd.Float(flagBeatQuantization)
	s.SwingPreservation = cmd.Bool(flagSwing)
	s.PreserveTempo = cmd.Bool(flagPreserveTempo)
	s.PreserveTone = cmd.Bool(flagPreserveTone)
	if err := s.Validate(); err != nil {
		return cfg, err
	}
	cfg.settings = s

	cfg.options = []mastering.Option{mastering.WithLogger(loggerFrom(ctx))}
	est, err := estimatorOption(cmd.String(flagLoudness))
	if err != nil {
		return cfg, err
	}
	cfg.options = append(cfg.options, est)
	switch dn := strings.ToLower(cmd.String(flagDenoiser)); dn {
	case "none", "":
	case "spectral":
		cfg.options = append(cfg.options, mastering.WithDenoiser(mastering.SpectralDenoiser()))
	default:
		return cfg, fmt.Errorf("--%s: unknown denoiser %q", flagDenoiser, dn)
	}
	return cfg, nil
}

func estimatorOption(name string) (mastering.Option, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rms", "":
		return mastering.WithEstimator(mastering.RMSLoudness()), nil
	case "bs1770", "gated", "lufs":
		return mastering.WithEstimator(mastering.GatedLoudness()), nil
	}
	return nil, fmt.Errorf("--%s: unknown estimator %q", flagLoudness, name)
}
