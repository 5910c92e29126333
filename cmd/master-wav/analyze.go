package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	mastering "github.com/tphakala/go-audio-mastering"
)

// analysisReport is the analyze output for one file.
type analysisReport struct {
	File      string                `json:"file"`
	Format    mastering.WAVInfo     `json:"format"`
	Levels    mastering.Measurement `json:"levels"`
	Estimator string                `json:"estimator"`
	Suggested mastering.Mode        `json:"suggested_mode"`
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Report format, loudness, peak and suggested mode",
		ArgsUsage: "<file.wav>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagLoudness,
				Usage:   "Loudness estimator: rms or bs1770",
				Value:   "rms",
				Sources: cli.EnvVars("MASTER_LOUDNESS"),
			},
			jsonFlag(),
		},
		Action: runAnalyze,
	}
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("no input files")
	}
	est, err := estimatorOption(cmd.String(flagLoudness))
	if err != nil {
		return err
	}
	opts := []mastering.Option{est, mastering.WithLogger(loggerFrom(ctx))}

	reports := make([]analysisReport, 0, cmd.NArg())
	for _, path := range cmd.Args().Slice() {
		r, err := analyzeFile(ctx, path, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		reports = append(reports, r)
	}

	w := cmd.Root().Writer
	if cmd.Bool(flagJSON) {
		return writeJSON(w, reports)
	}
	for _, r := range reports {
		fmt.Fprintf(w, "%s: %d Hz, %d ch, %d-bit, %.2fs\n",
			r.File, r.Format.SampleRate, r.Format.Channels, r.Format.BitDepth, r.Format.Seconds)
		fmt.Fprintf(w, "  loudness %.2f dB (%s), peak %.2f dB, suggested mode %s\n",
			r.Levels.LoudnessDB, r.Estimator, r.Levels.PeakDB, r.Suggested)
	}
	return nil
}

func analyzeFile(ctx context.Context, path string, opts []mastering.Option) (analysisReport, error) {
	buf, info, err := mastering.ReadWAVFile(path)
	if err != nil {
		return analysisReport{}, err
	}
	p := mastering.NewPipeline(opts...)
	return analysisReport{
		File:      path,
		Format:    info,
		Levels:    p.Measure(buf),
		Estimator: p.EstimatorName(),
		Suggested: mastering.SuggestMode(ctx, buf, mastering.ModeMusic),
	}, nil
}
