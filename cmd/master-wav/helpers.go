package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	mastering "github.com/tphakala/go-audio-mastering"
	"github.com/tphakala/go-audio-mastering/internal/queue"
)

const masteredSuffix = "_mastered"

// isWAV reports whether path has a .wav or .wave extension.
func isWAV(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return true
	}
	return false
}

// isMastered reports whether path looks like one of our own outputs.
func isMastered(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(stem, masteredSuffix)
}

// outputPath maps an input file to its mastered name inside outDir.
func outputPath(inPath, outDir string) string {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+masteredSuffix+".wav")
}

// masterFile decodes inPath, masters it and writes the dry/wet blend to outPath.
func masterFile(ctx context.Context, inPath, outPath string, cfg jobConfig) (mastering.Results, error) {
	dry, _, err := mastering.ReadWAVFile(inPath)
	if err != nil {
		return mastering.Results{}, err
	}

	settings := cfg.settings
	if cfg.autoMode {
		settings.Mode = mastering.SuggestMode(ctx, dry, settings.Mode)
	}

	wet, res, err := mastering.NewPipeline(cfg.options...).Run(ctx, dry, settings)
	if err != nil {
		return res, err
	}
	out, err := mastering.Mix(dry, wet, settings.DryWet)
	if err != nil {
		return res, err
	}
	if err := mastering.WriteWAVFile(outPath, out); err != nil {
		return res, fmt.Errorf("write %s: %w", outPath, err)
	}
	return res, nil
}

// fileProcessor masters queued files into outDir.
func fileProcessor(outDir string, cfg jobConfig) queue.Processor {
	return func(ctx context.Context, job queue.Job) (mastering.Results, error) {
		c := cfg
		c.settings = job.Settings
		return masterFile(ctx, job.FileName, outputPath(job.FileName, outDir), c)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(w io.Writer, name string, res mastering.Results) {
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  loudness:  %7.2f -> %7.2f dB (%s)\n", res.InputLUFS, res.OutputLUFS, res.Estimator)
	fmt.Fprintf(w, "  peak:      %7.2f -> %7.2f dB (measured %.2f dB)\n", res.InputPeak, res.OutputPeak, res.WetPeak)
	fmt.Fprintf(w, "  gain:      %+7.2f dB", res.GainDB)
	if res.PeakLimited {
		fmt.Fprint(w, " (peak limited)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  noise:     %7.2f dB reduced\n", res.NoiseReduction)
}

func printJobs(w io.Writer, jobs []queue.Job) {
	for _, j := range jobs {
		if j.Status == queue.StatusFailed {
			fmt.Fprintf(w, "%s: failed: %s\n", j.FileName, j.Error)
			continue
		}
		if j.Results != nil {
			printResults(w, j.FileName, *j.Results)
		}
	}
}
