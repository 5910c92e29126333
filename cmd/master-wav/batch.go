package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	mastering "github.com/tphakala/go-audio-mastering"
	"github.com/tphakala/go-audio-mastering/internal/queue"
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Master many WAV files concurrently",
		ArgsUsage: "<file.wav>...",
		Flags:     append(append(settingsFlags(), outputFlags()...), jsonFlag()),
		Action:    runBatch,
	}
}

func runBatch(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("no input files")
	}
	cfg, err := jobConfigFrom(ctx, cmd)
	if err != nil {
		return err
	}
	outDir := cmd.String(flagOutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := loggerFrom(ctx)
	q := queue.New(queue.WithLogger(log))
	if err := enqueueFiles(q, cmd.Args().Slice(), outDir, cfg.settings); err != nil {
		return err
	}

	progress := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(cmd.Root().ErrWriter))
	bar := progress.AddBar(int64(len(q.ListQueued())),
		mpb.PrependDecorators(
			decor.Name("Mastering: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)

	process := withProgress(fileProcessor(outDir, cfg), bar.Increment)
	pool := queue.NewPool(q, process, queue.WithWorkers(cmd.Int(flagWorkers)))
	runErr := pool.Drain(ctx)
	if runErr != nil || ctx.Err() != nil {
		bar.Abort(false)
	}
	progress.Wait()
	if runErr != nil {
		return runErr
	}

	jobs := q.ListCompleted(0)
	if cmd.Bool(flagJSON) {
		if err := writeJSON(cmd.Root().Writer, jobs); err != nil {
			return err
		}
	} else {
		printJobs(cmd.Root().Writer, jobs)
	}
	return batchError(jobs, ctx.Err())
}

// enqueueFiles adds every path to q. Directories, non-WAV files and inputs
// that would write the same file under outDir are rejected before anything
// is queued.
func enqueueFiles(q *queue.Queue, paths []string, outDir string, settings mastering.Settings) error {
	sizes := make([]int64, len(paths))
	outputs := make(map[string]string, len(paths))
	for i, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if fi.IsDir() || !isWAV(path) {
			return fmt.Errorf("%s: not a WAV file", path)
		}
		out := outputPath(path, outDir)
		if prev, dup := outputs[out]; dup {
			return fmt.Errorf("%s and %s both write %s", prev, path, out)
		}
		outputs[out] = path
		sizes[i] = fi.Size()
	}
	for i, path := range paths {
		if _, err := q.Enqueue(path, sizes[i], settings); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// withProgress calls step after every job, successful or not.
func withProgress(process queue.Processor, step func()) queue.Processor {
	return func(ctx context.Context, job queue.Job) (mastering.Results, error) {
		defer step()
		return process(ctx, job)
	}
}

func batchError(jobs []queue.Job, cause error) error {
	failed := 0
	for _, j := range jobs {
		if j.Status == queue.StatusFailed {
			failed++
		}
	}
	if cause != nil {
		return fmt.Errorf("batch interrupted after %d files: %w", len(jobs), cause)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(jobs))
	}
	return nil
}
