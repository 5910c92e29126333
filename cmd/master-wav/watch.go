package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	mastering "github.com/tphakala/go-audio-mastering"
	"github.com/tphakala/go-audio-mastering/internal/queue"
)

// watchSettle is how long a file must go without Create or Write events
// before it is considered complete.
const watchSettle = 2 * time.Second

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Master WAV files as they appear in a directory",
		ArgsUsage: "<directory>",
		Flags:     append(settingsFlags(), outputFlags()...),
		Action:    runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected one directory to watch")
	}
	dir := cmd.Args().First()
	cfg, err := jobConfigFrom(ctx, cmd)
	if err != nil {
		return err
	}
	outDir := cmd.String(flagOutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	log := loggerFrom(ctx)
	q := queue.New(queue.WithLogger(log))
	pool := queue.NewPool(q, fileProcessor(outDir, cfg), queue.WithWorkers(cmd.Int(flagWorkers)))
	log.WithFields(logrus.Fields{"dir": dir, "out_dir": outDir, "workers": pool.Workers()}).Info("watching for WAV files")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(ctx) })
	g.Go(func() error {
		return watchEvents(ctx, watcher.Events, watcher.Errors, q, cfg.settings, watchSettle, log)
	})
	err = g.Wait()
	if ctx.Err() != nil && err == nil {
		log.Info("watch stopped")
	}
	return err
}

// settling tracks a file that is still being written. gen tells a stale
// timer fire apart from the current one.
type settling struct {
	timer *time.Timer
	gen   uint64
}

type settled struct {
	path string
	gen  uint64
}

// watchEvents enqueues each new WAV file reported on events once it has seen
// no Create or Write event for settle, using its final size. It returns when
// ctx is done. Our own outputs are skipped so an output directory inside the
// watched one does not loop.
func watchEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	q *queue.Queue, settings mastering.Settings, settle time.Duration, log logrus.FieldLogger,
) error {
	seen := make(map[string]struct{})
	pending := make(map[string]*settling)
	ready := make(chan settled)
	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	var gen uint64
	arm := func(path string) {
		if p, ok := pending[path]; ok {
			p.timer.Stop()
		}
		gen++
		fire := settled{path: path, gen: gen}
		pending[path] = &settling{
			gen: gen,
			timer: time.AfterFunc(settle, func() {
				select {
				case ready <- fire:
				case <-ctx.Done():
				}
			}),
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !isWAV(path) || isMastered(path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if p, ok := pending[path]; ok {
					p.timer.Stop()
					delete(pending, path)
				}
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				if _, dup := seen[path]; dup {
					continue
				}
				arm(path)
			}
		case fire := <-ready:
			p, ok := pending[fire.path]
			if !ok || p.gen != fire.gen {
				continue
			}
			delete(pending, fire.path)
			fi, err := os.Stat(fire.path)
			if err != nil || fi.IsDir() {
				continue
			}
			seen[fire.path] = struct{}{}
			if _, err := q.Enqueue(fire.path, fi.Size(), settings); err != nil {
				log.WithError(err).WithField("file", fire.path).Warn("enqueue failed")
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}
