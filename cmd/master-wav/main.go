// Command master-wav masters WAV files: noise suppression, content-aware
// tone shaping, stereo imaging, transient shaping and loudness
// normalization, followed by a dry/wet blend and 16-bit PCM export.
//
// Usage:
//
//	master-wav master --mode podcast --target-lufs -16 in.wav out.wav
//	master-wav master --mode auto --dry-wet 70 in.wav out.wav
//	master-wav analyze --json a.wav b.wav
//	master-wav batch --out-dir mastered --workers 4 *.wav
//	master-wav watch --out-dir mastered incoming/
//
// Every settings flag can also be set through a MASTER_* environment
// variable, for example MASTER_TARGET_LUFS=-16.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

const appVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "master-wav: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "master-wav",
		Usage:   "Offline audio mastering for WAV files",
		Version: appVersion,
		Flags:   loggingFlags(),
		Before:  setupLogger,
		Commands: []*cli.Command{
			masterCommand(),
			analyzeCommand(),
			batchCommand(),
			watchCommand(),
		},
	}
}
