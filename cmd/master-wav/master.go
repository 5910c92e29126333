package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func masterCommand() *cli.Command {
	return &cli.Command{
		Name:      "master",
		Usage:     "Master a single WAV file",
		ArgsUsage: "<input.wav> <output.wav>",
		Flags:     append(settingsFlags(), jsonFlag()),
		Action:    runMaster,
	}
}

func runMaster(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return fmt.Errorf("expected input and output paths, got %d arguments", cmd.NArg())
	}
	in, out := cmd.Args().Get(0), cmd.Args().Get(1)

	cfg, err := jobConfigFrom(ctx, cmd)
	if err != nil {
		return err
	}
	loggerFrom(ctx).WithField("input", in).Debug("mastering file")

	res, err := masterFile(ctx, in, out, cfg)
	if err != nil {
		return err
	}
	if cmd.Bool(flagJSON) {
		return writeJSON(cmd.Root().Writer, res)
	}
	printResults(cmd.Root().Writer, out, res)
	return nil
}
