package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"keyframer/internal/deps"
	"keyframer/internal/preflight"
	"keyframer/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			renderSection(out, "Dependencies", colorize)
			missing := 0
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg), cfg.Binaries.Dir) {
				state := binaryState(status)
				if state == stateMissing {
					missing++
				}
				fmt.Fprintln(out, renderCheckLine(status.Name, state, binaryDetail(status), colorize))
			}

			fmt.Fprintln(out)
			renderSection(out, "Directories", colorize)
			framesDir, err := filepath.Abs(cfg.Paths.FramesDir)
			if err != nil {
				return err
			}
			outputDir, err := filepath.Abs(cfg.Paths.OutputDir)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg, preflight.Targets{FramesDir: framesDir, OutputDir: outputDir})
			for _, r := range results {
				fmt.Fprintln(out, renderCheckLine(r.Name, directoryState(r), r.Detail, colorize))
			}
			fmt.Fprintln(out, renderCheckLine("Result cache", stateNote, cacheStatus(cfg.Cache.Enabled, cfg.Cache.Path), colorize))

			if missing > 0 {
				return services.Wrap(services.ErrConfiguration, "deps", "check binaries", fmt.Sprintf("%d required dependencies missing", missing), nil)
			}
			return preflight.Failed(results)
		},
	}
}

func cacheStatus(enabled bool, path string) string {
	if !enabled {
		return "disabled"
	}
	return path
}
