package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyframer/internal/deps"
	"keyframer/internal/segment"
)

type iframesOutput struct {
	Video      string `json:"video"`
	Boundaries []int  `json:"boundaries"`
	Shots      int    `json:"shots"`
}

func newIFramesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "iframes <video>",
		Short: "Print the I-frame indices that start each shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			ffprobe, err := deps.ResolveBinary(cfg.Binaries.FFprobe, cfg.Binaries.Dir)
			if err != nil {
				return err
			}
			boundaries, err := segment.Detect(cmd.Context(), ffprobe, args[0], logger)
			if err != nil {
				return err
			}
			res := iframesOutput{Video: args[0], Boundaries: boundaries, Shots: max(len(boundaries)-1, 0)}
			if jsonOutput {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "I-frames: %s\n", joinInts(boundaries))
			fmt.Fprintf(out, "Shots:    %d\n", res.Shots)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
