package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"keyframer/internal/config"
	"keyframer/internal/frames"
	"keyframer/internal/keyframe"
	"keyframer/internal/services"
)

type selectOutput struct {
	FramesDir  string `json:"frames_dir"`
	Method     string `json:"method"`
	Boundaries []int  `json:"boundaries"`
	Keyframes  []int  `json:"keyframes"`
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var boundariesFlag string
	var methodFlag string
	var extFlag string
	var workers int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "select <frames-dir>",
		Short: "Select keyframes from an already extracted frames directory",
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
			method, err := keyframe.ParseMethod(methodFlag)
			if err != nil {
				return err
			}
			boundaries, err := parseBoundaries(boundariesFlag)
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "select", "frames dir", args[0], err)
			}
			ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extFlag)), ".")
			if ext == "" {
				ext = cfg.Extraction.ImageExt
			}
			if workers <= 0 {
				workers = cfg.Workers(runtime.GOMAXPROCS(0))
			}

			selector := keyframe.NewSelector(frames.NewDir(dir, ext), workers, logger)
			keyframes, err := selector.Select(cmd.Context(), method, boundaries)
			if err != nil {
				return err
			}
			res := selectOutput{FramesDir: dir, Method: string(method), Boundaries: boundaries, Keyframes: keyframes}
			if jsonOutput {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Method:    %s\n", methodTitle(res.Method))
			fmt.Fprintf(out, "Keyframes: %s\n", joinInts(keyframes))
			if len(keyframes) > 0 {
				fmt.Fprintln(out, renderShotTable(boundaries, keyframes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&boundariesFlag, "boundaries", "", "Comma separated shot start indices, e.g. 0,10,25")
	cmd.Flags().StringVarP(&methodFlag, "method", "m", string(keyframe.MethodColor), "Selection method: iframes, color, or flow")
	cmd.Flags().StringVar(&extFlag, "ext", "", "Frame image extension (defaults to extraction.image_ext)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Shots scanned in parallel (0 uses the configured value)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("boundaries")
	return cmd
}

// parseBoundaries reads "0,10,25" into indices. Blank entries are ignored;
// ordering is checked by the selector.
func parseBoundaries(value string) ([]int, error) {
	fields := strings.Split(value, ",")
	out := make([]int, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "select", "parse boundaries", fmt.Sprintf("invalid index %q", field), err)
		}
		out = append(out, n)
	}
	return out, nil
}
