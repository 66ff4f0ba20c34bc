package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"keyframer/internal/metrics"
	"keyframer/internal/pipeline"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.Options
	var ffmpegPath, ffprobePath, binDir string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "extract <video>",
		Short: "Extract one keyframe per shot of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ffmpegPath != "" {
				cfg.Binaries.FFmpeg = ffmpegPath
			}
			if ffprobePath != "" {
				cfg.Binaries.FFprobe = ffprobePath
			}
			if binDir != "" {
				cfg.Binaries.Dir = binDir
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts.Video = args[0]
			res, err := pipeline.New(cfg, logger, metrics.New()).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, res)
			}
			printRunResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "m", "", "Selection method: iframes, color, or flow")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Keyframe output directory (name next to the video, or absolute)")
	cmd.Flags().StringVar(&opts.FramesDir, "frames-dir", "", "Working frames directory (name next to the video, or absolute)")
	cmd.Flags().BoolVar(&opts.KeepFrames, "no-frames-rm", false, "Keep the extracted frames directory")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Shots scanned in parallel (0 uses the configured value)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the result cache")
	cmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "", "ffmpeg executable")
	cmd.Flags().StringVar(&ffprobePath, "ffprobe", "", "ffprobe executable")
	cmd.Flags().StringVar(&binDir, "bin-dir", "", "Directory searched for ffmpeg and ffprobe before PATH")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printRunResult(out io.Writer, res pipeline.Result) {
	fmt.Fprintf(out, "Video:      %s\n", res.Video)
	fmt.Fprintf(out, "Method:     %s\n", methodTitle(res.Method))
	fmt.Fprintf(out, "Cached:     %s\n", yesNo(res.CacheHit))
	fmt.Fprintf(out, "Boundaries: %s\n", joinInts(res.Boundaries))
	if len(res.Keyframes) == 0 {
		fmt.Fprintln(out, "No complete shots; no keyframes selected")
		return
	}
	fmt.Fprintln(out, renderShotTable(res.Boundaries, res.Keyframes))
	if res.CopySkipped {
		fmt.Fprintf(out, "Output %s is not empty; keyframes were not written\n", res.OutputDir)
		return
	}
	fmt.Fprintf(out, "Wrote %d keyframes to %s\n", len(res.Files), res.OutputDir)
}

// renderShotTable lists each shot's frame range next to its keyframe. For
// iframes the keyframes are the boundaries themselves.
func renderShotTable(boundaries, keyframes []int) string {
	rows := make([][]string, 0, len(keyframes))
	for i, kf := range keyframes {
		span := "-"
		if i+1 < len(boundaries) {
			span = fmt.Sprintf("%d-%d", boundaries[i], boundaries[i+1]-1)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			span,
			strconv.Itoa(kf),
			strconv.Itoa(kf+1) + ".*",
		})
	}
	return renderTable(
		[]string{"Shot", "Frames", "Keyframe", "File"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "none"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
