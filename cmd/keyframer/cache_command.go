package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"keyframer/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached selections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			printCacheEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printCacheEntries(out io.Writer, entries []cache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached results: none")
		return
	}
	const stampLayout = "2006-01-02 15:04"
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			filepath.Base(entry.VideoPath),
			methodTitle(entry.Method),
			strconv.Itoa(max(len(entry.Boundaries)-1, 0)),
			strconv.Itoa(len(entry.Keyframes)),
			humanBytes(entry.Key.Size),
			entry.CreatedAt.Local().Format(stampLayout),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Video", "Method", "Shots", "Keyframes", "Size", "Cached"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached results to remove")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results\n", removed)
			return nil
		},
	}
}

// openCache returns nil without error when the cache is disabled.
func openCache(cmd *cobra.Command, ctx *commandContext) (*cache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Result cache is disabled (cache.enabled = false)")
		return nil, nil
	}
	if cfg.Cache.Path == "" {
		return nil, errors.New("cache.path is not set")
	}
	return cache.Open(cmd.Context(), cfg.Cache.Path)
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
