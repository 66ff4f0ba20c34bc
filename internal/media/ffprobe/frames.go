package ffprobe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// PictureTypes returns the picture type ("I", "P", "B", ...) of every frame
// in the first video stream, in decode order.
func PictureTypes(ctx context.Context, binary string, path string) ([]string, error) {
	binary = defaultBinary(binary)
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ffprobe frames: empty path")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_frames",
		"-show_entries", "frame=pict_type",
		"-of", "csv=print_section=0",
		"--", path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe frames: %w: %s", err, stderrOf(err))
	}
	return parsePictureTypes(output), nil
}

func parsePictureTypes(output []byte) []string {
	var types []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Some builds append a trailing separator or side data columns.
		if head, _, found := strings.Cut(line, ","); found {
			line = strings.TrimSpace(head)
		}
		types = append(types, line)
	}
	return types
}
