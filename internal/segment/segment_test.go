package segment

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"keyframer/internal/services"
	"keyframer/internal/testsupport"
)

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  []int
	}{
		{"none", nil, []int{}},
		{"mixed", []string{"I", "P", "B", "P", "I", "B", "I"}, []int{0, 4, 6}},
		{"case sensitive", []string{"i", "I", "Intra"}, []int{1}},
		{"no iframes", []string{"P", "B"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Boundaries(tt.types); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Boundaries = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectUsesFFprobe(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "ffprobe", `printf 'I\nP\nP\nI\nB\nP\nI\n'`)

	got, err := Detect(context.Background(), bin, "clip.mp4", nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !reflect.DeepEqual(got, []int{0, 3, 6}) {
		t.Fatalf("unexpected boundaries %v", got)
	}
}

func TestScanVideoCountsFrames(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "ffprobe", `printf 'I\nP\nB\nI\nP\n'`)

	scan, err := ScanVideo(context.Background(), bin, "clip.mp4", nil)
	if err != nil {
		t.Fatalf("ScanVideo: %v", err)
	}
	if scan.Frames != 5 || !reflect.DeepEqual(scan.Boundaries, []int{0, 3}) {
		t.Fatalf("unexpected scan %+v", scan)
	}
}

func TestDetectWrapsToolFailure(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "ffprobe", `echo "Invalid data found" >&2; exit 1`)

	_, err := Detect(context.Background(), bin, "clip.mp4", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
