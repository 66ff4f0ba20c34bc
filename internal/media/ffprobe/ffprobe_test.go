package ffprobe

import (
	"context"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"keyframer/internal/testsupport"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 640, Height: 360, AvgFrameRate: "30000/1001", NbFrames: "250"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	stream, ok := result.VideoStream()
	if !ok || stream.Width != 640 {
		t.Fatalf("expected video stream, got %+v", stream)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.EstimatedFrames() != 250 {
		t.Fatalf("expected nb_frames to win, got %d", result.EstimatedFrames())
	}
	if fps := stream.FrameRate(); math.Abs(fps-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate %v", fps)
	}
}

func TestEstimatedFramesFallsBackToDuration(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "25/1"}},
		Format:  Format{Duration: "10.02"},
	}
	if got := result.EstimatedFrames(); got != 251 {
		t.Fatalf("expected 251 frames, got %d", got)
	}
	if got := (Result{}).EstimatedFrames(); got != 0 {
		t.Fatalf("expected 0 without video, got %d", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if got := parseRational("abc/def"); got != 0 {
		t.Fatalf("expected 0 for invalid rational, got %v", got)
	}
}

func TestParsePictureTypes(t *testing.T) {
	got := parsePictureTypes([]byte("I\nP\n\nB,\nI,side\n"))
	want := []string{"I", "P", "B", "I"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPictureTypesRunsBinary(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	bin := testsupport.WriteScript(t, dir, "ffprobe", `echo "$@" > `+argsFile+`
printf 'I\nP\nB\nI\n'`)

	got, err := PictureTypes(context.Background(), bin, "/videos/clip.mp4")
	if err != nil {
		t.Fatalf("PictureTypes: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"I", "P", "B", "I"}) {
		t.Fatalf("unexpected picture types %v", got)
	}
	args := testsupport.ReadFile(t, argsFile)
	for _, want := range []string{"-select_streams v:0", "frame=pict_type", "csv=print_section=0", "-- /videos/clip.mp4"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in args %q", want, args)
		}
	}
}

func TestPictureTypesReportsStderr(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "ffprobe", `echo "clip.mp4: No such file" >&2
exit 1`)
	_, err := PictureTypes(context.Background(), bin, "clip.mp4")
	if err == nil || !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
	if _, err := PictureTypes(context.Background(), bin, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
