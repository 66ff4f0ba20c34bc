package pipeline

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"keyframer/internal/cache"
	"keyframer/internal/config"
	"keyframer/internal/finalize"
	"keyframer/internal/metrics"
	"keyframer/internal/services"
	"keyframer/internal/testsupport"
)

// fakeFFprobe reports I-frames at 0, 10 and 24 of a 25-frame 64x64 clip and
// appends every invocation to a call log.
const fakeFFprobe = `echo "$*" >> "%LOG%"
case "$*" in
  *-show_frames*)
    i=0
    while [ $i -lt 25 ]; do
      case $i in
        0|10|24) echo I ;;
        *) echo P ;;
      esac
      i=$((i+1))
    done ;;
  *)
    echo '{"streams":[{"codec_type":"video","width":64,"height":64,"nb_frames":"25"}],"format":{"duration":"1.0"}}' ;;
esac`

// fakeFFmpeg copies prepared frames into the output pattern. With a select
// filter it writes one frame per eq() term.
const fakeFFmpeg = `echo "$*" >> "%LOG%"
pat=""
vf=""
prev=""
for a in "$@"; do
  case "$a" in
    *%d.*) pat="$a" ;;
  esac
  if [ "$prev" = "-vf" ]; then vf="$a"; fi
  prev="$a"
done
n=25
if [ -n "$vf" ]; then n=$(printf '%s' "$vf" | grep -o 'eq(n' | wc -l); fi
i=1
while [ $i -le $n ]; do
  cp "%SRC%/$i.png" "$(printf "$pat" $i)"
  i=$((i+1))
done`

type fixture struct {
	cfg        *config.Config
	video      string
	ffprobeLog string
	mpegLog    string
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) fixture {
	t.Helper()
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeClip(t, src)

	ffprobeLog := filepath.Join(base, "ffprobe.log")
	mpegLog := filepath.Join(base, "ffmpeg.log")
	bin := filepath.Join(base, "bin")
	ffprobe := testsupport.WriteScript(t, bin, "ffprobe", strings.ReplaceAll(fakeFFprobe, "%LOG%", ffprobeLog))
	ffmpegBody := strings.NewReplacer("%LOG%", mpegLog, "%SRC%", src).Replace(fakeFFmpeg)
	ffmpeg := testsupport.WriteScript(t, bin, "ffmpeg", ffmpegBody)

	video := filepath.Join(base, "videos", "clip.mp4")
	testsupport.WriteFile(t, video, 4096)

	opts = append([]testsupport.ConfigOption{testsupport.WithBinaries(ffmpeg, ffprobe)}, opts...)
	return fixture{
		cfg:        testsupport.NewConfig(t, opts...),
		video:      video,
		ffprobeLog: ffprobeLog,
		mpegLog:    mpegLog,
	}
}

// writeClip writes two scenes: frames 0-9 and 10-24.
func writeClip(t *testing.T, dir string) {
	t.Helper()
	bg1 := color.NRGBA{R: 20, G: 30, B: 40, A: 255}
	fg1 := color.NRGBA{R: 240, G: 200, B: 60, A: 255}
	bg2 := color.NRGBA{R: 200, G: 210, B: 220, A: 255}
	fg2 := color.NRGBA{R: 30, G: 90, B: 160, A: 255}
	for i := 0; i < 10; i++ {
		testsupport.WriteFrame(t, dir, i, "png", testsupport.SquareImage(64, 64, 8+2*i, 16, 20, bg1, fg1))
	}
	for i := 10; i < 25; i++ {
		testsupport.WriteFrame(t, dir, i, "png", testsupport.SquareImage(64, 64, 10+2*(i-10), 20, 18, bg2, fg2))
	}
}

func calls(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func countMatching(lines []string, substr string) int {
	n := 0
	for _, line := range lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func TestRunColorPublishesKeyframes(t *testing.T) {
	fx := newFixture(t)
	p := New(fx.cfg, nil, nil)

	res, err := p.Run(context.Background(), Options{Video: fx.video, Method: "color"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.Boundaries, []int{0, 10, 24}) {
		t.Fatalf("unexpected boundaries %v", res.Boundaries)
	}
	if len(res.Keyframes) != 2 {
		t.Fatalf("expected one keyframe per shot, got %v", res.Keyframes)
	}
	if res.Keyframes[0] < 0 || res.Keyframes[0] >= 10 || res.Keyframes[1] < 10 || res.Keyframes[1] >= 24 {
		t.Fatalf("keyframes outside their shots: %v", res.Keyframes)
	}
	if res.CacheHit {
		t.Fatal("first run must not be a cache hit")
	}

	wantOut := filepath.Join(filepath.Dir(fx.video), config.Default().Paths.OutputDir)
	if res.OutputDir != wantOut {
		t.Fatalf("output dir = %q, want %q", res.OutputDir, wantOut)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %v", res.Files)
	}
	for _, f := range res.Files {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("keyframe missing: %v", err)
		}
	}
	if _, err := os.Stat(res.FramesDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected frames dir removed, stat err=%v", err)
	}
	if _, err := os.Stat(res.FramesDir + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}

	manifest, err := finalize.ReadManifest(res.OutputDir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.RunID != res.RunID || manifest.Method != "color" {
		t.Fatalf("unexpected manifest header %+v", manifest)
	}
	if len(manifest.Keyframes) != 2 || manifest.Keyframes[0].Index != res.Keyframes[0] {
		t.Fatalf("unexpected manifest entries %+v", manifest.Keyframes)
	}
	for _, e := range manifest.Keyframes {
		if !strings.HasPrefix(e.PHash, "p:") {
			t.Fatalf("expected perceptual hash for %+v", e)
		}
	}
}

func TestRunKeepFrames(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled())
	res, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "flow", KeepFrames: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(res.FramesDir)
	if err != nil {
		t.Fatalf("read frames dir: %v", err)
	}
	if len(entries) != 25 {
		t.Fatalf("expected 25 kept frames, got %d", len(entries))
	}
}

func TestRunUsesCacheOnSecondRun(t *testing.T) {
	fx := newFixture(t)
	p := New(fx.cfg, nil, nil)

	first, err := p.Run(context.Background(), Options{Video: fx.video, Method: "color"})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	scansBefore := countMatching(calls(t, fx.ffprobeLog), "-show_frames")

	otherOut := filepath.Join(t.TempDir(), "again")
	second, err := p.Run(context.Background(), Options{Video: fx.video, Method: "color", OutputDir: otherOut})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("expected cache hit")
	}
	if !reflect.DeepEqual(second.Keyframes, first.Keyframes) || !reflect.DeepEqual(second.Boundaries, first.Boundaries) {
		t.Fatalf("cached result %v/%v differs from %v/%v", second.Boundaries, second.Keyframes, first.Boundaries, first.Keyframes)
	}
	if got := countMatching(calls(t, fx.ffprobeLog), "-show_frames"); got != scansBefore {
		t.Fatalf("expected no new boundary scan, got %d calls (was %d)", got, scansBefore)
	}
	if len(second.Files) != 2 {
		t.Fatalf("expected 2 published files, got %v", second.Files)
	}
	if _, err := os.Stat(filepath.Join(otherOut, finalize.ManifestName)); err != nil {
		t.Fatalf("expected manifest in %s: %v", otherOut, err)
	}

	store, err := cache.Open(context.Background(), fx.cfg.Cache.Path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer store.Close()
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Method != "color" {
		t.Fatalf("unexpected cache entries %+v", entries)
	}
}

func TestRunNoCacheSkipsStore(t *testing.T) {
	fx := newFixture(t)
	if _, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "iframes", NoCache: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(fx.cfg.Cache.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no cache database, stat err=%v", err)
	}
}

func TestRunIFramesExtractsOnlyKeyframes(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled())
	res, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "iframes"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.Keyframes, []int{0, 10, 24}) {
		t.Fatalf("iframes keyframes = %v", res.Keyframes)
	}
	if res.FramesDir != "" {
		t.Fatalf("iframes must not use a frames dir, got %q", res.FramesDir)
	}
	for _, name := range []string{"1.png", "11.png", "25.png"} {
		if _, err := os.Stat(filepath.Join(res.OutputDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	mpeg := calls(t, fx.mpegLog)
	if len(mpeg) != 1 || !strings.Contains(mpeg[0], "select=") {
		t.Fatalf("expected a single selective extraction, got %v", mpeg)
	}
}

func TestRunSkipsNonEmptyOutput(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled())
	out := filepath.Join(filepath.Dir(fx.video), "existing")
	testsupport.WriteFile(t, filepath.Join(out, "keep.txt"), 3)

	res, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "iframes", OutputDir: out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.CopySkipped || len(res.Files) != 0 || res.Manifest != "" {
		t.Fatalf("expected publishing skipped, got %+v", res)
	}
	if len(calls(t, fx.mpegLog)) != 0 {
		t.Fatal("ffmpeg must not run when the output is not empty")
	}
}

func TestRunInvalidMethodRunsNothing(t *testing.T) {
	fx := newFixture(t)
	_, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "average"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitValidation {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
	if calls(t, fx.ffprobeLog) != nil || calls(t, fx.mpegLog) != nil {
		t.Fatal("no external tool may run for an invalid method")
	}
}

func TestRunMissingVideo(t *testing.T) {
	fx := newFixture(t)
	_, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: filepath.Join(t.TempDir(), "nope.mp4")})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunFFprobeFailure(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled())
	fx.cfg.Binaries.FFprobe = testsupport.WriteScript(t, t.TempDir(), "ffprobe", `echo "moov atom not found" >&2; exit 1`)

	_, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "color"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	out := filepath.Join(filepath.Dir(fx.video), fx.cfg.Paths.OutputDir)
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("failed run must not create output, stat err=%v", statErr)
	}
}

func TestRunRefusesLockedFramesDir(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled())
	framesDir := filepath.Join(filepath.Dir(fx.video), fx.cfg.Paths.FramesDir)
	held := flock.New(framesDir + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "color"})
	if err == nil || !strings.Contains(err.Error(), "in use") {
		t.Fatalf("expected lock error, got %v", err)
	}
	if calls(t, fx.mpegLog) != nil {
		t.Fatal("ffmpeg must not run while the frames dir is locked")
	}
}

func TestRunWritesMetricsTextfile(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled(), testsupport.WithMetricsTextfile("keyframer.prom"))
	m := metrics.New()
	if _, err := New(fx.cfg, nil, m).Run(context.Background(), Options{Video: fx.video, Method: "color"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	text := testsupport.ReadFile(t, fx.cfg.Metrics.Textfile)
	for _, want := range []string{"keyframer_runs_total", `method="color"`, "keyframer_frames_extracted_total 25"} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics textfile missing %q:\n%s", want, text)
		}
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	fx := newFixture(t, testsupport.WithCacheDisabled())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(fx.cfg, nil, nil).Run(ctx, Options{Video: fx.video, Method: "color"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func prefillFrames(t *testing.T, dir string, n int) {
	t.Helper()
	gray := color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	for i := 0; i < n; i++ {
		testsupport.WriteFrame(t, dir, i, "png", testsupport.SolidImage(64, 64, gray))
	}
}

func TestRunReusedFramesAreNotCached(t *testing.T) {
	fx := newFixture(t)
	framesDir := filepath.Join(filepath.Dir(fx.video), fx.cfg.Paths.FramesDir)
	prefillFrames(t, framesDir, 25)

	p := New(fx.cfg, nil, nil)
	res, err := p.Run(context.Background(), Options{Video: fx.video, Method: "color"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.FramesReused {
		t.Fatal("expected the existing frames directory to be reused")
	}
	if calls(t, fx.mpegLog) != nil {
		t.Fatal("ffmpeg must not run when frames are reused")
	}

	store, err := cache.Open(context.Background(), fx.cfg.Cache.Path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key, err := cache.KeyFor(fx.video)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	_, ok, err := store.Lookup(context.Background(), key, "color")
	store.Close()
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("keyframes from reused frames must not be cached")
	}

	second, err := p.Run(context.Background(), Options{Video: fx.video, Method: "color", OutputDir: filepath.Join(t.TempDir(), "out")})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.CacheHit || second.FramesReused {
		t.Fatalf("second run must extract afresh, got cache_hit=%v reused=%v", second.CacheHit, second.FramesReused)
	}
	if got := len(calls(t, fx.mpegLog)); got != 1 {
		t.Fatalf("expected one full extraction, got %d ffmpeg calls", got)
	}
}

func TestRunRejectsFramesDirFromAnotherVideo(t *testing.T) {
	fx := newFixture(t)
	framesDir := filepath.Join(filepath.Dir(fx.video), fx.cfg.Paths.FramesDir)
	prefillFrames(t, framesDir, 5)

	_, err := New(fx.cfg, nil, nil).Run(context.Background(), Options{Video: fx.video, Method: "color"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "holds 5 frames but the video has 25") {
		t.Fatalf("unexpected error %v", err)
	}
	out := filepath.Join(filepath.Dir(fx.video), fx.cfg.Paths.OutputDir)
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("mismatched frames must not produce output, stat err=%v", statErr)
	}
	if calls(t, fx.mpegLog) != nil {
		t.Fatal("ffmpeg must not run")
	}
}
