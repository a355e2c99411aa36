package main

import (
	"context"
	"image/gif"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"vidgif/internal/convert"
	"vidgif/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test when the ffmpeg toolchain is not installed.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH, skipping test", bin)
		}
	}
}

// makeTestClip renders a short synthetic video with ffmpeg's test source.
func makeTestClip(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "clip.mp4")
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=10",
		"-pix_fmt", "yuv420p", path)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "generate test clip: %s", out)
	return path
}

func decodeGIF(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	return g
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSelfTestProducesPlayableGIF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "selftest.gif")

	got, err := convert.SelfTest(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	g := decodeGIF(t, out)
	assert.Len(t, g.Image, 10)
	assert.Equal(t, 100, g.Image[0].Bounds().Dx())
	assert.Equal(t, 100, g.Image[0].Bounds().Dy())
	assert.Equal(t, 0, g.LoopCount, "self-test GIF loops forever")
}

func TestConvertEndToEndBuiltin(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	source := makeTestClip(t, dir)
	output := filepath.Join(dir, "out.gif")

	var percents []float64
	bridge := progress.New(func(p float64) { percents = append(percents, p) }, nil)

	result, err := convert.New(quietLogger()).Convert(context.Background(), convert.Request{
		Source:         source,
		Output:         output,
		ResizeFraction: 0.5,
		FPS:            5,
		Backend:        "builtin",
		Loop:           true,
	}, bridge)
	require.NoError(t, err)

	g := decodeGIF(t, result.OutputPath)
	require.NotEmpty(t, g.Image)
	assert.Equal(t, 160, g.Image[0].Bounds().Dx())
	assert.Equal(t, 120, g.Image[0].Bounds().Dy())
	assert.Equal(t, 0, g.LoopCount)
	assert.InDelta(t, 10, len(g.Image), 2, "two seconds at five frames per second")
	require.NotEmpty(t, percents)
	assert.Equal(t, 100.0, percents[len(percents)-1])
}

func TestConvertBuiltinTrimWindow(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	source := makeTestClip(t, dir)
	output := filepath.Join(dir, "trimmed.gif")

	result, err := convert.New(quietLogger()).Convert(context.Background(), convert.Request{
		Source:         source,
		Output:         output,
		ResizeFraction: 0.5,
		FPS:            10,
		Start:          ptr(0.2),
		End:            ptr(0.8),
		Backend:        "builtin",
	}, progress.New(nil, nil))
	require.NoError(t, err)

	g := decodeGIF(t, result.OutputPath)
	require.NotEmpty(t, g.Image)
	assert.Equal(t, 160, g.Image[0].Bounds().Dx())
	assert.Equal(t, 120, g.Image[0].Bounds().Dy())

	// 0.6s window at 10fps, with frame-quantization slack
	assert.GreaterOrEqual(t, len(g.Image), 4)
	assert.LessOrEqual(t, len(g.Image), 9)
}

func TestConvertEndToEndFFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	source := makeTestClip(t, dir)
	output := filepath.Join(dir, "out.gif")

	result, err := convert.New(quietLogger()).Convert(context.Background(), convert.Request{
		Source:         source,
		Output:         output,
		ResizeFraction: 0.5,
		FPS:            5,
		Start:          ptr(0.5),
		End:            ptr(1.5),
		Backend:        "ffmpeg",
	}, progress.New(nil, nil))
	require.NoError(t, err)

	g := decodeGIF(t, result.OutputPath)
	require.NotEmpty(t, g.Image)
	assert.Equal(t, 160, g.Image[0].Bounds().Dx())
	assert.InDelta(t, 5, len(g.Image), 2, "one trimmed second at five frames per second")
}

func ptr(v float64) *float64 { return &v }
