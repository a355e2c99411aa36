// internal/backend/ffmpeg.go
package backend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"vidgif/internal/progress"
)

// FFmpeg encodes GIFs through the external ffmpeg binary. The filtergraph
// flavor is fixed once at construction time by probing the installed
// toolchain generation.
type FFmpeg struct {
	bin   string
	graph filterGraph
}

// NewFFmpeg probes the toolchain at bin and picks the matching filtergraph
// adapter. tempDir holds palette scratch files; empty means the system
// temp directory.
func NewFFmpeg(bin, tempDir string) (*FFmpeg, error) {
	if bin == "" {
		bin = "ffmpeg"
	}
	caps, err := probeToolchain(bin)
	if err != nil {
		return nil, fmt.Errorf("probe ffmpeg: %w", err)
	}
	return &FFmpeg{bin: bin, graph: graphFor(caps, tempDir)}, nil
}

func (f *FFmpeg) Name() string { return NameFFmpeg }

// SupportsLoop is false: the external encoder has no loop-count parameter
// in this pipeline and the flag is ignored.
func (f *FFmpeg) SupportsLoop() bool { return false }

// Encode runs one or two ffmpeg passes depending on the selected adapter,
// streaming `-progress pipe:1` reports into the bridge.
func (f *FFmpeg) Encode(ctx context.Context, job EncodeJob, bridge *progress.Bridge) error {
	passes, cleanup, err := f.graph.passes(job)
	if err != nil {
		return &EncodeError{Backend: NameFFmpeg, Err: err}
	}
	defer cleanup()

	for _, pass := range passes {
		bridge.Message(pass.label)
		if err := f.run(ctx, pass, job, bridge); err != nil {
			return err
		}
	}
	return nil
}

type encodePass struct {
	label string
	task  string
	args  []string
}

func (f *FFmpeg) run(ctx context.Context, pass encodePass, job EncodeJob, bridge *progress.Bridge) error {
	args := append([]string{"-hide_banner", "-nostats", "-progress", "pipe:1"}, pass.args...)
	cmd := exec.CommandContext(ctx, f.bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &EncodeError{Backend: NameFFmpeg, Err: err}
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &EncodeError{Backend: NameFFmpeg, Err: err}
	}

	total := job.TotalFrames()
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok || key != f.graph.progressKey() {
			continue
		}
		seconds := f.graph.progressSeconds(value)
		index := int(seconds * float64(job.FPS))
		if index > total {
			index = total
		}
		bridge.Observe(progress.Event{Task: pass.task, Index: index, Total: total})
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return &EncodeError{Backend: NameFFmpeg, Err: ctx.Err()}
		}
		return &EncodeError{Backend: NameFFmpeg, Detail: stderr.String(), Err: err}
	}
	return nil
}

// toolchainCaps describes what the installed ffmpeg generation supports.
type toolchainCaps struct {
	major int
}

// singlePassPalette reports whether the toolchain can run palettegen and
// paletteuse in one filter_complex pass. Older generations need the
// two-pass palette file flow and only publish out_time_ms progress.
func (c toolchainCaps) singlePassPalette() bool { return c.major >= 4 }

var versionRe = regexp.MustCompile(`ffmpeg version (?:n)?(\d+)\.`)

func probeToolchain(bin string) (toolchainCaps, error) {
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		return toolchainCaps{}, err
	}
	return parseToolchainVersion(string(out))
}

func parseToolchainVersion(out string) (toolchainCaps, error) {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return toolchainCaps{}, fmt.Errorf("unrecognized ffmpeg version banner")
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return toolchainCaps{}, err
	}
	return toolchainCaps{major: major}, nil
}

func graphFor(caps toolchainCaps, tempDir string) filterGraph {
	if caps.singlePassPalette() {
		return modernGraph{}
	}
	return legacyGraph{tempDir: tempDir}
}

// filterGraph is the capability-detection adapter: exactly two
// implementations, selected once, covering the incompatible toolchain
// generations.
type filterGraph interface {
	passes(job EncodeJob) ([]encodePass, func(), error)
	progressKey() string
	progressSeconds(value string) float64
}

func trimArgs(job EncodeJob) []string {
	return []string{
		"-ss", fmt.Sprintf("%.3f", job.Start),
		"-t", fmt.Sprintf("%.3f", job.WindowDuration()),
	}
}

func scaleChain(job EncodeJob) string {
	return fmt.Sprintf("fps=%d,scale=%d:%d:flags=lanczos", job.FPS, job.Width, job.Height)
}

// modernGraph writes the GIF in a single pass with an inline palette.
type modernGraph struct{}

func (modernGraph) passes(job EncodeJob) ([]encodePass, func(), error) {
	filter := fmt.Sprintf("%s,split[a][b];[a]palettegen[p];[b][p]paletteuse", scaleChain(job))

	args := []string{"-y"}
	args = append(args, trimArgs(job)...)
	args = append(args, "-i", job.Source, "-filter_complex", filter, "-f", "gif", job.Dest)

	return []encodePass{{
		label: fmt.Sprintf("Writing GIF (fps: %d)...", job.FPS),
		task:  "encoding",
		args:  args,
	}}, func() {}, nil
}

func (modernGraph) progressKey() string { return "out_time_us" }

func (modernGraph) progressSeconds(value string) float64 {
	us, _ := strconv.ParseFloat(value, 64)
	return us / 1e6
}

// legacyGraph generates a palette file first and applies it in a second
// pass, the only flow older toolchains support.
type legacyGraph struct {
	tempDir string
}

func (g legacyGraph) passes(job EncodeJob) ([]encodePass, func(), error) {
	dir := g.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	palette := filepath.Join(dir, fmt.Sprintf("vidgif-palette-%d.png", os.Getpid()))
	cleanup := func() { _ = os.Remove(palette) }

	palArgs := []string{"-y"}
	palArgs = append(palArgs, trimArgs(job)...)
	palArgs = append(palArgs, "-i", job.Source, "-vf", scaleChain(job)+",palettegen", palette)

	encArgs := []string{"-y"}
	encArgs = append(encArgs, trimArgs(job)...)
	encArgs = append(encArgs,
		"-i", job.Source, "-i", palette,
		"-lavfi", fmt.Sprintf("%s[x];[x][1:v]paletteuse", scaleChain(job)),
		"-f", "gif", job.Dest,
	)

	return []encodePass{
		{label: "Generating palette...", task: "palette", args: palArgs},
		{label: fmt.Sprintf("Writing GIF (fps: %d)...", job.FPS), task: "encoding", args: encArgs},
	}, cleanup, nil
}

func (legacyGraph) progressKey() string { return "out_time_ms" }

// out_time_ms carries microseconds despite its name.
func (legacyGraph) progressSeconds(value string) float64 {
	us, _ := strconv.ParseFloat(value, 64)
	return us / 1e6
}
