// internal/convert/convert.go

// Package convert orchestrates the video-to-GIF conversion pipeline:
// load -> resize -> trim -> encode.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"vidgif/internal/backend"
	"vidgif/internal/progress"
	"vidgif/internal/validate"
	"vidgif/internal/video"
)

// Request carries one validated conversion. It is consumed exactly once.
type Request struct {
	Source string
	Output string

	// ResizeFraction is in (0,1], already converted from a percentage.
	ResizeFraction float64
	FPS            int

	// Start/End bound the optional trim window, in seconds. Nil means
	// "from the beginning" / "to the end".
	Start *float64
	End   *float64

	Backend string
	Loop    bool
}

// Result is the outcome of a successful conversion.
type Result struct {
	OutputPath string
}

// Stage identifies where the pipeline currently is.
type Stage int

const (
	StageIdle Stage = iota
	StageLoading
	StageResizing
	StageTrimming
	StageEncoding
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageLoading:
		return "loading"
	case StageResizing:
		return "resizing"
	case StageTrimming:
		return "trimming"
	case StageEncoding:
		return "encoding"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pipeline runs conversions. It is thread-agnostic and makes no UI calls;
// front ends own any marshaling of bridge callbacks onto their event loop.
type Pipeline struct {
	logger *slog.Logger
	stage  Stage

	// Probe and Select default to the real implementations; tests swap in
	// fakes.
	Probe  func(ctx context.Context, path string) (*video.Metadata, error)
	Select func(name string, logger *slog.Logger) (backend.Backend, error)
}

// New returns a Pipeline logging through the given logger.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
		stage:  StageIdle,
		Probe:  video.Probe,
		Select: backend.Select,
	}
}

// Stage reports the most recent pipeline stage.
func (p *Pipeline) Stage() Stage { return p.stage }

// Convert runs one conversion to completion. The triggering error of any
// stage is propagated unchanged; no retries, no partial-file guarantee
// beyond best effort.
func (p *Pipeline) Convert(ctx context.Context, req Request, bridge *progress.Bridge) (*Result, error) {
	fail := func(err error) (*Result, error) {
		p.stage = StageFailed
		return nil, err
	}

	if req.ResizeFraction <= 0 || req.ResizeFraction > 1 {
		return fail(&validate.Error{Field: "resize fraction", Reason: "must be in (0,1]"})
	}
	if _, err := validate.FrameRateValue(req.FPS); err != nil {
		return fail(err)
	}

	p.stage = StageLoading
	bridge.Message("Loading video...")

	meta, err := p.Probe(ctx, req.Source)
	if err != nil {
		return fail(err)
	}

	output := validate.NormalizeOutputPath(req.Output, req.Source)

	p.stage = StageResizing
	bridge.Message(fmt.Sprintf("Resizing video (%d%%)...", int(req.ResizeFraction*100)))
	width := int(math.Floor(float64(meta.Width) * req.ResizeFraction))
	height := int(math.Floor(float64(meta.Height) * req.ResizeFraction))

	start, end := 0.0, meta.Duration
	if req.Start != nil || req.End != nil {
		p.stage = StageTrimming
		s, e, err := validate.TimeWindow(req.Start, req.End, meta.Duration)
		if err != nil {
			return fail(err)
		}
		if s != nil {
			start = *s
		}
		if e != nil {
			end = *e
		}
		bridge.Message(fmt.Sprintf("Trimming to [%.2fs, %.2fs]...", start, end))
	}

	p.stage = StageEncoding
	be, err := p.Select(req.Backend, p.logger)
	if err != nil {
		return fail(err)
	}
	bridge.Message(fmt.Sprintf("Writing GIF (fps: %d)...", req.FPS))

	job := backend.EncodeJob{
		Source:       req.Source,
		Dest:         output,
		SourceWidth:  meta.Width,
		SourceHeight: meta.Height,
		Width:        width,
		Height:       height,
		FPS:          req.FPS,
		Start:        start,
		End:          end,
		Loop:         req.Loop,
	}
	if err := be.Encode(ctx, job, bridge); err != nil {
		return fail(err)
	}

	p.stage = StageDone
	p.logger.Info("conversion complete",
		slog.String("source", req.Source),
		slog.String("output", output),
		slog.String("backend", be.Name()),
	)
	return &Result{OutputPath: output}, nil
}
