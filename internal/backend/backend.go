// internal/backend/backend.go

// Package backend provides the GIF encoding backends: an external ffmpeg
// process and a built-in in-process decode/encode path.
package backend

import (
	"context"
	"fmt"

	"vidgif/internal/progress"
)

// Backend names accepted by Select.
const (
	NameBuiltin = "builtin"
	NameFFmpeg  = "ffmpeg"
)

// EncodeJob describes one GIF encode. The trim window [Start,End] is
// absolute over the source and already validated; SourceWidth/SourceHeight
// are the untouched source dimensions, Width/Height the resized target.
type EncodeJob struct {
	Source string
	Dest   string

	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int

	FPS   int
	Start float64
	End   float64

	// Loop requests an infinite loop count. Only the builtin backend
	// honors it; the ffmpeg backend ignores the flag.
	Loop bool

	// Frames optionally overrides the decoded frame stream. Used by the
	// self-test clip; when nil the backend decodes Source itself.
	Frames FrameSource
}

// WindowDuration returns the length of the trim window in seconds.
func (j EncodeJob) WindowDuration() float64 {
	return j.End - j.Start
}

// TotalFrames estimates the output frame count from the window and fps.
func (j EncodeJob) TotalFrames() int {
	return int(j.WindowDuration() * float64(j.FPS))
}

// Backend writes the output GIF for an EncodeJob, reporting progress
// through the bridge.
type Backend interface {
	Name() string
	SupportsLoop() bool
	Encode(ctx context.Context, job EncodeJob, bridge *progress.Bridge) error
}

// EncodeError wraps a write failure, keeping the encoder's diagnostics.
type EncodeError struct {
	Backend string
	Detail  string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s encode failed: %v: %s", e.Backend, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s encode failed: %v", e.Backend, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
