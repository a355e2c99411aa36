// internal/backend/builtin.go
package backend

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/disintegration/imaging"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"vidgif/internal/progress"
)

// FrameSource yields decoded frames in presentation order. Next returns
// io.EOF after the last frame.
type FrameSource interface {
	Next() (image.Image, error)
	Close() error
}

// Builtin is the in-process decode/encode path: frames are resized with
// Lanczos resampling, quantized with Floyd-Steinberg dithering and written
// by the standard GIF encoder.
type Builtin struct{}

// NewBuiltin returns the in-process backend.
func NewBuiltin() *Builtin { return &Builtin{} }

func (b *Builtin) Name() string { return NameBuiltin }

func (b *Builtin) SupportsLoop() bool { return true }

func (b *Builtin) Encode(ctx context.Context, job EncodeJob, bridge *progress.Bridge) error {
	frames := job.Frames
	if frames == nil {
		var err error
		frames, err = newFileSource(job)
		if err != nil {
			return &EncodeError{Backend: NameBuiltin, Err: err}
		}
	}
	defer frames.Close()

	anim := &gif.GIF{}
	if job.Loop {
		anim.LoopCount = 0 // loop forever
	} else {
		anim.LoopCount = -1
	}

	delay := 100 / job.FPS // centiseconds per frame
	if delay < 1 {
		delay = 1
	}

	total := job.TotalFrames()
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return &EncodeError{Backend: NameBuiltin, Err: err}
		}

		frame, err := frames.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &EncodeError{Backend: NameBuiltin, Err: err}
		}

		resized := frame
		bounds := frame.Bounds()
		if bounds.Dx() != job.Width || bounds.Dy() != job.Height {
			resized = imaging.Resize(frame, job.Width, job.Height, imaging.Lanczos)
		}

		paletted := image.NewPaletted(image.Rect(0, 0, job.Width, job.Height), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, paletted.Rect, resized, image.Point{})

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)

		index := i + 1
		if index > total {
			index = total
		}
		bridge.Observe(progress.Event{Task: "encoding", Index: index, Total: total})
	}

	if len(anim.Image) == 0 {
		return &EncodeError{Backend: NameBuiltin, Err: fmt.Errorf("no frames decoded from %s", job.Source)}
	}

	out, err := os.Create(job.Dest)
	if err != nil {
		return &EncodeError{Backend: NameBuiltin, Err: err}
	}
	if err := gif.EncodeAll(out, anim); err != nil {
		out.Close()
		return &EncodeError{Backend: NameBuiltin, Err: err}
	}
	if err := out.Close(); err != nil {
		return &EncodeError{Backend: NameBuiltin, Err: err}
	}
	return nil
}

// fileSource decodes the trim window of a video into raw RGBA frames at the
// target frame rate, piped out of the media library.
type fileSource struct {
	pipe   *io.PipeReader
	width  int
	height int
	buf    []byte
}

func newFileSource(job EncodeJob) (*fileSource, error) {
	if job.SourceWidth <= 0 || job.SourceHeight <= 0 {
		return nil, fmt.Errorf("unknown source dimensions for %s", job.Source)
	}

	pr, pw := io.Pipe()
	stream := ffmpeg.Input(job.Source, ffmpeg.KwArgs{
		"ss": fmt.Sprintf("%.3f", job.Start),
		"t":  fmt.Sprintf("%.3f", job.WindowDuration()),
	}).
		Filter("fps", ffmpeg.Args{fmt.Sprintf("%d", job.FPS)}).
		Output("pipe:", ffmpeg.KwArgs{"format": "rawvideo", "pix_fmt": "rgba"}).
		WithOutput(pw)

	go func() {
		pw.CloseWithError(stream.Run())
	}()

	return &fileSource{
		pipe:   pr,
		width:  job.SourceWidth,
		height: job.SourceHeight,
		buf:    make([]byte, job.SourceWidth*job.SourceHeight*4),
	}, nil
}

func (s *fileSource) Next() (image.Image, error) {
	if _, err := io.ReadFull(s.pipe, s.buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(img.Pix, s.buf)
	return img, nil
}

func (s *fileSource) Close() error { return s.pipe.Close() }

// ColorSource is a solid-color clip generated in memory. It backs the
// self-test mode so the encode path can be verified without a real video.
type ColorSource struct {
	Width  int
	Height int
	Color  color.Color
	Frames int

	emitted int
}

func (s *ColorSource) Next() (image.Image, error) {
	if s.emitted >= s.Frames {
		return nil, io.EOF
	}
	s.emitted++
	return imaging.New(s.Width, s.Height, s.Color), nil
}

func (s *ColorSource) Close() error { return nil }
