// internal/video/video.go
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrNotFound is returned when the source path does not exist.
var ErrNotFound = errors.New("video file not found")

// DecodeError wraps a probe or decode failure on a readable file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Metadata is a read-only snapshot of a source video. It is rebuilt on every
// probe and never cached across source selections.
type Metadata struct {
	Path      string
	FileSize  int64
	Width     int
	Height    int
	Duration  float64
	FrameRate float64
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		CodecType    string `json:"codec_type"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe opens the source read-only, takes the size snapshot and extracts
// resolution, duration and frame rate via ffprobe. The file handle is
// released on every exit path. Callers must not use any Metadata fields
// when an error is returned.
func Probe(ctx context.Context, path string) (*Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}

	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	meta, err := parseProbe([]byte(raw))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	meta.Path = path
	meta.FileSize = fi.Size()
	return meta, nil
}

func parseProbe(data []byte) (*Metadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	meta := &Metadata{}

	found := false
	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta.Width = stream.Width
		meta.Height = stream.Height
		meta.FrameRate = parseFrameRate(stream.AvgFrameRate)
		if meta.FrameRate == 0 {
			meta.FrameRate = parseFrameRate(stream.RFrameRate)
		}
		found = true
		break
	}
	if !found {
		return nil, errors.New("no video stream")
	}

	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = d
		}
	}

	return meta, nil
}

// parseFrameRate handles ffprobe's fractional rates like "30000/1001".
func parseFrameRate(rate string) float64 {
	rate = strings.TrimSpace(rate)
	if rate == "" || rate == "0/0" {
		return 0
	}
	if num, den, ok := strings.Cut(rate, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0
		}
		return n / d
	}
	f, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return 0
	}
	return f
}
