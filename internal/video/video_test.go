package video

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProbe = `{
	"streams": [
		{"codec_type": "audio", "avg_frame_rate": "0/0", "r_frame_rate": "0/0"},
		{"codec_type": "video", "width": 1280, "height": 720,
		 "avg_frame_rate": "30000/1001", "r_frame_rate": "30/1"}
	],
	"format": {"duration": "12.480000"}
}`

func TestParseProbe(t *testing.T) {
	meta, err := parseProbe([]byte(sampleProbe))
	require.NoError(t, err)
	assert.Equal(t, 1280, meta.Width)
	assert.Equal(t, 720, meta.Height)
	assert.InDelta(t, 12.48, meta.Duration, 1e-9)
	assert.InDelta(t, 29.97, meta.FrameRate, 0.01)
}

func TestParseProbeNoVideoStream(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams":[{"codec_type":"audio"}],"format":{}}`))
	require.Error(t, err)
}

func TestParseProbeMalformed(t *testing.T) {
	_, err := parseProbe([]byte(`not json`))
	require.Error(t, err)
}

func TestParseProbeFallsBackToRFrameRate(t *testing.T) {
	meta, err := parseProbe([]byte(`{
		"streams": [{"codec_type": "video", "width": 10, "height": 10,
			"avg_frame_rate": "0/0", "r_frame_rate": "25/1"}],
		"format": {"duration": "1.0"}
	}`))
	require.NoError(t, err)
	assert.InDelta(t, 25, meta.FrameRate, 1e-9)
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"25/1", 25},
		{"30000/1001", 29.97},
		{"15", 15},
		{"0/0", 0},
		{"", 0},
		{"x/y", 0},
		{"1/0", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseFrameRate(tt.input), 0.01, "input %q", tt.input)
	}
}

func TestProbeMissingFile(t *testing.T) {
	_, err := Probe(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProbeUnreadableFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	// A file that exists but is not a video should surface a DecodeError.
	path := filepath.Join(t.TempDir(), "garbage.mp4")
	writeFile(t, path, []byte("this is not a video"))

	_, err := Probe(context.Background(), path)
	require.Error(t, err)
	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
}
