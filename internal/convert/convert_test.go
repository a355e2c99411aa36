package convert

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidgif/internal/backend"
	"vidgif/internal/progress"
	"vidgif/internal/validate"
	"vidgif/internal/video"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

// fakeBackend records the job it was given and optionally fails.
type fakeBackend struct {
	name    string
	loop    bool
	err     error
	invoked bool
	job     backend.EncodeJob
}

func (f *fakeBackend) Name() string       { return f.name }
func (f *fakeBackend) SupportsLoop() bool { return f.loop }

func (f *fakeBackend) Encode(_ context.Context, job backend.EncodeJob, bridge *progress.Bridge) error {
	f.invoked = true
	f.job = job
	if f.err != nil {
		return f.err
	}
	bridge.Observe(progress.Event{Task: "encoding", Index: 1, Total: 1})
	return nil
}

func fakeMeta() *video.Metadata {
	return &video.Metadata{
		Path:      "/in/clip.mp4",
		FileSize:  1 << 20,
		Width:     101,
		Height:    55,
		Duration:  10,
		FrameRate: 30,
	}
}

func newTestPipeline(be *fakeBackend, meta *video.Metadata, probeErr error) *Pipeline {
	p := New(testLogger())
	p.Probe = func(context.Context, string) (*video.Metadata, error) {
		if probeErr != nil {
			return nil, probeErr
		}
		return meta, nil
	}
	p.Select = func(string, *slog.Logger) (backend.Backend, error) {
		return be, nil
	}
	return p
}

func baseRequest() Request {
	return Request{
		Source:         "/in/clip.mp4",
		Output:         "/out/clip.gif",
		ResizeFraction: 0.5,
		FPS:            15,
	}
}

func TestConvertSuccess(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	p := newTestPipeline(be, fakeMeta(), nil)

	var msgs []string
	bridge := progress.New(nil, func(m string) { msgs = append(msgs, m) })

	res, err := p.Convert(context.Background(), baseRequest(), bridge)
	require.NoError(t, err)
	assert.Equal(t, "/out/clip.gif", res.OutputPath)
	assert.Equal(t, StageDone, p.Stage())

	require.True(t, be.invoked)
	// floor(101*0.5)=50, floor(55*0.5)=27
	assert.Equal(t, 50, be.job.Width)
	assert.Equal(t, 27, be.job.Height)
	assert.Equal(t, 15, be.job.FPS)
	assert.InDelta(t, 0, be.job.Start, 1e-9)
	assert.InDelta(t, 10, be.job.End, 1e-9)

	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "Loading video...", msgs[0])
	assert.Contains(t, msgs[1], "Resizing video (50%)")
}

func TestConvertTrimWindow(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	be := &fakeBackend{name: "fake"}
	p := newTestPipeline(be, fakeMeta(), nil)

	req := baseRequest()
	req.Start = f(2)
	req.End = f(99) // clamped to the 10s duration

	_, err := p.Convert(context.Background(), req, progress.New(nil, nil))
	require.NoError(t, err)
	assert.InDelta(t, 2, be.job.Start, 1e-9)
	assert.InDelta(t, 10, be.job.End, 1e-9)
}

func TestConvertStartOnlyDefaultsEnd(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	be := &fakeBackend{name: "fake"}
	p := newTestPipeline(be, fakeMeta(), nil)

	req := baseRequest()
	req.Start = f(3)

	_, err := p.Convert(context.Background(), req, progress.New(nil, nil))
	require.NoError(t, err)
	assert.InDelta(t, 3, be.job.Start, 1e-9)
	assert.InDelta(t, 10, be.job.End, 1e-9)
}

func TestConvertEndBeforeStart(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	be := &fakeBackend{name: "fake"}
	p := newTestPipeline(be, fakeMeta(), nil)

	req := baseRequest()
	req.Start = f(5)
	req.End = f(2)

	_, err := p.Convert(context.Background(), req, progress.New(nil, nil))
	require.Error(t, err)
	var verr *validate.Error
	assert.ErrorAs(t, err, &verr)
	assert.False(t, be.invoked, "invalid window must not reach the backend")
	assert.Equal(t, StageFailed, p.Stage())
}

func TestConvertSourceMissingPrecedesBackend(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	probeErr := video.ErrNotFound
	p := newTestPipeline(be, nil, probeErr)

	_, err := p.Convert(context.Background(), baseRequest(), progress.New(nil, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrNotFound))
	assert.False(t, be.invoked, "not-found must be raised before any backend runs")
}

func TestConvertBackendErrorPropagatesUnchanged(t *testing.T) {
	sentinel := &backend.EncodeError{Backend: "fake", Err: errors.New("disk full")}
	be := &fakeBackend{name: "fake", err: sentinel}
	p := newTestPipeline(be, fakeMeta(), nil)

	_, err := p.Convert(context.Background(), baseRequest(), progress.New(nil, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel, "stage errors are propagated unchanged")
	assert.Equal(t, StageFailed, p.Stage())
}

func TestConvertRejectsBadFraction(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	p := newTestPipeline(be, fakeMeta(), nil)

	for _, fraction := range []float64{0, -0.5, 1.2} {
		req := baseRequest()
		req.ResizeFraction = fraction
		_, err := p.Convert(context.Background(), req, progress.New(nil, nil))
		require.Error(t, err, "fraction %v", fraction)
	}
	assert.False(t, be.invoked)
}

func TestConvertDerivesOutputPath(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	p := newTestPipeline(be, fakeMeta(), nil)

	req := baseRequest()
	req.Source = filepath.Join("/videos", "holiday.mov")
	req.Output = ""

	res, err := p.Convert(context.Background(), req, progress.New(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/videos", "holiday.gif"), res.OutputPath)
}

func TestSelfTest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "selftest")

	path, err := SelfTest(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, out+".gif", path)
	assert.FileExists(t, path)
}
