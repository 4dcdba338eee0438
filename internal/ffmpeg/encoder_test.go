package ffmpeg

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/errkind"
)

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

type fakeFileInfo struct{ size int64 }

func (f fakeFileInfo) Name() string       { return "fake" }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() os.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

type fakeFS struct {
	sizes   map[string]int64
	removed map[string]bool
	written map[string][]byte
}

func newFakeFS() *fakeFS {
	return &fakeFS{sizes: map[string]int64{}, removed: map[string]bool{}, written: map[string][]byte{}}
}

func (f *fakeFS) MkdirAll(string, os.FileMode) error { return nil }
func (f *fakeFS) Rename(string, string) error        { return nil }
func (f *fakeFS) Remove(path string) error {
	f.removed[path] = true
	delete(f.sizes, path)
	return nil
}
func (f *fakeFS) RemoveAll(string) error { return nil }
func (f *fakeFS) Stat(path string) (os.FileInfo, error) {
	size, ok := f.sizes[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeFileInfo{size: size}, nil
}
func (f *fakeFS) Chtimes(string, int64, int64) error { return nil }
func (f *fakeFS) WriteFile(path string, data []byte, _ os.FileMode) error {
	f.written[path] = data
	return nil
}
func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.written[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}
func (f *fakeFS) AppendFile(path string, data []byte, _ os.FileMode) error {
	f.written[path] = append(f.written[path], data...)
	return nil
}

// scriptedTranscoder returns its results in order, repeating the last one
// for any call beyond the scripted sequence.
type scriptedTranscoder struct {
	results []adapters.TranscodeResult
	calls   int
}

func (s *scriptedTranscoder) Run(_ context.Context, _ []string, _ bool) adapters.TranscodeResult {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i]
}

func locations(path string) OutputLocations {
	return OutputLocations{OutputPath: path, CmdPath: path + ".cmd.txt", StatePath: path + ".state.json"}
}

func TestEncoderHappyPath(t *testing.T) {
	cfg := baseConfig()
	plan := samplePlan()
	fs := newFakeFS()
	fs.sizes["/out/movie.mp4"] = 400_000

	enc := New(cfg, &scriptedTranscoder{results: []adapters.TranscodeResult{{}}}, fs)
	rec, err := enc.Run(context.Background(), plan, locations("/out/movie.mp4"), locations("/out/movie.mkv"))
	require.NoError(t, err)
	assert.Equal(t, 30, rec.CRF)
	assert.Equal(t, 0.4, rec.RealizedRatio)
	assert.Equal(t, "/out/movie.mp4", rec.OutputPath)
	assert.NotEmpty(t, fs.written["/out/movie.mp4.cmd.txt"])
}

func TestEncoderContainerFallbackOnStreamWriteError(t *testing.T) {
	cfg := baseConfig()
	plan := samplePlan()
	fs := newFakeFS()
	fs.sizes["/out/movie.mkv"] = 400_000

	transcoder := &scriptedTranscoder{results: []adapters.TranscodeResult{
		{Err: errors.New("exit 1"), Stderr: "Could not write header for output file"},
		{},
	}}
	enc := New(cfg, transcoder, fs)
	rec, err := enc.Run(context.Background(), plan, locations("/out/movie.mp4"), locations("/out/movie.mkv"))
	require.NoError(t, err)
	assert.Equal(t, "/out/movie.mkv", rec.OutputPath)
	assert.True(t, fs.removed["/out/movie.mp4"])
	assert.Equal(t, 2, transcoder.calls)
}

func TestEncoderContainerFallbackSecondFailureIsFatal(t *testing.T) {
	cfg := baseConfig()
	plan := samplePlan()
	fs := newFakeFS()

	transcoder := &scriptedTranscoder{results: []adapters.TranscodeResult{
		{Err: errors.New("exit 1"), Stderr: "Could not write header for output file"},
		{Err: errors.New("exit 1"), Stderr: "Could not write header for output file"},
	}}
	enc := New(cfg, transcoder, fs)
	_, err := enc.Run(context.Background(), plan, locations("/out/movie.mp4"), locations("/out/movie.mkv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrContainerIncompatible))
}

func TestEncoderOversizeEscalation(t *testing.T) {
	cfg := baseConfig()
	cfg.OversizeRatio = 1.0
	cfg.ManualCRFIncrementPercent = 15
	cfg.MaxOversizeRetries = 3
	plan := samplePlan() // VideoCRF = 30, Input.SizeBytes = 1_000_000

	fs := newFakeFS()
	transcoder := &sizeAwareTranscoder{fs: fs, path: "/out/movie.mp4", sizesPerCall: []int64{1_100_000, 800_000}}
	enc := New(cfg, transcoder, fs)

	rec, err := enc.Run(context.Background(), plan, locations("/out/movie.mp4"), locations("/out/movie.mkv"))
	require.NoError(t, err)
	assert.Equal(t, 35, rec.CRF, "30 + ceil(30*0.15) = 35")
	assert.Equal(t, 0.8, rec.RealizedRatio)
}

// sizeAwareTranscoder re-seeds fs.sizes[path] with the next scripted size on
// every call, modeling the transcoder actually writing a new file each
// retry (the plain fakeFS has no real disk to observe this on its own).
type sizeAwareTranscoder struct {
	fs           *fakeFS
	path         string
	sizesPerCall []int64
	calls        int
}

func (s *sizeAwareTranscoder) Run(_ context.Context, _ []string, _ bool) adapters.TranscodeResult {
	i := s.calls
	if i >= len(s.sizesPerCall) {
		i = len(s.sizesPerCall) - 1
	}
	s.fs.sizes[s.path] = s.sizesPerCall[i]
	s.calls++
	return adapters.TranscodeResult{}
}

func TestEncoderOversizeExhausted(t *testing.T) {
	cfg := baseConfig()
	cfg.OversizeRatio = 1.0
	cfg.MaxOversizeRetries = 1
	plan := samplePlan()

	fs := newFakeFS()
	transcoder := &sizeAwareTranscoder{fs: fs, path: "/out/movie.mp4", sizesPerCall: []int64{1_100_000, 1_100_000, 1_100_000}}
	enc := New(cfg, transcoder, fs)

	_, err := enc.Run(context.Background(), plan, locations("/out/movie.mp4"), locations("/out/movie.mkv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrOversizeExhausted))

	var oversizeErr *OversizeError
	require.True(t, errors.As(err, &oversizeErr), "oversize exhaustion must carry the leftover attempt's output path")
	assert.Equal(t, "/out/movie.mp4", oversizeErr.OutputPath)
}
