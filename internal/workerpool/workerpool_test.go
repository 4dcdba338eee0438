package workerpool

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/errkind"
	"github.com/kerasty2024/smartencoder/internal/errorrouter"
	"github.com/kerasty2024/smartencoder/internal/ffmpeg"
	"github.com/kerasty2024/smartencoder/internal/langdetect"
	"github.com/kerasty2024/smartencoder/internal/logger"
	"github.com/kerasty2024/smartencoder/internal/outputpaths"
	"github.com/kerasty2024/smartencoder/internal/pipeline"
	"github.com/kerasty2024/smartencoder/internal/planner"
	"github.com/kerasty2024/smartencoder/internal/probe"
)

type silentConsole struct{}

func (silentConsole) Info(string, ...interface{})        {}
func (silentConsole) Success(string, ...interface{})     {}
func (silentConsole) Warn(string, ...interface{})        {}
func (silentConsole) Error(string, ...interface{})       {}
func (silentConsole) Debug(bool, string, ...interface{}) {}

type fakeSearcher struct{}

func (fakeSearcher) Search(_ context.Context, _, _, _ string, _, _ int) (adapters.CRFSearchResult, error) {
	return adapters.CRFSearchResult{CRF: 30, EncodedPercent: 45}, nil
}

type fakeClassifier struct{}

func (fakeClassifier) Classify(context.Context, []byte, []string) (adapters.ClassifyResult, error) {
	return adapters.ClassifyResult{Language: "eng", Confidence: 0.9}, nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(context.Context, string, float64, float64) ([]byte, error) {
	return []byte("clip"), nil
}

// fakeTranscoder records a plausible output size for whatever path Build
// put last in the argument list, modeling the transcoder actually writing
// a file each call.
type fakeTranscoder struct{ fs *memFS }

func (t fakeTranscoder) Run(_ context.Context, args []string, _ bool) adapters.TranscodeResult {
	out := args[len(args)-1]
	t.fs.sizes[out] = 100_000
	return adapters.TranscodeResult{}
}

type fakeFileInfo struct{ size int64 }

func (f fakeFileInfo) Name() string       { return "fake" }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() os.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

// memFS is a minimal in-memory adapters.Filesystem fake covering every
// operation WorkerPool's collaborators exercise across a full run.
type memFS struct {
	sizes   map[string]int64
	written map[string][]byte
	renamed map[string]string
	dirs    map[string]bool
}

func newMemFS() *memFS {
	return &memFS{sizes: map[string]int64{}, written: map[string][]byte{}, renamed: map[string]string{}, dirs: map[string]bool{}}
}

func (f *memFS) MkdirAll(path string, _ os.FileMode) error { f.dirs[path] = true; return nil }
func (f *memFS) Rename(oldpath, newpath string) error {
	f.renamed[oldpath] = newpath
	return nil
}
func (f *memFS) Remove(path string) error { delete(f.sizes, path); return nil }
func (f *memFS) RemoveAll(string) error   { return nil }
func (f *memFS) Stat(path string) (os.FileInfo, error) {
	size, ok := f.sizes[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeFileInfo{size: size}, nil
}
func (f *memFS) Chtimes(string, int64, int64) error { return nil }
func (f *memFS) WriteFile(path string, data []byte, _ os.FileMode) error {
	f.written[path] = data
	return nil
}
func (f *memFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.written[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}
func (f *memFS) AppendFile(path string, data []byte, _ os.FileMode) error {
	f.written[path] = append(f.written[path], data...)
	return nil
}

func newPool(fs *memFS, runRoot string) *Pool {
	cfg := config.DefaultConfig()
	cfg.InputDir = runRoot
	cfg.EncoderPriority = []string{"libsvtav1"}

	locator := outputpaths.NewLocator(cfg.RunRoot())
	detector := langdetect.New(fakeExtractor{}, fakeClassifier{})
	return &Pool{
		Config:     &cfg,
		Console:    silentConsole{},
		Locator:    locator,
		FS:         fs,
		PreEncoder: planner.New(&cfg, fakeSearcher{}, detector),
		Encoder:    ffmpeg.New(&cfg, fakeTranscoder{fs: fs}, fs),
		Router:     errorrouter.New(locator, fs),
		RunLogger:  logger.New(locator, fs),
		Stats:      &pipeline.RunStats{},
	}
}

func TestProcessOneQuarantinesUnreadableFile(t *testing.T) {
	fs := newMemFS()
	p := newPool(fs, "/runs/show")
	p.processOne(context.Background(), "/runs/show/broken.mkv")

	counts := p.Stats.Snapshot()
	assert.Equal(t, 1, counts.Failed)
	assert.NotEmpty(t, fs.renamed["/runs/show/broken.mkv"])
}

func TestOversizeRoutesToOversizeBucketNotQuarantine(t *testing.T) {
	fs := newMemFS()
	p := newPool(fs, "/runs/show")

	p.oversize("/runs/show/movie.mkv", fmt.Errorf("encode movie.mkv: %w", errkind.ErrOversizeExhausted))

	counts := p.Stats.Snapshot()
	assert.Equal(t, 1, counts.Oversize)
	assert.Equal(t, 0, counts.Failed, "oversize exhaustion must never be counted as a failure")
	assert.NotEmpty(t, fs.renamed["/runs/show/movie.mkv"])
	assert.Contains(t, fs.renamed["/runs/show/movie.mkv"], "/runs/show/oversize/")
}

func TestOversizeRecoversLeftoverOutputPathFromEncoderError(t *testing.T) {
	fs := newMemFS()
	p := newPool(fs, "/runs/show")
	enc := ffmpeg.New(p.Config, fakeTranscoder{fs: fs}, fs)

	// Drive the real Encoder.Run into oversize exhaustion so the resulting
	// error is a genuine *ffmpeg.OversizeError, not a hand-built stand-in.
	cfg := p.Config
	cfg.OversizeRatio = 1.0
	cfg.MaxOversizeRetries = 0
	plan := &planner.EncodePlan{
		Input:        &probe.MediaInfo{Path: "/runs/show/movie.mkv", SizeBytes: 1, MD5: "abc"},
		Mode:         planner.ModeVideo,
		VideoEncoder: "libsvtav1",
		VideoCRF:     30,
	}
	// fakeTranscoder always records a 100,000-byte output, which exceeds the
	// 1-byte input above its oversize threshold.
	locations := ffmpeg.OutputLocations{OutputPath: "/runs/show/libsvtav1_encoded/movie.mp4", StatePath: "/runs/show/.encode_state/movie.state.json"}

	_, err := enc.Run(context.Background(), plan, locations, locations)
	require.Error(t, err)

	p.oversize("/runs/show/movie.mkv", err)

	assert.Equal(t, "/runs/show/oversize/movie.mp4", fs.renamed["/runs/show/libsvtav1_encoded/movie.mp4"],
		"the leftover oversized attempt must travel with the input into the oversize bucket")
}

func TestRunCountsTotalFromDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/a.mkv", []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(dir+"/b.mkv", []byte("b"), 0o644))

	fs := newMemFS()
	p := newPool(fs, dir)

	counts, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	// Both inputs are unreadable by the real probe (no ffprobe/ffmpeg
	// binaries in this test environment), so both land as failures.
	assert.Equal(t, 2, counts.Failed)
}
