package langdetect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty2024/smartencoder/internal/adapters"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, _ string, offset, duration float64) ([]byte, error) {
	return []byte{byte(int(offset))}, nil
}

type fakeClassifier struct {
	byOffsetRank []adapters.ClassifyResult // indexed by call order
	calls        int
}

func (f *fakeClassifier) Classify(_ context.Context, _ []byte, _ []string) (adapters.ClassifyResult, error) {
	r := f.byOffsetRank[f.calls]
	f.calls++
	return r, nil
}

func TestDetectMajorityVote(t *testing.T) {
	fc := &fakeClassifier{byOffsetRank: []adapters.ClassifyResult{
		{Language: "eng", Confidence: 0.9},
		{Language: "eng", Confidence: 0.8},
		{Language: "jpn", Confidence: 0.9},
	}}
	d := New(fakeExtractor{}, fc)
	lang, err := d.Detect(context.Background(), "in.mkv", 600, 3)
	require.NoError(t, err)
	assert.Equal(t, "eng", lang)
}

func TestDetectAllLowConfidenceReturnsUnknown(t *testing.T) {
	fc := &fakeClassifier{byOffsetRank: []adapters.ClassifyResult{
		{Language: "eng", Confidence: 0.1},
		{Language: "jpn", Confidence: 0.2},
		{Language: "fra", Confidence: 0.3},
	}}
	d := New(fakeExtractor{}, fc)
	lang, err := d.Detect(context.Background(), "in.mkv", 600, 3)
	require.NoError(t, err)
	assert.Equal(t, "unknown", lang)
}

func TestDetectTieBreaksNearestMidpoint(t *testing.T) {
	// 3 evenly spaced samples across a 100s file, skipping 5% each edge:
	// offsets ~= [5, 50, 95]; midpoint = 50. A 1-1 tie should favor the
	// vote closest to 50 (the middle sample).
	fc := &fakeClassifier{byOffsetRank: []adapters.ClassifyResult{
		{Language: "eng", Confidence: 0.9},
		{Language: "jpn", Confidence: 0.9},
		{Language: "eng", Confidence: 0.0}, // discarded: low confidence
	}}
	d := New(fakeExtractor{}, fc)
	lang, err := d.Detect(context.Background(), "in.mkv", 100, 3)
	require.NoError(t, err)
	assert.Equal(t, "jpn", lang, "jpn's only vote (offset ~50) is nearer the midpoint than eng's (offset ~5)")
}

func TestEvenOffsetsSkipsEdges(t *testing.T) {
	offsets := evenOffsets(100, 3)
	require.Len(t, offsets, 3)
	assert.InDelta(t, 5, offsets[0], 0.01)
	assert.InDelta(t, 50, offsets[1], 0.01)
	assert.InDelta(t, 95, offsets[2], 0.01)
}
