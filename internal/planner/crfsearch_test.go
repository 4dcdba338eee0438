package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/errkind"
)

type fakeSearcher struct {
	byEncoder map[string]adapters.CRFSearchResult
	failFor   map[string]bool
}

func (f *fakeSearcher) Search(_ context.Context, encoder, _, _ string, _, _ int) (adapters.CRFSearchResult, error) {
	if f.failFor[encoder] {
		return adapters.CRFSearchResult{}, errors.New("boom")
	}
	return f.byEncoder[encoder], nil
}

func TestSearchCRFPicksLowestEncodedPercent(t *testing.T) {
	cfg := baseConfig()
	cfg.EncoderPriority = []string{"libsvtav1", "libx265", "libx264"}
	searcher := &fakeSearcher{byEncoder: map[string]adapters.CRFSearchResult{
		"libsvtav1": {CRF: 30, EncodedPercent: 45},
		"libx265":   {CRF: 28, EncodedPercent: 40},
		"libx264":   {CRF: 22, EncodedPercent: 60},
	}}

	encoder, crf, err := searchCRF(context.Background(), cfg, searcher, "in.mkv")
	require.NoError(t, err)
	assert.Equal(t, "libx265", encoder)
	assert.Equal(t, 28, crf)
}

func TestSearchCRFTiesBreakByPriorityOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.EncoderPriority = []string{"libsvtav1", "libx265"}
	searcher := &fakeSearcher{byEncoder: map[string]adapters.CRFSearchResult{
		"libsvtav1": {CRF: 30, EncodedPercent: 50},
		"libx265":   {CRF: 28, EncodedPercent: 50},
	}}

	encoder, _, err := searchCRF(context.Background(), cfg, searcher, "in.mkv")
	require.NoError(t, err)
	assert.Equal(t, "libsvtav1", encoder, "earlier candidate wins a tie")
}

func TestSearchCRFEncodedPercentBoundary(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxEncodedPercent = 70
	cfg.EncoderPriority = []string{"libsvtav1"}

	atMax := &fakeSearcher{byEncoder: map[string]adapters.CRFSearchResult{"libsvtav1": {CRF: 30, EncodedPercent: 70}}}
	_, _, err := searchCRF(context.Background(), cfg, atMax, "in.mkv")
	assert.NoError(t, err, "encoded_percent == max should be treated as success")

	overMax := &fakeSearcher{byEncoder: map[string]adapters.CRFSearchResult{"libsvtav1": {CRF: 30, EncodedPercent: 71}}}
	_, _, err = searchCRF(context.Background(), cfg, overMax, "in.mkv")
	assert.Error(t, err, "encoded_percent == max+1 should fail")
}

func TestSearchCRFManualFallback(t *testing.T) {
	cfg := baseConfig()
	cfg.ManualMode = true
	cfg.ManualCRF = 28
	cfg.EncoderPriority = []string{"libsvtav1", "libx265"}
	searcher := &fakeSearcher{failFor: map[string]bool{"libsvtav1": true, "libx265": true}}

	encoder, crf, err := searchCRF(context.Background(), cfg, searcher, "in.mkv")
	require.NoError(t, err)
	assert.Equal(t, "libsvtav1", encoder)
	assert.Equal(t, 28, crf)
}

func TestSearchCRFExhaustedWithoutManualMode(t *testing.T) {
	cfg := baseConfig()
	cfg.ManualMode = false
	cfg.EncoderPriority = []string{"libsvtav1"}
	searcher := &fakeSearcher{failFor: map[string]bool{"libsvtav1": true}}

	_, _, err := searchCRF(context.Background(), cfg, searcher, "in.mkv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrCrfSearchExhausted))
}
