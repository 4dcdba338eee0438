// Package langdetect implements LanguageDetector (spec.md §4.2): given a
// media path and a handful of evenly spaced time offsets, it extracts short
// audio clips and asks an external speech classifier, resolving a final
// language by majority vote with a midpoint tiebreak.
package langdetect

import (
	"context"
	"fmt"
	"math"

	"github.com/kerasty2024/smartencoder/internal/adapters"
)

const (
	clipDurationSeconds = 20.0
	edgeSkipFraction    = 0.05 // skip the first and last 5% of duration.
	unknown             = "unknown"

	// lowConfidenceThreshold below this, a sample's vote is discarded; if
	// every sample is discarded the detector returns "unknown" (spec.md
	// §4.2: "Returns 'unknown' if all samples return low-confidence").
	lowConfidenceThreshold = 0.5
)

// Detector extracts clips and queries the classifier collaborator.
type Detector struct {
	Extractor  adapters.ClipExtractor
	Classifier adapters.LanguageClassifier
}

// New builds a Detector from its two external-collaborator adapters.
func New(extractor adapters.ClipExtractor, classifier adapters.LanguageClassifier) *Detector {
	return &Detector{Extractor: extractor, Classifier: classifier}
}

type sample struct {
	offset     float64
	language   string
	confidence float64
}

// Detect implements the contract: detect(path, duration_s, samples=3) →
// language_code | "unknown".
func (d *Detector) Detect(ctx context.Context, path string, durationSeconds float64, samples int) (string, error) {
	if samples < 1 {
		samples = 3
	}
	offsets := evenOffsets(durationSeconds, samples)
	midpoint := durationSeconds / 2

	var results []sample
	for _, off := range offsets {
		dur := clipDurationSeconds
		if remaining := durationSeconds - off; remaining < dur {
			dur = remaining
		}
		if dur <= 0 {
			continue
		}
		blob, err := d.Extractor.Extract(ctx, path, off, dur)
		if err != nil {
			return "", fmt.Errorf("langdetect: extract clip at %.2fs: %w", off, err)
		}
		verdict, err := d.Classifier.Classify(ctx, blob, nil)
		if err != nil {
			return "", fmt.Errorf("langdetect: classify clip at %.2fs: %w", off, err)
		}
		results = append(results, sample{offset: off, language: verdict.Language, confidence: verdict.Confidence})
	}

	return resolve(results, midpoint), nil
}

// evenOffsets returns `samples` offsets evenly spaced across
// [duration*edgeSkipFraction, duration*(1-edgeSkipFraction)].
func evenOffsets(duration float64, samples int) []float64 {
	lo := duration * edgeSkipFraction
	hi := duration * (1 - edgeSkipFraction)
	if samples == 1 {
		return []float64{(lo + hi) / 2}
	}
	span := hi - lo
	offsets := make([]float64, samples)
	for i := 0; i < samples; i++ {
		offsets[i] = lo + span*float64(i)/float64(samples-1)
	}
	return offsets
}

// resolve picks the majority language among samples whose confidence clears
// lowConfidenceThreshold. Ties are broken by the vote nearest the midpoint.
// If no sample clears the threshold, returns "unknown".
func resolve(results []sample, midpoint float64) string {
	votes := make(map[string]int)
	nearest := make(map[string]float64) // language -> best (smallest) distance-to-midpoint among its voters.

	for _, r := range results {
		if r.confidence < lowConfidenceThreshold || r.language == "" {
			continue
		}
		votes[r.language]++
		d := math.Abs(r.offset - midpoint)
		if cur, ok := nearest[r.language]; !ok || d < cur {
			nearest[r.language] = d
		}
	}

	if len(votes) == 0 {
		return unknown
	}

	best := unknown
	bestCount := -1
	bestDist := math.Inf(1)
	for lang, count := range votes {
		switch {
		case count > bestCount:
			best, bestCount, bestDist = lang, count, nearest[lang]
		case count == bestCount && nearest[lang] < bestDist:
			best, bestDist = lang, nearest[lang]
		}
	}
	return best
}
