package planner

import (
	"context"
	"fmt"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/errkind"
)

// searchCRF runs the CRF-search helper over each candidate encoder in
// cfg.EncoderPriority (in order), keeping the lowest encoded_percent as
// best; ties are broken by priority order because a later candidate only
// replaces best on a strictly lower encoded_percent (spec.md §4.3, §5).
//
// Falls back to (first_candidate, cfg.ManualCRF) when cfg.ManualMode is set
// and every candidate fails; otherwise returns errkind.ErrCrfSearchExhausted.
func searchCRF(ctx context.Context, cfg *config.Config, searcher adapters.CRFSearcher, path string) (encoder string, crf int, err error) {
	var (
		bestEncoder string
		bestResult  adapters.CRFSearchResult
		haveBest    bool
	)

	for _, enc := range cfg.EncoderPriority {
		res, searchErr := searcher.Search(ctx, enc, path, cfg.SampleEvery, cfg.MaxEncodedPercent, cfg.MinVMAF)
		if searchErr != nil {
			continue
		}
		if res.CRF > 63 || res.EncodedPercent > cfg.MaxEncodedPercent {
			continue
		}
		if !haveBest || res.EncodedPercent < bestResult.EncodedPercent {
			bestEncoder, bestResult, haveBest = enc, res, true
		}
	}

	if haveBest {
		return bestEncoder, bestResult.CRF, nil
	}
	if cfg.ManualMode && len(cfg.EncoderPriority) > 0 {
		return cfg.EncoderPriority[0], cfg.ManualCRF, nil
	}
	return "", 0, fmt.Errorf("crf search exhausted for %s: %w", path, errkind.ErrCrfSearchExhausted)
}
