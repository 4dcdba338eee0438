package adapters

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

// CRFSearchResult is the parsed outcome of one crf-search helper invocation
// for a single candidate encoder (spec.md §4.3, §6).
type CRFSearchResult struct {
	CRF            int
	EncodedPercent int
}

// CRFSearcher invokes the external CRF-search helper:
//
//	crf-search -e <encoder> -i <path> --sample-every <dur> \
//	    --max-encoded-percent <int> --min-vmaf <int>
//
// stdout contains "crf <N>" and "<N>%" tokens; a non-zero exit means
// failure for that candidate encoder.
type CRFSearcher interface {
	Search(ctx context.Context, encoder, path, sampleEvery string, maxEncodedPercent, minVMAF int) (CRFSearchResult, error)
}

// ExecCRFSearcher shells out to a `crf-search` binary resolved on PATH.
type ExecCRFSearcher struct{}

var (
	reCRFToken     = regexp.MustCompile(`crf\s+(\d+)`)
	rePercentToken = regexp.MustCompile(`(\d+)%`)
)

// Search implements CRFSearcher.
func (ExecCRFSearcher) Search(ctx context.Context, encoder, path, sampleEvery string, maxEncodedPercent, minVMAF int) (CRFSearchResult, error) {
	cmd := exec.CommandContext(ctx, "crf-search",
		"-e", encoder,
		"-i", path,
		"--sample-every", sampleEvery,
		"--max-encoded-percent", strconv.Itoa(maxEncodedPercent),
		"--min-vmaf", strconv.Itoa(minVMAF),
	)
	out, err := cmd.Output()
	if err != nil {
		return CRFSearchResult{}, fmt.Errorf("crf-search %s: %w", encoder, err)
	}
	return ParseCRFSearchOutput(out)
}

// ParseCRFSearchOutput extracts the crf and encoded_percent tokens from the
// helper's stdout. Exported for testing without a real binary.
func ParseCRFSearchOutput(out []byte) (CRFSearchResult, error) {
	crfMatch := reCRFToken.FindSubmatch(out)
	pctMatch := rePercentToken.FindSubmatch(out)
	if crfMatch == nil || pctMatch == nil {
		return CRFSearchResult{}, fmt.Errorf("crf-search: missing crf or encoded-percent token in output")
	}
	crf, err := strconv.Atoi(string(crfMatch[1]))
	if err != nil {
		return CRFSearchResult{}, fmt.Errorf("crf-search: invalid crf token: %w", err)
	}
	pct, err := strconv.Atoi(string(pctMatch[1]))
	if err != nil {
		return CRFSearchResult{}, fmt.Errorf("crf-search: invalid encoded-percent token: %w", err)
	}
	return CRFSearchResult{CRF: crf, EncodedPercent: pct}, nil
}
