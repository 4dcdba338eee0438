package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/errkind"
	"github.com/kerasty2024/smartencoder/internal/planner"
	"github.com/kerasty2024/smartencoder/internal/record"
	"github.com/kerasty2024/smartencoder/internal/state"
)

// OutputLocations is the set of paths OutputPaths derives for one encode
// attempt (spec.md §6): the encoded file, its literal command for
// reproducibility, and its EncodeState sidecar.
type OutputLocations struct {
	OutputPath string
	CmdPath    string
	StatePath  string
}

// OversizeError reports oversize-retry exhaustion (spec.md §4.5) and carries
// the path of the last (still oversized) attempt, since that file is left on
// disk for the caller to route to the oversize bucket rather than deleted.
type OversizeError struct {
	cause      error
	OutputPath string
}

func (e *OversizeError) Error() string { return e.cause.Error() }
func (e *OversizeError) Unwrap() error { return e.cause }

// Encoder is the execution core (spec.md §2, §4.5): it builds the
// transcoder invocation from an EncodePlan, runs it, retries with relaxed
// parameters on container incompatibility or oversize output, and produces
// a SuccessRecord. InputRelativePath on the returned record is left empty;
// the caller fills it in, since only it knows the run root.
type Encoder struct {
	Config     *config.Config
	Transcoder adapters.Transcoder
	FS         adapters.Filesystem
}

// New builds an Encoder from its collaborators.
func New(cfg *config.Config, transcoder adapters.Transcoder, fs adapters.Filesystem) *Encoder {
	return &Encoder{Config: cfg, Transcoder: transcoder, FS: fs}
}

// Run executes plan to completion. mp4Locations are used for the first
// attempt; mkvLocations are the fallback paths used if that attempt fails
// with a stream-write error (spec.md §4.5's one-time container retry).
func (e *Encoder) Run(ctx context.Context, plan *planner.EncodePlan, mp4Locations, mkvLocations OutputLocations) (*record.SuccessRecord, error) {
	totalStart := time.Now()
	crf := plan.VideoCRF
	loc := mp4Locations

	args := Build(e.Config, plan, crf, loc.OutputPath)
	encodeStart := time.Now()
	result := e.Transcoder.Run(ctx, args, e.Config.Verbose)

	if result.Err != nil {
		if !MatchStreamWriteError(result.Stderr) {
			return nil, fmt.Errorf("encode %s: %w", plan.Input.Path, errkind.ErrTranscoderFailed)
		}
		_ = e.FS.Remove(loc.OutputPath)
		loc = mkvLocations
		args = Build(e.Config, plan, crf, loc.OutputPath)
		result = e.Transcoder.Run(ctx, args, e.Config.Verbose)
		if result.Err != nil {
			return nil, fmt.Errorf("encode %s: %w", plan.Input.Path, errkind.ErrContainerIncompatible)
		}
	}

	fp := state.Fingerprint(plan.Input.MD5, string(plan.Mode))
	for oversizeRetries := 0; ; {
		info, statErr := e.FS.Stat(loc.OutputPath)
		if statErr != nil {
			return nil, fmt.Errorf("encode %s: stat output: %w", plan.Input.Path, errkind.ErrIO)
		}
		if float64(info.Size()) <= float64(plan.Input.SizeBytes)*e.Config.OversizeRatio {
			break
		}
		if crf > 63 || oversizeRetries >= e.Config.MaxOversizeRetries {
			return nil, &OversizeError{
				cause:      fmt.Errorf("encode %s: %w", plan.Input.Path, errkind.ErrOversizeExhausted),
				OutputPath: loc.OutputPath,
			}
		}

		_ = e.FS.Remove(loc.OutputPath)
		crf += int(math.Ceil(float64(crf) * float64(e.Config.ManualCRFIncrementPercent) / 100))
		oversizeRetries++

		newState := &state.EncodeState{PlanFingerprint: fp, Encoder: plan.VideoEncoder, CRF: crf, AttemptCount: oversizeRetries}
		if err := state.Save(loc.StatePath, newState); err != nil {
			return nil, fmt.Errorf("persist state for %s: %w", plan.Input.Path, err)
		}

		args = Build(e.Config, plan, crf, loc.OutputPath)
		result = e.Transcoder.Run(ctx, args, e.Config.Verbose)
		if result.Err != nil {
			return nil, fmt.Errorf("encode %s: %w", plan.Input.Path, errkind.ErrTranscoderFailed)
		}
	}
	encodeElapsed := time.Since(encodeStart)

	if e.Config.PreserveModTime {
		if srcInfo, err := e.FS.Stat(plan.Input.Path); err == nil {
			mtime := srcInfo.ModTime().Unix()
			_ = e.FS.Chtimes(loc.OutputPath, mtime, mtime)
		}
	}
	if err := e.FS.WriteFile(loc.CmdPath, []byte(strings.Join(args, " ")+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write cmd.txt for %s: %w", plan.Input.Path, errkind.ErrIO)
	}

	outInfo, statErr := e.FS.Stat(loc.OutputPath)
	if statErr != nil {
		return nil, fmt.Errorf("encode %s: stat final output: %w", plan.Input.Path, errkind.ErrIO)
	}

	host, _ := os.Hostname()
	return &record.SuccessRecord{
		InputMD5:       plan.Input.MD5,
		InputSHA256:    plan.Input.SHA256,
		Encoder:        plan.VideoEncoder,
		CRF:            crf,
		EstimatedRatio: plan.EstimatedSizeRatio,
		RealizedRatio:  round4(float64(outInfo.Size()) / float64(plan.Input.SizeBytes)),
		Elapsed: record.Elapsed{
			CRFSearch: plan.CRFSearchElapsed,
			Encode:    encodeElapsed,
			Total:     time.Since(totalStart),
		},
		SourceDurationSeconds: plan.Input.DurationSeconds,
		SourceDurationHuman:   formatDuration(plan.Input.DurationSeconds),
		TargetVMAF:            e.Config.MinVMAF,
		OutputPath:            loc.OutputPath,
		Host:                  host,
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func formatDuration(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).String()
}
