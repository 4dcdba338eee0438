package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/errkind"
	"github.com/kerasty2024/smartencoder/internal/probe"
	"github.com/kerasty2024/smartencoder/internal/state"
)

// Skip carries the outcome of a soft skip (spec.md §4.3 rules 1-4). Soft
// skips are resolved locally and logged to the skip ledger; they are never
// routed to ErrorRouter (spec.md §7, §9).
type Skip struct {
	Reason SkipReason
}

// PreEncoder is the decision core (spec.md §2, §4.3, §4.4): it consumes a
// MediaInfo, applies skip rules, runs CRF search or resumes a prior
// attempt's choice, selects which streams survive, and produces an
// EncodePlan.
type PreEncoder struct {
	Config       *config.Config
	CRFSearcher  adapters.CRFSearcher
	LangDetector languageDetector
}

// New builds a PreEncoder from its collaborators.
func New(cfg *config.Config, searcher adapters.CRFSearcher, detector languageDetector) *PreEncoder {
	return &PreEncoder{Config: cfg, CRFSearcher: searcher, LangDetector: detector}
}

// Decide runs the Fresh→Probed→Decided→Planned→Persisted state machine for
// one file (spec.md §4.4). statePath is the EncodeState sidecar location
// OutputPaths derives for this input. automaticRun gates skip rule 2 (the
// oversize-marker heuristic only applies to unattended runs).
//
// Exactly one of the three returns is meaningful: a non-nil skip is a soft
// skip; a non-nil err is a hard failure for ErrorRouter; otherwise plan is
// the produced EncodePlan.
func (p *PreEncoder) Decide(ctx context.Context, info *probe.MediaInfo, statePath string, automaticRun bool) (*EncodePlan, *Skip, error) {
	if reason, skip := evaluateSkip(p.Config, info, automaticRun); skip {
		return nil, &Skip{Reason: reason}, nil
	}

	mode := ModeVideo
	switch {
	case p.Config.AudioOnly:
		mode = ModeAudioOnly
	case p.Config.IPhoneSpecificTask:
		mode = ModePhonePreset
	}

	// Skip rule 5: no video streams is a hard quarantine, not a skip, for
	// any mode that actually needs a video stream.
	needsVideo := mode != ModeAudioOnly
	if needsVideo && !info.HasVideo() {
		return nil, nil, fmt.Errorf("preencode %s: %w", info.Path, errkind.ErrNoStreams)
	}

	plan := &EncodePlan{
		Input:              info,
		Mode:               mode,
		OutputContainer:    p.Config.OutputContainer,
		EstimatedSizeRatio: 1.0,
		DetectedLanguages:  make(map[int]string),
	}

	if needsVideo {
		if err := p.decideVideo(ctx, plan, statePath); err != nil {
			return nil, nil, err
		}
		if len(plan.KeptVideoStreams) == 0 {
			return nil, nil, fmt.Errorf("preencode %s: %w", info.Path, errkind.ErrNoStreams)
		}
	}

	keptAudio, err := selectAudioStreams(ctx, p.Config, p.LangDetector, info, plan.DetectedLanguages)
	if err != nil {
		return nil, nil, fmt.Errorf("preencode %s: %w", info.Path, err)
	}
	plan.KeptAudioStreams = keptAudio
	plan.KeptSubtitleStreams = selectSubtitleStreams(p.Config, info.SubtitleStreams, plan.OutputContainer)
	plan.CommentPayload = p.buildCommentPayload(info, plan)

	return plan, nil, nil
}

// decideVideo implements the Decided/Planned states for modes that carry a
// video stream: resume a matching EncodeState, else run CRF search (or, for
// the phone-preset mode, apply the fixed manual encoder/CRF), then select
// the kept video streams.
func (p *PreEncoder) decideVideo(ctx context.Context, plan *EncodePlan, statePath string) error {
	info := plan.Input
	fp := state.Fingerprint(info.MD5, string(plan.Mode))

	resumed, ok, err := state.Resume(statePath, fp)
	if err != nil {
		return fmt.Errorf("resume state for %s: %w", info.Path, err)
	}
	switch {
	case ok:
		plan.VideoEncoder, plan.VideoCRF = resumed.Encoder, resumed.CRF
	case plan.Mode == ModePhonePreset:
		plan.VideoEncoder, plan.VideoCRF = p.Config.EncoderPriority[0], p.Config.ManualCRF
	default:
		start := time.Now()
		encoder, crf, searchErr := searchCRF(ctx, p.Config, p.CRFSearcher, info.Path)
		plan.CRFSearchElapsed = time.Since(start)
		if searchErr != nil {
			return fmt.Errorf("preencode %s: %w", info.Path, searchErr)
		}
		plan.VideoEncoder, plan.VideoCRF = encoder, crf
		newState := &state.EncodeState{PlanFingerprint: fp, Encoder: encoder, CRF: crf}
		if err := state.Save(statePath, newState); err != nil {
			return fmt.Errorf("persist state for %s: %w", info.Path, err)
		}
	}

	plan.KeptVideoStreams = selectVideoStreams(p.Config, info.VideoStreams)
	return nil
}

func (p *PreEncoder) buildCommentPayload(info *probe.MediaInfo, plan *EncodePlan) CommentPayload {
	return CommentPayload{
		Comment:          p.Config.AlreadyEncodedSentinel,
		Encoders:         p.Config.EncoderPriority,
		CRF:              plan.VideoCRF,
		SourceFile:       filepath.Base(info.Path),
		SourceFileSize:   humanSize(info.SizeBytes),
		SourceFileMD5:    info.MD5,
		SourceFileSHA256: info.SHA256,
		EstimatedRatio:   plan.EstimatedSizeRatio,
	}
}
