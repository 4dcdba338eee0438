// Package workerpool is the orchestrator (spec.md §2 "WorkerPool"): it
// discovers input files, then dispatches each through Probe -> PreEncoder ->
// Encoder (routing soft skips and hard failures to their respective
// ledgers), bounded to a configured number of concurrent workers.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

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

// Console is the subset of logging.Logger's surface WorkerPool needs, kept
// narrow so tests can inject a silent fake.
type Console interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(verbose bool, format string, args ...interface{})
}

// Pool wires every collaborator a run needs and owns the per-run counters.
type Pool struct {
	Config     *config.Config
	Console    Console
	Locator    *outputpaths.Locator
	FS         adapters.Filesystem
	PreEncoder *planner.PreEncoder
	Encoder    *ffmpeg.Encoder
	Router     *errorrouter.Router
	RunLogger  *logger.Logger
	Stats      *pipeline.RunStats
}

// New builds a Pool wired to the real, exec-backed external adapters.
func New(cfg *config.Config, console Console) *Pool {
	fs := adapters.OSFilesystem{}
	locator := outputpaths.NewLocator(cfg.RunRoot())
	detector := langdetect.New(adapters.ExecClipExtractor{}, adapters.ExecLanguageClassifier{})

	return &Pool{
		Config:     cfg,
		Console:    console,
		Locator:    locator,
		FS:         fs,
		PreEncoder: planner.New(cfg, adapters.ExecCRFSearcher{}, detector),
		Encoder:    ffmpeg.New(cfg, adapters.ExecTranscoder{}, fs),
		Router:     errorrouter.New(locator, fs),
		RunLogger:  logger.New(locator, fs),
		Stats:      &pipeline.RunStats{},
	}
}

// Run discovers every input under cfg.InputDir and processes it, bounded to
// cfg.Processes concurrent workers. A canceled ctx stops new dispatches but
// lets in-flight files finish; Run always returns a counters snapshot, even
// when some files fail or ctx is canceled mid-run.
func (p *Pool) Run(ctx context.Context) (pipeline.Counts, error) {
	inputs, err := pipeline.Discover(p.Config.InputDir)
	if err != nil {
		return p.Stats.Snapshot(), fmt.Errorf("discover inputs: %w", err)
	}
	p.Stats.Total = len(inputs)
	p.Console.Info("Discovered %d file(s) under %s", len(inputs), p.Config.InputDir)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, p.Config.Processes)

dispatch:
	for _, inputPath := range inputs {
		inputPath := inputPath
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break dispatch
		}
		g.Go(func() error {
			defer func() { <-sem }()
			p.processOne(gctx, inputPath)
			return nil
		})
	}
	_ = g.Wait()

	if err := p.RunLogger.Flush(); err != nil {
		p.Console.Error("write combined_log.yaml: %v", err)
	}

	return p.Stats.Snapshot(), nil
}

// processOne runs one file through Probe -> PreEncoder -> Encoder. Every
// outcome updates Stats and the persisted ledgers; it never returns an
// error, since one file's failure must never abort the rest of the run
// (spec.md §9: failures are isolated per file).
func (p *Pool) processOne(ctx context.Context, inputPath string) {
	if ctx.Err() != nil {
		return
	}
	// A file that has started runs to completion: cancellation only stops
	// new dispatches, so its subprocesses are not killed mid-encode.
	ctx = context.WithoutCancel(ctx)

	info, err := probe.Probe(ctx, inputPath)
	if err != nil {
		p.quarantine(inputPath, err, nil)
		return
	}

	statePath := p.Locator.StatePath(inputPath)
	plan, skip, err := p.PreEncoder.Decide(ctx, info, statePath, true)
	if err != nil {
		p.quarantine(inputPath, err, info)
		return
	}
	if skip != nil {
		p.skip(inputPath, string(skip.Reason))
		return
	}

	mp4 := p.Locator.Encoded(inputPath, plan.VideoEncoder, "mp4")
	mkv := p.Locator.Encoded(inputPath, plan.VideoEncoder, "mkv")
	// Both attempts share one resume sidecar: container fallback and
	// oversize retries are still the same logical encode.
	mp4Locations := ffmpeg.OutputLocations{OutputPath: mp4.OutputPath, CmdPath: mp4.CmdPath, StatePath: statePath}
	mkvLocations := ffmpeg.OutputLocations{OutputPath: mkv.OutputPath, CmdPath: mkv.CmdPath, StatePath: statePath}

	if p.Config.DryRun {
		p.Console.Info("[dry-run] would encode %s with %s (crf %d)", inputPath, plan.VideoEncoder, plan.VideoCRF)
		p.Stats.RecordSkipped()
		return
	}

	rec, err := p.Encoder.Run(ctx, plan, mp4Locations, mkvLocations)
	if err != nil {
		if errkind.IsOversize(err) {
			p.oversize(inputPath, err)
			return
		}
		p.quarantine(inputPath, err, info)
		return
	}
	if rel, err := filepath.Rel(p.Config.RunRoot(), inputPath); err == nil {
		rec.InputRelativePath = rel
	} else {
		rec.InputRelativePath = inputPath
	}

	if err := p.RunLogger.RecordSuccess(*rec, filepath.Dir(rec.OutputPath)); err != nil {
		p.Console.Error("record success for %s: %v", inputPath, err)
	}

	if p.Config.MoveRawFile {
		dest := p.Locator.RawArchive(inputPath)
		if err := p.FS.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			p.Console.Error("archive raw %s: %v", inputPath, err)
		} else if err := p.FS.Rename(inputPath, dest); err != nil {
			p.Console.Error("archive raw %s: %v", inputPath, err)
		}
	}

	p.Stats.RecordEncoded(info.SizeBytes, int64(float64(info.SizeBytes)*rec.RealizedRatio))
	p.Console.Success("encoded %s -> %s (crf %d, %s)", inputPath, rec.OutputPath, rec.CRF, rec.Encoder)
}

func (p *Pool) skip(inputPath, reason string) {
	if err := p.RunLogger.RecordSkip(logger.SkipEntry{Path: inputPath, Reason: reason}); err != nil {
		p.Console.Error("record skip for %s: %v", inputPath, err)
	}
	p.Stats.RecordSkipped()
	p.Console.Info("skipped %s (%s)", inputPath, reason)
}

func (p *Pool) quarantine(inputPath string, cause error, info *probe.MediaInfo) {
	if err := p.Router.Route(inputPath, cause, info); err != nil {
		p.Console.Error("quarantine %s: %v", inputPath, err)
	}
	p.Stats.RecordFailed()
	p.Console.Error("failed %s: %v", inputPath, cause)
}

// oversize routes a file whose best achievable output still exceeded the
// input size into the oversize bucket, distinct from the error-quarantine
// tree (spec.md §4.5, §7, §8). The leftover oversized output, if any, is
// recovered from cause via errors.As and moved alongside the input.
func (p *Pool) oversize(inputPath string, cause error) {
	var oversizeErr *ffmpeg.OversizeError
	var leftoverOutput string
	if errors.As(cause, &oversizeErr) {
		leftoverOutput = oversizeErr.OutputPath
	}

	if err := p.Router.RouteOversize(inputPath, cause, leftoverOutput); err != nil {
		p.Console.Error("route oversize %s: %v", inputPath, err)
	}
	p.Stats.RecordOversize()
	p.Console.Warn("oversize %s: %v", inputPath, cause)
}
