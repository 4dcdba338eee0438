// Command smartencoder is the CLI entrypoint for the batch media
// re-encoding pipeline.
//
// It parses flags, validates configuration and paths, and either runs
// system diagnostics (--check) or the full discover/probe/plan/encode run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kerasty2024/smartencoder/internal/check"
	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/display"
	"github.com/kerasty2024/smartencoder/internal/logging"
	"github.com/kerasty2024/smartencoder/internal/workerpool"
)

// version and commit are injected at build time via -ldflags. When built
// with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output goes
	// through the logger for consistent formatting.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "smartencoder: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "smartencoder: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smartencoder: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	display.PrintBanner()

	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	// Resolve and validate paths: input must exist, the run root is
	// created if needed, and the run root must not be inside the input
	// (prevents recursive processing of the pipeline's own output).
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return 1
	}
	runRoot := cfg.RunRoot()
	if err := os.MkdirAll(runRoot, 0o755); err != nil {
		log.Error("Cannot create run root: %s", runRoot)
		return 1
	}
	runRootAbs, err := absPath(runRoot)
	if err != nil {
		log.Error("Cannot resolve run root: %s", runRoot)
		return 1
	}
	if err := cfg.ValidatePaths(inputAbs, runRootAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose a target directory outside: %s", cfg.InputDir)
		return 1
	}

	log.Info("=== smartencoder v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Run: %s", runRoot)
	if cfg.DryRun {
		log.Warn("DRY RUN — the transcoder will not be run")
	}
	log.Info("")

	// Fail fast if the transcoder, prober, or CRF-search helper (or every
	// configured encoder) are unavailable.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Signal handling — cancel context on SIGINT/SIGTERM so the
	// pool stops dispatching new files, letting in-flight encodes finish.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing in-flight files…")
		cancel()
	}()

	// Phase 4: Run the pool (discover -> probe -> plan -> encode).
	pool := workerpool.New(&cfg, log)
	counts, err := pool.Run(ctx)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	log.Info("")
	log.Info("=== Done: %d total, %d encoded, %d skipped, %d oversize, %d failed ===",
		counts.Total, counts.Encoded, counts.Skipped, counts.Oversize, counts.Failed)
	if counts.Encoded > 0 {
		log.Info("Space saved: %s", display.FormatBytesWithSign(counts.SpaceSaved()))
	}

	// Per-file failures are quarantined, not fatal to the run: exit 0 on
	// clean completion even when some files failed. Non-zero is reserved
	// for orchestrator-level failures, already returned above.
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs run-root directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
