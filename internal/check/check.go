// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for the external tools spec.md §6 names
// by contract: the transcoder, the CRF-search helper, and the media
// inspector.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/kerasty2024/smartencoder/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is
// missing (errkind.Orchestrator.ToolMissing, spec.md §7).
var (
	ErrFfmpegNotFound    = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound   = errors.New("ffprobe not found on PATH")
	ErrCrfSearchNotFound = errors.New("crf-search not found on PATH")
	ErrNoEncoderUsable   = errors.New("none of the configured encoders could complete a test encode")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints availability of
// ffmpeg, ffprobe, crf-search, and a smoke test of every encoder in
// cfg.EncoderPriority. This is informational only — it does not stop on
// failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkTool(log, "ffmpeg", "-version")
	checkTool(log, "ffprobe", "-version")
	checkTool(log, "crf-search", "-h")

	for _, encoder := range cfg.EncoderPriority {
		checkEncoder(log, encoder)
	}
}

// checkTool verifies name is on PATH and logs its first output line.
func checkTool(log Logger, name string, versionArgs ...string) {
	if _, err := exec.LookPath(name); err != nil {
		log.Error("%s not found", name)
		return
	}
	out, err := exec.Command(name, versionArgs...).CombinedOutput()
	if err != nil {
		log.Warn("%s found but version check failed: %v", name, err)
		return
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", name, firstLine)
}

// checkEncoder runs a minimal test encode with the named video encoder to
// verify ffmpeg's build actually supports it (listing in EncoderPriority
// alone does not guarantee the binary was built with that codec).
func checkEncoder(log Logger, encoder string) {
	log.Info("Testing encoder %s...", encoder)
	if runSilent("ffmpeg", testArgs(encoder)...) {
		log.Success("%s works", encoder)
	} else {
		log.Error("%s test encode failed", encoder)
	}
}

// CheckDeps is the pre-pipeline validation: it verifies that ffmpeg,
// ffprobe, and crf-search are all on PATH, and that at least one of
// cfg.EncoderPriority's candidates passes a short test encode. Returns a
// sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	if _, err := exec.LookPath("crf-search"); err != nil {
		return ErrCrfSearchNotFound
	}

	for _, encoder := range cfg.EncoderPriority {
		if runSilent("ffmpeg", testArgs(encoder)...) {
			return nil
		}
	}
	return ErrNoEncoderUsable
}

// testArgs returns the ffmpeg arguments for a minimal test encode with the
// given video encoder.
func testArgs(encoder string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", encoder, "-crf", "30",
		"-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	return cmd.Run() == nil
}
