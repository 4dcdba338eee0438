// Package config holds runtime configuration: defaults, CLI flag parsing,
// optional YAML overrides, and validation. All tunables travel as a single
// immutable record passed by pointer to PreEncoder and Encoder — no
// process-wide mutable state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// LogLevel controls console verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all runtime settings, populated by [DefaultConfig] and then
// mutated by [ParseFlags] (and, optionally, an on-disk YAML file read before
// flags are applied) before being passed (by pointer) to the packages that
// need it.
type Config struct {
	// Paths.
	InputDir  string // run root; positional arg.
	TargetDir string // --target-dir; output root (defaults to InputDir's parent-relative layout when empty).

	// Concurrency.
	Processes int // --processes; N parallel workers, >= 1.

	// Behavior flags.
	MoveRawFile         bool // --move-raw-file
	NotRename            bool // --not-rename: accepted for CLI compatibility; OutputPaths always mirrors input stems (see DESIGN.md).
	ManualMode           bool // --manual-mode: permit manual-CRF fallback when CRF search exhausts all candidates.
	AllowNoAudio         bool // --allow-no-audio
	AudioOnly            bool // --audio-only: EncodePlan.mode = audio_only.
	IPhoneSpecificTask   bool // --iphone-specific-task: EncodePlan.mode = phone_preset.
	DryRun               bool
	PreserveModTime      bool // preserve input mtime on output.

	// Display/logging.
	LogLevel  LogLevel
	ColorMode ColorMode
	Verbose   bool
	CheckOnly bool

	// --- Skip-rule tunables (§4.3) ---
	AlreadyEncodedSentinel string   // comment_tag value recognized as "already encoded".
	OversizeMarker         string   // filename substring heuristic for skip rule 2.
	OversizeMarkerCaseSensitive bool // Open Question, decided: case-sensitive (see DESIGN.md).
	BitRateFloorBps        int64    // skip rule 3 floor.
	ContainerBlacklist     []string // skip rule 4 (lowercase format names).
	SkipVideoCodecs        []string // codecs dropped from kept_video_streams.

	// --- CRF search tunables ---
	EncoderPriority    []string // candidate encoders, in priority order.
	SampleEvery        string   // duration string passed to the CRF-search helper, e.g. "60".
	MaxEncodedPercent  int      // upper bound accepted from the CRF-search helper.
	MinVMAF            int      // quality floor passed to the CRF-search helper.
	ManualCRF          int      // fallback CRF when --manual-mode and all candidates fail.

	// --- Audio tunables ---
	OpusFamilyCodecs     []string // codecs eligible for "copy" (preferred-opus-family set).
	AudioCopySampleRateHz int      // minimum sample_rate_hz for the copy path.
	PerChannelBitrateBudgetBps int64 // bitrate = min(stream.bit_rate_bps, channels * budget).
	AudioLanguageAllowList []string // empty means "allow all".

	// --- Subtitle tunables ---
	SubtitleLanguageAllowList []string // empty means "allow all".

	// --- Oversize-retry tunables (§4.5) ---
	OversizeRatio               float64 // default 1.0.
	ManualCRFIncrementPercent   int     // crf += ceil(crf * pct / 100).
	MaxOversizeRetries          int

	// --- Output ---
	OutputContainer string // initial guess container, "mp4" or "mkv".

	// Language detection (§4.2).
	LangDetectSamples int // default 3.
}

// DefaultConfig returns a Config with sensible defaults. The language
// allow-lists default to empty (allow all); the encoder priority defaults to
// libsvtav1, libx265, libx264. Both can be overridden from a config file.
func DefaultConfig() Config {
	return Config{
		Processes:       1,
		LogLevel:        LogLevelInfo,
		ColorMode:       ColorAuto,
		PreserveModTime: true,

		AlreadyEncodedSentinel:      "encoded-by-smartencoder",
		OversizeMarker:              "[oversize]",
		OversizeMarkerCaseSensitive: true,
		BitRateFloorBps:             300_000,
		ContainerBlacklist:          nil,
		SkipVideoCodecs:             []string{"mjpeg", "png", "bmp"},

		EncoderPriority:   []string{"libsvtav1", "libx265", "libx264"},
		SampleEvery:       "60",
		MaxEncodedPercent: 70,
		MinVMAF:           93,
		ManualCRF:         28,

		OpusFamilyCodecs:           []string{"opus"},
		AudioCopySampleRateHz:      48000,
		PerChannelBitrateBudgetBps: 64_000,

		OversizeRatio:             1.0,
		ManualCRFIncrementPercent: 15,
		MaxOversizeRetries:        3,

		OutputContainer: "mp4",

		LangDetectSamples: 3,
	}
}

// LoadYAML merges an optional on-disk YAML config file into cfg. Missing
// file is not an error (YAML config is fully optional; CLI flags suffice on
// their own). Fields present in the file overwrite cfg's current values;
// flags applied afterward by ParseFlags take final precedence.
func LoadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path. The
// filesystem root "/" is returned unchanged so we don't produce an empty
// string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks structural invariants that flag parsing alone cannot
// enforce (mutually exclusive mode flags, positive process count).
func (c *Config) Validate() error {
	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory")
	}
	if c.Processes < 1 {
		return errors.New("--processes must be >= 1")
	}
	if c.AudioOnly && c.IPhoneSpecificTask {
		return errors.New("--audio-only and --iphone-specific-task are mutually exclusive")
	}
	switch c.OutputContainer {
	case "mp4", "mkv":
	default:
		return fmt.Errorf("invalid output container %q (use mp4 or mkv)", c.OutputContainer)
	}
	if c.OversizeRatio <= 0 {
		return errors.New("oversize ratio must be > 0")
	}
	if len(c.EncoderPriority) == 0 {
		return errors.New("encoder priority list must not be empty")
	}
	return nil
}

// ValidatePaths ensures the resolved target directory is not inside (or
// equal to) the resolved input directory, preventing the pipeline from
// recursively discovering its own output files. Both arguments must be
// absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, targetAbs string) error {
	sep := string(filepath.Separator)
	if targetAbs == inputAbs || strings.HasPrefix(targetAbs+sep, inputAbs+sep) {
		return errors.New("target directory must not be inside the input directory")
	}
	return nil
}

// RunRoot returns the effective run root: TargetDir if set, else InputDir.
// Per spec.md §6 all persisted paths are relative to the run root.
func (c *Config) RunRoot() string {
	if c.TargetDir != "" {
		return c.TargetDir
	}
	return c.InputDir
}
