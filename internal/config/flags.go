package config

// This file implements CLI flag parsing and help text. Negated/defaulting
// flags are captured separately and applied after Parse so Config defaults
// hold unless the user passes the flag, matching the pattern used
// throughout this codebase's predecessor.

import (
	"flag"
	"fmt"
	"os"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (unknown flag, missing positional arg).
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("smartencoder", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs, version) }

	var negated negatedFlags
	var configFile string

	fs.StringVar(&configFile, "config", "", "Optional YAML config file merged before flag overrides")
	fs.IntVar(&cfg.Processes, "processes", cfg.Processes, "Number of parallel workers")
	fs.StringVar(&cfg.TargetDir, "target-dir", cfg.TargetDir, "Output root (default: alongside input)")
	fs.BoolVar(&cfg.MoveRawFile, "move-raw-file", false, "Archive originals to the raw-archive tree")
	fs.BoolVar(&negated.notRename, "not-rename", false, "Accepted for compatibility; outputs always keep the input file's stem")
	fs.BoolVar(&cfg.ManualMode, "manual-mode", false, "Permit manual CRF fallback when CRF search exhausts all candidates")
	fs.BoolVar(&cfg.AllowNoAudio, "allow-no-audio", false, "Permit an audio-less plan when no audio stream survives")
	fs.StringVar((*string)(&cfg.LogLevel), "log-level", string(cfg.LogLevel), "Console log level: debug|info|warn|error")
	fs.BoolVar(&cfg.AudioOnly, "audio-only", false, "Audio-only mode (EncodePlan.mode = audio_only)")
	fs.BoolVar(&cfg.IPhoneSpecificTask, "iphone-specific-task", false, "Phone-preset mode (EncodePlan.mode = phone_preset)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; do not invoke the transcoder")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose console output")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&negated.noColor, "no-color", false, "Disable colored console output")
	fs.BoolVar(&negated.forceColor, "color", false, "Force colored console output")
	fs.StringVar(&cfg.OutputContainer, "container", cfg.OutputContainer, "Initial output container guess: mp4|mkv")
	fs.BoolVar(&negated.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&negated.showHelp, "help", false, "Show this help and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if negated.showHelp {
		printUsage(fs, version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "smartencoder v"+version)
		os.Exit(0)
	}

	if err := LoadYAML(cfg, configFile); err != nil {
		return err
	}
	// Parse the command line again so explicitly passed flags take
	// precedence over values read from the config file.
	if configFile != "" {
		if err := fs.Parse(os.Args[1:]); err != nil {
			return err
		}
	}

	applyNegatedFlags(cfg, &negated)

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags applied after Parse: these either invert
// a default or trigger an early exit (showHelp, showVersion).
type negatedFlags struct {
	notRename   bool
	noColor     bool
	forceColor  bool
	showVersion bool
	showHelp    bool
}

func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.notRename {
		cfg.NotRename = true
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir from the single positional arg (the run
// root to walk). CheckOnly mode requires no positional argument.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("need exactly one positional argument: input_dir")
	}
	cfg.InputDir = NormalizeDirArg(args[0])
	return nil
}

// printUsage writes column-aligned help text to stderr.
func printUsage(_ *flag.FlagSet, version string) {
	const col1 = 30
	lines := []struct{ flags, desc string }{
		{"", "smartencoder v" + version + " — batch media re-encoding pipeline"},
		{"", ""},
		{"  smartencoder [OPTIONS] <input_dir>", ""},
		{"", ""},
		{"Orchestration", ""},
		{"  --processes N", "Parallel workers (default: 1)"},
		{"  --target-dir PATH", "Output root (default: alongside input)"},
		{"  --config PATH", "Optional YAML config file"},
		{"", ""},
		{"Behavior", ""},
		{"  --move-raw-file", "Archive originals to the raw-archive tree"},
		{"  --not-rename", "Accepted for compatibility; outputs keep the input stem"},
		{"  --manual-mode", "Permit manual CRF fallback on CRF-search exhaustion"},
		{"  --allow-no-audio", "Permit an audio-less plan"},
		{"  --audio-only", "Audio-only mode"},
		{"  --iphone-specific-task", "Phone-preset mode"},
		{"  --dry-run", "Preview only; do not invoke the transcoder"},
		{"  --container <mp4|mkv>", "Initial output container guess (default: mp4)"},
		{"", ""},
		{"Display", ""},
		{"  --log-level <level>", "debug|info|warn|error (default: info)"},
		{"  --verbose", "Verbose console output"},
		{"  --color / --no-color", "Force/disable colored output"},
		{"", ""},
		{"Utility", ""},
		{"  --check", "System diagnostics and exit"},
		{"  --version", "Print version and exit"},
		{"  --help", "Show this help and exit"},
	}
	for _, l := range lines {
		switch {
		case l.flags == "" && l.desc == "":
			fmt.Fprintln(os.Stderr)
		case l.desc == "":
			fmt.Fprintln(os.Stderr, l.flags)
		case l.flags == "":
			fmt.Fprintln(os.Stderr, l.desc)
		default:
			padding := col1 - len(l.flags)
			if padding < 1 {
				padding = 1
			}
			fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
		}
	}
}
