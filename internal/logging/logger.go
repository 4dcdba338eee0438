// Package logging provides a leveled console logger.
// ANSI colors are managed by [term.Configure]; the logger reads them
// from the [term] package at write time.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/term"
)

var levelRank = map[config.LogLevel]int{
	config.LogLevelDebug: 0,
	config.LogLevelInfo:  1,
	config.LogLevelWarn:  2,
	config.LogLevelError: 3,
}

// Logger writes leveled console messages. Persisted documents (SuccessRecord,
// combined_log.yaml, skipped.txt) are the Logger component's other half
// (spec.md §4.7); this type is the ambient human-readable console half, kept
// separate so a quiet --log-level never affects what gets written to disk.
type Logger struct {
	mu        sync.Mutex
	threshold int
}

// NewLogger initializes terminal colors via [term.Configure] and filters
// console output below cfg.LogLevel.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	return &Logger{threshold: levelRank[cfg.LogLevel]}, nil
}

// Close is a no-op: the console logger holds no file handle. It lets callers
// defer Close unconditionally.
func (l *Logger) Close() error { return nil }

// line writes a single timestamped log entry, unless rank falls below the
// configured threshold. ERROR goes to stderr; all others go to stdout.
func (l *Logger) line(rank int, level, ansiColor, text string) {
	if rank < l.threshold {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")

	l.mu.Lock()
	defer l.mu.Unlock()

	out := os.Stdout
	if level == "ERROR" {
		out = os.Stderr
	}

	if ansiColor != "" {
		_, _ = io.WriteString(out, ts+" "+ansiColor+"["+level+"]"+term.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, ts+" ["+level+"] "+text+"\n")
	}
}

// Info logs an informational message (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line(levelRank[config.LogLevelInfo], "INFO", term.Blue, fmt.Sprintf(format, args...))
}

// Success logs a success message (green). Treated as info-level.
func (l *Logger) Success(format string, args ...interface{}) {
	l.line(levelRank[config.LogLevelInfo], "SUCCESS", term.Green, fmt.Sprintf(format, args...))
}

// Warn logs a warning (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line(levelRank[config.LogLevelWarn], "WARN", term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs an error (red) to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line(levelRank[config.LogLevelError], "ERROR", term.Red, fmt.Sprintf(format, args...))
}

// Render logs a render-plan message (magenta). Treated as info-level.
func (l *Logger) Render(format string, args ...interface{}) {
	l.line(levelRank[config.LogLevelInfo], "RENDER", term.Magenta, fmt.Sprintf(format, args...))
}

// Outlier logs a bitrate-outlier message (orange). Treated as warn-level.
func (l *Logger) Outlier(format string, args ...interface{}) {
	l.line(levelRank[config.LogLevelWarn], "OUTLIER", term.Orange, fmt.Sprintf(format, args...))
}

// Debug logs a debug message (cyan) only when verbose is true.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.line(levelRank[config.LogLevelDebug], "DEBUG", term.Cyan, fmt.Sprintf(format, args...))
}
