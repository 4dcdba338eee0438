// Package logger is the persisted-document half of the Logger component
// (spec.md §4.7): it writes one success record per encoded file, appends to
// the run-local skip ledger, and aggregates everything into combined_log.yaml
// at the end of a run. The console-facing half lives in internal/logging.
package logger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/outputpaths"
	"github.com/kerasty2024/smartencoder/internal/record"
)

// SkipEntry is one line of the run-local skip ledger.
type SkipEntry struct {
	Path   string
	Reason string
}

// Logger accumulates success records for the end-of-run combined log and
// writes the per-file yaml sidecar and skip-ledger entries as they happen.
// Safe for concurrent use by WorkerPool's parallel workers.
type Logger struct {
	Locator *outputpaths.Locator
	FS      adapters.Filesystem

	mu       sync.Mutex
	combined []record.SuccessRecord
}

// New builds a Logger from its collaborators.
func New(locator *outputpaths.Locator, fs adapters.Filesystem) *Logger {
	return &Logger{Locator: locator, FS: fs}
}

// RecordSuccess writes rec as its own YAML document alongside the encoded
// output (spec.md §6: "log_<YYYYMMDD>_<rand>.yaml") and queues it for the
// end-of-run aggregate.
func (l *Logger) RecordSuccess(rec record.SuccessRecord, encodedDir string) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("logger: marshal success record: %w", err)
	}

	path := outputpaths.SuccessLogPath(encodedDir, time.Now(), uuid.NewString())
	if err := l.FS.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("logger: write %s: %w", path, err)
	}

	l.mu.Lock()
	l.combined = append(l.combined, rec)
	l.mu.Unlock()
	return nil
}

// RecordSkip appends one line to the run-local skip ledger (spec.md §6:
// "skipped.txt — run-local append-only skip ledger").
func (l *Logger) RecordSkip(entry SkipEntry) error {
	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().Format(time.RFC3339), entry.Reason, entry.Path)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.FS.AppendFile(l.Locator.SkipLedgerPath(), []byte(line), 0o644)
}

// Flush writes the aggregated combined_log.yaml (spec.md §6: "end-of-run
// aggregate"). Call once after all workers finish.
func (l *Logger) Flush() error {
	l.mu.Lock()
	recs := append([]record.SuccessRecord(nil), l.combined...)
	l.mu.Unlock()

	data, err := yaml.Marshal(recs)
	if err != nil {
		return fmt.Errorf("logger: marshal combined log: %w", err)
	}
	path := l.Locator.CombinedLogPath()
	if err := l.FS.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("logger: write %s: %w", path, err)
	}
	return nil
}
