// Package outputpaths is the pure path-mapping layer between a run root and
// the persisted layout spec.md §6 names: encoded outputs, their sidecars,
// the raw-archive mirror, and the error-quarantine tree. It holds no state
// beyond collision bookkeeping and never touches the filesystem itself —
// callers (Encoder, ErrorRouter, Logger) do the actual I/O at the paths this
// package returns.
package outputpaths

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kerasty2024/smartencoder/internal/errkind"
	"github.com/kerasty2024/smartencoder/internal/naming"
)

// EncodedPaths is the full set of sibling paths produced for one encode
// attempt (spec.md §6): the output media file and its two companions,
// all living in the same directory.
type EncodedPaths struct {
	OutputPath string // <encoder_name>_encoded/<mirror>/<stem>.<container>
	CmdPath    string // .../<stem>.cmd.txt
	StatePath  string // .../<stem>.state.json
}

// Locator derives every persisted path from a run root. It is safe for
// concurrent use by WorkerPool's parallel workers: the embedded
// CollisionResolver serializes access to its own bookkeeping.
type Locator struct {
	RunRoot    string
	collisions *naming.CollisionResolver
}

// NewLocator builds a Locator rooted at runRoot.
func NewLocator(runRoot string) *Locator {
	return &Locator{RunRoot: runRoot, collisions: naming.NewCollisionResolver()}
}

// mirror returns inputPath's directory relative to RunRoot, or "." if
// inputPath is not nested under RunRoot (e.g. in tests using bare paths).
func (l *Locator) mirror(inputPath string) string {
	rel, err := filepath.Rel(l.RunRoot, filepath.Dir(inputPath))
	if err != nil || strings.HasPrefix(rel, "..") {
		return "."
	}
	return rel
}

func stem(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Encoded returns the output/cmd/state trio for inputPath, encoded by
// encoderName into container ("mp4" or "mkv"). Collisions (two distinct
// inputs that would otherwise land on the same output path — e.g. after a
// container fallback changes the extension but not the stem) are resolved
// via the teacher's " - dupN" suffix scheme so no output ever silently
// overwrites another input's result.
func (l *Locator) Encoded(inputPath, encoderName, container string) EncodedPaths {
	dir := filepath.Join(l.RunRoot, encoderName+"_encoded", l.mirror(inputPath))
	requested := filepath.Join(dir, stem(inputPath)+"."+container)
	resolved := l.collisions.Resolve(inputPath, requested)

	// spec.md §6 names a bare "cmd.txt" per mirror directory; that reads as
	// one-file-per-directory only if a directory ever holds a single
	// encode. Since a mirror directory commonly holds many files (a whole
	// season), cmd.txt and state.json are both named after the output
	// stem here so concurrent workers never clobber each other's sidecar.
	base := strings.TrimSuffix(resolved, filepath.Ext(resolved))
	return EncodedPaths{
		OutputPath: resolved,
		CmdPath:    base + ".cmd.txt",
		StatePath:  base + ".state.json",
	}
}

// StatePath returns the EncodeState sidecar location used for resume
// lookups (spec.md §4.4), independent of which encoder a prior or current
// attempt chose. PreEncoder must consult this before CRF search runs — at
// that point the final "<encoder_name>_encoded" directory Encoded would
// build is not yet known, since choosing the encoder is exactly what
// resume/CRF-search decides. Encoder.Run is handed this same path (via the
// OutputLocations the caller builds) so oversize retries persist back to
// the location PreEncoder will check on a future run.
func (l *Locator) StatePath(inputPath string) string {
	return filepath.Join(l.RunRoot, ".encode_state", l.mirror(inputPath), stem(inputPath)+".state.json")
}

// RawArchive returns where inputPath is moved when --move-raw-file is set
// (spec.md §6: "_raw/<mirror>/<original_filename>").
func (l *Locator) RawArchive(inputPath string) string {
	return filepath.Join(l.RunRoot, "_raw", l.mirror(inputPath), filepath.Base(inputPath))
}

// Quarantine returns the directory ErrorRouter moves a failed input (and its
// diagnostics) into (spec.md §6: "encode_error/<ErrorKind>/<mirror>/...").
func (l *Locator) Quarantine(inputPath string, kind errkind.Kind) string {
	return filepath.Join(l.RunRoot, "encode_error", string(kind), l.mirror(inputPath))
}

// Oversize returns the directory a file whose best achievable output still
// exceeded the input size is moved into: a bucket distinct from
// encode_error/, so operators triage oversize-exhausted files separately
// from genuine failures (spec.md GLOSSARY "Oversize bucket", §7, §8).
func (l *Locator) Oversize(inputPath string) string {
	return filepath.Join(l.RunRoot, "oversize", l.mirror(inputPath))
}

// SkipLedgerPath returns the run-local append-only skip ledger path.
func (l *Locator) SkipLedgerPath() string {
	return filepath.Join(l.RunRoot, "skipped.txt")
}

// CombinedLogPath returns the end-of-run aggregate log path.
func (l *Locator) CombinedLogPath() string {
	return filepath.Join(l.RunRoot, "combined_log.yaml")
}

// SuccessLogPath returns the per-file success record path that sits
// alongside an encoded output (spec.md §6:
// "log_<YYYYMMDD>_<rand>.yaml"). when is the record's timestamp; rand is a
// caller-supplied disambiguator (a google/uuid string in production).
func SuccessLogPath(encodedDir string, when time.Time, rand string) string {
	return filepath.Join(encodedDir, fmt.Sprintf("log_%s_%s.yaml", when.Format("20060102"), rand))
}
