// Package errorrouter implements the ErrorRouter component (spec.md §4.6):
// on a hard failure it quarantines the offending input under
// encode_error/<ErrorKind>/<mirror>/ alongside its diagnostics, so a run
// never aborts because one file failed.
package errorrouter

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/kerasty2024/smartencoder/internal/adapters"
	"github.com/kerasty2024/smartencoder/internal/errkind"
	"github.com/kerasty2024/smartencoder/internal/outputpaths"
	"github.com/kerasty2024/smartencoder/internal/probe"
)

// Router moves failed inputs into the quarantine tree and writes their
// diagnostics. It never returns the original error; failures to quarantine
// are themselves reported so the worker can at least log them.
type Router struct {
	Locator *outputpaths.Locator
	FS      adapters.Filesystem
}

// New builds a Router from its collaborators.
func New(locator *outputpaths.Locator, fs adapters.Filesystem) *Router {
	return &Router{Locator: locator, FS: fs}
}

// Route quarantines inputPath under the Kind derived from cause (spec.md
// §7's propagation policy: "all other PreEncode and Encode failures surface
// to the worker, which hands the file to ErrorRouter with the originating
// kind"). info may be nil if the probe itself failed. It writes error.txt
// (cause.Error()) and, when available, probe.json (the raw MediaInfo) as
// siblings of the moved input.
func (r *Router) Route(inputPath string, cause error, info *probe.MediaInfo) error {
	kind := errkind.For(cause)
	dir := r.Locator.Quarantine(inputPath, kind)

	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("errorrouter: create quarantine dir %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(inputPath))
	if err := r.FS.Rename(inputPath, dest); err != nil {
		return fmt.Errorf("errorrouter: move %s to %s: %w", inputPath, dest, err)
	}

	errPath := filepath.Join(dir, "error.txt")
	if err := r.FS.WriteFile(errPath, []byte(cause.Error()+"\n"), 0o644); err != nil {
		return fmt.Errorf("errorrouter: write %s: %w", errPath, err)
	}

	if info != nil {
		data, err := json.MarshalIndent(info, "", "  ")
		if err == nil {
			probePath := filepath.Join(dir, "probe.json")
			_ = r.FS.WriteFile(probePath, data, 0o644)
		}
	}

	return nil
}

// RouteOversize moves inputPath into the oversize bucket (spec.md GLOSSARY
// "Oversize bucket", §7, §8), distinct from encode_error/: the file's best
// achievable output still exceeded the input size after exhausting the
// configured CRF escalations, which is not an error to triage the same way.
// leftoverOutput, the last (still oversized) attempt's output path, is moved
// alongside the input when present so operators can inspect it; it is
// optional since the caller may not always have one.
func (r *Router) RouteOversize(inputPath string, cause error, leftoverOutput string) error {
	dir := r.Locator.Oversize(inputPath)

	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("errorrouter: create oversize dir %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(inputPath))
	if err := r.FS.Rename(inputPath, dest); err != nil {
		return fmt.Errorf("errorrouter: move %s to %s: %w", inputPath, dest, err)
	}

	errPath := filepath.Join(dir, "error.txt")
	if err := r.FS.WriteFile(errPath, []byte(cause.Error()+"\n"), 0o644); err != nil {
		return fmt.Errorf("errorrouter: write %s: %w", errPath, err)
	}

	if leftoverOutput != "" {
		outDest := filepath.Join(dir, filepath.Base(leftoverOutput))
		_ = r.FS.Rename(leftoverOutput, outDest)
	}

	return nil
}
