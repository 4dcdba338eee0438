// Package state implements the EncodeState sidecar: a durable per-file
// scratch record holding in-flight CRF-search choices so a crashed or
// restarted run can resume without re-searching (spec.md §3, §4.4).
//
// EncodeState is single-writer (the owning worker) and lives in a
// "<stem>.state.json" sidecar at the path outputpaths.Locator.StatePath
// derives (under the run root's .encode_state/ tree), so it is kept
// on encoding/json rather than the yaml.v3 used for SuccessRecord — the
// persisted filename is a literal ".json" name in spec.md's layout table,
// not ".yaml" like the other persisted documents.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EncodeState is persisted across attempts for a single file (spec.md §3).
type EncodeState struct {
	PlanFingerprint string `json:"plan_fingerprint"`
	Encoder         string `json:"encoder"`
	CRF             int    `json:"crf"`
	AttemptCount    int    `json:"attempt_count"`
	LastErrorKind   string `json:"last_error_kind,omitempty"`
}

// Fingerprint computes a stable hash over the input's MD5 and the plan
// fields that determine CRF-search applicability (mode and any field whose
// change should force a fresh search). Order of fields is fixed so the same
// logical plan always hashes identically.
func Fingerprint(inputMD5 string, mode string, extra ...string) string {
	h := sha256.New()
	h.Write([]byte(inputMD5))
	h.Write([]byte{0})
	h.Write([]byte(mode))
	for _, e := range extra {
		h.Write([]byte{0})
		h.Write([]byte(e))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Load reads and parses the EncodeState sidecar at path. A missing file is
// reported via os.ErrNotExist (check with errors.Is).
func Load(path string) (*EncodeState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st EncodeState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", path, err)
	}
	return &st, nil
}

// Save writes st to path as JSON, creating the parent directory if needed
// and overwriting any existing sidecar.
func Save(path string, st *EncodeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("state: create dir for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Resume attempts to recover a prior attempt's EncodeState for the given
// fingerprint. On a fingerprint mismatch the stored state is discarded
// (spec.md §3: "if the fingerprint differs on resume, the stored state is
// discarded") and ok is false. On no stored state at all, ok is false with
// no error. On a matching fingerprint, the stored state is returned
// unmodified and ok is true — CRF search should be skipped.
func Resume(path, fingerprint string) (st *EncodeState, ok bool, err error) {
	loaded, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if loaded.PlanFingerprint != fingerprint {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, false, fmt.Errorf("state: discard stale sidecar %s: %w", path, rmErr)
		}
		return nil, false, nil
	}
	return loaded, true, nil
}
