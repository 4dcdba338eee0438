package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	want := &EncodeState{
		PlanFingerprint: Fingerprint("abc123", "video"),
		Encoder:         "libsvtav1",
		CRF:             30,
		AttemptCount:    1,
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResumeMatchingFingerprintSkipsSearch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	fp := Fingerprint("abc123", "video")

	require.NoError(t, Save(path, &EncodeState{PlanFingerprint: fp, Encoder: "libsvtav1", CRF: 30}))

	st, ok, err := Resume(path, fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "libsvtav1", st.Encoder)
	assert.Equal(t, 30, st.CRF)
}

func TestResumeMismatchedFingerprintDiscardsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, Save(path, &EncodeState{PlanFingerprint: Fingerprint("old", "video")}))

	_, ok, err := Resume(path, Fingerprint("new", "video"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Load(path)
	assert.Error(t, err, "stale sidecar should have been removed")
}

func TestResumeNoStateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	_, ok, err := Resume(path, Fingerprint("x", "video"))
	require.NoError(t, err)
	assert.False(t, ok)
}
