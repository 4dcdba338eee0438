package adapters

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// ClassifyResult is the external speech-language classifier's verdict for
// one audio clip (spec.md §6: "classify(audio_blob, language_hints?) →
// {language, confidence}").
type ClassifyResult struct {
	Language   string
	Confidence float64
}

// LanguageClassifier is the black-box speech classifier collaborator
// (spec.md §2, §4.2). Out of scope to implement; callers inject a fake in
// tests.
type LanguageClassifier interface {
	Classify(ctx context.Context, audioBlob []byte, hints []string) (ClassifyResult, error)
}

// ExecLanguageClassifier shells out to a `lang-classify` binary resolved on
// PATH, feeding the raw audio blob on stdin and reading a single
// "<language> <confidence>" line from stdout. The exact wire format of a
// real speech classifier is unspecified by spec.md (it is named as an
// external collaborator, not given a byte-level contract beyond the
// function signature); this line format is this repo's choice of how to
// talk to one, analogous to how the teacher's check package resolves
// external tool contracts by convention rather than by a fixed spec.
type ExecLanguageClassifier struct {
	Hints []string
}

// Classify implements LanguageClassifier.
func (c ExecLanguageClassifier) Classify(ctx context.Context, audioBlob []byte, hints []string) (ClassifyResult, error) {
	cmd := exec.CommandContext(ctx, "lang-classify")
	cmd.Stdin = bytes.NewReader(audioBlob)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ClassifyResult{}, fmt.Errorf("lang-classify: %w", err)
	}

	scanner := bufio.NewScanner(&out)
	if !scanner.Scan() {
		return ClassifyResult{}, fmt.Errorf("lang-classify: empty output")
	}
	var lang string
	var confidence float64
	if _, err := fmt.Sscanf(scanner.Text(), "%s %f", &lang, &confidence); err != nil {
		return ClassifyResult{}, fmt.Errorf("lang-classify: unparseable output %q: %w", scanner.Text(), err)
	}
	return ClassifyResult{Language: lang, Confidence: confidence}, nil
}
