package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// ClipExtractor pulls a short audio clip out of a media file starting at
// offsetSeconds and lasting durationSeconds, returning the raw encoded
// bytes to feed to a LanguageClassifier (spec.md §4.2).
type ClipExtractor interface {
	Extract(ctx context.Context, path string, offsetSeconds, durationSeconds float64) ([]byte, error)
}

// ExecClipExtractor shells out to the transcoder (ffmpeg-shaped CLI) to cut
// a mono 16 kHz WAV clip, written to stdout.
type ExecClipExtractor struct{}

// Extract implements ClipExtractor.
func (ExecClipExtractor) Extract(ctx context.Context, path string, offsetSeconds, durationSeconds float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-ss", strconv.FormatFloat(offsetSeconds, 'f', 2, 64),
		"-t", strconv.FormatFloat(durationSeconds, 'f', 2, 64),
		"-i", path,
		"-vn", "-ac", "1", "-ar", "16000",
		"-f", "wav", "pipe:1",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extract clip from %s at %.2fs: %w", path, offsetSeconds, err)
	}
	return out.Bytes(), nil
}
