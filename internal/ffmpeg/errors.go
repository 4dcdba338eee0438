package ffmpeg

import "regexp"

// reStreamWriteError matches the transcoder's stream-writing failures that
// spec.md §6 defines as "container incompatible" rather than a genuine
// encode failure: the container the first attempt targeted cannot hold one
// of the selected streams. Folds in the subtitle/attachment-muxing patterns
// the source used for its richer retry ladder, since for this spec's
// single container-fallback retry they all resolve to the same fix
// (retry once in an MKV-family container).
var reStreamWriteError = regexp.MustCompile(
	`(?i)Could not write header|Invalid data found when processing input|` +
		`Unknown encoder|Error initializing output stream|` +
		`muxer does not support (non seekable|the stream)|` +
		`Could not find tag for codec|` +
		`Subtitle encoding currently only possible from text to text or bitmap to bitmap|` +
		`Attachment stream \d+ has no (filename|mimetype) tag`)

// MatchStreamWriteError reports whether stderr indicates a container/codec
// mismatch, the trigger for the one-time container-fallback retry
// (spec.md §4.5).
func MatchStreamWriteError(stderr string) bool {
	return reStreamWriteError.MatchString(stderr)
}
