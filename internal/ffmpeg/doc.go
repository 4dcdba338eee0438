// Package ffmpeg is the Encoder (spec.md §4.5): it builds a transcoder
// invocation from an EncodePlan, runs it via an injected adapters.Transcoder,
// and carries the two retries spec.md defines — a one-time container
// fallback (MP4 → MKV) on a stream-write error, and a bounded CRF-escalation
// loop on oversize output — before producing a SuccessRecord.
package ffmpeg
