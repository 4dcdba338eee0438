// Package errkind defines the error-kind taxonomy shared by Probe, PreEncoder,
// Encoder, and the orchestrator. Kinds are sentinel errors wrapped with
// context via fmt.Errorf's %w, inspected with errors.Is/errors.As. The
// taxonomy itself never changes behavior based on string matching; only the
// ffmpeg stderr classifier (internal/ffmpeg) pattern-matches raw text, since
// that is the one place the external transcoder's unstructured output must
// be interpreted.
package errkind

import "errors"

// Probe.* kinds.
var (
	ErrUnreadable       = errors.New("probe: file unreadable")
	ErrMalformedMetadata = errors.New("probe: malformed metadata")
	ErrNoDuration       = errors.New("probe: no duration")
)

// PreEncode.* kinds.
var (
	ErrCrfSearchExhausted   = errors.New("preencode: crf search exhausted")
	ErrNoSuitableAudio      = errors.New("preencode: no suitable audio stream")
	ErrUnsupportedContainer = errors.New("preencode: unsupported container")
	ErrBitRateBelowThreshold = errors.New("preencode: bit rate below threshold") // soft: skip
	ErrAlreadyEncoded       = errors.New("preencode: already encoded")          // soft: skip
	ErrNoStreams            = errors.New("preencode: no video streams")
)

// Encode.* kinds.
var (
	ErrTranscoderFailed    = errors.New("encode: transcoder failed")
	ErrContainerIncompatible = errors.New("encode: container incompatible")
	ErrOversizeExhausted   = errors.New("encode: oversize retries exhausted") // routed to oversize bucket, not quarantine
	ErrIO                  = errors.New("encode: io error")
)

// Orchestrator.* kinds.
var (
	ErrToolMissing     = errors.New("orchestrator: required tool missing")
	ErrInvalidArguments = errors.New("orchestrator: invalid arguments")
	ErrInterrupted     = errors.New("orchestrator: interrupted")
)

// Kind is a stable, filesystem-safe label for an error, used to name
// quarantine subdirectories (encode_error/<Kind>/...). Skip-ledger reasons
// are planner.SkipReason values, not Kinds. Soft kinds (AlreadyEncoded,
// BitRateBelowThreshold) are never passed to ErrorRouter; they are resolved
// locally as skips.
type Kind string

const (
	KindUnreadable           Kind = "Unreadable"
	KindMalformedMetadata    Kind = "MalformedMetadata"
	KindNoDuration           Kind = "NoDuration"
	KindCrfSearchExhausted   Kind = "CrfSearchExhausted"
	KindNoSuitableAudio      Kind = "NoSuitableAudio"
	KindUnsupportedContainer Kind = "UnsupportedContainer"
	KindNoStreams            Kind = "NoStreams"
	KindTranscoderFailed     Kind = "TranscoderFailed"
	KindContainerIncompatible Kind = "ContainerIncompatible"
	KindOversizeExhausted    Kind = "OversizeExhausted"
	KindIO                   Kind = "Io"
	KindToolMissing          Kind = "ToolMissing"
	KindInvalidArguments     Kind = "InvalidArguments"
	KindInterrupted          Kind = "Interrupted"
)

// For maps each sentinel to its filesystem-safe Kind. Unrecognized errors
// fall back to KindTranscoderFailed, the most common terminal failure shape.
func For(err error) Kind {
	switch {
	case errors.Is(err, ErrUnreadable):
		return KindUnreadable
	case errors.Is(err, ErrMalformedMetadata):
		return KindMalformedMetadata
	case errors.Is(err, ErrNoDuration):
		return KindNoDuration
	case errors.Is(err, ErrCrfSearchExhausted):
		return KindCrfSearchExhausted
	case errors.Is(err, ErrNoSuitableAudio):
		return KindNoSuitableAudio
	case errors.Is(err, ErrUnsupportedContainer):
		return KindUnsupportedContainer
	case errors.Is(err, ErrNoStreams):
		return KindNoStreams
	case errors.Is(err, ErrTranscoderFailed):
		return KindTranscoderFailed
	case errors.Is(err, ErrContainerIncompatible):
		return KindContainerIncompatible
	case errors.Is(err, ErrOversizeExhausted):
		return KindOversizeExhausted
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrToolMissing):
		return KindToolMissing
	case errors.Is(err, ErrInvalidArguments):
		return KindInvalidArguments
	case errors.Is(err, ErrInterrupted):
		return KindInterrupted
	default:
		return KindTranscoderFailed
	}
}

// IsSoft reports whether err represents a soft skip rather than a failure
// that should be routed to ErrorRouter.
func IsSoft(err error) bool {
	return errors.Is(err, ErrAlreadyEncoded) || errors.Is(err, ErrBitRateBelowThreshold)
}

// IsOversize reports whether err represents oversize-retry exhaustion, which
// is routed to the oversize bucket rather than ErrorRouter's quarantine tree
// (spec.md §4.5, §7, §8: "present in exactly one of: ... oversize bucket, or
// error quarantine — never two").
func IsOversize(err error) bool {
	return errors.Is(err, ErrOversizeExhausted)
}
