// Package planner implements PreEncoder (spec.md §4.3–§4.4): the decision
// core that turns a probed MediaInfo into an EncodePlan by applying skip
// rules, running CRF search, and selecting which streams survive and how.
package planner

import (
	"time"

	"github.com/kerasty2024/smartencoder/internal/probe"
)

// Mode is the tagged variant on EncodePlan that replaces the source's
// per-mode class hierarchy (video, audio-only, phone-preset) with a plain
// dispatch value (spec.md §9).
type Mode string

const (
	ModeVideo       Mode = "video"
	ModeAudioOnly   Mode = "audio_only"
	ModePhonePreset Mode = "phone_preset"
)

// Action is a per-stream directive: keep the stream's bytes untouched, or
// feed it through the transcoder's codec.
type Action string

const (
	ActionCopy     Action = "copy"
	ActionReencode Action = "reencode"
)

// Directive is the {copy | reencode(codec, bitrate_bps?)} choice attached to
// a kept stream (spec.md §3).
type Directive struct {
	Action     Action
	Codec      string // meaningful when Action == ActionReencode.
	BitrateBps int64  // meaningful for reencoded audio streams.
}

// KeptVideoStream is a surviving video stream plus its output directive.
type KeptVideoStream struct {
	Stream    probe.VideoStream
	Directive Directive
	OutputFPS string // capped frame rate, fed to the transcoder's -r flag.
}

// KeptAudioStream is a surviving audio stream plus its output directive.
type KeptAudioStream struct {
	Stream    probe.AudioStream
	Directive Directive
}

// KeptSubtitleStream is a surviving subtitle stream plus its output directive.
type KeptSubtitleStream struct {
	Stream    probe.SubtitleStream
	Directive Directive
}

// CommentPayload is the structured record embedded into the output
// container's comment metadata (spec.md §6). Its Comment field is the exact
// sentinel that skip rule 1 later tests a prior run's output against.
type CommentPayload struct {
	Comment          string
	Encoders         []string
	CRF              int
	SourceFile       string
	SourceFileSize   string
	SourceFileMD5    string
	SourceFileSHA256 string
	EstimatedRatio   float64
}

// EncodePlan is the product of PreEncoder, consumed exactly once by Encoder
// (spec.md §3).
type EncodePlan struct {
	Input              *probe.MediaInfo
	Mode               Mode
	VideoEncoder       string // empty iff no video.
	VideoCRF           int
	EstimatedSizeRatio float64 // (0,1], 1.0 if unknown.

	KeptVideoStreams    []KeptVideoStream
	KeptAudioStreams    []KeptAudioStream
	KeptSubtitleStreams []KeptSubtitleStream

	OutputContainer string
	CommentPayload  CommentPayload

	CRFSearchElapsed time.Duration

	// DetectedLanguages caches one LanguageDetector verdict per audio
	// stream index whose container tag was empty, so a stream is never
	// probed twice within the same plan (spec.md §8).
	DetectedLanguages map[int]string
}
