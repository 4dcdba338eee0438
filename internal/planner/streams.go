package planner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/errkind"
	"github.com/kerasty2024/smartencoder/internal/probe"
)

// languageDetector is the subset of langdetect.Detector's surface PreEncoder
// needs; a narrow interface so tests can inject a fake without a real
// extractor/classifier pair.
type languageDetector interface {
	Detect(ctx context.Context, path string, durationSeconds float64, samples int) (string, error)
}

// containsFold reports whether needle is in list, case-insensitively. Used
// both for codec-set membership (skip-video-codecs, opus-family) and for
// language allow-list membership.
func containsFold(list []string, needle string) bool {
	for _, item := range list {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}

func languageAllowed(allowList []string, lang string) bool {
	if len(allowList) == 0 {
		return true
	}
	return containsFold(allowList, lang)
}

// selectVideoStreams drops streams with a missing/zero avg_frame_rate or a
// codec in cfg.SkipVideoCodecs, then caps every kept stream's output
// frame-rate at the maximum among kept streams (spec.md §4.3).
func selectVideoStreams(cfg *config.Config, streams []probe.VideoStream) []KeptVideoStream {
	type candidate struct {
		stream probe.VideoStream
		fps    float64
	}

	var candidates []candidate
	for _, s := range streams {
		if containsFold(cfg.SkipVideoCodecs, s.CodecName) {
			continue
		}
		fps, ok := parseFrameRate(s.AvgFrameRate)
		if !ok || fps == 0 {
			continue
		}
		candidates = append(candidates, candidate{stream: s, fps: fps})
	}
	if len(candidates) == 0 {
		return nil
	}

	maxFPS := candidates[0].fps
	for _, c := range candidates[1:] {
		if c.fps > maxFPS {
			maxFPS = c.fps
		}
	}
	cappedFPS := formatFrameRate(maxFPS)

	out := make([]KeptVideoStream, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, KeptVideoStream{
			Stream:    c.stream,
			Directive: Directive{Action: ActionReencode},
			OutputFPS: cappedFPS,
		})
	}
	return out
}

// parseFrameRate parses ffprobe's rational "A/B" avg_frame_rate. "0/0" and
// unparsable strings report ok=false.
func parseFrameRate(rate string) (float64, bool) {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	num, errNum := strconv.ParseFloat(parts[0], 64)
	den, errDen := strconv.ParseFloat(parts[1], 64)
	if errNum != nil || errDen != nil || den == 0 {
		return 0, false
	}
	return num / den, true
}

func formatFrameRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// selectAudioStreams applies the per-stream copy/reencode decision and the
// language filter (spec.md §4.3). langCache is the plan's
// EncodePlan.DetectedLanguages map; a stream with an empty language tag
// invokes detector.Detect at most once per stream index, caching the
// result.
func selectAudioStreams(ctx context.Context, cfg *config.Config, detector languageDetector, info *probe.MediaInfo, langCache map[int]string) ([]KeptAudioStream, error) {
	var out []KeptAudioStream
	for _, s := range info.AudioStreams {
		lang := s.Language
		if lang == "" {
			cached, ok := langCache[s.Index]
			if !ok {
				detected, err := detector.Detect(ctx, info.Path, info.DurationSeconds, cfg.LangDetectSamples)
				if err != nil {
					return nil, fmt.Errorf("detect language for audio stream %d: %w", s.Index, err)
				}
				langCache[s.Index] = detected
				cached = detected
			}
			lang = cached
		}

		if !languageAllowed(cfg.AudioLanguageAllowList, lang) {
			continue
		}
		out = append(out, KeptAudioStream{Stream: s, Directive: audioDirective(cfg, s)})
	}

	if len(out) == 0 && !cfg.AllowNoAudio {
		return nil, fmt.Errorf("no audio stream survived selection: %w", errkind.ErrNoSuitableAudio)
	}
	return out, nil
}

// audioDirective implements: copy if codec_name is in the preferred-opus-
// family set and sample_rate_hz clears the threshold; else reencode to
// opus at min(stream bitrate budget, channels * per-channel budget).
func audioDirective(cfg *config.Config, s probe.AudioStream) Directive {
	if containsFold(cfg.OpusFamilyCodecs, s.CodecName) && s.SampleRateHz >= cfg.AudioCopySampleRateHz {
		return Directive{Action: ActionCopy}
	}

	budget := s.BitrateBudget()
	perChannelCap := int64(s.Channels) * cfg.PerChannelBitrateBudgetBps
	bitrate := budget
	if perChannelCap > 0 && (bitrate <= 0 || perChannelCap < bitrate) {
		bitrate = perChannelCap
	}
	return Directive{Action: ActionReencode, Codec: "opus", BitrateBps: bitrate}
}

// mp4CompatibleSubtitleCodecs are the only subtitle codecs MP4 can hold
// (text-based); MKV can hold essentially anything the inspector reports.
var mp4CompatibleSubtitleCodecs = map[string]bool{
	"mov_text": true,
}

// bitmapSubtitleCodecs cannot be converted to a text codec, so a stream in
// this set is kept as a copy rather than reencoded when its container can't
// hold it directly (see selectSubtitleStreams).
var bitmapSubtitleCodecs = map[string]bool{
	"hdmv_pgs_subtitle": true,
	"dvd_subtitle":      true,
	"dvb_subtitle":      true,
}

func subtitleCompatibleWithContainer(container, codec string) bool {
	if strings.EqualFold(container, "mkv") {
		return true
	}
	return mp4CompatibleSubtitleCodecs[strings.ToLower(codec)]
}

// selectSubtitleStreams applies the language filter and the copy/reencode
// container-compatibility decision (spec.md §4.3).
//
// A bitmap subtitle stream can't be reencoded into a text codec, so it is
// kept with a copy directive even when the target container can't hold it.
// For an mp4 target that copy directive makes the mux fail with a
// stream-write error ("bitmap to bitmap" in reStreamWriteError), which
// triggers the encoder's one-time container fallback to mkv — the only
// container this spec supports that can actually carry the stream.
func selectSubtitleStreams(cfg *config.Config, streams []probe.SubtitleStream, container string) []KeptSubtitleStream {
	var out []KeptSubtitleStream
	for _, s := range streams {
		if !languageAllowed(cfg.SubtitleLanguageAllowList, s.Language) {
			continue
		}
		switch {
		case subtitleCompatibleWithContainer(container, s.CodecName):
			out = append(out, KeptSubtitleStream{Stream: s, Directive: Directive{Action: ActionCopy}})
		case bitmapSubtitleCodecs[strings.ToLower(s.CodecName)]:
			out = append(out, KeptSubtitleStream{Stream: s, Directive: Directive{Action: ActionCopy}})
		default:
			out = append(out, KeptSubtitleStream{Stream: s, Directive: Directive{Action: ActionReencode, Codec: "mov_text"}})
		}
	}
	return out
}
