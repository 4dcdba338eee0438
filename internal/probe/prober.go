package probe

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kerasty2024/smartencoder/internal/errkind"
)

// Probe runs the external media-inspection tool against path, hashes the
// file contents in a single streaming pass, and returns a normalized
// MediaInfo. Fails with errkind.ErrUnreadable, errkind.ErrMalformedMetadata,
// or errkind.ErrNoDuration per spec.md §4.1: duration is read from
// format.duration, falling back to the longest per-stream video duration
// when format.duration is absent; NoDuration fires only when both sources
// are missing.
func Probe(ctx context.Context, path string) (*MediaInfo, error) {
	size, md5Hex, sha256Hex, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errkind.ErrUnreadable, path, err)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", errkind.ErrUnreadable, path, err)
	}

	info, err := ParseJSON(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errkind.ErrMalformedMetadata, path, err)
	}

	info.Path = path
	info.SizeBytes = size
	info.MD5 = md5Hex
	info.SHA256 = sha256Hex

	if info.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: %s", errkind.ErrNoDuration, path)
	}

	return info, nil
}

// hashFile computes the file size, MD5, and SHA-256 in a single streaming
// pass over the file contents.
func hashFile(path string) (size int64, md5Hex, sha256Hex string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", "", err
	}
	defer f.Close()

	h1 := md5.New()
	h2 := sha256.New()
	n, err := io.Copy(io.MultiWriter(h1, h2), f)
	if err != nil {
		return 0, "", "", err
	}
	return n, hex.EncodeToString(h1.Sum(nil)), hex.EncodeToString(h2.Sum(nil)), nil
}

// ParseJSON converts raw ffprobe JSON output into a MediaInfo, without
// consulting the filesystem. Exported for testing without a real ffprobe
// binary or real file on disk; callers that need SizeBytes/MD5/SHA256 must
// set them separately (Probe does this for the real filesystem path).
func ParseJSON(data []byte) (*MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// --- ffprobe JSON wire types (numbers arrive as strings) ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"` // video|audio|subtitle|data|attachment (§9 open question)
	BitRate      string            `json:"bit_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Channels     int               `json:"channels"`
	SampleRate   string            `json:"sample_rate"`
	Duration     string            `json:"duration"` // per-stream fallback when format.duration is absent.
	Disposition  map[string]int    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
}

func buildResult(raw *ffprobeOutput) *MediaInfo {
	info := &MediaInfo{
		ContainerFormat:     raw.Format.FormatName,
		ContainerBitrateBps: parseInt64(raw.Format.BitRate),
		CommentTag:          raw.Format.Tags["comment"],
	}
	if d := parseFloat(raw.Format.Duration); d > 0 {
		info.DurationSeconds = d
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		// Streams whose codec_type is outside {video, audio, subtitle} (e.g.
		// data, attachment) are silently dropped (spec.md §9 open question,
		// confirmed intended — see DESIGN.md).
		switch s.CodecType {
		case "video":
			vs := VideoStream{
				Index:           s.Index,
				CodecName:       s.CodecName,
				Language:        normalizeLanguage(s.Tags["language"]),
				AvgFrameRate:    s.AvgFrameRate,
				BitRateBps:      parseInt64(s.BitRate),
				DurationSeconds: parseFloat(s.Duration),
			}
			info.VideoStreams = append(info.VideoStreams, vs)
		case "audio":
			info.AudioStreams = append(info.AudioStreams, AudioStream{
				Index:        s.Index,
				CodecName:    s.CodecName,
				Language:     normalizeLanguage(s.Tags["language"]),
				Channels:     s.Channels,
				SampleRateHz: parseInt(s.SampleRate),
				BitRateBps:   parseInt64(s.BitRate),
				BPSEngTag:    parseInt64(s.Tags["BPS-eng"]),
			})
		case "subtitle":
			info.SubtitleStreams = append(info.SubtitleStreams, SubtitleStream{
				Index:     s.Index,
				CodecName: s.CodecName,
				Language:  normalizeLanguage(s.Tags["language"]),
			})
		}
	}

	if info.DurationSeconds <= 0 {
		// format.duration was absent; fall back to the longest per-stream
		// video duration ffprobe reported (spec.md §4.1: "fails with
		// NoDuration" only when duration is missing from both format and
		// every video stream).
		for _, vs := range info.VideoStreams {
			if vs.DurationSeconds > info.DurationSeconds {
				info.DurationSeconds = vs.DurationSeconds
			}
		}
	}

	return info
}

// normalizeLanguage trims and lowercases a language tag and maps the
// "und" (undetermined) code to empty; it truncates/pads nothing, trusting
// the inspector's three-letter ISO 639-2 codes (spec.md §4.1: "Normalizes
// language tags to lowercase three-letter codes when present").
func normalizeLanguage(tag string) string {
	tag = strings.TrimSpace(strings.ToLower(tag))
	if tag == "und" {
		return ""
	}
	return tag
}

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	n, _ := strconv.Atoi(s)
	return n
}
