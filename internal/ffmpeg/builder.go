package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/planner"
)

// Build constructs the complete transcoder argument slice from an
// EncodePlan (spec.md §4.5, §6): the shared preamble, per-stream map/codec
// directives in input-stream order, the comment payload embedded as
// container metadata, and the output path.
//
// crf and outputPath are passed separately from the plan's own
// VideoCRF/OutputContainer fields so the oversize-escalation and
// container-fallback retries can rebuild the command without mutating the
// plan (spec.md §3: EncodePlan is consumed, not mutated, by Encoder).
func Build(cfg *config.Config, plan *planner.EncodePlan, crf int, outputPath string) []string {
	args := make([]string, 0, 48)
	args = append(args, "ffmpeg", "-hide_banner", "-nostdin", "-y")

	if cfg.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	args = append(args, "-i", plan.Input.Path)

	args = appendVideoMaps(args, plan, crf)
	args = appendAudioMaps(args, plan)
	args = appendSubtitleMaps(args, plan)

	args = append(args, "-map_metadata", "0", "-map_chapters", "0")
	args = append(args, "-metadata", "comment="+plan.CommentPayload.Serialize())

	return append(args, outputPath)
}

func appendVideoMaps(args []string, plan *planner.EncodePlan, crf int) []string {
	for _, v := range plan.KeptVideoStreams {
		args = append(args,
			"-map", fmt.Sprintf("0:%d", v.Stream.Index),
			"-c:v", plan.VideoEncoder,
			"-crf", strconv.Itoa(crf),
			"-r", v.OutputFPS,
		)
	}
	return args
}

// appendAudioMaps maps each kept audio stream by its absolute input index,
// but addresses per-output codec/bitrate flags (-c:a:N, -b:a:N) by output
// position, matching ffmpeg's own stream-specifier semantics.
func appendAudioMaps(args []string, plan *planner.EncodePlan) []string {
	for i, a := range plan.KeptAudioStreams {
		args = append(args, "-map", fmt.Sprintf("0:%d", a.Stream.Index))
		if a.Directive.Action == planner.ActionCopy {
			args = append(args, fmt.Sprintf("-c:a:%d", i), "copy")
			continue
		}
		args = append(args,
			fmt.Sprintf("-c:a:%d", i), a.Directive.Codec,
			fmt.Sprintf("-b:a:%d", i), strconv.FormatInt(a.Directive.BitrateBps, 10),
		)
	}
	return args
}

func appendSubtitleMaps(args []string, plan *planner.EncodePlan) []string {
	for i, s := range plan.KeptSubtitleStreams {
		args = append(args, "-map", fmt.Sprintf("0:%d", s.Stream.Index))
		if s.Directive.Action == planner.ActionCopy {
			args = append(args, fmt.Sprintf("-c:s:%d", i), "copy")
			continue
		}
		args = append(args, fmt.Sprintf("-c:s:%d", i), s.Directive.Codec)
	}
	return args
}
