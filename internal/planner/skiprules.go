package planner

import (
	"path/filepath"
	"strings"

	"github.com/kerasty2024/smartencoder/internal/config"
	"github.com/kerasty2024/smartencoder/internal/probe"
)

// SkipReason names which of spec.md §4.3's skip rules 1-4 matched. Rule 5
// (no video streams) is not a skip; it is a hard quarantine handled by the
// caller.
type SkipReason string

const (
	SkipAlreadyEncoded       SkipReason = "already_encoded"
	SkipOversizeMarker       SkipReason = "oversize_marker"
	SkipBitRateBelowFloor    SkipReason = "bit_rate_below_floor"
	SkipContainerBlacklisted SkipReason = "container_blacklisted"
)

// evaluateSkip runs skip rules 1-4 in order; the first match wins.
func evaluateSkip(cfg *config.Config, info *probe.MediaInfo, automaticRun bool) (SkipReason, bool) {
	if cfg.AlreadyEncodedSentinel != "" && info.CommentTag == cfg.AlreadyEncodedSentinel {
		return SkipAlreadyEncoded, true
	}

	if automaticRun && cfg.OversizeMarker != "" {
		name, marker := filepath.Base(info.Path), cfg.OversizeMarker
		if !cfg.OversizeMarkerCaseSensitive {
			name, marker = strings.ToLower(name), strings.ToLower(marker)
		}
		if strings.Contains(name, marker) {
			return SkipOversizeMarker, true
		}
	}

	// container_bitrate_bps == 0 means "unknown", not "below floor"; only a
	// reported, nonzero bitrate can trigger this rule.
	if info.ContainerBitrateBps != 0 && info.ContainerBitrateBps <= cfg.BitRateFloorBps {
		return SkipBitRateBelowFloor, true
	}

	for _, blocked := range cfg.ContainerBlacklist {
		if strings.EqualFold(blocked, info.ContainerFormat) {
			return SkipContainerBlacklisted, true
		}
	}

	return "", false
}
