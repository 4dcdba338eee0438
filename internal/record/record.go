// Package record defines SuccessRecord, the document Encoder produces and
// Logger persists once per successful output (spec.md §3, §4.7).
package record

import "time"

// Elapsed breaks down a file's processing time into its three measured
// phases (spec.md §3, §8: "elapsed.total >= elapsed.crf_search + elapsed.encode").
type Elapsed struct {
	CRFSearch time.Duration `yaml:"crf_search"`
	Encode    time.Duration `yaml:"encode"`
	Total     time.Duration `yaml:"total"`
}

// SuccessRecord is written once per successful output (spec.md §3, §4.7).
// InputRelativePath is populated by the caller that holds the run root
// (Encoder itself only sees the input's absolute path).
type SuccessRecord struct {
	InputRelativePath string  `yaml:"input_relative_path"`
	InputMD5          string  `yaml:"input_md5"`
	InputSHA256       string  `yaml:"input_sha256"`
	Encoder           string  `yaml:"encoder"`
	CRF               int     `yaml:"crf"`
	EstimatedRatio    float64 `yaml:"estimated_ratio"`
	RealizedRatio     float64 `yaml:"realized_ratio"`
	Elapsed           Elapsed `yaml:"elapsed"`

	SourceDurationSeconds float64 `yaml:"source_duration_seconds"`
	SourceDurationHuman   string  `yaml:"source_duration_human"`
	TargetVMAF            int     `yaml:"target_vmaf"`
	OutputPath            string  `yaml:"output_path"`
	Host                  string  `yaml:"host"`
}
