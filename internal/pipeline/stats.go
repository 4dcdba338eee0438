package pipeline

import "sync"

// RunStats tracks aggregate counters and byte totals across a batch run.
// Workers update it concurrently, so every mutating method takes the
// embedded mutex; read the result via Snapshot rather than the fields
// directly from another goroutine.
type RunStats struct {
	mu sync.Mutex

	Total            int
	Encoded          int
	Skipped          int
	Failed           int
	Oversize         int // oversize-retry exhaustion; routed to the oversize bucket, not a failure (spec.md §7, §8).
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// Counts is a point-in-time, mutex-free copy of RunStats for reporting.
type Counts struct {
	Total            int
	Encoded          int
	Skipped          int
	Failed           int
	Oversize         int
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// SpaceSaved returns the aggregate byte difference between inputs and
// outputs. Positive means outputs are smaller; negative means they grew.
func (c Counts) SpaceSaved() int64 {
	return c.TotalInputBytes - c.TotalOutputBytes
}

// RecordEncoded records one successful encode.
func (s *RunStats) RecordEncoded(inputBytes, outputBytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Encoded++
	s.TotalInputBytes += inputBytes
	s.TotalOutputBytes += outputBytes
}

// RecordSkipped records one soft skip.
func (s *RunStats) RecordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
}

// RecordFailed records one quarantined failure.
func (s *RunStats) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed++
}

// RecordOversize records one file routed to the oversize bucket.
func (s *RunStats) RecordOversize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Oversize++
}

// Snapshot returns a mutex-free copy of the current counters.
func (s *RunStats) Snapshot() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Total:            s.Total,
		Encoded:          s.Encoded,
		Skipped:          s.Skipped,
		Failed:           s.Failed,
		Oversize:         s.Oversize,
		TotalInputBytes:  s.TotalInputBytes,
		TotalOutputBytes: s.TotalOutputBytes,
	}
}
