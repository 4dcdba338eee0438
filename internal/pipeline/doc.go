// Package pipeline provides file discovery (Discover) and the concurrency-
// safe run counters (RunStats) that WorkerPool updates as it dispatches
// work across its workers. The per-file orchestration itself — probe,
// plan, encode, route errors — lives in internal/workerpool, which owns the
// state a batch run needs beyond a plain file list and a tally.
package pipeline
