// Package jobs tracks generation requests from submission to completion and
// runs them on a bounded worker pool. Submission returns a job id
// immediately; callers poll for status.
package jobs

import "time"

// Status is a job's position in its lifecycle. Transitions only move
// forward: pending -> processing -> completed or failed. Terminal jobs never
// change again.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one tracked generation request. Values handed out by the store are
// copies; readers always see a consistent snapshot (status, result, and
// error set together, never partially).
type Job struct {
	// ID is the job's identifier, returned to the client at submission.
	ID string
	// Status is the current lifecycle state.
	Status Status
	// Result holds the output file paths, set only on completion. Ordered
	// for multi-output jobs.
	Result []string
	// Error is the failure message, set only on failure.
	Error string
	// Lifecycle timestamps. StartedAt and FinishedAt are zero until the
	// state is reached.
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}
