package jobs

import "errors"

// Job lookup and lifecycle errors.
var (
	ErrNotFound     = errors.New("jobs: job not found")
	ErrInvalidState = errors.New("jobs: job is not in a valid state for this operation")
	ErrUnavailable  = errors.New("jobs: no backend available for this modality")
	ErrClosed       = errors.New("jobs: coordinator is shut down")
)
