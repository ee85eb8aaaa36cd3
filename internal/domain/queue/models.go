package queue

import "time"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
)

// Request is one pending (user, week) recomputation. At most one row
// exists per pair; re-enqueueing collapses into the existing row.
type Request struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	WeekStart  time.Time  `json:"weekStart"`
	Status     string     `json:"status"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// DrainResult is what one drain invocation reports back to the
// scheduler: how many requests finished and which ones failed. Failed
// requests are back in the backlog for the next drain.
type DrainResult struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors"`
}

// Counts feeds the trigger-run metrics.
func (r DrainResult) Counts() (processed, itemErrors int) {
	return r.Processed, len(r.Errors)
}
