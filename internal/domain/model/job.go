package model

import "time"

// RecomputeJob asks for a whole-meet recompute. RequestID makes retries of
// the same request idempotent.
type RecomputeJob struct {
	RequestID  string    `json:"request_id"`
	MeetID     string    `json:"meet_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
