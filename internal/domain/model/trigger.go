package model

import "time"

// Trigger reasons.
const (
	TriggerStartup    = "startup"
	TriggerSubmission = "submission"
	TriggerResult     = "result"
	TriggerFeed       = "feed"
	TriggerRefresh    = "refresh"
)

// Trigger asks for the standings to be recomputed. Version is the write
// version that caused it; a publish at or past that version satisfies it.
type Trigger struct {
	ID          string
	Reason      string
	Version     uint64
	RequestedAt time.Time
}
