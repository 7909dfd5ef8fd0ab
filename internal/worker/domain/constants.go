package domain

// Job status constants
const (
	JobStatusWaiting   = "WAITING"
	JobStatusActive    = "ACTIVE"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)
