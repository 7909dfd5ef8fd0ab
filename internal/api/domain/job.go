package domain

import "errors"

// Stored job statuses. A job moves WAITING -> ACTIVE exactly once, then to
// COMPLETED or FAILED. The admitted flag is orthogonal: an unadmitted job
// still runs this lifecycle against a no-op execution.
const (
	JobStatusWaiting   = "WAITING"
	JobStatusActive    = "ACTIVE"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

// User-visible job statuses as reported by the status endpoint.
const (
	UserStatusPending   = "PENDING"
	UserStatusRunning   = "RUNNING"
	UserStatusCompleted = "COMPLETED"
	UserStatusFailed    = "FAILED"
	UserStatusAborted   = "ABORTED"
)

// UserStatus projects the stored state onto what the owner sees. A job that
// was never admitted is ABORTED no matter how far its internal lifecycle got.
func UserStatus(admitted bool, status string) string {
	if !admitted {
		return UserStatusAborted
	}
	switch status {
	case JobStatusWaiting:
		return UserStatusPending
	case JobStatusActive:
		return UserStatusRunning
	case JobStatusCompleted:
		return UserStatusCompleted
	case JobStatusFailed:
		return UserStatusFailed
	default:
		return status
	}
}

var (
	// ErrJobNotFound is returned when no job matches the id.
	ErrJobNotFound = errors.New("job not found")

	// ErrNotOwner is returned when the requester does not own the job.
	// Ownership violations are reported, never silently filtered.
	ErrNotOwner = errors.New("requester is not the job owner")

	// ErrJobNotReady is returned by the result endpoint unless the job was
	// admitted and has completed.
	ErrJobNotReady = errors.New("job has no result yet")

	// ErrDatasetEmpty is returned when submitting inference against a
	// dataset with no uploaded content.
	ErrDatasetEmpty = errors.New("dataset is empty")

	// ErrQueueUnavailable is returned when the job row was committed but the
	// enqueue failed. The debit stands and must be reconciled out of band.
	ErrQueueUnavailable = errors.New("job queue unavailable")
)
