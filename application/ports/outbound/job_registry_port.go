package outbound

import (
	"context"
	"time"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type JobRecord struct {
	JobID         string
	SourceKey     string
	Fingerprint   string
	Status        JobStatus
	OutputKey     string
	FailureReason string
	UpdatedAt     time.Time
}

type AcquireOutcome struct {
	Acquired bool
	// Existing is set when the identity is already claimed; it carries the
	// record that won the claim.
	Existing *JobRecord
}

// JobRegistryPort is the synchronized admission table. Acquire must be
// compare-and-set: exactly one caller wins a given job identity until the
// record is completed, failed or released.
type JobRegistryPort interface {
	Acquire(ctx context.Context, record JobRecord) (AcquireOutcome, error)
	// Complete marks the job terminally successful and records its output key.
	Complete(ctx context.Context, jobID string, outputKey string) error
	// Fail marks the job terminally failed; later Acquire calls for the same
	// identity observe the failure instead of re-running the work.
	Fail(ctx context.Context, jobID string, reason string) error
	// Release drops a non-terminal record so a redelivered trigger may retry.
	Release(ctx context.Context, jobID string) error
}
