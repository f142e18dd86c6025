package inbound

import (
	"context"

	"document-audio-pipeline/domain"
)

type AdmissionKind string

const (
	AdmissionNewJob          AdmissionKind = "new_job"
	AdmissionAlreadyRunning  AdmissionKind = "already_running"
	AdmissionAlreadyComplete AdmissionKind = "already_complete"
	AdmissionAlreadyFailed   AdmissionKind = "already_failed"
)

type AdmissionDecision struct {
	Kind  AdmissionKind
	JobID string
	// OutputKey is set for AdmissionAlreadyComplete.
	OutputKey string
	// FailureReason is set for AdmissionAlreadyFailed.
	FailureReason string
}

// AdmissionControllerPort owns the admission table. It enforces
// at-most-one-active-execution per job identity and fast-paths identities
// whose work already reached a terminal state.
type AdmissionControllerPort interface {
	Admit(ctx context.Context, identity domain.DocumentIdentity) (AdmissionDecision, error)
	Complete(ctx context.Context, jobID string, outputKey string) error
	Fail(ctx context.Context, jobID string, reason domain.FailureReason) error
	Release(ctx context.Context, jobID string) error
}
