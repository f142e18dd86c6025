package services

import (
	"context"
	"time"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/domain"
)

type admissionController struct {
	registry outbound.JobRegistryPort
	logger   outbound.LoggerPort
}

func NewAdmissionController(registry outbound.JobRegistryPort, logger outbound.LoggerPort) inbound.AdmissionControllerPort {
	return &admissionController{
		registry: registry,
		logger:   logger,
	}
}

// Admit claims the job identity through the registry's compare-and-set
// Acquire. Exactly one concurrent caller wins; the rest observe the state of
// the record that beat them, which makes the pipeline idempotent under
// at-least-once trigger delivery.
func (a *admissionController) Admit(ctx context.Context, identity domain.DocumentIdentity) (inbound.AdmissionDecision, error) {
	jobID := identity.JobID()

	outcome, err := a.registry.Acquire(ctx, outbound.JobRecord{
		JobID:       jobID,
		SourceKey:   identity.SourceKey,
		Fingerprint: identity.Fingerprint,
		Status:      outbound.JobStatusRunning,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return inbound.AdmissionDecision{}, err
	}

	if outcome.Acquired {
		a.logger.InfoWithFields("job admitted", map[string]interface{}{
			"job_id":     jobID,
			"source_key": identity.SourceKey,
		})
		return inbound.AdmissionDecision{Kind: inbound.AdmissionNewJob, JobID: jobID}, nil
	}

	existing := outcome.Existing
	decision := inbound.AdmissionDecision{JobID: jobID}
	if existing == nil {
		// The claim that beat us was released before we could read it.
		// Treat it as in-flight; redelivery will retry the identity.
		decision.Kind = inbound.AdmissionAlreadyRunning
		a.logger.WarnWithFields("lost admission race to a released claim", map[string]interface{}{
			"job_id": jobID,
		})
		return decision, nil
	}
	switch existing.Status {
	case outbound.JobStatusCompleted:
		decision.Kind = inbound.AdmissionAlreadyComplete
		decision.OutputKey = existing.OutputKey
	case outbound.JobStatusFailed:
		decision.Kind = inbound.AdmissionAlreadyFailed
		decision.FailureReason = existing.FailureReason
	default:
		decision.Kind = inbound.AdmissionAlreadyRunning
	}

	a.logger.InfoWithFields("duplicate trigger absorbed", map[string]interface{}{
		"job_id":     jobID,
		"source_key": identity.SourceKey,
		"decision":   string(decision.Kind),
	})

	return decision, nil
}

func (a *admissionController) Complete(ctx context.Context, jobID string, outputKey string) error {
	return a.registry.Complete(ctx, jobID, outputKey)
}

func (a *admissionController) Fail(ctx context.Context, jobID string, reason domain.FailureReason) error {
	return a.registry.Fail(ctx, jobID, string(reason))
}

func (a *admissionController) Release(ctx context.Context, jobID string) error {
	return a.registry.Release(ctx, jobID)
}
