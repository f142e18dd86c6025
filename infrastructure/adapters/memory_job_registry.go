package adapters

import (
	"context"
	"sync"
	"time"

	"document-audio-pipeline/application/ports/outbound"
)

// memoryJobRegistry is a process-local registry with the same
// compare-and-set semantics as the DynamoDB one. Suitable for single-node
// deployments and tests; it cannot deduplicate across processes.
type memoryJobRegistry struct {
	mu   sync.Mutex
	jobs map[string]outbound.JobRecord
}

func NewMemoryJobRegistry() outbound.JobRegistryPort {
	return &memoryJobRegistry{
		jobs: make(map[string]outbound.JobRecord),
	}
}

func (r *memoryJobRegistry) Acquire(_ context.Context, record outbound.JobRecord) (outbound.AcquireOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[record.JobID]; ok {
		copied := existing
		return outbound.AcquireOutcome{Acquired: false, Existing: &copied}, nil
	}

	r.jobs[record.JobID] = record
	return outbound.AcquireOutcome{Acquired: true}, nil
}

func (r *memoryJobRegistry) Complete(_ context.Context, jobID string, outputKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.jobs[jobID]
	record.JobID = jobID
	record.Status = outbound.JobStatusCompleted
	record.OutputKey = outputKey
	record.UpdatedAt = time.Now().UTC()
	r.jobs[jobID] = record
	return nil
}

func (r *memoryJobRegistry) Fail(_ context.Context, jobID string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.jobs[jobID]
	record.JobID = jobID
	record.Status = outbound.JobStatusFailed
	record.FailureReason = reason
	record.UpdatedAt = time.Now().UTC()
	r.jobs[jobID] = record
	return nil
}

func (r *memoryJobRegistry) Release(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, jobID)
	return nil
}
