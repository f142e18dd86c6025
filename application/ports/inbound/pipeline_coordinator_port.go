package inbound

import (
	"context"

	"document-audio-pipeline/domain"
)

type ConvertDocumentParams struct {
	// DeliveryID identifies one trigger delivery for logging; redeliveries of
	// the same document carry distinct delivery IDs.
	DeliveryID string
	SourceKey  string
	// Fingerprint is the optional content hash or version token carried by the
	// trigger. When empty the coordinator fingerprints the fetched bytes.
	Fingerprint string
}

type ConversionOutcome struct {
	JobID         string
	State         domain.JobState
	OutputKey     string
	ChunkCount    int
	EmptyDocument bool
	FailureReason domain.FailureReason
	// Deduplicated is true when this delivery was absorbed by an existing
	// job for the same identity and no new work was started.
	Deduplicated bool
}

// PipelineCoordinatorPort orchestrates one trigger delivery end to end:
// admit, fetch, segment, synthesize, assemble, publish, record.
type PipelineCoordinatorPort interface {
	Convert(ctx context.Context, params ConvertDocumentParams) (ConversionOutcome, error)
}
