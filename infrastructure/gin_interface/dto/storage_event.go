package dto

// StorageEventRecord is one object-created notification. Fingerprint is
// optional; when absent the pipeline derives it from the fetched bytes.
type StorageEventRecord struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key" binding:"required"`
	Fingerprint string `json:"fingerprint"`
}

type StorageEventBatch struct {
	Records []StorageEventRecord `json:"records" binding:"required,min=1,dive"`
}

type RecordOutcome struct {
	DeliveryID    string `json:"delivery_id"`
	SourceKey     string `json:"source_key"`
	JobID         string `json:"job_id,omitempty"`
	State         string `json:"state,omitempty"`
	OutputKey     string `json:"output_key,omitempty"`
	ChunkCount    int    `json:"chunk_count,omitempty"`
	Deduplicated  bool   `json:"deduplicated,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	Error         string `json:"error,omitempty"`
}

type EventsResponse struct {
	Outcomes []RecordOutcome `json:"outcomes"`
}
