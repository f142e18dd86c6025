package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Fingerprint returns the hex-encoded content hash identifying a document's
// exact byte content.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

type DocumentIdentity struct {
	SourceKey   string
	Fingerprint string
}

// JobID derives the deterministic job key for this identity. Re-triggering on
// identical bytes maps to the identical job, a changed document at the same
// source key maps to a new one.
func (d DocumentIdentity) JobID() string {
	sum := sha256.Sum256([]byte(d.SourceKey + "\x00" + d.Fingerprint))
	return hex.EncodeToString(sum[:])
}

type Document struct {
	SourceKey   string
	Fingerprint string
	Text        string
	ByteLength  int
	ArrivedAt   time.Time
}

func NewDocument(sourceKey string, raw []byte) Document {
	return Document{
		SourceKey:   sourceKey,
		Fingerprint: Fingerprint(raw),
		Text:        string(raw),
		ByteLength:  len(raw),
		ArrivedAt:   time.Now().UTC(),
	}
}

func (d Document) Identity() DocumentIdentity {
	return DocumentIdentity{SourceKey: d.SourceKey, Fingerprint: d.Fingerprint}
}

// Chunk is a contiguous, size-bounded slice of a document's text. Chunk text
// spans concatenated in index order reconstruct the document exactly.
type Chunk struct {
	Index int
	Text  string
}

func (c Chunk) ByteLength() int {
	return len(c.Text)
}

type VoiceConfig struct {
	VoiceID      string
	Engine       string
	OutputFormat string
	SampleRate   string
}

// SynthesisResult is the terminal outcome of synthesizing one chunk.
// Err is nil on success; Attempts counts every call made including retries.
type SynthesisResult struct {
	Index    int
	Audio    []byte
	Attempts int
	Err      error
}

func (r SynthesisResult) Succeeded() bool {
	return r.Err == nil && r.Audio != nil
}

type JobState string

const (
	JobStateAdmitted     JobState = "admitted"
	JobStateSegmenting   JobState = "segmenting"
	JobStateSynthesizing JobState = "synthesizing"
	JobStateAssembling   JobState = "assembling"
	JobStatePublishing   JobState = "publishing"
	JobStateCompleted    JobState = "completed"
	JobStateFailed       JobState = "failed"
)

// Job tracks one end-to-end conversion attempt for a document identity.
type Job struct {
	ID            string
	Document      DocumentIdentity
	State         JobState
	ChunkCount    int
	Results       []SynthesisResult
	OutputKey     string
	FailureReason FailureReason
	StartedAt     time.Time
}

func NewJob(id string, identity DocumentIdentity) Job {
	return Job{
		ID:        id,
		Document:  identity,
		State:     JobStateAdmitted,
		StartedAt: time.Now().UTC(),
	}
}

func (j *Job) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}
