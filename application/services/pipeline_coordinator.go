package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/config"
	"document-audio-pipeline/domain"
)

// registryUpdateTimeout bounds terminal-state bookkeeping, which must run
// even after the job deadline has expired.
const registryUpdateTimeout = 10 * time.Second

type pipelineCoordinator struct {
	logger    outbound.LoggerPort
	documents outbound.DocumentStorePort
	artifacts outbound.ArtifactStorePort
	admission inbound.AdmissionControllerPort
	segmenter inbound.SegmenterPort
	executor  inbound.ChunkSynthesizerPort
	assembler inbound.AssemblerPort
	voice     domain.VoiceConfig
	cfg       *config.PipelineConfig
}

func NewPipelineCoordinator(logger outbound.LoggerPort,
	documents outbound.DocumentStorePort, artifacts outbound.ArtifactStorePort,
	admission inbound.AdmissionControllerPort, segmenter inbound.SegmenterPort,
	executor inbound.ChunkSynthesizerPort, assembler inbound.AssemblerPort,
	voice domain.VoiceConfig, cfg *config.PipelineConfig) inbound.PipelineCoordinatorPort {
	return &pipelineCoordinator{
		logger:    logger,
		documents: documents,
		artifacts: artifacts,
		admission: admission,
		segmenter: segmenter,
		executor:  executor,
		assembler: assembler,
		voice:     voice,
		cfg:       cfg,
	}
}

// Convert runs one trigger delivery through the full state machine:
// Admitted -> Segmenting -> Synthesizing -> Assembling -> Publishing ->
// Completed, with Failed(reason) reachable from any stage. Duplicate
// deliveries for an identity already running or already terminal are absorbed
// without starting new work.
func (p *pipelineCoordinator) Convert(ctx context.Context, params inbound.ConvertDocumentParams) (inbound.ConversionOutcome, error) {
	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	// The trigger may carry a fingerprint; without one the document has to be
	// fetched before admission so identity covers exact content.
	var doc *domain.Document
	var identity domain.DocumentIdentity
	if params.Fingerprint == "" {
		payload, err := p.documents.Fetch(jobCtx, params.SourceKey)
		if err != nil {
			p.logger.ErrorWithFields(err, "document fetch failed before admission", map[string]interface{}{
				"delivery_id": params.DeliveryID,
				"source_key":  params.SourceKey,
			})
			return inbound.ConversionOutcome{State: domain.JobStateFailed, FailureReason: domain.FailureFetch}, nil
		}
		d := domain.NewDocument(params.SourceKey, payload)
		doc = &d
		identity = d.Identity()
	} else {
		identity = domain.DocumentIdentity{SourceKey: params.SourceKey, Fingerprint: params.Fingerprint}
	}
	decision, err := p.admission.Admit(jobCtx, identity)
	if err != nil {
		return inbound.ConversionOutcome{}, fmt.Errorf("admission failed: %w", err)
	}

	switch decision.Kind {
	case inbound.AdmissionAlreadyRunning:
		return inbound.ConversionOutcome{
			JobID:        decision.JobID,
			State:        domain.JobStateSynthesizing,
			Deduplicated: true,
		}, nil
	case inbound.AdmissionAlreadyComplete:
		return inbound.ConversionOutcome{
			JobID:        decision.JobID,
			State:        domain.JobStateCompleted,
			OutputKey:    decision.OutputKey,
			Deduplicated: true,
		}, nil
	case inbound.AdmissionAlreadyFailed:
		return inbound.ConversionOutcome{
			JobID:         decision.JobID,
			State:         domain.JobStateFailed,
			FailureReason: domain.FailureReason(decision.FailureReason),
			Deduplicated:  true,
		}, nil
	}

	job := domain.NewJob(decision.JobID, identity)
	return p.run(jobCtx, &job, doc), nil
}

// run drives an admitted job to a terminal state. doc may already hold the
// document when the coordinator fetched it to compute the identity.
func (p *pipelineCoordinator) run(ctx context.Context, job *domain.Job, doc *domain.Document) inbound.ConversionOutcome {
	if doc == nil {
		payload, err := p.documents.Fetch(ctx, job.Document.SourceKey)
		if err != nil {
			// Input unreadable: not retried here, trigger redelivery may retry.
			return p.fail(ctx, job, p.timeoutOr(ctx, domain.FailureFetch), err, false)
		}
		d := domain.NewDocument(job.Document.SourceKey, payload)
		doc = &d
	}

	job.State = domain.JobStateSegmenting
	chunks := speakableChunks(p.segmenter.Segment(doc.Text, p.cfg.MaxChunkBytes))
	job.ChunkCount = len(chunks)

	outputKey := deriveOutputKey(job.Document, audioExtension(p.voice.OutputFormat))

	if len(chunks) == 0 {
		// Nothing speakable: publish a zero-byte marker and complete so the
		// outcome is distinct from failure.
		return p.publish(ctx, job, outputKey, nil, true)
	}

	job.State = domain.JobStateSynthesizing
	results, synthErr := p.synthesizeAll(ctx, chunks)
	job.Results = results
	if synthErr != nil {
		if reason := p.timeoutOr(ctx, domain.FailurePartialSynthesis); reason == domain.FailureTimeout {
			return p.fail(ctx, job, domain.FailureTimeout, synthErr, false)
		}
		// A failure that survived the retry budget with a non-retryable kind
		// marks the identity permanently unprocessable; exhausted transient
		// failures are released so a redelivered trigger can try again.
		var se *domain.SynthesisError
		permanent := errors.As(synthErr, &se) && !se.Retryable()
		return p.fail(ctx, job, domain.FailurePartialSynthesis, synthErr, permanent)
	}

	job.State = domain.JobStateAssembling
	payload, err := p.assembler.Assemble(results, p.voice.OutputFormat)
	if err != nil {
		// Reaching assembly with bad results is an internal defect, not an
		// input problem.
		p.logger.ErrorWithFields(err, "assembly invariant violation", map[string]interface{}{
			"job_id":      job.ID,
			"chunk_count": job.ChunkCount,
		})
		return p.fail(ctx, job, domain.FailureAssembly, err, true)
	}

	return p.publish(ctx, job, outputKey, payload, false)
}

// synthesizeAll fans chunks out to the executor under the per-job concurrency
// cap. Dispatch order is unconstrained; results land in their index slot so
// later stages always see them ordered. The first terminal chunk failure
// cancels the remaining in-flight calls. Chunk workers are plain goroutines
// gated by the semaphore: a job already occupying a slot of the shared worker
// pool must never wait on that pool for its own chunks.
func (p *pipelineCoordinator) synthesizeAll(ctx context.Context, chunks []domain.Chunk) ([]domain.SynthesisResult, error) {
	synthCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]domain.SynthesisResult, len(chunks))
	for i := range results {
		results[i] = domain.SynthesisResult{Index: i, Err: domain.ErrChunkNotSynthesized}
	}

	semaphore := make(chan struct{}, p.cfg.MaxConcurrentChunks)
	var wg sync.WaitGroup

dispatch:
	for _, chunk := range chunks {
		select {
		case <-synthCtx.Done():
			break dispatch
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		chunk := chunk
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			result := p.executor.Execute(synthCtx, chunk, p.voice)
			results[chunk.Index] = result
			if result.Err != nil {
				cancel()
			}
		}()
	}

	wg.Wait()

	// Prefer a classified synthesis failure over chunks abandoned by
	// cancellation, so the caller sees the root cause.
	var fallback error
	for i := range results {
		err := results[i].Err
		if err == nil {
			continue
		}
		var se *domain.SynthesisError
		if errors.As(err, &se) {
			return results, err
		}
		if fallback == nil {
			fallback = err
		}
	}
	return results, fallback
}

// publish writes the artifact with bounded retry on transient storage errors
// and records completion. No bytes become visible at the output key unless
// the job reaches Completed.
func (p *pipelineCoordinator) publish(ctx context.Context, job *domain.Job, outputKey string, payload []byte, empty bool) inbound.ConversionOutcome {
	job.State = domain.JobStatePublishing

	err := retry.Do(
		func() error {
			return p.artifacts.Put(ctx, outputKey, payload)
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.cfg.MaxPublishRetries)),
		retry.RetryIf(domain.IsTransientStorage),
		retry.Delay(p.cfg.RetryBaseDelay),
		retry.MaxJitter(p.cfg.RetryMaxJitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return p.fail(ctx, job, p.timeoutOr(ctx, domain.FailurePublish), err, false)
	}

	registryCtx, cancelRegistry := p.registryCtx(ctx)
	defer cancelRegistry()
	if err := p.admission.Complete(registryCtx, job.ID, outputKey); err != nil {
		// The artifact exists; a dangling running record only delays dedupe
		// until it expires.
		p.logger.ErrorWithFields(err, "failed to record job completion", map[string]interface{}{
			"job_id":     job.ID,
			"output_key": outputKey,
		})
	}

	job.State = domain.JobStateCompleted
	job.OutputKey = outputKey

	p.logger.InfoWithFields("job completed", map[string]interface{}{
		"job_id":      job.ID,
		"source_key":  job.Document.SourceKey,
		"output_key":  outputKey,
		"chunk_count": job.ChunkCount,
		"empty":       empty,
	})

	return inbound.ConversionOutcome{
		JobID:         job.ID,
		State:         domain.JobStateCompleted,
		OutputKey:     outputKey,
		ChunkCount:    job.ChunkCount,
		EmptyDocument: empty,
	}
}

// fail transitions the job to Failed(reason). Permanent failures stay in the
// registry so redelivered triggers are absorbed; transient ones release the
// identity for a later retry.
func (p *pipelineCoordinator) fail(ctx context.Context, job *domain.Job, reason domain.FailureReason, cause error, permanent bool) inbound.ConversionOutcome {
	job.State = domain.JobStateFailed
	job.FailureReason = reason

	p.logger.ErrorWithFields(cause, "job failed", map[string]interface{}{
		"job_id":     job.ID,
		"source_key": job.Document.SourceKey,
		"reason":     string(reason),
		"permanent":  permanent,
	})

	registryCtx, cancelRegistry := p.registryCtx(ctx)
	defer cancelRegistry()
	var err error
	if permanent {
		err = p.admission.Fail(registryCtx, job.ID, reason)
	} else {
		err = p.admission.Release(registryCtx, job.ID)
	}
	if err != nil {
		p.logger.ErrorWithFields(err, "failed to record job failure", map[string]interface{}{
			"job_id": job.ID,
		})
	}

	return inbound.ConversionOutcome{
		JobID:         job.ID,
		State:         domain.JobStateFailed,
		ChunkCount:    job.ChunkCount,
		FailureReason: reason,
	}
}

// timeoutOr maps an expired job deadline onto the Timeout reason, otherwise
// keeps the stage's own reason.
func (p *pipelineCoordinator) timeoutOr(ctx context.Context, reason domain.FailureReason) domain.FailureReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.FailureTimeout
	}
	return reason
}

// registryCtx detaches terminal bookkeeping from the job deadline so a timed
// out job can still be released or marked failed.
func (p *pipelineCoordinator) registryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), registryUpdateTimeout)
}

// speakableChunks drops whitespace-only chunks and reindexes the rest. Such
// chunks arise from separator runs longer than the chunk limit; they carry no
// speech and the synthesis service yields no audio for them.
func speakableChunks(chunks []domain.Chunk) []domain.Chunk {
	speakable := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		chunk.Index = len(speakable)
		speakable = append(speakable, chunk)
	}
	return speakable
}

// deriveOutputKey maps the input key to its artifact key: the extension is
// replaced and a fingerprint prefix is embedded so distinct contents at the
// same source key own distinct artifacts.
func deriveOutputKey(identity domain.DocumentIdentity, extension string) string {
	base := strings.TrimSuffix(identity.SourceKey, path.Ext(identity.SourceKey))
	fp := identity.Fingerprint
	if len(fp) > 8 {
		fp = fp[:8]
	}
	return fmt.Sprintf("%s.%s.%s", base, fp, extension)
}

func audioExtension(outputFormat string) string {
	switch outputFormat {
	case "mp3":
		return "mp3"
	case "wav":
		return "wav"
	case "pcm":
		return "pcm"
	default:
		return outputFormat
	}
}
