package services

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/config"
	"document-audio-pipeline/domain"
)

type synthesisExecutor struct {
	synthesizer    outbound.SpeechSynthesizerPort
	logger         outbound.LoggerPort
	maxAttempts    uint
	attemptTimeout time.Duration
	baseDelay      time.Duration
	maxJitter      time.Duration
}

func NewSynthesisExecutor(synthesizer outbound.SpeechSynthesizerPort, logger outbound.LoggerPort,
	pipelineConfig *config.PipelineConfig) inbound.ChunkSynthesizerPort {
	return &synthesisExecutor{
		synthesizer:    synthesizer,
		logger:         logger,
		maxAttempts:    uint(pipelineConfig.MaxSynthesisRetries),
		attemptTimeout: pipelineConfig.SynthesisTimeout,
		baseDelay:      pipelineConfig.RetryBaseDelay,
		maxJitter:      pipelineConfig.RetryMaxJitter,
	}
}

// Execute runs one chunk to a terminal result. Throttled and transient
// failures are retried with exponential backoff and jitter up to the attempt
// budget; non-retryable failures surface immediately. The executor has no
// side effects beyond the outbound call.
func (e *synthesisExecutor) Execute(ctx context.Context, chunk domain.Chunk, voice domain.VoiceConfig) domain.SynthesisResult {
	var audio []byte
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++
			callCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
			defer cancel()

			payload, err := e.synthesizer.Synthesize(callCtx, outbound.SynthesizeSpeechParams{
				Text:  chunk.Text,
				Voice: voice,
			})
			if err != nil {
				// An expired per-attempt deadline counts as the service being
				// unavailable; an expired job context is not retried at all.
				if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					err = &domain.SynthesisError{Kind: domain.SynthesisTransientUnavailable, Err: err}
				}
				e.logger.WarnWithFields("synthesis attempt failed", map[string]interface{}{
					"chunk_index": chunk.Index,
					"attempt":     attempts,
					"error":       err.Error(),
				})
				return err
			}

			audio = payload
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(e.maxAttempts),
		retry.RetryIf(func(err error) bool {
			var synthErr *domain.SynthesisError
			return errors.As(err, &synthErr) && synthErr.Retryable()
		}),
		retry.Delay(e.baseDelay),
		retry.MaxJitter(e.maxJitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return domain.SynthesisResult{Index: chunk.Index, Attempts: attempts, Err: err}
	}

	e.logger.DebugWithFields("chunk synthesized", map[string]interface{}{
		"chunk_index": chunk.Index,
		"attempts":    attempts,
		"audio_bytes": len(audio),
	})

	return domain.SynthesisResult{Index: chunk.Index, Audio: audio, Attempts: attempts}
}
