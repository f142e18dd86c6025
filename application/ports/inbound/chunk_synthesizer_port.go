package inbound

import (
	"context"

	"document-audio-pipeline/domain"
)

// ChunkSynthesizerPort drives one chunk through the synthesis service with
// bounded retry, backoff and a per-attempt timeout. The returned result is
// terminal: either audio bytes or the error left after the retry budget.
type ChunkSynthesizerPort interface {
	Execute(ctx context.Context, chunk domain.Chunk, voice domain.VoiceConfig) domain.SynthesisResult
}
