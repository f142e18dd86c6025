package outbound

import (
	"context"

	"document-audio-pipeline/domain"
)

type SynthesizeSpeechParams struct {
	Text  string
	Voice domain.VoiceConfig
}

// SpeechSynthesizerPort is the capability boundary around the external
// text-to-speech service. Implementations classify failures as
// *domain.SynthesisError so callers can decide what is worth retrying.
type SpeechSynthesizerPort interface {
	Synthesize(ctx context.Context, params SynthesizeSpeechParams) ([]byte, error)
}
