package services

import (
	"bytes"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/domain"
)

type assembler struct {
	logger outbound.LoggerPort
}

func NewAssembler(logger outbound.LoggerPort) inbound.AssemblerPort {
	return &assembler{
		logger: logger,
	}
}

// Assemble joins chunk audio into one artifact, restoring chunk-index order
// regardless of the order results arrived in. It refuses to proceed unless
// exactly one successful result exists per index in [0, N).
//
// Joining is codec-aware: MPEG audio (mp3) and headerless PCM are valid under
// frame/byte concatenation, WAV requires the RIFF header to be rebuilt over
// the combined sample data. Formats without a known joining method are
// rejected outright.
func (a *assembler) Assemble(results []domain.SynthesisResult, outputFormat string) ([]byte, error) {
	if len(results) == 0 {
		return nil, &domain.IncompleteInputError{Index: 0}
	}

	ordered := make([][]byte, len(results))
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(results) {
			return nil, &domain.IncompleteInputError{Index: result.Index}
		}
		if !result.Succeeded() {
			return nil, &domain.IncompleteInputError{Index: result.Index, Failed: result.Err != nil}
		}
		if ordered[result.Index] != nil {
			return nil, &domain.IncompleteInputError{Index: result.Index, Failed: true}
		}
		ordered[result.Index] = result.Audio
	}
	for i, audio := range ordered {
		if len(audio) == 0 {
			return nil, &domain.IncompleteInputError{Index: i}
		}
	}

	switch outputFormat {
	case "mp3", "pcm":
		return bytes.Join(ordered, nil), nil
	case "wav":
		return joinWavStreams(ordered)
	default:
		return nil, &domain.UnsupportedFormatError{Format: outputFormat}
	}
}
