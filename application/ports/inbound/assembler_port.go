package inbound

import "document-audio-pipeline/domain"

// AssemblerPort joins ordered chunk audio into one artifact in the target
// container format. Output bytes are deterministic given the same results.
type AssemblerPort interface {
	Assemble(results []domain.SynthesisResult, outputFormat string) ([]byte, error)
}
