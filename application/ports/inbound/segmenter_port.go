package inbound

import "document-audio-pipeline/domain"

// SegmenterPort splits raw text into synthesis-safe chunks. The result is
// deterministic for a given input and limit, and concatenating the chunk
// texts in index order reproduces the input exactly.
type SegmenterPort interface {
	Segment(text string, maxChunkBytes int) []domain.Chunk
}
