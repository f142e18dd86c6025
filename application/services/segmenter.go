package services

import (
	"strings"
	"unicode/utf8"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/domain"
)

type segmenter struct {
	logger outbound.LoggerPort
}

func NewSegmenter(logger outbound.LoggerPort) inbound.SegmenterPort {
	return &segmenter{
		logger: logger,
	}
}

// Segment walks the text front to back, cutting each chunk at the best
// boundary that fits the byte budget: paragraph break first, then sentence
// end, then whitespace, then a rune-safe hard cut as the last resort. Cut
// positions always lie between the bytes of the input, so concatenating the
// chunks reproduces the text exactly.
func (s *segmenter) Segment(text string, maxChunkBytes int) []domain.Chunk {
	if text == "" {
		return nil
	}
	if maxChunkBytes < utf8.UTFMax {
		// Below this no multi-byte rune fits a chunk; treat as the smallest
		// workable limit rather than splitting characters.
		s.logger.WarnWithFields("segmentation limit below minimum, clamping", map[string]interface{}{
			"max_chunk_bytes": maxChunkBytes,
			"clamped_to":      utf8.UTFMax,
		})
		maxChunkBytes = utf8.UTFMax
	}

	var chunks []domain.Chunk
	rest := text
	for len(rest) > 0 {
		if len(rest) <= maxChunkBytes {
			chunks = append(chunks, domain.Chunk{Index: len(chunks), Text: rest})
			break
		}

		cut := paragraphCut(rest, maxChunkBytes)
		if cut <= 0 {
			cut = sentenceCut(rest, maxChunkBytes)
		}
		if cut <= 0 {
			cut = wordCut(rest, maxChunkBytes)
		}
		if cut <= 0 {
			cut = runeSafeCut(rest, maxChunkBytes)
			s.logger.WarnWithFields("no natural boundary within limit, hard byte split degrades speech quality", map[string]interface{}{
				"chunk_index":     len(chunks),
				"max_chunk_bytes": maxChunkBytes,
			})
		}

		chunks = append(chunks, domain.Chunk{Index: len(chunks), Text: rest[:cut]})
		rest = rest[cut:]
	}

	return chunks
}

// paragraphCut returns the byte offset just past the last blank-line
// separator that fits within limit, or -1 when no paragraph break fits.
func paragraphCut(s string, limit int) int {
	p := strings.LastIndex(s[:limit], "\n\n")
	if p < 0 {
		return -1
	}
	cut := p + 2
	for cut < limit && s[cut] == '\n' {
		cut++
	}
	return cut
}

// sentenceCut returns the byte offset just past the last terminal punctuation
// run (punctuation, optional closing quotes or brackets, then whitespace)
// within limit, or -1. Trailing whitespace stays attached to the chunk it
// follows so nothing is lost.
func sentenceCut(s string, limit int) int {
	best := -1
	for i := 0; i < limit; i++ {
		c := s[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < limit && isClosingByte(s[j]) {
			j++
		}
		if j >= limit || !isSpaceByte(s[j]) {
			continue
		}
		for j < limit && isSpaceByte(s[j]) {
			j++
		}
		best = j
	}
	return best
}

// wordCut returns the byte offset just past the last whitespace run within
// limit, or -1 when the window contains no whitespace at all.
func wordCut(s string, limit int) int {
	best := -1
	i := 0
	for i < limit {
		if !isSpaceByte(s[i]) {
			i++
			continue
		}
		j := i + 1
		for j < limit && isSpaceByte(s[j]) {
			j++
		}
		best = j
		i = j
	}
	return best
}

// runeSafeCut backs off from limit to the nearest rune start so a multi-byte
// character is never split across chunks.
func runeSafeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func isClosingByte(c byte) bool {
	switch c {
	case '"', '\'', ')', ']', '}':
		return true
	default:
		return false
	}
}
