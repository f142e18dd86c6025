package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-audio-pipeline/infrastructure/adapters"
)

func TestSegmenter_EmptyTextYieldsNoChunks(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())

	assert.Empty(t, s.Segment("", 100))
}

func TestSegmenter_TextWithinLimitIsOneChunk(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())

	chunks := s.Segment("Short enough.", 100)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "Short enough.", chunks[0].Text)
}

func TestSegmenter_PrefersParagraphBoundaries(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())
	text := "First paragraph here.\n\nSecond paragraph follows. It is a bit longer than the first one."

	chunks := s.Segment(text, 40)

	require.True(t, len(chunks) >= 2)
	assert.Equal(t, "First paragraph here.\n\n", chunks[0].Text)
}

func TestSegmenter_FallsBackToSentenceBoundaries(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())
	text := "One sentence here. Another sentence there. And a third one to push past the limit."

	chunks := s.Segment(text, 45)

	require.True(t, len(chunks) >= 2)
	assert.Equal(t, "One sentence here. Another sentence there. ", chunks[0].Text)
}

func TestSegmenter_FallsBackToWordBoundaries(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())
	text := "no terminal punctuation anywhere in this long run of plain words that must still split"

	chunks := s.Segment(text, 30)

	require.True(t, len(chunks) >= 2)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.ByteLength(), 30)
	}
	assert.True(t, strings.HasSuffix(chunks[0].Text, " "), "cut should land just past a whitespace run")
}

func TestSegmenter_HardSplitsUnbrokenRuns(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())
	text := strings.Repeat("x", 95)

	chunks := s.Segment(text, 30)

	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, chunk.ByteLength(), 30)
	}
}

func TestSegmenter_NeverSplitsMultibyteRunes(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())
	text := strings.Repeat("日本語のテキスト", 20)

	chunks := s.Segment(text, 25)

	var rebuilt strings.Builder
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.ByteLength(), 25)
		assert.True(t, strings.ToValidUTF8(chunk.Text, "�") == chunk.Text,
			"chunk %d contains a split rune", chunk.Index)
		rebuilt.WriteString(chunk.Text)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSegmenter_ConcatenationReproducesInput(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())

	texts := []string{
		"A single line.",
		"Para one.\n\nPara two with more text. And sentences! Plus questions? Yes.\n\n\nPara three.",
		"words without punctuation " + strings.Repeat("filler ", 40),
		strings.Repeat("无空格无标点的长文本", 15),
		"Mixed ascii and 中文 content. \"Quoted end.\" (Bracketed.) Done.",
	}

	for _, text := range texts {
		for _, limit := range []int{10, 30, 64, 3000} {
			chunks := s.Segment(text, limit)
			var rebuilt strings.Builder
			for i, chunk := range chunks {
				require.Equal(t, i, chunk.Index)
				rebuilt.WriteString(chunk.Text)
			}
			require.Equal(t, text, rebuilt.String(), "lossless reassembly for limit %d", limit)
		}
	}
}

func TestSegmenter_IsDeterministic(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())
	text := "Stable input. Same boundaries every time.\n\nSecond paragraph with more words in it."

	first := s.Segment(text, 40)
	second := s.Segment(text, 40)

	assert.Equal(t, first, second)
}

func TestSegmenter_ClampsTinyLimit(t *testing.T) {
	s := NewSegmenter(adapters.NewZerologWrapper())

	chunks := s.Segment("日本", 1)

	var rebuilt strings.Builder
	for _, chunk := range chunks {
		rebuilt.WriteString(chunk.Text)
	}
	assert.Equal(t, "日本", rebuilt.String())
}
