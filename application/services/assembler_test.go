package services

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-audio-pipeline/domain"
	"document-audio-pipeline/infrastructure/adapters"
)

func okResult(index int, audio []byte) domain.SynthesisResult {
	return domain.SynthesisResult{Index: index, Audio: audio, Attempts: 1}
}

// testWav builds a canonical single-data-chunk WAV stream.
func testWav(t *testing.T, sampleRate uint32, samples []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(&buf, binary.LittleEndian, sampleRate*2) // byte rate
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))    // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))   // bits per sample
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)
	return buf.Bytes()
}

func TestAssembler_ConcatenatesMp3InIndexOrder(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	// Results arrive out of order; assembly restores index order.
	results := []domain.SynthesisResult{
		okResult(2, []byte("CC")),
		okResult(0, []byte("AA")),
		okResult(1, []byte("BB")),
	}

	payload, err := a.Assemble(results, "mp3")

	require.NoError(t, err)
	assert.Equal(t, []byte("AABBCC"), payload)
}

func TestAssembler_ConcatenatesPcm(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	payload, err := a.Assemble([]domain.SynthesisResult{
		okResult(0, []byte{0x01, 0x02}),
		okResult(1, []byte{0x03, 0x04}),
	}, "pcm")

	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, payload)
}

func TestAssembler_IsDeterministic(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())
	results := []domain.SynthesisResult{
		okResult(1, []byte("two")),
		okResult(0, []byte("one")),
	}

	first, err := a.Assemble(results, "mp3")
	require.NoError(t, err)
	second, err := a.Assemble(results, "mp3")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssembler_JoinsWavStreams(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	first := testWav(t, 16000, []byte{0x10, 0x20, 0x30, 0x40})
	second := testWav(t, 16000, []byte{0x50, 0x60})

	payload, err := a.Assemble([]domain.SynthesisResult{
		okResult(0, first),
		okResult(1, second),
	}, "wav")

	require.NoError(t, err)
	require.Len(t, payload, 44+6)

	assert.Equal(t, "RIFF", string(payload[:4]))
	assert.Equal(t, "WAVE", string(payload[8:12]))
	assert.Equal(t, uint32(44+6-8), binary.LittleEndian.Uint32(payload[4:8]))
	assert.Equal(t, "data", string(payload[36:40]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(payload[40:44]))
	assert.Equal(t, []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60}, payload[44:])
}

func TestAssembler_RejectsWavFormatMismatch(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	payload, err := a.Assemble([]domain.SynthesisResult{
		okResult(0, testWav(t, 16000, []byte{0x01, 0x02})),
		okResult(1, testWav(t, 22050, []byte{0x03, 0x04})),
	}, "wav")

	require.Error(t, err)
	assert.Nil(t, payload)

	var mismatch *domain.FormatMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
}

func TestAssembler_RejectsInvalidWavStream(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	_, err := a.Assemble([]domain.SynthesisResult{
		okResult(0, []byte("definitely not a RIFF stream, but long enough to pass the length check")),
	}, "wav")

	var invalid *domain.InvalidAudioError
	require.ErrorAs(t, err, &invalid)
}

func TestAssembler_RejectsMissingChunk(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	// Index 1 of 2 never produced a result.
	_, err := a.Assemble([]domain.SynthesisResult{
		okResult(0, []byte("AA")),
		okResult(0, []byte("AA")),
	}, "mp3")

	var incomplete *domain.IncompleteInputError
	require.ErrorAs(t, err, &incomplete)
}

func TestAssembler_RejectsFailedChunk(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	_, err := a.Assemble([]domain.SynthesisResult{
		okResult(0, []byte("AA")),
		{Index: 1, Err: errors.New("synthesis failed")},
	}, "mp3")

	var incomplete *domain.IncompleteInputError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Index)
	assert.True(t, incomplete.Failed)
}

func TestAssembler_RejectsEmptyResults(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	_, err := a.Assemble(nil, "mp3")

	var incomplete *domain.IncompleteInputError
	require.ErrorAs(t, err, &incomplete)
}

func TestAssembler_RejectsUnknownFormat(t *testing.T) {
	a := NewAssembler(adapters.NewZerologWrapper())

	_, err := a.Assemble([]domain.SynthesisResult{okResult(0, []byte("AA"))}, "ogg")

	var unsupported *domain.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "ogg", unsupported.Format)
}
