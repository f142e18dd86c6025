package services

import (
	"bytes"
	"encoding/binary"

	"document-audio-pipeline/domain"
)

// WAV layout offsets. A canonical header is RIFF (12 bytes) + fmt chunk
// (24 bytes) + data chunk header (8 bytes); metadata chunks such as LIST may
// sit between fmt and data and are skipped during extraction.
const (
	wavRiffHeaderSize  = 12
	wavFmtChunkSize    = 24
	wavChunkIDSize     = 4
	wavChunkHeaderSize = 8
	wavRiffSizeOffset  = 4
	wavFmtChunkOffset  = wavRiffHeaderSize
	wavDataOffset      = wavRiffHeaderSize + wavFmtChunkSize
	wavDataSizeOffset  = wavDataOffset + wavChunkIDSize
	wavHeaderSize      = wavDataOffset + wavChunkHeaderSize
)

// joinWavStreams concatenates the sample data of independently encoded WAV
// streams and rebuilds a single valid header over the result. All streams
// must share the format parameters of the first; a mismatch would yield an
// artifact that plays at the wrong rate or channel count.
func joinWavStreams(streams [][]byte) ([]byte, error) {
	format, samples, err := extractWavSamples(streams[0], 0)
	if err != nil {
		return nil, err
	}

	var combined bytes.Buffer
	combined.Write(samples)

	for i := 1; i < len(streams); i++ {
		chunkFormat, chunkSamples, err := extractWavSamples(streams[i], i)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(chunkFormat, format) {
			return nil, &domain.FormatMismatchError{Index: i, Details: "fmt chunk differs from first stream"}
		}
		combined.Write(chunkSamples)
	}

	return buildWav(streams[0][:wavDataOffset], combined.Bytes()), nil
}

// extractWavSamples returns the fmt chunk (format parameters only, without
// the RIFF preamble) and the raw sample data of one WAV stream.
func extractWavSamples(stream []byte, index int) (format []byte, samples []byte, err error) {
	if len(stream) < wavHeaderSize {
		return nil, nil, &domain.InvalidAudioError{Index: index, Details: "shorter than a WAV header"}
	}
	if string(stream[:wavChunkIDSize]) != "RIFF" || string(stream[8:12]) != "WAVE" {
		return nil, nil, &domain.InvalidAudioError{Index: index, Details: "missing RIFF/WAVE preamble"}
	}

	format = stream[wavFmtChunkOffset:wavDataOffset]

	offset := wavDataOffset
	for offset+wavChunkHeaderSize <= len(stream) {
		chunkID := string(stream[offset : offset+wavChunkIDSize])
		chunkSize := int(binary.LittleEndian.Uint32(stream[offset+wavChunkIDSize : offset+wavChunkHeaderSize]))

		if chunkID == "data" {
			start := offset + wavChunkHeaderSize
			end := start + chunkSize
			if end > len(stream) {
				return nil, nil, &domain.InvalidAudioError{Index: index, Details: "data chunk exceeds stream length"}
			}
			return format, stream[start:end], nil
		}

		// Skip metadata chunks, honoring the padding byte after odd sizes.
		offset += wavChunkHeaderSize + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	return nil, nil, &domain.InvalidAudioError{Index: index, Details: "no data chunk found"}
}

// buildWav writes a canonical 44-byte header followed by the combined sample
// data, with RIFF and data sizes recomputed.
func buildWav(header []byte, samples []byte) []byte {
	out := make([]byte, wavHeaderSize+len(samples))
	copy(out, header[:wavDataOffset])
	copy(out[wavDataOffset:], []byte("data"))
	binary.LittleEndian.PutUint32(out[wavRiffSizeOffset:wavRiffSizeOffset+4], uint32(wavHeaderSize+len(samples)-wavChunkHeaderSize))
	binary.LittleEndian.PutUint32(out[wavDataSizeOffset:wavDataSizeOffset+4], uint32(len(samples)))
	copy(out[wavHeaderSize:], samples)
	return out
}
