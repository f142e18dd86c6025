package domain

import (
	"errors"
	"fmt"
)

type SynthesisErrorKind string

const (
	SynthesisThrottled             SynthesisErrorKind = "Throttled"
	SynthesisTransientUnavailable  SynthesisErrorKind = "TransientUnavailable"
	SynthesisInvalidInput          SynthesisErrorKind = "InvalidInput"
	SynthesisPermanentServiceError SynthesisErrorKind = "PermanentServiceError"
)

// SynthesisError classifies a failed synthesis call. Only Throttled and
// TransientUnavailable are worth retrying.
type SynthesisError struct {
	Kind SynthesisErrorKind
	Err  error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (%s): %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

func (e *SynthesisError) Retryable() bool {
	return e.Kind == SynthesisThrottled || e.Kind == SynthesisTransientUnavailable
}

// FailureReason names the terminal failure states of a job.
type FailureReason string

const (
	FailureFetch            FailureReason = "FetchError"
	FailurePartialSynthesis FailureReason = "PartialSynthesisFailure"
	FailureAssembly         FailureReason = "AssemblyError"
	FailurePublish          FailureReason = "PublishError"
	FailureTimeout          FailureReason = "Timeout"
)

// Storage sentinels mapped by the store adapters.
var (
	ErrObjectNotFound      = errors.New("object not found")
	ErrStorageAccessDenied = errors.New("storage access denied")
	ErrChunkNotSynthesized = errors.New("chunk synthesis abandoned before completion")
)

// TransientStorageError marks a storage write failure that may succeed on a
// bounded re-attempt.
type TransientStorageError struct {
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("transient storage error: %v", e.Err)
}

func (e *TransientStorageError) Unwrap() error {
	return e.Err
}

func IsTransientStorage(err error) bool {
	var tse *TransientStorageError
	return errors.As(err, &tse)
}

// IncompleteInputError indicates a missing or failed chunk result at assembly
// time. Reaching the assembler in this shape is an internal invariant
// violation.
type IncompleteInputError struct {
	Index  int
	Failed bool
}

func (e *IncompleteInputError) Error() string {
	if e.Failed {
		return fmt.Sprintf("chunk %d carries a failed synthesis result", e.Index)
	}
	return fmt.Sprintf("chunk %d result is missing", e.Index)
}

// FormatMismatchError indicates chunk audio streams with incompatible
// parameters, which cannot be joined into one valid artifact.
type FormatMismatchError struct {
	Index   int
	Details string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("chunk %d audio format mismatch: %s", e.Index, e.Details)
}

// UnsupportedFormatError rejects codecs without a known stream-joining method
// rather than emitting a silently corrupt artifact.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("output format %q has no supported stream-joining method", e.Format)
}

// InvalidAudioError indicates a chunk stream that cannot be parsed in the
// declared container format.
type InvalidAudioError struct {
	Index   int
	Details string
}

func (e *InvalidAudioError) Error() string {
	return fmt.Sprintf("chunk %d audio is not a valid stream: %s", e.Index, e.Details)
}
