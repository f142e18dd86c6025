package adapters

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/polly"

	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/domain"
)

type pollySynthesizer struct {
	pollySvc *polly.Polly
	logger   outbound.LoggerPort
}

func NewPollySynthesizer(pollySvc *polly.Polly, logger outbound.LoggerPort) outbound.SpeechSynthesizerPort {
	return &pollySynthesizer{
		pollySvc: pollySvc,
		logger:   logger,
	}
}

func (p *pollySynthesizer) Synthesize(ctx context.Context, params outbound.SynthesizeSpeechParams) ([]byte, error) {
	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(params.Text),
		VoiceId:      aws.String(params.Voice.VoiceID),
		Engine:       aws.String(params.Voice.Engine),
		OutputFormat: aws.String(params.Voice.OutputFormat),
	}
	if params.Voice.SampleRate != "" {
		input.SampleRate = aws.String(params.Voice.SampleRate)
	}

	output, err := p.pollySvc.SynthesizeSpeechWithContext(ctx, input)
	if err != nil {
		classified := classifySynthesisError(err)
		p.logger.ErrorWithFields(classified, "polly synthesis call failed", map[string]interface{}{
			"voice_id":   params.Voice.VoiceID,
			"text_bytes": len(params.Text),
			"kind":       string(classified.Kind),
		})
		return nil, classified
	}

	defer func() {
		if closeErr := output.AudioStream.Close(); closeErr != nil {
			p.logger.Error(closeErr, "failed to close polly audio stream")
		}
	}()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisTransientUnavailable, Err: err}
	}

	return audio, nil
}

// classifySynthesisError maps service failures onto the retry taxonomy.
// Oversize or malformed input can never succeed on retry; throttling and 5xx
// conditions can.
func classifySynthesisError(err error) *domain.SynthesisError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.SynthesisError{Kind: domain.SynthesisTransientUnavailable, Err: err}
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case polly.ErrCodeTextLengthExceededException,
			polly.ErrCodeInvalidSsmlException,
			polly.ErrCodeLexiconNotFoundException,
			polly.ErrCodeLanguageNotSupportedException,
			polly.ErrCodeInvalidSampleRateException,
			polly.ErrCodeEngineNotSupportedException:
			return &domain.SynthesisError{Kind: domain.SynthesisInvalidInput, Err: err}
		case polly.ErrCodeServiceFailureException, request.ErrCodeRequestError, request.ErrCodeResponseTimeout:
			return &domain.SynthesisError{Kind: domain.SynthesisTransientUnavailable, Err: err}
		}
		if request.IsErrorThrottle(err) {
			return &domain.SynthesisError{Kind: domain.SynthesisThrottled, Err: err}
		}
		if request.IsErrorRetryable(err) {
			return &domain.SynthesisError{Kind: domain.SynthesisTransientUnavailable, Err: err}
		}
		return &domain.SynthesisError{Kind: domain.SynthesisPermanentServiceError, Err: err}
	}

	// Plain transport errors without an AWS code are worth retrying.
	return &domain.SynthesisError{Kind: domain.SynthesisTransientUnavailable, Err: err}
}
