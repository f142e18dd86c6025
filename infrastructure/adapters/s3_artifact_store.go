package adapters

import (
	"bytes"
	"context"
	"errors"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"

	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/config"
	"document-audio-pipeline/domain"
)

type s3ArtifactStore struct {
	s3Svc    *s3.S3
	s3Config *config.S3Config
	logger   outbound.LoggerPort
}

func NewS3ArtifactStore(s3Svc *s3.S3, s3Config *config.S3Config, logger outbound.LoggerPort) outbound.ArtifactStorePort {
	return &s3ArtifactStore{
		s3Svc:    s3Svc,
		s3Config: s3Config,
		logger:   logger,
	}
}

func (s *s3ArtifactStore) Put(ctx context.Context, key string, payload []byte) error {
	itemPath := key
	if s.s3Config.OutputPrefix != "" {
		itemPath = path.Join(s.s3Config.OutputPrefix, key)
	}

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.OutputBucketName),
		Key:           aws.String(itemPath),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to upload artifact to S3", map[string]interface{}{
			"bucket": s.s3Config.OutputBucketName,
			"key":    itemPath,
		})
		if isRetryableStorageError(err) {
			return &domain.TransientStorageError{Err: err}
		}
		return err
	}

	s.logger.DebugWithFields("uploaded artifact to S3", map[string]interface{}{
		"bucket": s.s3Config.OutputBucketName,
		"key":    itemPath,
		"bytes":  len(payload),
	})

	return nil
}

func isRetryableStorageError(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout":
			return true
		}
	}
	return request.IsErrorRetryable(err) || request.IsErrorThrottle(err)
}
