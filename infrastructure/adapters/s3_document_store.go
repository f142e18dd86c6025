package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/config"
	"document-audio-pipeline/domain"
)

type s3DocumentStore struct {
	s3Svc    *s3.S3
	s3Config *config.S3Config
	logger   outbound.LoggerPort
}

func NewS3DocumentStore(s3Svc *s3.S3, s3Config *config.S3Config, logger outbound.LoggerPort) outbound.DocumentStorePort {
	return &s3DocumentStore{
		s3Svc:    s3Svc,
		s3Config: s3Config,
		logger:   logger,
	}
}

func (s *s3DocumentStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	getInput := &s3.GetObjectInput{
		Bucket: aws.String(s.s3Config.InputBucketName),
		Key:    aws.String(key),
	}

	output, err := s.s3Svc.GetObjectWithContext(ctx, getInput)
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound":
				return nil, fmt.Errorf("%w: s3://%s/%s", domain.ErrObjectNotFound, s.s3Config.InputBucketName, key)
			case "AccessDenied":
				return nil, fmt.Errorf("%w: s3://%s/%s", domain.ErrStorageAccessDenied, s.s3Config.InputBucketName, key)
			}
		}
		s.logger.ErrorWithFields(err, "failed to fetch document from S3", map[string]interface{}{
			"bucket": s.s3Config.InputBucketName,
			"key":    key,
		})
		return nil, err
	}

	defer func() {
		if closeErr := output.Body.Close(); closeErr != nil {
			s.logger.Error(closeErr, "failed to close S3 object body")
		}
	}()

	raw, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document body for %s: %w", key, err)
	}

	s.logger.DebugWithFields("fetched document from S3", map[string]interface{}{
		"bucket": s.s3Config.InputBucketName,
		"key":    key,
		"bytes":  len(raw),
	})

	return raw, nil
}
