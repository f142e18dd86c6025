package adapters

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/config"
)

type dynamoJobItem struct {
	JobID         string `dynamodbav:"job_id"`
	SourceKey     string `dynamodbav:"source_key"`
	Fingerprint   string `dynamodbav:"fingerprint"`
	Status        string `dynamodbav:"status"`
	OutputKey     string `dynamodbav:"output_key,omitempty"`
	FailureReason string `dynamodbav:"failure_reason,omitempty"`
	UpdatedAt     int64  `dynamodbav:"updated_at"`
	TTL           int64  `dynamodbav:"ttl,omitempty"`
}

type dynamoJobRegistry struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoJobRegistry(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB, dynamoConfig *config.DynamoConfig) outbound.JobRegistryPort {
	return &dynamoJobRegistry{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

// Acquire claims the job identity with a conditional put. Exactly one caller
// wins; losers receive the record that beat them so admission can report the
// prior outcome instead of duplicating work.
func (r *dynamoJobRegistry) Acquire(ctx context.Context, record outbound.JobRecord) (outbound.AcquireOutcome, error) {
	item := dynamoJobItem{
		JobID:       record.JobID,
		SourceKey:   record.SourceKey,
		Fingerprint: record.Fingerprint,
		Status:      string(record.Status),
		UpdatedAt:   record.UpdatedAt.Unix(),
		// Running claims expire so a crashed worker cannot wedge the
		// identity forever. Terminal records are written without a TTL.
		TTL: record.UpdatedAt.Add(time.Duration(r.dynamoConfig.TtlMinutes) * time.Minute).Unix(),
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to marshal job item", map[string]interface{}{
			"job_id": record.JobID,
		})
		return outbound.AcquireOutcome{}, err
	}

	input := &dynamodb.PutItemInput{
		Item:                av,
		TableName:           aws.String(r.dynamoConfig.TableName),
		ConditionExpression: aws.String("attribute_not_exists(job_id)"),
	}

	_, err = r.dynamoSvc.PutItemWithContext(ctx, input)
	if err == nil {
		return outbound.AcquireOutcome{Acquired: true}, nil
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != dynamodb.ErrCodeConditionalCheckFailedException {
		r.logger.ErrorWithFields(err, "failed to claim job identity", map[string]interface{}{
			"job_id": record.JobID,
		})
		return outbound.AcquireOutcome{}, err
	}

	existing, err := r.getJob(ctx, record.JobID)
	if err != nil {
		return outbound.AcquireOutcome{}, err
	}

	return outbound.AcquireOutcome{Acquired: false, Existing: existing}, nil
}

func (r *dynamoJobRegistry) Complete(ctx context.Context, jobID string, outputKey string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.dynamoConfig.TableName),
		Key:       jobKey(jobID),
		UpdateExpression: aws.String(
			"SET #status = :status, output_key = :output_key, updated_at = :updated_at REMOVE #ttl"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
			"#ttl":    aws.String("ttl"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":status":     {S: aws.String(string(outbound.JobStatusCompleted))},
			":output_key": {S: aws.String(outputKey)},
			":updated_at": {N: aws.String(unixNow())},
		},
	}

	_, err := r.dynamoSvc.UpdateItemWithContext(ctx, input)
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to mark job completed", map[string]interface{}{
			"job_id": jobID,
		})
	}
	return err
}

func (r *dynamoJobRegistry) Fail(ctx context.Context, jobID string, reason string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.dynamoConfig.TableName),
		Key:       jobKey(jobID),
		UpdateExpression: aws.String(
			"SET #status = :status, failure_reason = :reason, updated_at = :updated_at REMOVE #ttl"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
			"#ttl":    aws.String("ttl"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":status":     {S: aws.String(string(outbound.JobStatusFailed))},
			":reason":     {S: aws.String(reason)},
			":updated_at": {N: aws.String(unixNow())},
		},
	}

	_, err := r.dynamoSvc.UpdateItemWithContext(ctx, input)
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to mark job failed", map[string]interface{}{
			"job_id": jobID,
			"reason": reason,
		})
	}
	return err
}

func (r *dynamoJobRegistry) Release(ctx context.Context, jobID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.dynamoConfig.TableName),
		Key:       jobKey(jobID),
	}

	_, err := r.dynamoSvc.DeleteItemWithContext(ctx, input)
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to release job identity", map[string]interface{}{
			"job_id": jobID,
		})
	}
	return err
}

func (r *dynamoJobRegistry) getJob(ctx context.Context, jobID string) (*outbound.JobRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(r.dynamoConfig.TableName),
		Key:            jobKey(jobID),
		ConsistentRead: aws.Bool(true),
	}

	output, err := r.dynamoSvc.GetItemWithContext(ctx, input)
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to read job item", map[string]interface{}{
			"job_id": jobID,
		})
		return nil, err
	}
	if output.Item == nil {
		// The claim that beat us was released between the put and this
		// read. Report no winner; the caller retries on redelivery.
		return nil, nil
	}

	var item dynamoJobItem
	if err := dynamodbattribute.UnmarshalMap(output.Item, &item); err != nil {
		r.logger.ErrorWithFields(err, "failed to unmarshal job item", map[string]interface{}{
			"job_id": jobID,
		})
		return nil, err
	}

	return &outbound.JobRecord{
		JobID:         item.JobID,
		SourceKey:     item.SourceKey,
		Fingerprint:   item.Fingerprint,
		Status:        outbound.JobStatus(item.Status),
		OutputKey:     item.OutputKey,
		FailureReason: item.FailureReason,
		UpdatedAt:     time.Unix(item.UpdatedAt, 0).UTC(),
	}, nil
}

func jobKey(jobID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"job_id": {S: aws.String(jobID)},
	}
}

func unixNow() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}
