package config

import (
	"fmt"
	"os"
)

type S3Config struct {
	InputBucketName  string
	OutputBucketName string
	OutputPrefix     string
	Region           string
}

func GetS3Config() (*S3Config, error) {
	inputBucketName := os.Getenv("INPUT_BUCKET_NAME")
	if inputBucketName == "" {
		return nil, fmt.Errorf("INPUT_BUCKET_NAME must be set")
	}

	outputBucketName := os.Getenv("OUTPUT_BUCKET_NAME")
	if outputBucketName == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET_NAME must be set")
	}

	region := os.Getenv("REGION")
	if region == "" {
		return nil, fmt.Errorf("REGION must be set")
	}

	return &S3Config{
		InputBucketName:  inputBucketName,
		OutputBucketName: outputBucketName,
		OutputPrefix:     os.Getenv("OUTPUT_PREFIX"),
		Region:           region,
	}, nil
}
