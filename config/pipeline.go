package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PollyMaxInputBytes is the synthesis service's hard maximum input size per
// call. MaxChunkBytes may never exceed it.
const PollyMaxInputBytes = 3000

const (
	defaultMaxChunkBytes       = PollyMaxInputBytes
	defaultMaxSynthesisRetries = 3
	defaultSynthesisTimeout    = 30 * time.Second
	defaultJobTimeout          = 10 * time.Minute
	defaultMaxConcurrentChunks = 6
	defaultMaxPublishRetries   = 3
	defaultRetryBaseDelay      = 500 * time.Millisecond
	defaultRetryMaxJitter      = 250 * time.Millisecond
)

type PipelineConfig struct {
	MaxChunkBytes       int
	MaxSynthesisRetries int
	SynthesisTimeout    time.Duration
	JobTimeout          time.Duration
	MaxConcurrentChunks int
	MaxPublishRetries   int
	RetryBaseDelay      time.Duration
	RetryMaxJitter      time.Duration
}

func GetPipelineConfig() (*PipelineConfig, error) {
	cfg := &PipelineConfig{
		MaxChunkBytes:       defaultMaxChunkBytes,
		MaxSynthesisRetries: defaultMaxSynthesisRetries,
		SynthesisTimeout:    defaultSynthesisTimeout,
		JobTimeout:          defaultJobTimeout,
		MaxConcurrentChunks: defaultMaxConcurrentChunks,
		MaxPublishRetries:   defaultMaxPublishRetries,
		RetryBaseDelay:      defaultRetryBaseDelay,
		RetryMaxJitter:      defaultRetryMaxJitter,
	}

	var err error
	if cfg.MaxChunkBytes, err = intFromEnv("MAX_CHUNK_BYTES", cfg.MaxChunkBytes); err != nil {
		return nil, err
	}
	if cfg.MaxSynthesisRetries, err = intFromEnv("MAX_SYNTHESIS_RETRIES", cfg.MaxSynthesisRetries); err != nil {
		return nil, err
	}
	if cfg.SynthesisTimeout, err = durationFromEnv("SYNTHESIS_TIMEOUT", cfg.SynthesisTimeout); err != nil {
		return nil, err
	}
	if cfg.JobTimeout, err = durationFromEnv("JOB_TIMEOUT", cfg.JobTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentChunks, err = intFromEnv("MAX_CONCURRENT_CHUNKS", cfg.MaxConcurrentChunks); err != nil {
		return nil, err
	}
	if cfg.MaxPublishRetries, err = intFromEnv("MAX_PUBLISH_RETRIES", cfg.MaxPublishRetries); err != nil {
		return nil, err
	}

	if cfg.MaxChunkBytes > PollyMaxInputBytes {
		return nil, fmt.Errorf("MAX_CHUNK_BYTES %d exceeds the synthesis service maximum of %d", cfg.MaxChunkBytes, PollyMaxInputBytes)
	}

	return cfg, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return parsed, nil
}

func durationFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 30s or 5m", name)
	}
	return parsed, nil
}
