package config

import (
	"fmt"
	"os"
)

type PollyConfig struct {
	VoiceID      string
	Engine       string
	OutputFormat string
	SampleRate   string
}

func GetPollyConfig() (*PollyConfig, error) {
	voiceID := os.Getenv("VOICE_ID")
	if voiceID == "" {
		return nil, fmt.Errorf("VOICE_ID must be set")
	}

	engine := os.Getenv("ENGINE")
	if engine == "" {
		return nil, fmt.Errorf("ENGINE must be set")
	}

	outputFormat := os.Getenv("OUTPUT_FORMAT")
	if outputFormat == "" {
		return nil, fmt.Errorf("OUTPUT_FORMAT must be set")
	}
	if outputFormat != "mp3" && outputFormat != "pcm" {
		return nil, fmt.Errorf("OUTPUT_FORMAT %q is not supported, expected mp3 or pcm", outputFormat)
	}

	return &PollyConfig{
		VoiceID:      voiceID,
		Engine:       engine,
		OutputFormat: outputFormat,
		SampleRate:   os.Getenv("SAMPLE_RATE"),
	}, nil
}
