package main

import (
	"fmt"

	"voxgate/internal/config"
	"voxgate/internal/gateway"
	"voxgate/internal/metrics"
	"voxgate/internal/stt"
)

// app holds the components shared by the serve and transcribe commands
type app struct {
	provider stt.Provider
	gateway  *gateway.Service
	metrics  *metrics.Metrics
}

func newApp(cfg *config.Config) (*app, error) {
	provider, err := stt.CreateProvider(cfg.Transcription)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription provider: %w", err)
	}

	policy, err := gateway.NewPolicy(cfg.Upload.MaxFileSize, cfg.Upload.AllowedExtensions, cfg.Upload.ContentTypePrefix)
	if err != nil {
		return nil, fmt.Errorf("invalid upload policy: %w", err)
	}

	m := metrics.NewMetrics()
	return &app{
		provider: provider,
		gateway:  gateway.New(policy, provider, m),
		metrics:  m,
	}, nil
}
