package stt

import (
	"fmt"

	"voxgate/internal/config"
)

// CreateProvider creates the transcription provider selected by cfg
func CreateProvider(cfg config.TranscriptionConfig) (Provider, error) {
	httpClient := NewHTTPClient(cfg.ConnectTimeout, cfg.Timeout)

	switch cfg.Provider {
	case config.ProviderWhisper:
		if cfg.URL == "" {
			return nil, fmt.Errorf("transcription service url is required for the %s provider", cfg.Provider)
		}
		return NewWhisperProvider(cfg.URL, httpClient), nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("an API key is required for the %s provider", cfg.Provider)
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.URL, cfg.Model, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s. Supported: %s, %s",
			cfg.Provider, config.ProviderWhisper, config.ProviderOpenAI)
	}
}
