package stt

import (
	"context"

	"voxgate/internal/model"
)

// Provider defines the interface for transcription backends
type Provider interface {
	// Transcribe forwards the file in a single call and returns the parsed reply.
	// Transport failures are reported as *TransportError and error statuses as *StatusError.
	Transcribe(ctx context.Context, file *model.UploadedFile, opts Options) (*Reply, error)

	// Name returns the name of the provider (e.g., "whisper", "openai")
	Name() string
}

// Options are optional per-request hints forwarded to the backend
type Options struct {
	ModelSize string
	Language  string
}
