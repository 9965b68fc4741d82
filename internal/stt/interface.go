package stt

import (
	"context"

	"voicetranscribe/internal/model"
)

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe sends the whole audio payload in a single call and returns
	// the transcript. Failures are reported as *Error.
	Transcribe(ctx context.Context, audio model.UploadedAudio) (string, error)

	// Name returns the name of the provider (e.g., "azure", "ollama")
	Name() string
}
