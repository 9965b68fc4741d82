package stt

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"voicetranscribe/internal/config"
	"voicetranscribe/internal/model"
)

const azureProviderName = "azure"

// AzureProvider implements STT using a whisper deployment on Azure OpenAI.
type AzureProvider struct {
	client     *openai.Client
	deployment string
	log        zerolog.Logger
}

// NewAzureProvider creates a new Azure OpenAI STT provider
func NewAzureProvider(cfg config.Provider, logger zerolog.Logger) *AzureProvider {
	oc := openai.DefaultAzureConfig(cfg.AzureAPIKey, cfg.AzureEndpoint)
	if cfg.AzureAPIVersion != "" {
		oc.APIVersion = cfg.AzureAPIVersion
	}
	deployment := cfg.AzureDeployment
	oc.AzureModelMapperFunc = func(string) string { return deployment }
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &AzureProvider{
		client:     openai.NewClientWithConfig(oc),
		deployment: deployment,
		log:        logger.With().Str("provider", azureProviderName).Logger(),
	}
}

// Name returns the provider name
func (p *AzureProvider) Name() string {
	return azureProviderName
}

// Transcribe streams the audio to the deployment's /audio/transcriptions
// endpoint and returns the text field of the response.
func (p *AzureProvider) Transcribe(ctx context.Context, audio model.UploadedAudio) (string, error) {
	startTime := time.Now()
	p.log.Info().
		Str("file", audio.Filename).
		Int64("size", audio.Size).
		Str("deployment", p.deployment).
		Msg("starting transcription")

	filename := audio.Filename
	if filename == "" {
		filename = "audio"
	}
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio.Body,
		FilePath: filename,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	p.log.Info().
		Str("file", audio.Filename).
		Int("length", len(resp.Text)).
		Dur("duration", time.Since(startTime)).
		Msg("transcription completed")
	return resp.Text, nil
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Provider: azureProviderName, Kind: ErrRejected, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Provider: azureProviderName, Kind: ErrRejected, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &Error{Provider: azureProviderName, Kind: ErrTransport, Err: err}
}
