package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voicetranscribe/internal/config"
	"voicetranscribe/internal/model"
)

const (
	ollamaProviderName = "ollama"
	maxErrorBody       = 500
)

// OllamaProvider asks a locally hosted multimodal model to transcribe the
// audio by sending it alongside a fixed instruction prompt.
type OllamaProvider struct {
	baseURL string
	model   string
	prompt  string
	client  *http.Client
	log     zerolog.Logger
}

// NewOllamaProvider creates a new Ollama STT provider
func NewOllamaProvider(cfg config.Provider, logger zerolog.Logger) *OllamaProvider {
	prompt := cfg.OllamaPrompt
	if prompt == "" {
		prompt = config.DefaultOllamaPrompt
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(cfg.OllamaEndpoint, "/"),
		model:   cfg.OllamaModel,
		prompt:  prompt,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     logger.With().Str("provider", ollamaProviderName).Logger(),
	}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return ollamaProviderName
}

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string            `json:"model"`
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
	Error   string            `json:"error,omitempty"`
}

// Transcribe sends the audio to /api/chat and returns the model's reply.
func (p *OllamaProvider) Transcribe(ctx context.Context, audio model.UploadedAudio) (string, error) {
	startTime := time.Now()

	audioBytes, err := io.ReadAll(audio.Body)
	if err != nil {
		return "", &Error{Provider: ollamaProviderName, Kind: ErrTransport, Err: fmt.Errorf("failed to read audio: %w", err)}
	}
	p.log.Info().
		Str("file", audio.Filename).
		Str("content_type", audio.ContentType).
		Int("size", len(audioBytes)).
		Str("model", p.model).
		Msg("starting transcription")

	reqJSON, err := json.Marshal(ollamaChatRequest{
		Model: p.model,
		Messages: []ollamaChatMessage{{
			Role:    "user",
			Content: p.prompt,
			Images:  []string{base64.StdEncoding.EncodeToString(audioBytes)},
		}},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Provider: ollamaProviderName, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: ollamaProviderName, Kind: ErrTransport, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Provider:   ollamaProviderName,
			Kind:       ErrRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", preview(body)),
		}
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &Error{
			Provider:   ollamaProviderName,
			Kind:       ErrRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to parse response: %w", err),
		}
	}
	if chatResp.Error != "" {
		return "", &Error{
			Provider:   ollamaProviderName,
			Kind:       ErrRejected,
			StatusCode: resp.StatusCode,
			Err:        errors.New(chatResp.Error),
		}
	}

	p.log.Info().
		Str("file", audio.Filename).
		Int("length", len(chatResp.Message.Content)).
		Dur("duration", time.Since(startTime)).
		Msg("transcription completed")
	return chatResp.Message.Content, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
