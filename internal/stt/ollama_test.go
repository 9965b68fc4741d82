package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetranscribe/internal/config"
	"voicetranscribe/internal/model"
)

func ollamaConfig(endpoint string) config.Provider {
	return config.Provider{
		Kind:           config.ProviderOllama,
		OllamaEndpoint: endpoint,
		OllamaModel:    "gemma3n",
		Timeout:        5 * time.Second,
	}
}

func TestOllamaProvider_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemma3n", req.Model)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Messages, 1) && assert.Len(t, req.Messages[0].Images, 1) {
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, config.DefaultOllamaPrompt, req.Messages[0].Content)
			decoded, err := base64.StdEncoding.DecodeString(req.Messages[0].Images[0])
			assert.NoError(t, err)
			assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff}, decoded)
		}

		_, _ = io.WriteString(w, `{"model":"gemma3n","message":{"role":"assistant","content":"سلام دنیا"},"done":true}`)
	}))
	defer server.Close()

	p := NewOllamaProvider(ollamaConfig(server.URL+"/"), zerolog.Nop())
	assert.Equal(t, "ollama", p.Name())

	text, err := p.Transcribe(context.Background(), model.UploadedAudio{
		Filename:    "voice.ogg",
		ContentType: "audio/ogg",
		Size:        4,
		Body:        strings.NewReader(string([]byte{0x00, 0x01, 0xfe, 0xff})),
	})
	require.NoError(t, err)
	assert.Equal(t, "سلام دنیا", text)
}

func TestOllamaProvider_CustomPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "Transcribe this audio to English text.", req.Messages[0].Content)
		}
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"hello"},"done":true}`)
	}))
	defer server.Close()

	cfg := ollamaConfig(server.URL)
	cfg.OllamaPrompt = "Transcribe this audio to English text."
	p := NewOllamaProvider(cfg, zerolog.Nop())

	text, err := p.Transcribe(context.Background(), model.UploadedAudio{Filename: "a.wav", Body: strings.NewReader("a")})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestOllamaProvider_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "model missing", status: http.StatusNotFound, body: `{"error":"model \"gemma3n\" not found"}`, wantStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantStatus: http.StatusInternalServerError},
		{name: "malformed body", status: http.StatusOK, body: "not json", wantStatus: http.StatusOK},
		{name: "error field", status: http.StatusOK, body: `{"error":"audio unsupported"}`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			p := NewOllamaProvider(ollamaConfig(server.URL), zerolog.Nop())
			_, err := p.Transcribe(context.Background(), model.UploadedAudio{Filename: "a.wav", Body: strings.NewReader("a")})

			var sttErr *Error
			require.True(t, errors.As(err, &sttErr))
			assert.Equal(t, ErrRejected, sttErr.Kind)
			assert.Equal(t, tt.wantStatus, sttErr.StatusCode)
		})
	}
}

func TestOllamaProvider_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	p := NewOllamaProvider(ollamaConfig(server.URL), zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Transcribe(ctx, model.UploadedAudio{Filename: "a.wav", Body: strings.NewReader("a")})

	var sttErr *Error
	require.True(t, errors.As(err, &sttErr))
	assert.Equal(t, ErrTransport, sttErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewOllamaProvider_UsesConfig(t *testing.T) {
	p := NewOllamaProvider(config.Provider{
		OllamaEndpoint: "http://ollama:11434/",
		OllamaModel:    "gemma3n",
		Timeout:        7 * time.Second,
	}, zerolog.Nop())
	assert.Equal(t, "http://ollama:11434", p.baseURL)
	assert.Equal(t, config.DefaultOllamaPrompt, p.prompt)
	assert.Equal(t, 7*time.Second, p.client.Timeout)
}

func TestOllamaProvider_ReadFailureIsProviderError(t *testing.T) {
	p := NewOllamaProvider(ollamaConfig("http://127.0.0.1:1"), zerolog.Nop())

	_, err := p.Transcribe(context.Background(), model.UploadedAudio{Filename: "a.wav", Body: iotest.ErrReader(assert.AnError)})

	var sttErr *Error
	require.True(t, errors.As(err, &sttErr))
	assert.Equal(t, ErrTransport, sttErr.Kind)
	assert.ErrorIs(t, err, assert.AnError)
}
