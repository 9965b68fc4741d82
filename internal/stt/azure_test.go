package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetranscribe/internal/config"
	"voicetranscribe/internal/model"
)

func azureConfig(endpoint string) config.Provider {
	return config.Provider{
		Kind:            config.ProviderAzure,
		AzureEndpoint:   endpoint,
		AzureAPIKey:     "azure-key",
		AzureDeployment: "whisper-prod",
		AzureAPIVersion: "2024-06-01",
		Timeout:         5 * time.Second,
	}
}

func TestAzureProvider_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/whisper-prod/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "voice.m4a", header.Filename)
		assert.Equal(t, "RIFF-audio-bytes", string(data))
		assert.Equal(t, "json", r.FormValue("response_format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"سلام دنیا"}`)
	}))
	defer server.Close()

	p := NewAzureProvider(azureConfig(server.URL), zerolog.Nop())
	assert.Equal(t, "azure", p.Name())

	text, err := p.Transcribe(context.Background(), model.UploadedAudio{
		Filename:    "voice.m4a",
		ContentType: "audio/m4a",
		Size:        16,
		Body:        strings.NewReader("RIFF-audio-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "سلام دنیا", text)
}

func TestAzureProvider_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"code":"401","message":"Access denied due to invalid subscription key."}}`)
	}))
	defer server.Close()

	p := NewAzureProvider(azureConfig(server.URL), zerolog.Nop())
	_, err := p.Transcribe(context.Background(), model.UploadedAudio{
		Filename: "voice.wav",
		Body:     strings.NewReader("x"),
	})
	require.Error(t, err)

	var sttErr *Error
	require.True(t, errors.As(err, &sttErr))
	assert.Equal(t, ErrRejected, sttErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, sttErr.StatusCode)
	assert.Equal(t, "azure", sttErr.Provider)
}

func TestAzureProvider_Transport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewAzureProvider(azureConfig(url), zerolog.Nop())
	_, err := p.Transcribe(context.Background(), model.UploadedAudio{
		Filename: "voice.wav",
		Body:     strings.NewReader("x"),
	})

	var sttErr *Error
	require.True(t, errors.As(err, &sttErr))
	assert.Equal(t, ErrTransport, sttErr.Kind)
	assert.Zero(t, sttErr.StatusCode)
}
