package stt

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetranscribe/internal/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		kind     string
		wantName string
		wantType any
	}{
		{kind: config.ProviderAzure, wantName: "azure", wantType: &AzureProvider{}},
		{kind: config.ProviderOllama, wantName: "ollama", wantType: &OllamaProvider{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := azureConfig("https://example.openai.azure.com")
			cfg.Kind = tt.kind
			cfg.OllamaModel = "gemma3n"

			p, err := NewProvider(cfg, zerolog.Nop())
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(config.Provider{Kind: "fpt"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported STT provider")
}

func TestError_Message(t *testing.T) {
	err := &Error{Provider: "ollama", Kind: ErrRejected, StatusCode: 404, Err: assert.AnError}
	assert.Equal(t, "ollama provider rejected (status 404): "+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)

	err = &Error{Provider: "azure", Kind: ErrTransport, Err: assert.AnError}
	assert.Equal(t, "azure provider transport: "+assert.AnError.Error(), err.Error())
}
