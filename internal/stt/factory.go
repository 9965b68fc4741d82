package stt

import (
	"fmt"

	"github.com/rs/zerolog"

	"voicetranscribe/internal/config"
)

// NewProvider creates the STT provider selected by cfg.Kind. It is called
// once at startup; the result is shared by all requests.
func NewProvider(cfg config.Provider, logger zerolog.Logger) (Provider, error) {
	switch cfg.Kind {
	case config.ProviderAzure:
		logger.Info().
			Str("endpoint", cfg.AzureEndpoint).
			Str("deployment", cfg.AzureDeployment).
			Msg("creating Azure OpenAI STT provider")
		return NewAzureProvider(cfg, logger), nil
	case config.ProviderOllama:
		logger.Info().
			Str("endpoint", cfg.OllamaEndpoint).
			Str("model", cfg.OllamaModel).
			Msg("creating Ollama STT provider")
		return NewOllamaProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %q. Supported: %s, %s",
			cfg.Kind, config.ProviderAzure, config.ProviderOllama)
	}
}
