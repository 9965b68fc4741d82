package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderAzure  = "azure"
	ProviderOllama = "ollama"

	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultRequestTimeout = 60 * time.Second

	// DefaultOllamaPrompt asks the model for a careful Persian transcription.
	DefaultOllamaPrompt = "این یک فایل صوتی است، لطفا آن را به دقت به متن فارسی تبدیل کن."
)

type Config struct {
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	APIKey         string   `mapstructure:"api_key"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes" validate:"gt=0"`
	UploadDir      string   `mapstructure:"upload_dir"`
	GinMode        string   `mapstructure:"gin_mode" validate:"omitempty,oneof=debug release test"`
	Log            Log      `mapstructure:",squash"`
	Provider       Provider `mapstructure:",squash"`
}

// Provider selects and configures the transcription backend. It is read once
// at startup and never mutated afterwards.
type Provider struct {
	Kind string `mapstructure:"transcription_provider" validate:"oneof=azure ollama"`

	AzureEndpoint   string `mapstructure:"azure_openai_endpoint" validate:"required_if=Kind azure"`
	AzureAPIKey     string `mapstructure:"azure_openai_api_key" validate:"required_if=Kind azure"`
	AzureDeployment string `mapstructure:"azure_openai_deployment" validate:"required_if=Kind azure"`
	AzureAPIVersion string `mapstructure:"azure_openai_api_version"`

	OllamaEndpoint string `mapstructure:"ollama_endpoint" validate:"omitempty,url"`
	OllamaModel    string `mapstructure:"ollama_model" validate:"required_if=Kind ollama"`
	OllamaPrompt   string `mapstructure:"ollama_prompt"`

	Timeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type Log struct {
	Level  string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"log_format" validate:"oneof=console json"`
}

var defaults = map[string]any{
	"port":                     "8080",
	"api_key":                  "",
	"max_upload_bytes":         int64(32 << 20),
	"upload_dir":               "",
	"gin_mode":                 "",
	"log_level":                "info",
	"log_format":               "console",
	"transcription_provider":   ProviderOllama,
	"azure_openai_endpoint":    "",
	"azure_openai_api_key":     "",
	"azure_openai_deployment":  "whisper",
	"azure_openai_api_version": "2024-06-01",
	"ollama_endpoint":          DefaultOllamaEndpoint,
	"ollama_model":             "",
	"ollama_prompt":            DefaultOllamaPrompt,
	"request_timeout":          DefaultRequestTimeout,
}

// Load loads configuration from environment variables and, when CONFIG_FILE
// is set, from that file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Provider.Kind = normalizeKind(cfg.Provider.Kind)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags and reports every failing field at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// normalizeKind accepts the legacy "AzureOpenAI"/"Ollama" selector values.
func normalizeKind(kind string) string {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case "azureopenai", "azure_openai", "azure-openai":
		return ProviderAzure
	default:
		return k
	}
}
