package translate

import (
	"fmt"
	"strings"

	"github.com/ilyakh/marginalia/internal/model"
)

// NewProvider creates a translation provider based on configuration.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - translation disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown translation provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.TranslateConfig to translate.Config
func ConfigFromModel(modelConfig model.TranslateConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}

// RequestFromModel seeds a Request with the configured language pair and
// mode; callers fill in Text and Context.
func RequestFromModel(modelConfig model.TranslateConfig) Request {
	return Request{
		SourceLang: modelConfig.SourceLang,
		TargetLang: modelConfig.TargetLang,
		Mode:       modelConfig.Mode,
	}
}
