package rewrite

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrUnsupportedProvider indicates an unknown provider name.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Provider identifies a chat-completion backend.
// DeepSeek exposes an OpenAI-compatible API, so both providers share the
// same client; only base URL and default model differ.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
)

const deepSeekBaseURL = "https://api.deepseek.com/v1"

// defaultModels maps each provider to its default chat model.
var defaultModels = map[Provider]string{
	ProviderOpenAI:   defaultModel,
	ProviderDeepSeek: "deepseek-chat",
}

// ParseProvider validates a provider name. Empty defaults to OpenAI.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderDeepSeek:
		return ProviderDeepSeek, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedProvider)
	}
}

// DefaultModel returns the provider's default chat model.
func (p Provider) DefaultModel() string {
	return defaultModels[p]
}

// NewClient creates a chat client for the provider.
func (p Provider) NewClient(apiKey string) *openai.Client {
	if p == ProviderDeepSeek {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = deepSeekBaseURL
		return openai.NewClientWithConfig(cfg)
	}
	return openai.NewClient(apiKey)
}
