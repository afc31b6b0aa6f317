package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config selects and configures a provider.
type Config struct {
	Provider  string // "openai" or "ollama"
	Model     string // optional model override
	BaseURL   string // optional endpoint override (ollama)
	APIKey    string // optional key override (openai)
	CacheSize int    // LRU entries, 0 means default
}

// New creates an embedder for the configured provider.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		p, err := NewOpenAIProvider(cfg.APIKey, cache)
		if err != nil {
			return nil, err
		}
		if cfg.Model != "" {
			p.model = cfg.Model
		}
		return p, nil
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cache)
	case "":
		return nil, fmt.Errorf("%w: provider not specified", ErrNoProviderEnabled)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, cfg.Provider)
	}
}

// NewFromEnv builds an embedder from environment variables. The provider is
// taken from PARITYSCAN_EMBEDDING_PROVIDER when set, otherwise detected.
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	if provider == "" {
		provider = DetectProvider()
	}
	return New(Config{Provider: provider})
}

// DetectProvider picks openai when an API key is present, ollama otherwise.
func DetectProvider() string {
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderOllama
}
