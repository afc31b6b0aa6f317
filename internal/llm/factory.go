package llm

import (
	"fmt"
	"strings"
)

// New creates a completer for the configured provider type.
func New(cfg ProviderConfig) (Completer, error) {
	switch strings.ToLower(cfg.Type) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "mock":
		return NewMockProvider(), nil
	case "":
		return nil, fmt.Errorf("%w: provider type not specified", ErrNoProvider)
	default:
		return nil, fmt.Errorf("%w: unknown provider type %q", ErrInvalidConfig, cfg.Type)
	}
}
