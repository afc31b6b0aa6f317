// Package llm provides text completion through pluggable providers. The
// report generator uses it to judge parity between implementations of the
// same unit.
package llm

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrNoProvider    = errors.New("no completion provider configured")
	ErrRequestFailed = errors.New("completion request failed")
	ErrEmptyResponse = errors.New("provider returned an empty response")
	ErrInvalidConfig = errors.New("invalid provider configuration")
)

// Request is a single completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response carries the generated text plus provenance.
type Response struct {
	Text     string
	Provider string
	Model    string
	Duration time.Duration
}

// Completer is the capability the report generator depends on.
type Completer interface {
	// Complete runs one completion request.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name.
	Name() string

	// Model returns the model in use.
	Model() string
}

// ProviderConfig selects and configures a completion provider.
type ProviderConfig struct {
	Type    string // "openai", "ollama", or "mock"
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}
