// Package enhance elaborates raw user prompts into detailed generation
// prompts using a local text-generation service. The enhancer fails open:
// when the service is unreachable, slow, or returns garbage, the original
// prompt is used unchanged and the pipeline continues.
package enhance

import (
	"context"
	"fmt"

	"creative_backend/core"
)

// Provider is the interface for text-generation backends. Each provider
// (native Ollama API, OpenAI-compatible servers) implements this to allow
// swappable local inference backends.
type Provider interface {
	// Complete sends a single-turn completion request and returns the raw
	// response text. The context carries the call's deadline.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider for logging.
	Name() string
}

// NewProviderFromConfig selects a provider based on ENHANCER_PROVIDER.
func NewProviderFromConfig(cfg *core.Config) (Provider, error) {
	switch cfg.EnhancerProvider {
	case "", "ollama":
		return NewOllamaProvider(cfg), nil
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("enhance: unknown provider %q (want ollama or openai)", cfg.EnhancerProvider)
	}
}
