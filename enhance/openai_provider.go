package enhance

import (
	"context"
	"fmt"

	"creative_backend/core"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to OpenAI-compatible chat endpoints. This covers local
// servers that expose the OpenAI API surface (llama.cpp server, LM Studio)
// as well as the hosted API when a key is configured.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider against the configured endpoint.
// The enhancer URL is used as the API base so a local server works without
// touching openai.com.
func NewOpenAIProvider(cfg *core.Config) (*OpenAIProvider, error) {
	if cfg.EnhancerURL == "" {
		return nil, fmt.Errorf("enhance: endpoint is required for the openai provider")
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.BaseURL = cfg.EnhancerURL + "/v1"
	clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.EnhancerTimeout)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.EnhancerModel,
	}, nil
}

// Complete sends a single-turn chat completion and returns the message text.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("enhance: chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("enhance: chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Name identifies the provider for logging.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

var _ Provider = (*OpenAIProvider)(nil)
