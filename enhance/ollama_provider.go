package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"creative_backend/core"
)

// OllamaProvider talks to the native Ollama generate API:
// POST {base}/api/generate with {model, prompt, stream:false},
// response {response: string}.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// generateRequest is the native Ollama request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the subset of the Ollama response we consume.
type generateResponse struct {
	Response string `json:"response"`
}

// NewOllamaProvider creates a provider against the configured local endpoint.
// The HTTP client timeout doubles as the enhancement bound (default 30s).
func NewOllamaProvider(cfg *core.Config) *OllamaProvider {
	return &OllamaProvider{
		baseURL: cfg.EnhancerURL,
		model:   cfg.EnhancerModel,
		client:  core.GetHTTPClient(cfg, cfg.EnhancerTimeout),
	}
}

// Complete sends a non-streaming generate request and returns the response text.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("enhance: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("enhance: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("enhance: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("enhance: service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("enhance: failed to read response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("enhance: failed to decode response: %w", err)
	}

	return out.Response, nil
}

// Name identifies the provider for logging.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

var _ Provider = (*OllamaProvider)(nil)
