package enhance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creative_backend/core"
	"creative_backend/logging"
)

// newOllamaTestProvider points an OllamaProvider at a test server.
func newOllamaTestProvider(url string, timeout time.Duration) *OllamaProvider {
	cfg := &core.Config{
		EnhancerURL:     url,
		EnhancerModel:   "test-model",
		EnhancerTimeout: timeout,
	}
	return NewOllamaProvider(cfg)
}

// TestOllamaProviderSendsExpectedRequest verifies the native API request shape.
func TestOllamaProviderSendsExpectedRequest(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "an elaborate cat"})
	}))
	defer server.Close()

	provider := newOllamaTestProvider(server.URL, 5*time.Second)
	got, err := provider.Complete(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "an elaborate cat" {
		t.Errorf("unexpected response: %s", got)
	}
	if captured.Model != "test-model" {
		t.Errorf("model not sent: %s", captured.Model)
	}
	if captured.Stream {
		t.Error("stream should be false")
	}
	if captured.Prompt != "a cat" {
		t.Errorf("prompt not sent verbatim: %s", captured.Prompt)
	}
}

// TestOllamaProviderNon200 verifies a non-success status becomes an error.
func TestOllamaProviderNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := newOllamaTestProvider(server.URL, 5*time.Second)
	if _, err := provider.Complete(context.Background(), "a cat"); err == nil {
		t.Error("expected error for 503 response")
	}
}

// TestEnhancerSuccess verifies the enhanced text is trimmed and returned.
func TestEnhancerSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "  a vivid, cinematic cat  "})
	}))
	defer server.Close()

	enhancer := NewEnhancer(newOllamaTestProvider(server.URL, 5*time.Second), logging.NewNop())
	got := enhancer.Enhance(context.Background(), "a cat", "")
	if got != "a vivid, cinematic cat" {
		t.Errorf("unexpected enhancement: %q", got)
	}
}

// TestEnhancerFailsOpenOnUnreachableService verifies the original prompt
// survives when the local service is down.
func TestEnhancerFailsOpenOnUnreachableService(t *testing.T) {
	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	enhancer := NewEnhancer(newOllamaTestProvider(server.URL, time.Second), logging.NewNop())
	got := enhancer.Enhance(context.Background(), "a cat", "")
	if got != "a cat" {
		t.Errorf("expected fail-open to original prompt, got %q", got)
	}
}

// TestEnhancerFailsOpenOnTimeout verifies a slow service falls open.
func TestEnhancerFailsOpenOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(generateResponse{Response: "too late"})
	}))
	defer server.Close()

	enhancer := NewEnhancer(newOllamaTestProvider(server.URL, 50*time.Millisecond), logging.NewNop())
	got := enhancer.Enhance(context.Background(), "a cat", "")
	if got != "a cat" {
		t.Errorf("expected fail-open on timeout, got %q", got)
	}
}

// TestEnhancerFailsOpenOnEmptyResponse verifies an absent response field
// falls back to the original prompt.
func TestEnhancerFailsOpenOnEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	enhancer := NewEnhancer(newOllamaTestProvider(server.URL, 5*time.Second), logging.NewNop())
	got := enhancer.Enhance(context.Background(), "a cat", "")
	if got != "a cat" {
		t.Errorf("expected fail-open on empty response, got %q", got)
	}
}

// TestBuildPromptWithContext verifies the context block is included only
// when history context is present.
func TestBuildPromptWithContext(t *testing.T) {
	withCtx := buildPrompt("a cat", "Similar past requests: [a dog]")
	if !strings.Contains(withCtx, "Context from previous interactions: Similar past requests: [a dog]") {
		t.Error("context block missing from prompt")
	}
	if !strings.Contains(withCtx, "User request: a cat") {
		t.Error("user request missing from prompt")
	}

	withoutCtx := buildPrompt("a cat", "")
	if strings.Contains(withoutCtx, "Context from previous interactions") {
		t.Error("context block present despite empty history context")
	}
}

// TestNewProviderFromConfig covers provider selection.
func TestNewProviderFromConfig(t *testing.T) {
	cfg := &core.Config{EnhancerURL: "http://localhost:11434", EnhancerModel: "m"}

	cfg.EnhancerProvider = "ollama"
	p, err := NewProviderFromConfig(cfg)
	if err != nil || p.Name() != "ollama" {
		t.Errorf("expected ollama provider, got %v, %v", p, err)
	}

	cfg.EnhancerProvider = "openai"
	p, err = NewProviderFromConfig(cfg)
	if err != nil || p.Name() != "openai" {
		t.Errorf("expected openai provider, got %v, %v", p, err)
	}

	cfg.EnhancerProvider = "bogus"
	if _, err := NewProviderFromConfig(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
