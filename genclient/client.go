// Package genclient calls the remote generation services (text-to-image and
// image-to-3D), decodes their payloads, and persists the resulting bytes to
// the content store.
package genclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"creative_backend/artifacts"
	"creative_backend/core"
	"creative_backend/logging"

	"go.uber.org/zap"
)

// Client is the gateway to the remote generation network. All calls are
// synchronous and bounded by the configured generation timeout; exceeding it
// is classified as upstream-unavailable and surfaces as a failed attempt.
type Client struct {
	cfg        *core.Config
	store      *artifacts.Store
	logger     *logging.Logger
	httpClient *http.Client

	// serviceURL resolves a service ID to its base URL. Defaults to the
	// configured network domain; tests point it at local servers.
	serviceURL func(serviceID string) string
}

// executionResponse is the wire shape of a generation service response.
// Result is kept raw: it may be a base64-wrapped binary, opaque text, or a
// non-string JSON value depending on the service.
type executionResponse struct {
	Result json.RawMessage `json:"result"`
}

// NewClient creates a generation client writing artifacts into store.
func NewClient(cfg *core.Config, store *artifacts.Store, logger *logging.Logger) *Client {
	return &Client{
		cfg:        cfg,
		store:      store,
		logger:     logger,
		httpClient: core.GetHTTPClient(cfg, cfg.GenerationTimeout),
		serviceURL: cfg.ServiceURL,
	}
}

// GenerateImage requests an image for the given prompt and persists it with
// a .png extension.
func (c *Client) GenerateImage(ctx context.Context, prompt string, userID string) AttemptResult {
	payload := map[string]interface{}{"prompt": prompt}
	return c.Generate(ctx, c.cfg.TextToImageService, payload, userID, artifacts.StageImage, "png")
}

// GenerateModel requests a 3D model derived from imageData and persists it
// with a .obj extension. The image bytes are base64-wrapped for transport.
func (c *Client) GenerateModel(ctx context.Context, imageData []byte, userID string) AttemptResult {
	payload := map[string]interface{}{"image": base64.StdEncoding.EncodeToString(imageData)}
	return c.Generate(ctx, c.cfg.ImageTo3DService, payload, userID, artifacts.StageModel, "obj")
}

// Generate sends a synchronous execution request to the named service,
// decodes the result payload, and writes it to the content store under the
// given stage and extension. Every failure mode is converted into an
// unsuccessful AttemptResult; Generate never returns an error.
func (c *Client) Generate(ctx context.Context, serviceID string, payload map[string]interface{}, userID string, stage string, ext string) AttemptResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return failure(fmt.Sprintf("failed to encode request: %v", err))
	}

	url := c.serviceURL(serviceID) + "/execution"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failure(fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)
	if c.cfg.GenerationAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.GenerationAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("generation call failed",
			zap.String("service", serviceID),
			zap.String("stage", stage),
			zap.Error(err),
		)
		return failure(fmt.Sprintf("%s service unreachable: %v", stage, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("%s service returned status %d", stage, resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("failed to read %s response: %v", stage, err))
	}

	var out executionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return failure(fmt.Sprintf("failed to decode %s response: %v", stage, err))
	}

	data, ok := decodeResult(out.Result)
	if !ok {
		return failure("no data received")
	}

	path, err := c.store.Save(stage, ext, data)
	if err != nil {
		return failure(fmt.Sprintf("failed to store %s artifact: %v", stage, err))
	}

	c.logger.Info("generation stage complete",
		zap.String("service", serviceID),
		zap.String("stage", stage),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)

	return AttemptResult{Success: true, Path: path, Payload: data}
}

// decodeResult extracts artifact bytes from the raw result field.
//
// Textual results are first treated as base64 (services wrap binary data
// that way); when that decode fails the text is kept as raw bytes, since the
// service may legitimately return opaque text. Non-string results are used
// as-is. An absent, null, or empty result reports !ok.
func decodeResult(raw json.RawMessage) ([]byte, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return nil, false
		}
		if decoded, err := base64.StdEncoding.DecodeString(text); err == nil {
			return decoded, true
		}
		return []byte(text), true
	}

	// Not a JSON string: keep the raw value bytes.
	return []byte(raw), true
}
