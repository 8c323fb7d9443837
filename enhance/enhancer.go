package enhance

import (
	"context"
	"fmt"
	"strings"

	"creative_backend/logging"

	"go.uber.org/zap"
)

// instructionTemplate steers the text-generation model toward vivid,
// generation-ready prompt rewrites.
const instructionTemplate = `You are a creative assistant that enhances image generation prompts.
Take the user's simple request and expand it into a detailed, vivid description that would
produce stunning visual results. Focus on:
- Visual details (lighting, composition, colors, textures)
- Artistic style and mood
- Technical photography/art terms
- Environmental context

Keep the core idea but make it more descriptive and artistic.`

// Enhancer elaborates user prompts through a Provider. It never returns an
// error: any provider failure logs a warning and falls open to the original
// prompt so the pipeline always has something to generate from.
type Enhancer struct {
	provider Provider
	logger   *logging.Logger
}

// NewEnhancer wires a provider and logger together.
func NewEnhancer(provider Provider, logger *logging.Logger) *Enhancer {
	return &Enhancer{provider: provider, logger: logger}
}

// Enhance returns an elaborated version of prompt, optionally seeded with
// historyContext built from similar past requests. On any failure (timeout,
// transport error, non-success status, empty response) the original prompt
// is returned unchanged.
func (e *Enhancer) Enhance(ctx context.Context, prompt string, historyContext string) string {
	request := buildPrompt(prompt, historyContext)

	response, err := e.provider.Complete(ctx, request)
	if err != nil {
		e.logger.Warn("prompt enhancement failed, using original prompt",
			zap.String("provider", e.provider.Name()),
			zap.Error(err),
		)
		return prompt
	}

	enhanced := strings.TrimSpace(response)
	if enhanced == "" {
		e.logger.Warn("prompt enhancement returned empty text, using original prompt",
			zap.String("provider", e.provider.Name()),
		)
		return prompt
	}

	return enhanced
}

// buildPrompt combines the fixed instruction template, an optional context
// block, and the user request into a single completion prompt.
func buildPrompt(prompt string, historyContext string) string {
	system := instructionTemplate
	if historyContext != "" {
		system += fmt.Sprintf("\n\nContext from previous interactions: %s", historyContext)
	}
	return fmt.Sprintf("System: %s\n\nUser request: %s\n\nEnhanced prompt:", system, prompt)
}
