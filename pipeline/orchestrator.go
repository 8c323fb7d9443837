// Package pipeline composes prompt enhancement, image synthesis, model
// synthesis, and history persistence into the end-to-end generation flow,
// and owns the partial-failure policy between stages.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"creative_backend/db"
	"creative_backend/genclient"
	"creative_backend/logging"
	"creative_backend/metrics"
	"creative_backend/tags"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// contextMatchLimit is how many history records are retrieved per run;
// contextUseLimit is how many of those feed the enhancement context.
const (
	contextMatchLimit = 3
	contextUseLimit   = 2
)

// HistoryStore is the slice of the history store the orchestrator needs.
type HistoryStore interface {
	Insert(ctx context.Context, record db.GenerationRecord) (int64, error)
	Search(ctx context.Context, query string, limit int) ([]db.GenerationRecord, error)
}

// Enhancer elaborates a raw prompt using history context. Implementations
// fail open: they always return a usable prompt.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string, historyContext string) string
}

// Generator performs the two remote synthesis stages.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string, userID string) genclient.AttemptResult
	GenerateModel(ctx context.Context, imageData []byte, userID string) genclient.AttemptResult
}

// Result is the structured outcome of one pipeline run. It mirrors the
// persisted record plus per-stage success flags and a single summarizing
// error message. Callers never see a raw panic or stack trace.
type Result struct {
	RunID          string   `json:"run_id"`
	UserPrompt     string   `json:"user_prompt"`
	EnhancedPrompt string   `json:"enhanced_prompt"`
	ImageGenerated bool     `json:"image_generated"`
	ModelGenerated bool     `json:"model_generated"`
	ImagePath      string   `json:"image_path,omitempty"`
	ModelPath      string   `json:"model_path,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	RecordID       int64    `json:"record_id,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Orchestrator runs the generation pipeline. Collaborators are injected;
// it holds no global state and is safe for concurrent runs (the history
// store arbitrates concurrent inserts).
type Orchestrator struct {
	store        HistoryStore
	enhancer     Enhancer
	client       Generator
	logger       *logging.Logger
	metricsStore *metrics.Store
}

// NewOrchestrator wires the pipeline's collaborators together.
func NewOrchestrator(store HistoryStore, enhancer Enhancer, client Generator, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		enhancer: enhancer,
		client:   client,
		logger:   logger,
	}
}

// WithMetrics enables run outcome recording to the given store.
func (o *Orchestrator) WithMetrics(store *metrics.Store) *Orchestrator {
	o.metricsStore = store
	return o
}

// Run executes one pipeline invocation:
//
//	history search → enhance → image → model → tags → persist
//
// Stages fail soft: enhancement falls open to the original prompt, a failed
// image stage skips model synthesis, and a failed model stage does not undo
// the image. A record is inserted for every run regardless of stage
// outcomes. Run never panics or returns an error; any unexpected failure is
// reduced to the result's Error field, since the hosting runtime has no
// retry logic of its own.
func (o *Orchestrator) Run(ctx context.Context, userPrompt string, userID string) (result Result) {
	result = Result{
		RunID:      uuid.NewString(),
		UserPrompt: userPrompt,
	}
	logger := o.logger.With(zap.String("run_id", result.RunID))
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panic recovered", zap.Any("panic", r))
			result.Error = fmt.Sprintf("pipeline failure: %v", r)
		}
		o.recordRun(result, time.Since(startTime))
	}()

	// Step 1: retrieve history context for the enhancer.
	historyContext := o.buildHistoryContext(ctx, logger, userPrompt)

	// Step 2: enhance. Never fails the pipeline.
	result.EnhancedPrompt = o.enhancer.Enhance(ctx, userPrompt, historyContext)
	logger.Debug("prompt enhanced",
		zap.String("user_prompt", userPrompt),
		zap.String("enhanced_prompt", result.EnhancedPrompt),
	)

	// Step 3: image synthesis.
	imageResult := o.client.GenerateImage(ctx, result.EnhancedPrompt, userID)
	if imageResult.Success {
		result.ImageGenerated = true
		result.ImagePath = imageResult.Path

		// Step 4: model synthesis, only from a successful image. Its
		// failure does not invalidate the image result.
		modelResult := o.client.GenerateModel(ctx, imageResult.Payload, userID)
		if modelResult.Success {
			result.ModelGenerated = true
			result.ModelPath = modelResult.Path
		} else {
			result.Error = modelResult.Err
		}
	} else {
		result.Error = imageResult.Err
	}

	// Step 5: derive tags from the enhanced prompt.
	result.Tags = tags.Extract(result.EnhancedPrompt)

	// Step 6: persist unconditionally, with whatever paths were obtained.
	id, err := o.store.Insert(ctx, db.GenerationRecord{
		UserPrompt:     userPrompt,
		EnhancedPrompt: result.EnhancedPrompt,
		ImagePath:      result.ImagePath,
		ModelPath:      result.ModelPath,
		Tags:           result.Tags,
	})
	if err != nil {
		logger.Error("failed to persist generation record", zap.Error(err))
		result.Error = joinErrors(result.Error, fmt.Sprintf("failed to save history: %v", err))
	} else {
		result.RecordID = id
	}

	logger.Info("pipeline run complete",
		zap.Bool("image_generated", result.ImageGenerated),
		zap.Bool("model_generated", result.ModelGenerated),
		zap.Int64("record_id", result.RecordID),
		zap.String("error", result.Error),
	)

	return result
}

// buildHistoryContext searches past records for the prompt and summarizes
// the most recent matches. Search failures degrade to an empty context.
func (o *Orchestrator) buildHistoryContext(ctx context.Context, logger *logging.Logger, userPrompt string) string {
	matches, err := o.store.Search(ctx, userPrompt, contextMatchLimit)
	if err != nil {
		logger.Warn("history search failed, enhancing without context", zap.Error(err))
		return ""
	}
	if len(matches) == 0 {
		return ""
	}

	if len(matches) > contextUseLimit {
		matches = matches[:contextUseLimit]
	}
	prompts := make([]string, 0, len(matches))
	for _, m := range matches {
		prompts = append(prompts, m.UserPrompt)
	}

	return fmt.Sprintf("Similar past requests: [%s]", strings.Join(prompts, ", "))
}

// recordRun reports the run outcome to the metrics store, if configured.
func (o *Orchestrator) recordRun(result Result, duration time.Duration) {
	if o.metricsStore == nil {
		return
	}
	o.metricsStore.RecordRun(metrics.RunRecord{
		RunID:      result.RunID,
		Status:     metrics.Classify(result.ImageGenerated, result.ModelGenerated),
		Duration:   duration,
		Error:      result.Error,
		FinishedAt: time.Now(),
	})
}

// joinErrors combines stage and persistence errors into one message.
func joinErrors(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}
