// Package webui exposes the generation pipeline and its history over a
// small JSON HTTP API.
package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"creative_backend/artifacts"
	"creative_backend/db"
	"creative_backend/logging"
	"creative_backend/metrics"
	"creative_backend/pipeline"

	"go.uber.org/zap"
)

// PipelineRunner executes one generation run. Implemented by
// pipeline.Orchestrator.
type PipelineRunner interface {
	Run(ctx context.Context, userPrompt string, userID string) pipeline.Result
}

// HistoryReader is the read/maintenance slice of the history store used by
// the API.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]db.GenerationRecord, error)
	Search(ctx context.Context, query string, limit int) ([]db.GenerationRecord, error)
	ClearAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// PipelineAPI provides the REST handlers for generation and history.
//
// Endpoints:
//   - POST /api/generate        - run the full pipeline for a prompt
//   - GET  /api/history         - recent generation records (limit param)
//   - GET  /api/history/search  - substring search over prompts and tags
//   - POST /api/history/clear   - delete all history records
//   - GET  /api/preview         - downscaled PNG preview of a stored image
type PipelineAPI struct {
	runner       PipelineRunner
	history      HistoryReader
	store        *artifacts.Store
	metricsStore *metrics.Store
	logger       *logging.Logger
	defaultLimit int
	maxLimit     int
}

// PipelineAPIConfig configures list endpoint limits.
type PipelineAPIConfig struct {
	// DefaultLimit is the number of records returned when no limit is given.
	DefaultLimit int

	// MaxLimit caps the limit query parameter.
	MaxLimit int
}

// DefaultPipelineAPIConfig returns the default limits.
func DefaultPipelineAPIConfig() PipelineAPIConfig {
	return PipelineAPIConfig{
		DefaultLimit: 10,
		MaxLimit:     100,
	}
}

// NewPipelineAPI creates the API handlers. The artifacts store is optional;
// without it the preview endpoint reports 404.
func NewPipelineAPI(runner PipelineRunner, history HistoryReader, store *artifacts.Store, logger *logging.Logger, config PipelineAPIConfig) *PipelineAPI {
	if config.DefaultLimit < 1 {
		config.DefaultLimit = 10
	}
	if config.MaxLimit < 1 {
		config.MaxLimit = 100
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &PipelineAPI{
		runner:       runner,
		history:      history,
		store:        store,
		logger:       logger,
		defaultLimit: config.DefaultLimit,
		maxLimit:     config.MaxLimit,
	}
}

// WithMetrics enables the status endpoint's run counters.
func (api *PipelineAPI) WithMetrics(store *metrics.Store) *PipelineAPI {
	api.metricsStore = store
	return api
}

// GenerateRequest is the JSON body for POST /api/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	UserID string `json:"user_id,omitempty"`
}

// HandleGenerate handles POST /api/generate requests.
func (api *PipelineAPI) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		api.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "web"
	}

	result := api.runner.Run(r.Context(), req.Prompt, req.UserID)

	api.logger.Info("generation request completed",
		zap.String("run_id", result.RunID),
		zap.Bool("image_generated", result.ImageGenerated),
		zap.Bool("model_generated", result.ModelGenerated),
	)

	api.writeJSON(w, http.StatusOK, result)
}

// HistoryResponse is the JSON response for history list and search.
type HistoryResponse struct {
	Records []db.GenerationRecord `json:"records"`
	Count   int                   `json:"count"`
	Limit   int                   `json:"limit"`
}

// HandleHistory handles GET /api/history requests.
// Query parameters:
//   - limit: number of records to return (default: 10, max: 100)
func (api *PipelineAPI) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := api.parseLimit(r)
	records, err := api.history.ListRecent(r.Context(), limit)
	if err != nil {
		api.logger.Error("failed to list history", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	api.writeJSON(w, http.StatusOK, HistoryResponse{
		Records: records,
		Count:   len(records),
		Limit:   limit,
	})
}

// HandleHistorySearch handles GET /api/history/search requests.
// Query parameters:
//   - q: search term matched against prompts and tags (required)
//   - limit: number of records to return (default: 10, max: 100)
func (api *PipelineAPI) HandleHistorySearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		api.writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	limit := api.parseLimit(r)
	records, err := api.history.Search(r.Context(), query, limit)
	if err != nil {
		api.logger.Error("history search failed", zap.String("query", query), zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	api.writeJSON(w, http.StatusOK, HistoryResponse{
		Records: records,
		Count:   len(records),
		Limit:   limit,
	})
}

// ClearResponse is the JSON response for POST /api/history/clear.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

// HandleHistoryClear handles POST /api/history/clear requests.
func (api *PipelineAPI) HandleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := api.history.ClearAll(r.Context()); err != nil {
		api.logger.Error("failed to clear history", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}

	api.logger.Info("history cleared")
	api.writeJSON(w, http.StatusOK, ClearResponse{Cleared: true})
}

// HandlePreview handles GET /api/preview requests.
// Query parameters:
//   - name: artifact file name as stored in a record's image path (required)
//   - size: maximum preview dimension in pixels (default: 256)
func (api *PipelineAPI) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if api.store == nil {
		api.writeError(w, http.StatusNotFound, "previews not available")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" || strings.ContainsAny(name, "/\\") {
		api.writeError(w, http.StatusBadRequest, "name parameter must be a bare file name")
		return
	}

	size := artifacts.DefaultPreviewSize
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		if parsed, err := strconv.Atoi(sizeStr); err == nil && parsed > 0 {
			size = parsed
		}
	}

	png, err := api.store.PreviewPNG(api.store.PathFor(name), size)
	if err != nil {
		api.writeError(w, http.StatusNotFound, "preview unavailable")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// StatusResponse is the JSON response for GET /api/status.
type StatusResponse struct {
	metrics.Snapshot
	RecentRuns []metrics.RunRecord `json:"recent_runs,omitempty"`
}

// HandleStatus handles GET /api/status requests.
// Query parameters:
//   - runs: number of recent runs to include (default: 0)
func (api *PipelineAPI) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if api.metricsStore == nil {
		api.writeError(w, http.StatusNotFound, "metrics not available")
		return
	}

	response := StatusResponse{Snapshot: api.metricsStore.GetSnapshot()}
	if runsStr := r.URL.Query().Get("runs"); runsStr != "" {
		if runs, err := strconv.Atoi(runsStr); err == nil && runs > 0 {
			response.RecentRuns = api.metricsStore.GetRecentRuns(runs)
		}
	}

	api.writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (api *PipelineAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", api.HandleGenerate)
	mux.HandleFunc("/api/history", api.HandleHistory)
	mux.HandleFunc("/api/history/search", api.HandleHistorySearch)
	mux.HandleFunc("/api/history/clear", api.HandleHistoryClear)
	mux.HandleFunc("/api/preview", api.HandlePreview)
	mux.HandleFunc("/api/status", api.HandleStatus)
}

// parseLimit reads and clamps the limit query parameter.
func (api *PipelineAPI) parseLimit(r *http.Request) int {
	limit := api.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > api.maxLimit {
		limit = api.maxLimit
	}
	return limit
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func (api *PipelineAPI) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Best effort - headers already written
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError writes an error response.
func (api *PipelineAPI) writeError(w http.ResponseWriter, status int, message string) {
	api.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
