package webui

import (
	"net/http"
	"time"

	"creative_backend/logging"

	"go.uber.org/zap"
)

// LoggingMiddleware logs one line per request with method, path, status and
// duration. Paths in SkipPaths are not logged; health probes would otherwise
// dominate the log.
type LoggingMiddleware struct {
	logger    *logging.Logger
	skipPaths map[string]struct{}
}

// LoggingMiddlewareConfig configures request logging.
type LoggingMiddlewareConfig struct {
	SkipPaths []string
}

// NewLoggingMiddleware creates the middleware with the given logger.
func NewLoggingMiddleware(logger *logging.Logger, config LoggingMiddlewareConfig) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}
	return &LoggingMiddleware{
		logger:    logger,
		skipPaths: skip,
	}
}

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Handler wraps an http.Handler with request logging.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := m.skipPaths[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		m.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
