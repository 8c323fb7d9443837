package logging

import (
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedPlaceholder replaces detected secrets in log output.
const RedactedPlaceholder = "[REDACTED]"

// secretPatterns matches credential shapes that must never reach the logs:
// OpenAI-style keys, bearer tokens, and key=value secret assignments.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)(api_?key|token|secret|password)\s*[:=]\s*[^\s,;]{8,}`),
}

// RedactString replaces any detected secret substrings with the placeholder.
func RedactString(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, RedactedPlaceholder)
	}
	return s
}

// redactFields sanitizes string-valued zap fields before they are encoded.
func redactFields(fields []zap.Field) []zap.Field {
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			fields[i] = zap.String(f.Key, RedactString(f.String))
		}
	}
	return fields
}
