package core

import (
	"fmt"
)

// ConfigError represents a configuration problem with an actionable fix.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeInvalidEnhancerURL = "INVALID_ENHANCER_URL"
	ErrCodeMissingService     = "MISSING_SERVICE"
	ErrCodeInvalidRegistry    = "INVALID_REGISTRY"
	ErrCodeMissingAuth        = "MISSING_AUTH"
)

// ErrInvalidEnhancerURL returns an error for a malformed enhancer endpoint.
func ErrInvalidEnhancerURL(url string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidEnhancerURL,
		Message: fmt.Sprintf("Invalid ENHANCER_URL '%s': %s", url, reason),
		Action:  "Set ENHANCER_URL to the local text-generation endpoint (e.g., http://localhost:11434)",
	}
}

// ErrMissingService returns an error for an unset generation service identifier.
func ErrMissingService(stage string, envVar string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingService,
		Message: fmt.Sprintf("No %s generation service configured", stage),
		Action:  fmt.Sprintf("Set %s in your .env file or list the service in services.yaml", envVar),
	}
}

// ErrInvalidRegistry returns an error for an unreadable services.yaml file.
func ErrInvalidRegistry(path string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidRegistry,
		Message: fmt.Sprintf("Cannot load service registry %s: %s", path, reason),
		Action:  "Fix the YAML syntax or remove SERVICES_FILE to use environment defaults",
	}
}

// ErrMissingAuth returns an error for missing API credentials.
func ErrMissingAuth(service string, envVar string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingAuth,
		Message: fmt.Sprintf("Missing authentication credentials for %s", service),
		Action:  fmt.Sprintf("Set %s in your .env file", envVar),
	}
}
