package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConnectivityChecker_CheckServiceConnectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tests := []struct {
		name        string
		serviceURL  string
		wantReach   bool
		wantMessage string
	}{
		{
			name:       "valid reachable service",
			serviceURL: server.URL,
			wantReach:  true,
		},
		{
			name:        "invalid URL format - no scheme",
			serviceURL:  "not-a-valid-url",
			wantReach:   false,
			wantMessage: "Invalid URL format",
		},
		{
			name:        "empty URL",
			serviceURL:  "",
			wantReach:   false,
			wantMessage: "Invalid URL format",
		},
		{
			name:        "unreachable service",
			serviceURL:  "http://localhost:59999", // unlikely to be in use
			wantReach:   false,
			wantMessage: "Connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConnectivityChecker().WithTimeout(2 * time.Second)
			result := c.CheckServiceConnectivity(context.Background(), tt.serviceURL)

			if result.Reachable != tt.wantReach {
				t.Errorf("CheckServiceConnectivity() Reachable = %v, want %v", result.Reachable, tt.wantReach)
			}

			if tt.wantMessage != "" && result.Message != tt.wantMessage {
				t.Errorf("CheckServiceConnectivity() Message = %q, want %q", result.Message, tt.wantMessage)
			}

			if !tt.wantReach && result.Error == nil {
				t.Error("CheckServiceConnectivity() expected error for unreachable service")
			}
		})
	}
}

func TestConnectivityChecker_ErrorStatusIsStillReachable(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"401 Unauthorized", http.StatusUnauthorized},
		{"404 Not Found", http.StatusNotFound},
		{"500 Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			c := NewConnectivityChecker()
			result := c.CheckServiceConnectivity(context.Background(), server.URL)

			if !result.Reachable {
				t.Errorf("status %d should count as reachable", tt.statusCode)
			}
			if result.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestConnectivityChecker_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewConnectivityChecker().WithTimeout(100 * time.Millisecond)
	result := c.CheckServiceConnectivity(context.Background(), server.URL)

	if result.Reachable {
		t.Error("Expected timeout to make service appear unreachable")
	}
}

func TestConnectivityChecker_HTTPSServer(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Without allowing self-signed certs, the TLS handshake fails.
	c := NewConnectivityChecker().WithTimeout(2 * time.Second)
	if c.CheckServiceConnectivity(context.Background(), server.URL).Reachable {
		t.Error("Expected HTTPS with self-signed cert to fail without allowSelfSignedCerts")
	}

	c2 := NewConnectivityChecker().
		WithTimeout(2 * time.Second).
		WithAllowSelfSignedCerts(true)
	result := c2.CheckServiceConnectivity(context.Background(), server.URL)
	if !result.Reachable {
		t.Errorf("Expected HTTPS with self-signed cert to succeed with allowSelfSignedCerts: %v", result.Error)
	}
}

func TestConnectivityChecker_IsReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewConnectivityChecker().WithTimeout(2 * time.Second)

	if !c.IsReachable(context.Background(), server.URL) {
		t.Error("IsReachable() should return true for running server")
	}
	if c.IsReachable(context.Background(), "http://localhost:59999") {
		t.Error("IsReachable() should return false for unreachable server")
	}
}
