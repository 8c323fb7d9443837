package validation

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ConnectivityResult represents the result of a connectivity check.
type ConnectivityResult struct {
	Reachable  bool
	StatusCode int
	Message    string
	Latency    time.Duration
	Error      error
}

// ConnectivityChecker verifies that a remote service endpoint answers HTTP
// requests. A response with any status code counts as reachable; auth and
// payload problems surface later, at generation time.
type ConnectivityChecker struct {
	timeout              time.Duration
	allowSelfSignedCerts bool
}

// NewConnectivityChecker creates a ConnectivityChecker with a 10 second
// timeout.
func NewConnectivityChecker() *ConnectivityChecker {
	return &ConnectivityChecker{
		timeout: 10 * time.Second,
	}
}

// WithTimeout sets the timeout for connectivity checks.
func (c *ConnectivityChecker) WithTimeout(timeout time.Duration) *ConnectivityChecker {
	c.timeout = timeout
	return c
}

// WithAllowSelfSignedCerts configures whether to allow self-signed certificates.
func (c *ConnectivityChecker) WithAllowSelfSignedCerts(allow bool) *ConnectivityChecker {
	c.allowSelfSignedCerts = allow
	return c
}

// CheckServiceConnectivity tests whether a service base URL is reachable
// using an HTTP GET request.
func (c *ConnectivityChecker) CheckServiceConnectivity(ctx context.Context, serviceURL string) ConnectivityResult {
	parsed, err := url.Parse(serviceURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ConnectivityResult{
			Reachable: false,
			Message:   "Invalid URL format",
			Error:     fmt.Errorf("invalid service URL %q", serviceURL),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL, nil)
	if err != nil {
		return ConnectivityResult{
			Reachable: false,
			Message:   "Failed to create request",
			Error:     err,
		}
	}

	startTime := time.Now()
	resp, err := c.createHTTPClient().Do(req)
	latency := time.Since(startTime)

	if err != nil {
		message := "Connection failed"
		if ctx.Err() == context.DeadlineExceeded {
			message = fmt.Sprintf("Connection timed out after %v", c.timeout)
		}
		return ConnectivityResult{
			Reachable: false,
			Message:   message,
			Latency:   latency,
			Error:     err,
		}
	}
	defer resp.Body.Close()

	// Any HTTP response means the host is up. 4xx/5xx still proves the
	// service answers; generation calls report their own errors.
	return ConnectivityResult{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Service reachable (status: %d)", resp.StatusCode),
		Latency:    latency,
	}
}

// IsReachable reports whether the service responds at all.
func (c *ConnectivityChecker) IsReachable(ctx context.Context, serviceURL string) bool {
	return c.CheckServiceConnectivity(ctx, serviceURL).Reachable
}

// createHTTPClient creates an HTTP client with the configured TLS settings.
func (c *ConnectivityChecker) createHTTPClient() *http.Client {
	client := &http.Client{
		Timeout: c.timeout,
	}
	if c.allowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}
