package validation

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"creative_backend/core"
)

func testConfig(t *testing.T, enhancerURL string) *core.Config {
	t.Helper()
	dir := t.TempDir()
	return &core.Config{
		EnhancerURL:        enhancerURL,
		TextToImageService: "image-svc",
		ImageTo3DService:   "model-svc",
		ServiceDomain:      "localhost:59999",
		OutputsDir:         filepath.Join(dir, "outputs"),
		DatabasePath:       filepath.Join(dir, "data", "history.db"),
	}
}

// TestStartupSuiteRemoteFailuresAreWarnings verifies that unreachable remote
// services do not fail the suite as long as local prerequisites hold.
func TestStartupSuiteRemoteFailuresAreWarnings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)

	var out bytes.Buffer
	result := NewStartupSuite(cfg).
		WithOutput(&out).
		WithTimeout(500 * time.Millisecond).
		Run(context.Background())

	if !result.Success {
		t.Fatalf("suite should succeed with warnings, got %+v", result)
	}
	if result.Warnings != 2 {
		t.Errorf("expected 2 warnings for the unreachable generation services, got %d", result.Warnings)
	}
	if result.FailedSteps != 0 {
		t.Errorf("no step should hard-fail, got %d", result.FailedSteps)
	}
	if result.PassedSteps != 3 {
		t.Errorf("expected outputs, database, and enhancer checks to pass, got %d", result.PassedSteps)
	}
}

// TestStartupSuiteReportNamesEveryCheck verifies the progress report lists
// each local and remote check by name.
func TestStartupSuiteReportNamesEveryCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)

	var out bytes.Buffer
	NewStartupSuite(cfg).
		WithOutput(&out).
		WithTimeout(500 * time.Millisecond).
		Run(context.Background())

	report := out.String()
	for _, name := range []string{
		"Outputs Directory",
		"Database Directory",
		"Prompt Enhancer",
		"Text-to-Image Service",
		"Image-to-3D Service",
	} {
		if !strings.Contains(report, name) {
			t.Errorf("report missing check %q:\n%s", name, report)
		}
	}
}

// TestStartupSuiteOutputsDirFailure verifies a non-writable artifact
// directory hard-fails the suite.
func TestStartupSuiteOutputsDirFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	// A path below an existing file cannot be created as a directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.OutputsDir = filepath.Join(blocker, "outputs")

	result := NewStartupSuite(cfg).
		WithShowProgress(false).
		WithTimeout(500 * time.Millisecond).
		Run(context.Background())

	if result.Success {
		t.Fatal("suite must fail when the outputs directory cannot be created")
	}
	if result.GetFirstError() == nil {
		t.Error("expected GetFirstError to surface the failure")
	}
}

// TestStepStatusString covers the status label mapping.
func TestStepStatusString(t *testing.T) {
	tests := []struct {
		status StepStatus
		want   string
	}{
		{StepPending, "pending"},
		{StepRunning, "running"},
		{StepPassed, "passed"},
		{StepFailed, "failed"},
		{StepWarning, "warning"},
		{StepSkipped, "skipped"},
		{StepStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("StepStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
