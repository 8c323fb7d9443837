package webui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creative_backend/logging"
	"creative_backend/pipeline"
)

func newTestServer(t *testing.T) (*Server, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{result: pipeline.Result{RunID: "run-1"}}
	api := newTestAPI(runner, &fakeHistory{}, nil)

	cfg := DefaultServerConfig()
	cfg.Port = 0
	return NewServer(cfg, api, logging.NewNop()), runner
}

// TestServerRoutes verifies the mux wires every endpoint.
func TestServerRoutes(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/api/generate", `{"prompt":"x"}`, http.StatusOK},
		{http.MethodGet, "/api/history", "", http.StatusOK},
		{http.MethodGet, "/api/history/search?q=x", "", http.StatusOK},
		{http.MethodPost, "/api/history/clear", "", http.StatusOK},
		{http.MethodGet, "/api/preview?name=x.png", "", http.StatusNotFound},
		{http.MethodGet, "/api/status", "", http.StatusNotFound},
	}

	client := ts.Client()
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

// TestServerHealth verifies the health endpoint payload.
func TestServerHealth(t *testing.T) {
	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

// TestServerShutdown verifies Start unblocks after Shutdown.
func TestServerShutdown(t *testing.T) {
	server, _ := newTestServer(t)

	done := make(chan error, 1)
	go func() {
		done <- server.Start()
	}()

	// Give the listener a moment to come up before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error after shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Shutdown()")
	}
}
