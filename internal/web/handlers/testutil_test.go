package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/database"
	"github.com/kozaktomas/face-console/internal/directory"
	"github.com/kozaktomas/face-console/internal/enrollment"
	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/kozaktomas/face-console/internal/recognition"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Appliance: config.ApplianceConfig{
			URL: "http://localhost:5000",
		},
		Poller: config.PollerConfig{
			Interval:      5 * time.Second,
			AnnounceReset: 5 * time.Second,
		},
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest creates a request with a JSON body
func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// replyJSON returns a mock endpoint answering with a fixed status and payload
func replyJSON(status int, payload any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(payload)
	}
}

// setupMockAppliance creates a mock appliance server for handler tests.
// Patterns use the net/http method syntax, e.g. "POST /api/recognize".
func setupMockAppliance(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// testServices are the console components wired to one mock appliance
type testServices struct {
	appliance  *appliance.Appliance
	poller     *poller.Poller
	trigger    *recognition.Trigger
	directory  *directory.Directory
	enrollment *enrollment.Session
	journal    *database.MemoryJournal
}

// newTestServices wires the console components against a mock appliance
func newTestServices(t *testing.T, handlers map[string]http.HandlerFunc) *testServices {
	t.Helper()

	server := setupMockAppliance(t, handlers)
	client, err := appliance.NewAppliance(server.URL)
	if err != nil {
		t.Fatalf("failed to create appliance client: %v", err)
	}

	journal := database.NewMemoryJournal(100)
	trigger := recognition.NewTrigger(client, journal, nil, nil)
	return &testServices{
		appliance:  client,
		poller:     poller.New(client, poller.Options{Journal: journal, OnSnapshot: func(s poller.Snapshot) { trigger.SetCameraActive(s.Status.CameraActive) }}),
		trigger:    trigger,
		directory:  directory.New(client, nil, nil),
		enrollment: enrollment.NewSession(client, enrollment.Options{}),
		journal:    journal,
	}
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}
