package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/database"
	"github.com/kozaktomas/face-console/internal/directory"
	"github.com/kozaktomas/face-console/internal/enrollment"
	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/kozaktomas/face-console/internal/recognition"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]string{"alice"})
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	client, err := appliance.NewAppliance(upstream.URL)
	if err != nil {
		t.Fatalf("failed to create appliance client: %v", err)
	}
	journal := database.NewMemoryJournal(10)

	cfg := &config.Config{
		Appliance: config.ApplianceConfig{URL: upstream.URL},
		Web:       config.WebConfig{Host: "127.0.0.1", Port: 0, AllowedOrigins: []string{"https://console.example.com"}},
	}
	server, err := NewServer(cfg, Services{
		Appliance:  client,
		Poller:     poller.New(client, poller.Options{}),
		Trigger:    recognition.NewTrigger(client, journal, nil, nil),
		Directory:  directory.New(client, nil, nil),
		Enrollment: enrollment.NewSession(client, enrollment.Options{}),
		Journal:    journal,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server
}

func serve(server *Server, method, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest(method, path, nil))
	return recorder
}

func TestRoutes_API(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method   string
		path     string
		expected int
	}{
		{"GET", "/api/v1/health", http.StatusOK},
		{"GET", "/api/v1/status", http.StatusOK},
		{"GET", "/api/v1/config", http.StatusOK},
		{"GET", "/api/v1/users", http.StatusOK},
		{"GET", "/api/v1/enrollment", http.StatusOK},
		{"GET", "/api/v1/recognition", http.StatusNoContent},
		{"GET", "/api/v1/recognitions", http.StatusOK},
		{"POST", "/api/v1/recognize", http.StatusConflict},
		{"POST", "/api/v1/enrollment/capture", http.StatusConflict},
		{"DELETE", "/api/v1/users/%20", http.StatusBadRequest},
		{"GET", "/api/v1/camera/start", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			recorder := serve(server, tc.method, tc.path)
			if recorder.Code != tc.expected {
				t.Errorf("expected status %d, got %d\nBody: %s", tc.expected, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestRoutes_SPA(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/", "/users", "/enrollment/alice"} {
		t.Run(path, func(t *testing.T) {
			recorder := serve(server, "GET", path)
			if recorder.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("expected HTML, got '%s'", ct)
			}
			if !strings.Contains(recorder.Body.String(), "Face Console") {
				t.Error("expected the console page")
			}
		})
	}

	if recorder := serve(server, "GET", "/assets/missing.js"); recorder.Code != http.StatusNotFound {
		t.Errorf("expected missing asset to be 404, got %d", recorder.Code)
	}
}

func TestServer_Middleware(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "https://console.example.com")
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "https://console.example.com" {
		t.Errorf("expected configured origin to be allowed, got '%s'", got)
	}
	if recorder.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected security headers")
	}
}
