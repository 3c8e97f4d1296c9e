package appliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Appliance represents a client for the face-recognition appliance REST API
type Appliance struct {
	URL        string
	parsedURL  *url.URL
	httpClient *http.Client
	captureDir string
}

// resolveURL builds a full URL from the base appliance URL and an endpoint.
// The endpoint is a relative, already escaped path (e.g. "api/users/john%20doe").
func (a *Appliance) resolveURL(endpoint string) string {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return a.parsedURL.JoinPath(endpoint).String()
	}
	return a.parsedURL.ResolveReference(ref).String()
}

// userEndpoint returns the endpoint addressing a single enrolled user by name.
func userEndpoint(name string) string {
	return "api/users/" + url.PathEscape(name)
}

// readErrorBody reads the response body for error messages.
// Returns empty string if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// errorMessage extracts the server-supplied message from an error body.
// The appliance answers with {"error": "..."} or {"success": false, "error": "..."};
// anything else is returned trimmed as-is.
func errorMessage(body string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(body)
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (a *Appliance) SetCaptureDir(dir string) error {
	if dir == "" {
		a.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	a.captureDir = dir
	return nil
}

// SetTimeout bounds every request issued by the client.
// Zero keeps the transport default (no overall deadline).
func (a *Appliance) SetTimeout(timeout time.Duration) {
	a.httpClient = &http.Client{Timeout: timeout}
}

// captureResponse saves the API response body to a file if capturing is enabled.
// The filename is generated from the endpoint name and a timestamp.
func (a *Appliance) captureResponse(endpoint string, body []byte) {
	if a.captureDir == "" {
		return
	}

	// Sanitize endpoint for filename
	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.ReplaceAll(filename, "%", "")
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(a.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}

// NewAppliance creates a new appliance client
func NewAppliance(rawURL string) (*Appliance, error) {
	return NewApplianceWithCapture(rawURL, "")
}

// NewApplianceWithCapture creates a new appliance client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewApplianceWithCapture(rawURL, captureDir string) (*Appliance, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("appliance URL is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid appliance URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid appliance URL %q: scheme must be http or https", rawURL)
	}
	// Endpoints are resolved relative to the base, so it has to end with a slash.
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/"
	parsed.RawPath = ""

	a := &Appliance{URL: strings.TrimRight(rawURL, "/"), parsedURL: parsed, httpClient: http.DefaultClient}
	if captureDir != "" {
		if err := a.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// VideoFeedURL returns the URL of the continuously updating camera frame stream.
func (a *Appliance) VideoFeedURL() string {
	return a.resolveURL("video_feed")
}
