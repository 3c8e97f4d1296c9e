package appliance

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures where the request could not complete
// (connection refused, reset, timeout, unreadable body).
var ErrTransport = errors.New("appliance unreachable")

// ErrUnexpectedShape is returned when a response decodes as JSON but not in
// any of the shapes the appliance is known to produce.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// APIError is a failure reported by the appliance: either a non-2xx status or
// a 2xx reply carrying {"success": false, "error": "..."}.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed with status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Message)
}

// rejected builds the APIError for a 2xx reply whose payload says success=false.
func rejected(method, endpoint, message string) *APIError {
	if message == "" {
		message = "request rejected by appliance"
	}
	return &APIError{Method: method, Endpoint: endpoint, StatusCode: http.StatusOK, Message: message}
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ServerMessage returns the appliance-supplied message carried by err,
// or err.Error() when the failure did not come from the appliance.
func ServerMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
