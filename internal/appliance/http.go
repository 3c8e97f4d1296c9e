package appliance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
// The endpoint should be the path relative to the appliance URL (e.g., "api/status").
func doGetJSON[T any](ctx context.Context, a *Appliance, endpoint string) (*T, error) {
	body, err := doRequest(ctx, a, http.MethodGet, endpoint, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response from %s: %w", endpoint, err)
	}
	return &result, nil
}

// doPostJSON performs a POST request with an optional JSON body and unmarshals the JSON response.
func doPostJSON[T any](ctx context.Context, a *Appliance, endpoint string, requestBody any) (*T, error) {
	return doRequestJSON[T](ctx, a, http.MethodPost, endpoint, requestBody, http.StatusOK)
}

// doPutJSON performs a PUT request with a JSON body and unmarshals the JSON response.
func doPutJSON[T any](ctx context.Context, a *Appliance, endpoint string, requestBody any) (*T, error) {
	return doRequestJSON[T](ctx, a, http.MethodPut, endpoint, requestBody, http.StatusOK)
}

// doDeleteJSON performs a DELETE request and returns the unmarshaled response.
func doDeleteJSON[T any](ctx context.Context, a *Appliance, endpoint string) (*T, error) {
	return doRequestJSON[T](ctx, a, http.MethodDelete, endpoint, nil, http.StatusOK)
}

// doRequestJSON is the internal helper that performs HTTP requests with JSON body and response.
// It accepts one or more valid status codes. If the response status doesn't match any, an *APIError is returned.
func doRequestJSON[T any](ctx context.Context, a *Appliance, method, endpoint string, requestBody any, expectedStatuses ...int) (*T, error) {
	body, err := doRequest(ctx, a, method, endpoint, requestBody, expectedStatuses...)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response from %s: %w", endpoint, err)
	}
	return &result, nil
}

// doRequest issues exactly one request and returns the raw response body.
// Transport failures wrap ErrTransport, unexpected statuses become *APIError.
func doRequest(ctx context.Context, a *Appliance, method, endpoint string, requestBody any, expectedStatuses ...int) ([]byte, error) {
	url := a.resolveURL(endpoint)

	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	if !isExpectedStatus(resp.StatusCode, expectedStatuses) {
		return nil, &APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(readErrorBody(resp.Body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read response body: %w", ErrTransport, err)
	}

	a.captureResponse(endpoint, body)
	return body, nil
}

// isExpectedStatus checks if a status code is in the list of expected statuses.
func isExpectedStatus(code int, expected []int) bool {
	return slices.Contains(expected, code)
}
