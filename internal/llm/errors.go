package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (e.g., "openai", "anthropic").
	Provider string
	// StatusCode is the HTTP status code returned by the API.
	// Zero means no HTTP response was received.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error type classification from the API.
	Type string
	// Code is the provider-specific error code (if available).
	Code string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient returns true if the error may succeed on retry: rate limiting
// (429), server errors (5xx) and network errors (StatusCode 0).
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// ErrorType classifies err into a low-cardinality label for metrics.
func ErrorType(err error) string {
	if errors.Is(err, ErrEmptyResponse) {
		return "empty_response"
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "other"
	}
	switch {
	case apiErr.StatusCode == 0:
		return "network_error"
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
		return "auth_error"
	case apiErr.StatusCode >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

func networkError(provider string, err error) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: 0,
		Message:    fmt.Sprintf("request failed: %v", err),
		Type:       "network_error",
	}
}
