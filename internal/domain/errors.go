package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport indicates that an upstream could not be reached or answered non-2xx.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates that an upstream answered with unusable content.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrServiceUnavailable indicates that an external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAllProxiesFailed indicates that every transport adapter in a chain failed.
	ErrAllProxiesFailed = errors.New("all proxies failed")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// TransportError describes a failed request to a single endpoint.
// StatusCode is 0 when no HTTP response was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport failure via %s: status %d", e.Endpoint, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("transport failure via %s: %v", e.Endpoint, e.Cause)
	}
	return fmt.Sprintf("transport failure via %s", e.Endpoint)
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError describes an upstream payload that could not be used.
type MalformedResponseError struct {
	Source string
	Reason string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Source, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// ExternalAPIError provides details about an external API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Is matches ErrServiceUnavailable.
func (e *ExternalAPIError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewTransportError creates a new TransportError.
func NewTransportError(endpoint string, statusCode int, cause error) *TransportError {
	return &TransportError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewMalformedResponseError creates a new MalformedResponseError.
func NewMalformedResponseError(source, reason string) *MalformedResponseError {
	return &MalformedResponseError{
		Source: source,
		Reason: reason,
	}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
