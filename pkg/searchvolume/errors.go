package searchvolume

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a provider failure.
type ErrorType string

const (
	ErrorTypeConfig    ErrorType = "config"    // Missing endpoint/credentials, raised before any network call
	ErrorTypeAuth      ErrorType = "auth"      // Provider rejected our credentials
	ErrorTypeTransport ErrorType = "transport" // Connection, timeout, or cancellation
	ErrorTypeEnvelope  ErrorType = "envelope"  // Response body did not parse
	ErrorTypeProvider  ErrorType = "provider"  // Provider answered with a failure status
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error represents a structured provider error with classification. The
// Retryable flag is advisory for external schedulers; the engine itself
// never retries a batch — failed keywords simply become eligible again.
type Error struct {
	Type       ErrorType // Classification of the failure
	Message    string    // Human-readable message
	Retryable  bool      // Whether a later attempt could succeed
	Cause      error     // Underlying error
	StatusCode int       // HTTP or provider status code if applicable
	Endpoint   string    // Endpoint URL if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether a later attempt could succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an arbitrary error from a provider call into a
// structured Error, so the refresh pipeline records a consistent status on
// every keyword of a failed batch.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var svErr *Error
	if errors.As(err, &svErr) {
		return svErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	// Authentication failures (not retryable without new credentials)
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") {
		svErr = NewError(ErrorTypeAuth, "authentication failed", false, err)
		svErr.StatusCode = statusCode
		return svErr
	}

	// Connection failures (retryable once the endpoint is reachable)
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") {
		svErr = NewError(ErrorTypeTransport, "connection failed", true, err)
		svErr.StatusCode = statusCode
		return svErr
	}

	// Timeouts and cancellation are treated identically to any other failed
	// batch: mark-as-errored, never half-applied.
	if strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled") {
		svErr = NewError(ErrorTypeTransport, "request timed out or was canceled", true, err)
		svErr.StatusCode = statusCode
		return svErr
	}

	// Rate limiting (retryable after backoff)
	if strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") {
		svErr = NewError(ErrorTypeProvider, "rate limited", true, err)
		svErr.StatusCode = statusCode
		return svErr
	}

	// 5xx server errors (retryable)
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") {
		svErr = NewError(ErrorTypeProvider, "provider server error", true, err)
		svErr.StatusCode = statusCode
		return svErr
	}

	svErr = NewError(ErrorTypeUnknown, "search-volume request failed", false, err)
	svErr.StatusCode = statusCode
	return svErr
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var svErr *Error
	if errors.As(err, &svErr) {
		return svErr.Type
	}
	return ErrorTypeUnknown
}
