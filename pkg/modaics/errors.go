package modaics

import (
	"errors"

	"github.com/modaics/modaics-go/internal/types"
)

// Sentinel errors forming the client-visible taxonomy. Every request
// resolves to success or exactly one of these kinds (directly or wrapped in
// an *Error carrying detail).
var (
	// ErrInvalidURL is returned when the request URL cannot be built.
	ErrInvalidURL = types.ErrInvalidURL

	// ErrNetwork is returned for transport-level failures.
	ErrNetwork = types.ErrNetwork

	// ErrInvalidResponse is returned for malformed or unexpected responses.
	ErrInvalidResponse = types.ErrInvalidResponse

	// ErrDecoding is returned when a response body cannot be decoded.
	ErrDecoding = types.ErrDecoding

	// ErrServerError is returned for server-classified failures.
	ErrServerError = types.ErrServerError

	// ErrNotAuthenticated is returned when authentication is required.
	ErrNotAuthenticated = types.ErrNotAuthenticated

	// ErrForbidden is returned when access is denied.
	ErrForbidden = types.ErrForbidden

	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = types.ErrNotFound

	// ErrRateLimited is returned when rate limited.
	ErrRateLimited = types.ErrRateLimited

	// ErrTimeout is returned on request timeout.
	ErrTimeout = types.ErrTimeout

	// ErrOffline is returned when the network is unreachable.
	ErrOffline = types.ErrOffline

	// ErrCancelled is returned when a request is cancelled.
	ErrCancelled = types.ErrCancelled

	// ErrUnknown is returned for unclassified failures.
	ErrUnknown = types.ErrUnknown
)

// Error is a structured API error carrying a code, message, and the HTTP
// status that produced it.
type Error = types.Error

// DecodingError carries the raw value that failed to decode.
type DecodingError = types.DecodingError

// NewError creates a new API error
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsAuthError checks if error is authentication related
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrForbidden)
}

// IsRetryable checks if error is retryable under the default policy.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNetwork) {
		return true
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429 || apiErr.StatusCode == 408
	}

	return false
}

// IsOffline reports whether the error is the offline classification, which
// higher-level callers use to trigger local queueing.
func IsOffline(err error) bool {
	return errors.Is(err, ErrOffline)
}
