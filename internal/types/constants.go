package types

import (
	"errors"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// UploadTimeout is the timeout for image upload and analysis requests.
	UploadTimeout = 120 * time.Second

	// SearchTimeout is the timeout for search requests.
	SearchTimeout = 45 * time.Second

	// TokenRefreshBuffer is subtracted from a token's expiry when deciding
	// whether it is still usable.
	TokenRefreshBuffer = 5 * time.Minute

	// UserAgent is the user agent string
	UserAgent = "modaics-go/1.0.0"
)

// DefaultRetryPolicy returns the environment-default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:          3,
		BaseDelay:            1 * time.Second,
		MaxDelay:             30 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// Common errors
var (
	// ErrInvalidURL is returned when the request URL cannot be built.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrNetwork is returned for transport-level failures.
	ErrNetwork = errors.New("network error")

	// ErrInvalidResponse is returned for malformed or unexpected responses.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrDecoding is returned when a response body cannot be decoded.
	ErrDecoding = errors.New("decoding error")

	// ErrServerError is returned for server errors
	ErrServerError = errors.New("server error")

	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden is returned when access is denied.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when resource not found
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout is returned on timeout
	ErrTimeout = errors.New("request timeout")

	// ErrOffline is returned when the network is unreachable.
	ErrOffline = errors.New("offline")

	// ErrCancelled is returned when a request is cancelled.
	ErrCancelled = errors.New("cancelled")

	// ErrUnknown is returned for unclassified failures.
	ErrUnknown = errors.New("unknown error")
)
