package types

import (
	"context"
	"net/http"
	"time"
)

// Session identifies the signed-in user. Bearer tokens are never stored on
// the session; they live in the auth manager's short-lived cache.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryPolicy configures retry behavior for a request.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `json:"maxAttempts"`

	// BaseDelay is the delay before the first retry. Each subsequent retry
	// doubles it, capped at MaxDelay.
	BaseDelay time.Duration `json:"baseDelay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `json:"maxDelay"`

	// RetryableStatusCodes lists the HTTP status codes eligible for retry.
	RetryableStatusCodes []int `json:"retryableStatusCodes"`
}

// Retryable reports whether the policy retries the given status code.
func (p *RetryPolicy) Retryable(statusCode int) bool {
	for _, code := range p.RetryableStatusCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}

// Request describes a single API call. Created per call site, consumed once.
type Request struct {
	// Name identifies the endpoint for logging and cancellation. Defaults
	// to the path when empty.
	Name string

	// Method is the HTTP method.
	Method string

	// Path is the endpoint path relative to the base URL.
	Path string

	// Query holds URL query parameters.
	Query map[string]string

	// Body is JSON-encoded into the request body when non-nil.
	Body interface{}

	// RequiresAuth attaches a bearer token when true.
	RequiresAuth bool

	// Timeout overrides the transport's default timeout when positive.
	Timeout time.Duration

	// Retry overrides the transport's default retry policy when non-nil.
	Retry *RetryPolicy
}

// Endpoint returns the cancellation and logging identity of the request.
func (r *Request) Endpoint() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}

// Connectivity reports whether the network is believed reachable. The
// transport fails fast with an offline error when it is not.
type Connectivity interface {
	Online() bool
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)
}
