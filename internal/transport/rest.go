// Package transport executes REST requests against the Modaics API with
// authentication, retry with exponential backoff, and typed error
// classification.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/modaics/modaics-go/internal/types"
	"github.com/pkg/errors"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// TokenProvider supplies bearer tokens for authenticated requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// REST executes API requests.
type REST struct {
	baseURL      string
	httpClient   *http.Client
	headers      map[string]string
	defaultRetry *types.RetryPolicy
	timeout      time.Duration
	tokens       TokenProvider
	connectivity types.Connectivity
	logger       types.Logger
	logBodies    bool
	hooks        *types.Hooks

	mu       sync.Mutex
	nextID   uint64
	inflight map[string]map[uint64]context.CancelFunc
}

// Options for the REST transport
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	Headers      map[string]string
	Retry        *types.RetryPolicy
	Timeout      time.Duration
	Tokens       TokenProvider
	Connectivity types.Connectivity
	Logger       types.Logger
	LogRequests  bool
	Hooks        *types.Hooks
}

// New creates a REST transport.
func New(opts *Options) *REST {
	if opts == nil {
		opts = &Options{}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	if opts.Retry == nil {
		opts.Retry = types.DefaultRetryPolicy()
	}

	if opts.Timeout <= 0 {
		opts.Timeout = types.DefaultTimeout
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &REST{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		httpClient:   opts.HTTPClient,
		headers:      headers,
		defaultRetry: opts.Retry,
		timeout:      opts.Timeout,
		tokens:       opts.Tokens,
		connectivity: opts.Connectivity,
		logger:       opts.Logger,
		logBodies:    opts.LogRequests,
		hooks:        opts.Hooks,
		inflight:     make(map[string]map[uint64]context.CancelFunc),
	}
}

// Execute runs the request and decodes a successful JSON response into
// result. Errors are classified into the package error taxonomy.
func (t *REST) Execute(ctx context.Context, req *types.Request, result interface{}) error {
	if t.connectivity != nil && !t.connectivity.Online() {
		return types.ErrOffline
	}

	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.timeout
	}
	ctx, cancel := context.WithTimeout(httpReq.Context(), timeout)
	defer cancel()

	id := t.register(req.Endpoint(), cancel)
	defer t.unregister(req.Endpoint(), id)

	httpReq = httpReq.WithContext(ctx)

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	if t.logger != nil && t.logBodies {
		t.logger.Debug("API request",
			"method", req.Method,
			"endpoint", req.Endpoint(),
			"headers", redactHeaders(httpReq.Header),
		)
	}

	policy := req.Retry
	if policy == nil {
		policy = t.defaultRetry
	}

	start := time.Now()
	resp, err := t.doRequest(httpReq, policy)
	duration := time.Since(start)

	if err != nil {
		classified := classifyTransportError(ctx, err)
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, classified)
		}
		return classified
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(types.ErrNetwork, err.Error())
	}

	if t.logger != nil && t.logBodies {
		t.logger.Debug("API response",
			"endpoint", req.Endpoint(),
			"status", resp.StatusCode,
			"duration", duration,
			"size", len(respBody),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := handleHTTPError(resp.StatusCode, respBody)
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, httpErr)
		}
		return httpErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			var decErr *types.DecodingError
			if errors.As(err, &decErr) {
				return decErr
			}
			return &types.DecodingError{Value: truncate(string(respBody), 200), Err: err}
		}
	}

	return nil
}

// Cancel cancels all in-flight requests for the given endpoint identity.
func (t *REST) Cancel(endpoint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, cancel := range t.inflight[endpoint] {
		cancel()
	}
}

// CancelAll cancels every in-flight request.
func (t *REST) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, calls := range t.inflight {
		for _, cancel := range calls {
			cancel()
		}
	}
}

func (t *REST) register(endpoint string, cancel context.CancelFunc) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	if t.inflight[endpoint] == nil {
		t.inflight[endpoint] = make(map[uint64]context.CancelFunc)
	}
	t.inflight[endpoint][id] = cancel
	return id
}

func (t *REST) unregister(endpoint string, id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight[endpoint], id)
	if len(t.inflight[endpoint]) == 0 {
		delete(t.inflight, endpoint)
	}
}

// buildRequest resolves the URL, encodes the body, and attaches headers.
func (t *REST) buildRequest(ctx context.Context, req *types.Request) (*http.Request, error) {
	u, err := url.Parse(t.baseURL + req.Path)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidURL, "%s%s", t.baseURL, req.Path)
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request body")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidURL, err.Error())
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	if req.RequiresAuth {
		if t.tokens == nil {
			return nil, types.ErrNotAuthenticated
		}
		token, err := t.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set(authHeaderKey, "Bearer "+token)
	}

	return httpReq, nil
}

// doRequest executes the HTTP request under the given retry policy.
func (t *REST) doRequest(req *http.Request, policy *types.RetryPolicy) (*http.Response, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = t.httpClient
	retryClient.RetryMax = policy.MaxAttempts - 1
	if retryClient.RetryMax < 0 {
		retryClient.RetryMax = 0
	}
	retryClient.RetryWaitMin = policy.BaseDelay
	retryClient.RetryWaitMax = policy.MaxDelay
	retryClient.Backoff = retryablehttp.DefaultBackoff
	retryClient.CheckRetry = checkRetry(policy)
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	if t.logger != nil {
		retryClient.Logger = &retryLogger{logger: t.logger}
	}

	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return retryClient.Do(retryReq.WithContext(req.Context()))
}

// checkRetry builds a retryablehttp.CheckRetry from a retry policy. Only
// status codes in the policy's retryable set are retried; authorization
// failures never are.
func checkRetry(policy *types.RetryPolicy) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil {
			// Transport-level errors: defer to the library's transient
			// classification (rejects cert errors, bad schemes, etc.).
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}

		if resp == nil {
			return false, nil
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return false, nil
		}

		return policy.Retryable(resp.StatusCode), nil
	}
}

// classifyTransportError maps transport failures to the error taxonomy.
func classifyTransportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(types.ErrTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		return errors.Wrap(types.ErrCancelled, err.Error())
	case ctx.Err() != nil:
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrap(types.ErrTimeout, err.Error())
		}
		return errors.Wrap(types.ErrCancelled, err.Error())
	default:
		return errors.Wrap(types.ErrNetwork, err.Error())
	}
}

// handleHTTPError maps a non-2xx status to a typed error.
func handleHTTPError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return types.ErrNotAuthenticated
	case http.StatusForbidden:
		return types.ErrForbidden
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusTooManyRequests:
		return types.ErrRateLimited
	default:
		if statusCode >= 400 && statusCode < 600 {
			return &types.Error{
				Code:       "SERVER_ERROR",
				Message:    extractErrorMessage(statusCode, body),
				StatusCode: statusCode,
				Err:        types.ErrServerError,
			}
		}
		return errors.Wrapf(types.ErrInvalidResponse, "unexpected status %d", statusCode)
	}
}

// extractErrorMessage pulls a "detail" or "message" field from a JSON error
// body, falling back to a generic phrase.
func extractErrorMessage(statusCode int, body []byte) string {
	var errResp struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}

	_ = json.Unmarshal(body, &errResp)

	msg := errResp.Detail
	if msg == "" {
		msg = errResp.Message
	}

	base := fmt.Sprintf("server error: %d", statusCode)
	if desc := http.StatusText(statusCode); desc != "" {
		base = fmt.Sprintf("server error: %d (%s)", statusCode, desc)
	}
	if msg != "" {
		base = fmt.Sprintf("%s: %s", base, msg)
	}
	return base
}

// redactHeaders copies headers with the Authorization value masked.
func redactHeaders(h http.Header) map[string]string {
	redacted := make(map[string]string, len(h))
	for k := range h {
		if strings.EqualFold(k, authHeaderKey) {
			redacted[k] = "Bearer [REDACTED]"
			continue
		}
		redacted[k] = h.Get(k)
	}
	return redacted
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
