package modaics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/modaics/modaics-go/internal/auth"
	"github.com/modaics/modaics-go/internal/store"
	"github.com/modaics/modaics-go/internal/transport"
	internalTypes "github.com/modaics/modaics-go/internal/types"
)

// Logger interface for logging
type Logger = internalTypes.Logger

// RetryPolicy configures retry behavior per request or client-wide.
type RetryPolicy = internalTypes.RetryPolicy

// Hooks provides request lifecycle hooks.
type Hooks = internalTypes.Hooks

// Connectivity reports network reachability.
type Connectivity = internalTypes.Connectivity

// Session identifies the signed-in user.
type Session = internalTypes.Session

// IdentityProvider exchanges a session for bearer tokens.
type IdentityProvider = auth.IdentityProvider

// Transport executes API requests.
type Transport interface {
	Execute(ctx context.Context, req *internalTypes.Request, result interface{}) error
	Cancel(endpoint string)
	CancelAll()
}

// Client is the Modaics API client.
type Client struct {
	// Service interfaces
	Search      SearchService
	Analysis    AnalysisService
	Items       ItemService
	Sketchbooks SketchbookService
	Payments    PaymentService
	Health      HealthService

	// Realtime is the push event channel. Nil when no websocket URL is
	// configured.
	Realtime *RealtimeClient

	// Internal fields
	mu        sync.RWMutex
	transport Transport
	configs   *ConfigProvider
	auth      *auth.Manager
	store     *store.Store
	options   *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// Environment selects the backend. Overridden by Config/ConfigFile.
	// When empty, a persisted selection (see StorePath) or Production is
	// used.
	Environment Environment

	// ConfigFile is an optional TOML override file.
	ConfigFile string

	// Config overrides environment resolution entirely.
	Config *Config

	// StorePath enables the durable preference store and offline queue.
	StorePath string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout overrides the config's default request timeout.
	Timeout time.Duration

	// Logger for debug logging
	Logger Logger

	// RetryPolicy overrides the config's default retry policy.
	RetryPolicy *RetryPolicy

	// Identity supplies bearer tokens once a session is installed.
	Identity IdentityProvider

	// Connectivity gates requests on reachability. Optional.
	Connectivity Connectivity

	// Hooks for observability
	Hooks *Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// NewClient creates a new Modaics client. It is the composition root: all
// state lives on the returned value, never in package globals.
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = string(Production)
		}
		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail client creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	c := &Client{options: opts}

	if opts.StorePath != "" {
		st, err := store.Open(opts.StorePath)
		if err != nil {
			return nil, err
		}
		c.store = st
	}

	cfg, err := resolveConfig(opts, c.store)
	if err != nil {
		if c.store != nil {
			_ = c.store.Close()
		}
		return nil, err
	}
	c.configs = NewConfigProvider(cfg)

	c.auth = auth.NewManager(opts.Identity, opts.Logger)

	c.transport = c.buildTransport(cfg)
	c.Realtime = c.buildRealtime(cfg)

	c.initServices()

	// Environment changes only affect subsequent requests: the old
	// transport keeps serving whatever is in flight.
	c.configs.OnChange(func(next *Config) {
		rt := c.buildRealtime(next)
		c.mu.Lock()
		c.transport = c.buildTransport(next)
		old := c.Realtime
		c.Realtime = rt
		c.mu.Unlock()
		if old != nil {
			old.Disconnect()
		}
	})

	return c, nil
}

// resolveConfig applies precedence: explicit Config, then ConfigFile, then
// the Environment option, then the persisted selection, then Production.
func resolveConfig(opts *ClientOptions, st *store.Store) (*Config, error) {
	if opts.Config != nil {
		return opts.Config, nil
	}

	env := opts.Environment
	if env == "" && st != nil {
		if saved, err := st.Environment(); err == nil && saved != "" {
			env = Environment(saved)
		}
	}
	if !env.Valid() {
		env = Production
	}

	if opts.ConfigFile != "" {
		return LoadConfigFile(opts.ConfigFile, env)
	}
	return ConfigFor(env), nil
}

func (c *Client) buildTransport(cfg *Config) Transport {
	timeout := cfg.DefaultTimeout
	if c.options.Timeout > 0 {
		timeout = c.options.Timeout
	}

	retry := cfg.RetryPolicy()
	if c.options.RetryPolicy != nil {
		retry = c.options.RetryPolicy
	}

	return transport.New(&transport.Options{
		BaseURL:      cfg.BaseURL,
		HTTPClient:   c.options.HTTPClient,
		Retry:        retry,
		Timeout:      timeout,
		Tokens:       c.auth,
		Connectivity: c.options.Connectivity,
		Logger:       c.options.Logger,
		LogRequests:  cfg.LoggingEnabled,
		Hooks:        c.wrapHooks(),
	})
}

func (c *Client) buildRealtime(cfg *Config) *RealtimeClient {
	if cfg.WebSocketURL == "" {
		return nil
	}
	return NewRealtimeClient(&RealtimeOptions{
		URL:    cfg.WebSocketURL,
		Tokens: c.auth,
		Logger: c.options.Logger,
	})
}

// wrapHooks layers Sentry capture over the caller's hooks.
func (c *Client) wrapHooks() *Hooks {
	user := c.options.Hooks
	sentryEnabled := c.options.SentryDSN != "" || c.options.SentryOptions != nil

	if user == nil && !sentryEnabled {
		return nil
	}

	return &Hooks{
		OnRequest: func(ctx context.Context, req *http.Request) {
			if user != nil && user.OnRequest != nil {
				user.OnRequest(ctx, req)
			}
		},
		OnResponse: func(ctx context.Context, resp *http.Response, duration time.Duration) {
			if user != nil && user.OnResponse != nil {
				user.OnResponse(ctx, resp, duration)
			}
		},
		OnError: func(ctx context.Context, err error) {
			if sentryEnabled {
				if hub := sentry.GetHubFromContext(ctx); hub != nil {
					hub.CaptureException(err)
				} else {
					sentry.CaptureException(err)
				}
			}
			if user != nil && user.OnError != nil {
				user.OnError(ctx, err)
			}
		},
	}
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	cfg := c.configs.Config()
	c.Search = &searchService{
		client: c,
		cache:  newResponseCache(cfg.CacheTTL, cfg.CacheMaxEntries),
	}
	c.Analysis = &analysisService{client: c}
	c.Items = &itemService{client: c}
	c.Sketchbooks = &sketchbookService{
		client: c,
		cache:  newResponseCache(cfg.CacheTTL, cfg.CacheMaxEntries),
	}
	c.Payments = &paymentService{client: c}
	c.Health = &healthService{client: c}
}

// t returns the active transport.
func (c *Client) t() Transport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}

// realtime returns the active realtime client. Environment changes swap it
// under the same lock.
func (c *Client) realtime() *RealtimeClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Realtime
}

func (c *Client) config() *Config {
	return c.configs.Config()
}

func (c *Client) logger() Logger {
	return c.options.Logger
}

// SignIn installs the session obtained from the identity provider and
// eagerly warms the token cache.
func (c *Client) SignIn(userID, email string) {
	c.auth.SetSession(&Session{UserID: userID, Email: email})
}

// SignOut clears the session and token cache and closes the realtime
// channel.
func (c *Client) SignOut() {
	c.auth.ClearSession()
	if rt := c.realtime(); rt != nil {
		rt.Disconnect()
	}
}

// OnTokenRefresh registers a callback fired after each token refresh.
func (c *Client) OnTokenRefresh(fn func(token string)) {
	c.auth.OnRefresh(fn)
}

// Environment returns the active environment.
func (c *Client) Environment() Environment {
	return c.config().Environment
}

// SetEnvironment switches environments for subsequent requests, persisting
// the selection when a store is configured.
func (c *Client) SetEnvironment(env Environment) error {
	if err := c.configs.SetEnvironment(env); err != nil {
		return err
	}
	if c.store != nil {
		return c.store.SetEnvironment(string(env))
	}
	return nil
}

// CancelRequest cancels all in-flight requests for an endpoint identity.
func (c *Client) CancelRequest(endpoint string) {
	c.t().Cancel(endpoint)
}

// CancelAllRequests cancels every in-flight request.
func (c *Client) CancelAllRequests() {
	c.t().CancelAll()
}

// Close flushes any pending Sentry events and releases resources.
func (c *Client) Close() error {
	if rt := c.realtime(); rt != nil {
		rt.Disconnect()
	}
	sentry.Flush(2 * time.Second)
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
