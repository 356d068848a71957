package modaics

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/modaics/modaics-go/internal/types"
	"github.com/pkg/errors"
)

// Environment selects the backend the client talks to.
type Environment string

const (
	// Development targets a locally running backend.
	Development Environment = "development"

	// Staging targets the staging deployment.
	Staging Environment = "staging"

	// Production targets the production deployment.
	Production Environment = "production"
)

// Valid reports whether the environment is a known value.
func (e Environment) Valid() bool {
	switch e {
	case Development, Staging, Production:
		return true
	}
	return false
}

// Config resolves an environment to its endpoints, timeouts, and retry and
// cache defaults.
type Config struct {
	Environment Environment

	BaseURL        string
	WebSocketURL   string
	LoggingEnabled bool

	DefaultTimeout time.Duration
	UploadTimeout  time.Duration
	SearchTimeout  time.Duration

	MaxRetryAttempts     int
	RetryDelay           time.Duration
	MaxRetryDelay        time.Duration
	RetryableStatusCodes []int

	CacheTTL        time.Duration
	CacheMaxEntries int
}

// ConfigFor returns the default configuration for an environment.
func ConfigFor(env Environment) *Config {
	cfg := &Config{
		Environment:          env,
		DefaultTimeout:       types.DefaultTimeout,
		UploadTimeout:        types.UploadTimeout,
		SearchTimeout:        types.SearchTimeout,
		MaxRetryAttempts:     3,
		RetryDelay:           1 * time.Second,
		MaxRetryDelay:        30 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
		CacheTTL:             2 * time.Minute,
		CacheMaxEntries:      100,
	}

	switch env {
	case Development:
		cfg.BaseURL = "http://localhost:8000"
		cfg.WebSocketURL = "ws://localhost:8000/ws"
		cfg.LoggingEnabled = true
	case Staging:
		cfg.BaseURL = "https://staging-api.modaics.com"
		cfg.WebSocketURL = "wss://staging-api.modaics.com/ws"
		cfg.LoggingEnabled = true
	default:
		cfg.Environment = Production
		cfg.BaseURL = "https://api.modaics.com"
		cfg.WebSocketURL = "wss://api.modaics.com/ws"
		cfg.LoggingEnabled = false
	}

	return cfg
}

// RetryPolicy returns the environment-default retry policy.
func (c *Config) RetryPolicy() *types.RetryPolicy {
	return &types.RetryPolicy{
		MaxAttempts:          c.MaxRetryAttempts,
		BaseDelay:            c.RetryDelay,
		MaxDelay:             c.MaxRetryDelay,
		RetryableStatusCodes: append([]int(nil), c.RetryableStatusCodes...),
	}
}

// fileConfig mirrors Config with primitive duration fields, since TOML has
// no native duration type. Durations are given in seconds.
type fileConfig struct {
	Environment          string `toml:"environment"`
	BaseURL              string `toml:"base_url"`
	WebSocketURL         string `toml:"websocket_url"`
	LoggingEnabled       *bool  `toml:"logging_enabled"`
	DefaultTimeoutSecs   int    `toml:"default_timeout_secs"`
	UploadTimeoutSecs    int    `toml:"upload_timeout_secs"`
	SearchTimeoutSecs    int    `toml:"search_timeout_secs"`
	MaxRetryAttempts     int    `toml:"max_retry_attempts"`
	RetryDelaySecs       int    `toml:"retry_delay_secs"`
	MaxRetryDelaySecs    int    `toml:"max_retry_delay_secs"`
	RetryableStatusCodes []int  `toml:"retryable_status_codes"`
	CacheTTLSecs         int    `toml:"cache_ttl_secs"`
	CacheMaxEntries      int    `toml:"cache_max_entries"`
}

// LoadConfigFile reads a TOML override file and merges it over the defaults
// for the file's environment (or the given fallback when the file does not
// name one).
func LoadConfigFile(path string, fallback Environment) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	env := fallback
	if fc.Environment != "" {
		env = Environment(fc.Environment)
		if !env.Valid() {
			return nil, fmt.Errorf("unknown environment %q", fc.Environment)
		}
	}

	cfg := ConfigFor(env)
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.WebSocketURL != "" {
		cfg.WebSocketURL = fc.WebSocketURL
	}
	if fc.LoggingEnabled != nil {
		cfg.LoggingEnabled = *fc.LoggingEnabled
	}
	if fc.DefaultTimeoutSecs > 0 {
		cfg.DefaultTimeout = time.Duration(fc.DefaultTimeoutSecs) * time.Second
	}
	if fc.UploadTimeoutSecs > 0 {
		cfg.UploadTimeout = time.Duration(fc.UploadTimeoutSecs) * time.Second
	}
	if fc.SearchTimeoutSecs > 0 {
		cfg.SearchTimeout = time.Duration(fc.SearchTimeoutSecs) * time.Second
	}
	if fc.MaxRetryAttempts > 0 {
		cfg.MaxRetryAttempts = fc.MaxRetryAttempts
	}
	if fc.RetryDelaySecs > 0 {
		cfg.RetryDelay = time.Duration(fc.RetryDelaySecs) * time.Second
	}
	if fc.MaxRetryDelaySecs > 0 {
		cfg.MaxRetryDelay = time.Duration(fc.MaxRetryDelaySecs) * time.Second
	}
	if len(fc.RetryableStatusCodes) > 0 {
		cfg.RetryableStatusCodes = fc.RetryableStatusCodes
	}
	if fc.CacheTTLSecs > 0 {
		cfg.CacheTTL = time.Duration(fc.CacheTTLSecs) * time.Second
	}
	if fc.CacheMaxEntries > 0 {
		cfg.CacheMaxEntries = fc.CacheMaxEntries
	}

	return cfg, nil
}

// ConfigProvider holds the active configuration and notifies observers when
// the environment changes. Changing it never touches in-flight requests.
type ConfigProvider struct {
	mu        sync.RWMutex
	config    *Config
	observers []func(*Config)
}

// NewConfigProvider creates a provider with the given initial configuration.
func NewConfigProvider(cfg *Config) *ConfigProvider {
	if cfg == nil {
		cfg = ConfigFor(Production)
	}
	return &ConfigProvider{config: cfg}
}

// Config returns the active configuration.
func (p *ConfigProvider) Config() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// SetEnvironment switches to the defaults of the given environment and
// notifies observers.
func (p *ConfigProvider) SetEnvironment(env Environment) error {
	if !env.Valid() {
		return fmt.Errorf("unknown environment %q", env)
	}

	cfg := ConfigFor(env)

	p.mu.Lock()
	p.config = cfg
	observers := append([]func(*Config){}, p.observers...)
	p.mu.Unlock()

	for _, fn := range observers {
		fn(cfg)
	}
	return nil
}

// OnChange registers an observer invoked after every environment change.
func (p *ConfigProvider) OnChange(fn func(*Config)) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}
