// Package auth produces bearer tokens for authenticated requests, caching
// them and refreshing transparently before expiry.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/modaics/modaics-go/internal/types"
	"github.com/pkg/errors"
)

// IdentityProvider exchanges the active session for a fresh bearer token.
// Implementations wrap an external identity service.
type IdentityProvider interface {
	Refresh(ctx context.Context, session *types.Session) (token string, expiresAt time.Time, err error)
}

// cachedToken is valid only while now < ExpiresAt minus the refresh buffer.
type cachedToken struct {
	value     string
	expiresAt time.Time
}

// refreshCall coalesces concurrent refreshes into one in-flight operation.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// Manager owns the token cache and the active session.
type Manager struct {
	provider IdentityProvider
	logger   types.Logger

	// onRefresh is invoked after every successful refresh.
	onRefresh func(token string)

	// now is replaceable for tests.
	now func() time.Time

	mu       sync.Mutex
	session  *types.Session
	token    *cachedToken
	inflight *refreshCall
}

// NewManager creates a token manager backed by the given identity provider.
func NewManager(provider IdentityProvider, logger types.Logger) *Manager {
	return &Manager{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// OnRefresh registers a callback fired after each successful refresh.
func (m *Manager) OnRefresh(fn func(token string)) {
	m.mu.Lock()
	m.onRefresh = fn
	m.mu.Unlock()
}

// Session returns the active session, or nil.
func (m *Manager) Session() *types.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// SetSession installs the active session and eagerly refreshes the token in
// the background when the cache is absent or inside the refresh window.
// Eager refresh failures are logged, not surfaced.
func (m *Manager) SetSession(session *types.Session) {
	m.mu.Lock()
	m.session = session
	m.token = nil
	stale := session != nil
	m.mu.Unlock()

	if !stale {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), types.DefaultTimeout)
		defer cancel()
		if _, err := m.Refresh(ctx); err != nil && m.logger != nil {
			m.logger.Warn("Eager token refresh failed", "error", err)
		}
	}()
}

// ClearSession signs out: the session and cached token are dropped.
func (m *Manager) ClearSession() {
	m.mu.Lock()
	m.session = nil
	m.token = nil
	m.mu.Unlock()
}

// Token returns a valid bearer token, refreshing if the cached one is absent
// or within the refresh buffer of its expiry. Concurrent callers during
// expiry share a single in-flight refresh.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return "", types.ErrNotAuthenticated
	}

	if m.token != nil && m.now().Before(m.token.expiresAt.Add(-types.TokenRefreshBuffer)) {
		token := m.token.value
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// Refresh forces a token refresh, coalescing concurrent callers.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.session == nil || m.provider == nil {
		m.mu.Unlock()
		return "", types.ErrNotAuthenticated
	}

	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	session := m.session
	m.mu.Unlock()

	token, expiresAt, err := m.provider.Refresh(ctx, session)

	m.mu.Lock()
	m.inflight = nil
	var onRefresh func(string)
	if err != nil {
		call.err = &types.Error{
			Code:    "TOKEN_REFRESH_FAILED",
			Message: "token refresh failed",
			Err:     err,
		}
	} else {
		call.token = token
		m.token = &cachedToken{value: token, expiresAt: expiresAt}
		onRefresh = m.onRefresh
	}
	m.mu.Unlock()
	close(call.done)

	if err != nil {
		return "", call.err
	}

	if m.logger != nil {
		m.logger.Debug("Token refreshed", "expiresAt", expiresAt)
	}
	if onRefresh != nil {
		onRefresh(token)
	}
	return token, nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
}

// SetNow overrides the clock. Test hook.
func (m *Manager) SetNow(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// StaticProvider is an IdentityProvider returning a fixed token, for tools
// and examples that already hold a credential.
type StaticProvider struct {
	TokenValue string
	TTL        time.Duration
}

// Refresh implements IdentityProvider.
func (p *StaticProvider) Refresh(_ context.Context, _ *types.Session) (string, time.Time, error) {
	if p.TokenValue == "" {
		return "", time.Time{}, errors.New("no token configured")
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return p.TokenValue, time.Now().Add(ttl), nil
}
