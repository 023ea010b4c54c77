package msauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultAuthority is the Microsoft identity platform endpoint base.
	DefaultAuthority = "https://login.microsoftonline.com"
	// DefaultExpiryMargin is how long before its expiry a token is already
	// considered stale and refreshed.
	DefaultExpiryMargin = 5 * time.Minute
	// DefaultTimeout bounds every token endpoint round trip.
	DefaultTimeout = 30 * time.Second
)

// Config configures a [Manager].
type Config struct {
	// ClientID is the Azure application (client) ID. Required.
	ClientID string
	// TenantID is the Azure directory (tenant) ID. Required.
	TenantID string
	// Scopes requested during the device-code flow. "offline_access" is
	// added automatically so a refresh credential is issued.
	Scopes []string
	// CacheFile is where tokens are persisted. Empty disables persistence.
	CacheFile string
	// Authority overrides the identity platform base URL (tests).
	Authority string
	// ExpiryMargin overrides [DefaultExpiryMargin].
	ExpiryMargin time.Duration
	// Timeout overrides [DefaultTimeout].
	Timeout time.Duration
	// Logger receives lifecycle transitions. Nil means slog.Default().
	Logger *slog.Logger
	// Base is the transport used for token endpoint calls and as the base
	// of [Manager.Client]. Nil means http.DefaultTransport.
	Base http.RoundTripper
}

func (c Config) endpoint() oauth2.Endpoint {
	authority := c.Authority
	if authority == "" {
		authority = DefaultAuthority
	}
	base := authority + "/" + c.TenantID + "/oauth2/v2.0"
	return oauth2.Endpoint{
		AuthURL:       base + "/authorize",
		TokenURL:      base + "/token",
		DeviceAuthURL: base + "/devicecode",
		// Public clients authenticate with client_id in the form body.
		// Pinning the style also keeps oauth2 from probing the endpoint
		// with a second request on failures.
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// Stats are cumulative counters exposed for the engine metrics snapshot.
type Stats struct {
	Refreshes       uint64
	RefreshFailures uint64
	DeviceFlows     uint64
	RetriedRequests uint64
}

// Manager owns the current token and its persisted cache. Safe for
// concurrent use.
type Manager struct {
	oauth   oauth2.Config
	cache   *fileCache
	margin  time.Duration
	timeout time.Duration
	logger  *slog.Logger
	base    http.RoundTripper

	mu    sync.Mutex
	token *oauth2.Token

	refreshes       atomic.Uint64
	refreshFailures atomic.Uint64
	deviceFlows     atomic.Uint64
	retriedRequests atomic.Uint64
}

// NewManager builds a manager and warm-starts it from the cache file. A
// corrupt or unreadable cache is logged and treated as a cold start.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("msauth: client ID is required")
	}
	if cfg.TenantID == "" {
		return nil, errors.New("msauth: tenant ID is required")
	}

	scopes := cfg.Scopes
	if !containsScope(scopes, "offline_access") {
		scopes = append(append([]string{}, scopes...), "offline_access")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	margin := cfg.ExpiryMargin
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	m := &Manager{
		oauth: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: cfg.endpoint(),
			Scopes:   scopes,
		},
		cache:   &fileCache{path: cfg.CacheFile},
		margin:  margin,
		timeout: timeout,
		logger:  logger,
		base:    base,
	}

	tok, err := m.cache.Load()
	if err != nil {
		logger.Warn("token cache unreadable, starting unauthenticated", "error", err)
	} else if tok != nil {
		m.token = tok
		logger.Debug("token cache loaded", "expires_at", tok.Expiry)
	}

	return m, nil
}

func containsScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}

// Authenticated reports whether the manager currently holds any token,
// fresh or refreshable.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != nil
}

// Stats returns the cumulative counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Refreshes:       m.refreshes.Load(),
		RefreshFailures: m.refreshFailures.Load(),
		DeviceFlows:     m.deviceFlows.Load(),
		RetriedRequests: m.retriedRequests.Load(),
	}
}

// EnsureValid returns a token whose expiry is outside the staleness margin,
// refreshing silently if needed. It returns [ErrAuthenticationRequired]
// when no token is held and no refresh credential is available.
func (m *Manager) EnsureValid(ctx context.Context) (*oauth2.Token, error) {
	return m.ensure(ctx, false)
}

// ForceRefresh refreshes regardless of the current expiry. Used by the
// transport after an unauthorized response.
func (m *Manager) ForceRefresh(ctx context.Context) (*oauth2.Token, error) {
	return m.ensure(ctx, true)
}

func (m *Manager) ensure(ctx context.Context, force bool) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-checked under the lock: a caller that queued behind a concurrent
	// refresh finds a fresh token here and triggers no second network call.
	if !force && m.usable(m.token) {
		return cloneToken(m.token), nil
	}

	if m.token == nil || m.token.RefreshToken == "" {
		return nil, ErrAuthenticationRequired
	}

	tok, err := m.refreshLocked(ctx)
	if err != nil {
		m.refreshFailures.Add(1)
		// A failed refresh invalidates the credential outright; keeping it
		// would retry a dead refresh token forever.
		m.token = nil
		if clearErr := m.cache.Clear(); clearErr != nil {
			m.logger.Warn("token cache clear failed", "error", clearErr)
		}
		m.logger.Info("token refresh failed, interactive authentication required", "error", err)
		return nil, fmt.Errorf("%w: refresh failed: %v", ErrAuthenticationRequired, err)
	}

	m.storeLocked(tok)
	m.refreshes.Add(1)
	m.logger.Debug("token refreshed", "expires_at", tok.Expiry)
	return cloneToken(m.token), nil
}

// refreshLocked performs the silent refresh network call. Caller holds mu.
func (m *Manager) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(m.httpContext(ctx), m.timeout)
	defer cancel()

	src := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: m.token.RefreshToken})
	return src.Token()
}

// storeLocked adopts a freshly acquired token and persists it. Caller holds
// mu. The previous refresh credential is kept when the server omits one.
func (m *Manager) storeLocked(tok *oauth2.Token) {
	if tok.RefreshToken == "" && m.token != nil {
		tok.RefreshToken = m.token.RefreshToken
	}
	m.token = tok
	if err := m.cache.Save(tok); err != nil {
		m.logger.Warn("token cache write failed", "error", err)
	}
}

// usable reports whether the token can be attached to a request as is. A
// zero expiry is treated as non-expiring.
func (m *Manager) usable(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return time.Until(tok.Expiry) > m.margin
}

// StartDeviceFlow requests a user code and verification URL. The caller
// displays both and then calls [Manager.CompleteDeviceFlow].
func (m *Manager) StartDeviceFlow(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	ctx, cancel := context.WithTimeout(m.httpContext(ctx), m.timeout)
	defer cancel()

	da, err := m.oauth.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device code request: %v", ErrAuthenticationFailed, err)
	}
	return da, nil
}

// CompleteDeviceFlow polls the token endpoint until the user approves
// out-of-band, the flow is denied, the device code expires, or ctx is
// canceled. On success the token is adopted and persisted.
func (m *Manager) CompleteDeviceFlow(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	// Polling is bounded by the device code's own expiry; only the caller's
	// context cuts it shorter.
	tok, err := m.oauth.DeviceAccessToken(m.httpContext(ctx), da)
	if err != nil {
		return nil, fmt.Errorf("%w: device flow: %v", ErrAuthenticationFailed, err)
	}

	m.mu.Lock()
	m.storeLocked(tok)
	m.mu.Unlock()

	m.deviceFlows.Add(1)
	m.logger.Info("device flow completed", "expires_at", tok.Expiry)
	return cloneToken(tok), nil
}

// Authenticate runs the full device-code flow, invoking prompt with the
// user code and verification URL before blocking on approval.
func (m *Manager) Authenticate(ctx context.Context, prompt func(*oauth2.DeviceAuthResponse)) error {
	da, err := m.StartDeviceFlow(ctx)
	if err != nil {
		return err
	}
	if prompt != nil {
		prompt(da)
	}
	_, err = m.CompleteDeviceFlow(ctx, da)
	return err
}

// Client returns an HTTP client whose transport attaches a valid bearer
// token to every request and retries exactly once on 401.
func (m *Manager) Client() *http.Client {
	return &http.Client{Transport: NewTransport(m.base, m)}
}

// httpContext routes oauth2's internal HTTP calls through the configured
// base transport.
func (m *Manager) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: m.base,
		Timeout:   m.timeout,
	})
}

func cloneToken(tok *oauth2.Token) *oauth2.Token {
	if tok == nil {
		return nil
	}
	clone := *tok
	return &clone
}
