package drivegate

import (
	"time"

	"drivegate/internal/authz"
)

// Config assembles the engine's tuning knobs. Zero values fall back to the
// defaults from [DefaultConfig] during [Builder.Build].
type Config struct {
	ACL      ACLConfig
	Auth     AuthConfig
	Graph    GraphConfig
	Cache    CacheConfig
	Security SecurityConfig
}

// ACLConfig locates the declarative policy source.
type ACLConfig struct {
	// Path is the YAML policy file. Optional when an ACL is supplied
	// programmatically via [Builder.WithACL]; required for
	// [Engine.ReloadACL].
	Path string
}

// AuthConfig configures the OAuth2 token lifecycle. An empty ClientID
// builds an authorization-only engine with no Graph access (used by the
// check command).
type AuthConfig struct {
	ClientID  string
	TenantID  string
	Scopes    []string
	CacheFile string
	// Authority overrides the identity platform base URL (tests).
	Authority    string
	ExpiryMargin time.Duration
	Timeout      time.Duration
}

// GraphConfig configures the remote file store client.
type GraphConfig struct {
	// BaseURL overrides the Graph endpoint (tests).
	BaseURL string
}

// CacheConfig bounds the engine's memoization layers.
type CacheConfig struct {
	// Decisions bounds the per-snapshot access decision cache.
	Decisions int
	// VerifiedCredentials bounds the cache of already-confirmed
	// credential pairs that skip argon2 recomputation.
	VerifiedCredentials int
}

// SecurityConfig tunes the optional Redis failed-verification throttle.
// It only takes effect when a Redis client is supplied via
// [Builder.WithRedis].
type SecurityConfig struct {
	MaxVerifyAttempts int
	VerifyCooldown    time.Duration
	EnableIPThrottle  bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Auth: AuthConfig{
			Scopes:       []string{"User.Read", "Files.Read"},
			ExpiryMargin: 5 * time.Minute,
			Timeout:      30 * time.Second,
		},
		Cache: CacheConfig{
			Decisions:           authz.DefaultSize,
			VerifiedCredentials: 128,
		},
		Security: SecurityConfig{
			MaxVerifyAttempts: 10,
			VerifyCooldown:    time.Minute,
			EnableIPThrottle:  true,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Auth.Scopes == nil {
		c.Auth.Scopes = def.Auth.Scopes
	}
	if c.Auth.ExpiryMargin <= 0 {
		c.Auth.ExpiryMargin = def.Auth.ExpiryMargin
	}
	if c.Auth.Timeout <= 0 {
		c.Auth.Timeout = def.Auth.Timeout
	}
	if c.Cache.Decisions <= 0 {
		c.Cache.Decisions = def.Cache.Decisions
	}
	if c.Cache.VerifiedCredentials <= 0 {
		c.Cache.VerifiedCredentials = def.Cache.VerifiedCredentials
	}
	if c.Security.MaxVerifyAttempts <= 0 {
		c.Security.MaxVerifyAttempts = def.Security.MaxVerifyAttempts
	}
	if c.Security.VerifyCooldown <= 0 {
		c.Security.VerifyCooldown = def.Security.VerifyCooldown
	}
}
