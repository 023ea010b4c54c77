package drivegate

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"drivegate/acl"
	"drivegate/graph"
	"drivegate/internal/rate"
	"drivegate/msauth"
)

// Builder wires an [Engine]. Construction is allocation-only until Build;
// Build loads the ACL file (unless one was supplied) and warm-starts the
// token manager from its cache.
type Builder struct {
	config Config
	policy *acl.ACL
	redis  *redis.Client
	logger *slog.Logger
	base   http.RoundTripper

	built bool
}

// New returns a Builder carrying [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithACL supplies a pre-built policy instead of loading Config.ACL.Path.
func (b *Builder) WithACL(policy *acl.ACL) *Builder {
	b.policy = policy
	return b
}

// WithRedis enables the failed-verification throttle.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the engine logger. Nil means slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithBaseTransport overrides the HTTP transport under the token manager
// and Graph client (tests).
func (b *Builder) WithBaseTransport(base http.RoundTripper) *Builder {
	b.base = base
	return b
}

// Build validates the configuration and assembles the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	b.config.applyDefaults()

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := b.policy
	if policy == nil {
		if b.config.ACL.Path == "" {
			return nil, errors.New("no ACL: set Config.ACL.Path or use WithACL")
		}
		var err error
		policy, err = acl.Load(b.config.ACL.Path)
		if err != nil {
			return nil, err
		}
	}

	e := &Engine{
		config:  b.config,
		logger:  logger,
		metrics: newMetrics(),
	}
	e.SetACL(policy)

	if b.redis != nil {
		e.limiter = rate.New(b.redis, rate.Config{
			MaxAttempts: b.config.Security.MaxVerifyAttempts,
			Cooldown:    b.config.Security.VerifyCooldown,
			PerIP:       b.config.Security.EnableIPThrottle,
		})
	}

	if b.config.Auth.ClientID != "" {
		tokens, err := msauth.NewManager(msauth.Config{
			ClientID:     b.config.Auth.ClientID,
			TenantID:     b.config.Auth.TenantID,
			Scopes:       b.config.Auth.Scopes,
			CacheFile:    b.config.Auth.CacheFile,
			Authority:    b.config.Auth.Authority,
			ExpiryMargin: b.config.Auth.ExpiryMargin,
			Timeout:      b.config.Auth.Timeout,
			Logger:       logger,
			Base:         b.base,
		})
		if err != nil {
			return nil, fmt.Errorf("token manager: %w", err)
		}
		e.tokens = tokens
		e.drive = graph.NewClient(tokens.Client(), b.config.Graph.BaseURL)
	}

	stats := policy.Stats()
	logger.Info("engine built",
		"users", stats.Users,
		"groups", stats.Groups,
		"rules", stats.Rules,
		"dropped_rules", stats.DroppedRules,
		"graph", e.drive != nil,
		"throttle", e.limiter != nil,
	)

	return e, nil
}
