package drivegate

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"drivegate/acl"
	"drivegate/graph"
	"drivegate/internal/authz"
	"drivegate/internal/rate"
	"drivegate/msauth"
)

// Engine is the gateway core: access decisions, credential resolution, and
// the handles to the authenticated Graph client. Engines are built through
// [Builder.Build] and are safe for concurrent use.
type Engine struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics
	limiter *rate.Limiter
	tokens  *msauth.Manager
	drive   *graph.Client

	snap atomic.Pointer[snapshot]
}

// snapshot binds one immutable policy to the caches scoped to it. Swapping
// the snapshot discards both caches with it, so no cached decision or
// verified credential can outlive the rules that produced it.
type snapshot struct {
	policy    *acl.ACL
	decisions *authz.Cache
	verified  *lru.Cache[string, struct{}]
}

func (e *Engine) snapshot() *snapshot { return e.snap.Load() }

// ACL returns the current policy snapshot.
func (e *Engine) ACL() *acl.ACL { return e.snapshot().policy }

// ACLStats returns counts for the current policy, including rules dropped
// at load for naming unknown principals.
func (e *Engine) ACLStats() acl.Stats { return e.snapshot().policy.Stats() }

// SetACL publishes a new policy. The decision and verified-credential
// caches are rebuilt in the same atomic step; in-flight requests finish
// against the snapshot they started with.
func (e *Engine) SetACL(policy *acl.ACL) {
	size := e.config.Cache.VerifiedCredentials
	if size < 1 {
		size = DefaultConfig().Cache.VerifiedCredentials
	}
	verified, _ := lru.New[string, struct{}](size)
	e.snap.Store(&snapshot{
		policy:    policy,
		decisions: authz.NewCache(e.config.Cache.Decisions),
		verified:  verified,
	})
}

// ReloadACL rebuilds the policy from Config.ACL.Path and publishes it. The
// previous snapshot stays in service if the load fails.
func (e *Engine) ReloadACL() error {
	if e.config.ACL.Path == "" {
		return fmt.Errorf("no ACL path configured")
	}
	policy, err := acl.Load(e.config.ACL.Path)
	if err != nil {
		return err
	}
	e.SetACL(policy)
	e.metrics.aclReloads.Add(1)

	stats := policy.Stats()
	e.logger.Info("acl reloaded",
		"users", stats.Users,
		"groups", stats.Groups,
		"rules", stats.Rules,
		"dropped_rules", stats.DroppedRules,
	)
	return nil
}

// Tokens returns the token lifecycle manager, or nil for an
// authorization-only engine.
func (e *Engine) Tokens() *msauth.Manager { return e.tokens }

// Drive returns the authenticated Graph client, or nil for an
// authorization-only engine.
func (e *Engine) Drive() *graph.Client { return e.drive }
