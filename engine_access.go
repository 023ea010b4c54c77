package drivegate

import (
	"drivegate/acl"
)

// CanAccess decides whether the principal may reach the path, consulting
// the snapshot's decision cache before the rule engine. The cache key is
// the principal's kind-qualified identity plus the normalized path, so an
// entry computed for one principal can never answer for another. The
// memoized answer is always identical to what the rule engine would return
// for the same snapshot.
func (e *Engine) CanAccess(p acl.Principal, path string) bool {
	if p == nil {
		return false
	}

	snap := e.snapshot()
	path = acl.NormalizePath(path)
	identity := acl.Identity(p)

	if allowed, ok := snap.decisions.Get(identity, path); ok {
		e.metrics.decisionHits.Add(1)
		return allowed
	}

	allowed := snap.policy.CanAccess(p, path)
	snap.decisions.Add(identity, path, allowed)

	e.metrics.decisionMisses.Add(1)
	if allowed {
		e.metrics.allowed.Add(1)
	} else {
		e.metrics.denied.Add(1)
	}
	return allowed
}

// Reachable reports whether any rule pattern covers the path at all,
// letting the front end distinguish unlisted paths from denied ones.
func (e *Engine) Reachable(path string) bool {
	return e.snapshot().policy.MatchAny(path)
}
