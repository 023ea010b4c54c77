package drivegate

import "sync/atomic"

// metrics holds the engine's own counters; token lifecycle counters live in
// the msauth manager and are merged into the snapshot.
type metrics struct {
	decisionHits    atomic.Uint64
	decisionMisses  atomic.Uint64
	allowed         atomic.Uint64
	denied          atomic.Uint64
	verifiedHits    atomic.Uint64
	verifyFailures  atomic.Uint64
	verifyThrottled atomic.Uint64
	aclReloads      atomic.Uint64
}

func newMetrics() *metrics { return &metrics{} }

// MetricsSnapshot is a point-in-time view of the engine counters.
type MetricsSnapshot struct {
	DecisionCacheHits   uint64
	DecisionCacheMisses uint64
	Allowed             uint64
	Denied              uint64
	VerifiedCacheHits   uint64
	VerifyFailures      uint64
	VerifyThrottled     uint64
	ACLReloads          uint64

	TokenRefreshes  uint64
	RefreshFailures uint64
	DeviceFlows     uint64
	RetriedRequests uint64
}

// MetricsSnapshot returns the current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		DecisionCacheHits:   e.metrics.decisionHits.Load(),
		DecisionCacheMisses: e.metrics.decisionMisses.Load(),
		Allowed:             e.metrics.allowed.Load(),
		Denied:              e.metrics.denied.Load(),
		VerifiedCacheHits:   e.metrics.verifiedHits.Load(),
		VerifyFailures:      e.metrics.verifyFailures.Load(),
		VerifyThrottled:     e.metrics.verifyThrottled.Load(),
		ACLReloads:          e.metrics.aclReloads.Load(),
	}
	if e.tokens != nil {
		ts := e.tokens.Stats()
		s.TokenRefreshes = ts.Refreshes
		s.RefreshFailures = ts.RefreshFailures
		s.DeviceFlows = ts.DeviceFlows
		s.RetriedRequests = ts.RetriedRequests
	}
	return s
}
