// Package drivegate is the core of a web gateway that exposes a OneDrive
// share behind a rule-based access policy. It glues three concerns
// together: the ACL rule engine ([drivegate/acl]), a memoized access
// decision layer with a credential resolver, and the OAuth2 token lifecycle
// ([drivegate/msauth]) that keeps every outbound Graph call authenticated.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Policy snapshots
//
// The engine never mutates a live ACL. The ACL, its decision cache, and the
// verified-credential cache travel together in one immutable snapshot;
// [Engine.SetACL] publishes a new snapshot atomically, so a hot reload can
// never serve a decision cached under the previous policy.
//
// # Architecture boundaries
//
// drivegate is the public surface: [Engine], [Builder], [Config], and the
// metrics types. Path matching and rule semantics live in acl, token
// handling in msauth, the Graph client in graph, and the HTTP front end in
// web. The caches and the Redis throttle live under internal/ and are never
// exported.
package drivegate
