// Package msauth owns the OAuth2 credential lifecycle for the Microsoft
// identity platform: device-code acquisition, silent refresh, a persisted
// token cache, and an authenticated [http.RoundTripper] used for every
// outbound Graph call.
//
// # Lifecycle
//
// A [Manager] is either unauthenticated or holds a token with an expiry.
// [Manager.EnsureValid] returns the current token untouched while its expiry
// is comfortably ahead, silently refreshes once it enters the staleness
// margin (5 minutes by default), and reports [ErrAuthenticationRequired]
// when neither is possible — at which point only the interactive
// device-code flow ([Manager.Authenticate]) can recover. A failed refresh
// discards the token entirely; it is never retried automatically.
//
// Every successful acquisition is written to the cache file with a
// write-to-temporary-then-rename so no reader observes a partial record. An
// unreadable or corrupt cache file degrades to a cold start and is never
// fatal.
//
// # Concurrency
//
// Refresh is serialized behind the manager mutex with a re-check after
// acquisition, so any number of concurrent callers observing a stale token
// trigger at most one network refresh. All network operations run under a
// bounded timeout and honor context cancellation, including device-code
// polling.
package msauth
