package drivegate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"drivegate/acl"
	"drivegate/internal/rate"
	"drivegate/password"
)

// Anonymous returns the principal used for requests without a credential:
// the built-in everyone group of the current snapshot.
func (e *Engine) Anonymous() acl.Principal {
	return e.snapshot().policy.Everyone()
}

// Resolve turns a session credential of the form "username:secret" into a
// concrete principal. Every failure mode — no credential, no colon, unknown
// username, throttled, failed verification, malformed stored hash —
// collapses into the anonymous principal. No error is ever surfaced, so a
// caller probing for accounts learns nothing from the response shape.
//
// clientIP feeds the optional per-IP throttle and may be empty.
func (e *Engine) Resolve(ctx context.Context, credential, clientIP string) acl.Principal {
	snap := e.snapshot()
	anonymous := snap.policy.Everyone()

	if credential == "" {
		return anonymous
	}

	// Split on the first colon only; the secret may itself contain colons.
	username, secret, ok := strings.Cut(credential, ":")
	if !ok || username == "" {
		return anonymous
	}

	if e.limiter != nil {
		switch err := e.limiter.Allow(ctx, username, clientIP); {
		case err == nil:
		case errors.Is(err, rate.ErrLimited):
			e.metrics.verifyThrottled.Add(1)
			return anonymous
		default:
			// Throttle backend down: fail open, authorization still
			// gates every path.
			e.logger.Debug("verification throttle unavailable", "error", err)
		}
	}

	user, found := snap.policy.User(username)
	if !found {
		e.recordVerifyFailure(ctx, username, clientIP)
		return anonymous
	}

	// The verified cache only ever holds exact credential pairs that have
	// already passed argon2 once; a miss always goes through the full
	// verification below.
	key := credentialKey(credential)
	if _, ok := snap.verified.Get(key); ok {
		e.metrics.verifiedHits.Add(1)
		return user
	}

	verified, err := password.Verify(secret, user.PasswordHash())
	if err != nil || !verified {
		e.recordVerifyFailure(ctx, username, clientIP)
		return anonymous
	}

	snap.verified.Add(key, struct{}{})
	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, username, clientIP); err != nil {
			e.logger.Debug("verification throttle reset failed", "error", err)
		}
	}
	return user
}

func (e *Engine) recordVerifyFailure(ctx context.Context, username, clientIP string) {
	e.metrics.verifyFailures.Add(1)
	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, username, clientIP); err != nil {
		e.logger.Debug("verification throttle record failed", "error", err)
	}
}

// credentialKey hashes the full credential so the verified cache never
// holds a plaintext secret.
func credentialKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
