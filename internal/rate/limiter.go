package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLimited reports that the attempt budget for the window is spent.
	ErrLimited = errors.New("credential verification rate limited")
	// ErrUnavailable reports that Redis could not be reached; callers
	// decide whether to fail open.
	ErrUnavailable = errors.New("rate limiter backend unavailable")
)

// Config holds the throttle tuning parameters.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
	PerIP       bool
}

// Limiter counts failed verifications in fixed windows. Counters expire
// Cooldown after the first failure in a window.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a limiter backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: client, config: cfg}
}

func userKey(username string) string { return "dgv:u:" + username }
func ipKey(ip string) string         { return "dgv:ip:" + ip }

// Allow reports whether a verification attempt for the username+IP pair is
// within budget. Returns [ErrLimited] when it is not.
func (l *Limiter) Allow(ctx context.Context, username, ip string) error {
	if err := l.checkCounter(ctx, userKey(username)); err != nil {
		return err
	}
	if l.config.PerIP && ip != "" {
		if err := l.checkCounter(ctx, ipKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

// RecordFailure counts a failed verification against the username+IP pair.
func (l *Limiter) RecordFailure(ctx context.Context, username, ip string) error {
	if _, err := l.incrementWithTTL(ctx, userKey(username)); err != nil {
		return err
	}
	if l.config.PerIP && ip != "" {
		if _, err := l.incrementWithTTL(ctx, ipKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the counters for the username+IP pair, typically after a
// successful verification.
func (l *Limiter) Reset(ctx context.Context, username, ip string) error {
	keys := []string{userKey(username)}
	if l.config.PerIP && ip != "" {
		keys = append(keys, ipKey(ip))
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Fixed-window semantics: the TTL is set only by the first failure in
	// the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count, nil
}
