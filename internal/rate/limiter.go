package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds auth-failure throttle tuning parameters.
type Config struct {
	EnableIPThrottle bool
	MaxAuthFailures  int
	AuthCooldown     time.Duration
}

// Limiter tracks failed authentication attempts per client IP using
// Redis counters with a fixed cooldown window.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckAuth checks whether the IP is within the failed-authentication
// budget. Returns an error if rate-limited.
func (l *Limiter) CheckAuth(ctx context.Context, ip string) error {
	if !l.config.EnableIPThrottle || ip == "" {
		return nil
	}

	return l.checkCounter(ctx, authIPKey(ip), l.config.MaxAuthFailures)
}

// RecordAuthFailure records a failed authentication attempt for the IP.
func (l *Limiter) RecordAuthFailure(ctx context.Context, ip string) error {
	if !l.config.EnableIPThrottle || ip == "" {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, authIPKey(ip), l.config.AuthCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAuthFailures) {
		return ErrRateLimited
	}

	return nil
}

// ResetAuth clears the failure counter for the IP. Called after a
// successful authentication.
func (l *Limiter) ResetAuth(ctx context.Context, ip string) error {
	if !l.config.EnableIPThrottle || ip == "" {
		return nil
	}

	if err := l.redis.Del(ctx, authIPKey(ip)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// AuthFailures returns the current failure counter for an IP.
// Missing keys return zero.
func (l *Limiter) AuthFailures(ctx context.Context, ip string) (int, error) {
	count, err := l.redis.Get(ctx, authIPKey(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count > int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func authIPKey(ip string) string {
	return "agf:ip:" + ip
}
