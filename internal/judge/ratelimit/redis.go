package ratelimit

import (
	"context"
	"fmt"

	"codearena/internal/common/cache"
	pkgerrors "codearena/pkg/errors"
)

const (
	rateKeyPrefix     = "judge:rate:user:"
	cooldownKeyPrefix = "judge:cooldown:user:"
)

// RedisLimiter enforces the admission policy against a shared Redis store,
// so counters survive restarts and stay correct across judge instances.
type RedisLimiter struct {
	cache  cache.BasicOps
	policy Policy
}

// NewRedisLimiter creates a limiter backed by the given cache client.
func NewRedisLimiter(cacheClient cache.BasicOps, policy Policy) *RedisLimiter {
	policy.applyDefaults()
	return &RedisLimiter{cache: cacheClient, policy: policy}
}

func (l *RedisLimiter) Admit(ctx context.Context, userID int64) (Decision, error) {
	if l.cache == nil {
		return Decision{}, pkgerrors.New(pkgerrors.CacheError).WithMessage("rate limit cache is unavailable")
	}

	cooldownKey := cooldownKeyPrefix + formatUserID(userID)
	exists, err := l.cache.Exists(ctx, cooldownKey)
	if err != nil {
		return Decision{}, pkgerrors.Wrapf(err, pkgerrors.CacheError, "cooldown check failed")
	}
	if exists > 0 {
		return Decision{Allowed: false, RetryAfter: l.policy.CooldownRetryAfter}, nil
	}

	rateKey := rateKeyPrefix + formatUserID(userID)
	acquired, err := l.cache.SetNX(ctx, rateKey, 1, l.policy.Window)
	if err != nil {
		return Decision{}, pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
	}
	var count int64
	if acquired {
		count = 1
	} else {
		count, err = l.cache.Incr(ctx, rateKey)
		if err != nil {
			return Decision{}, pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
		}
		// A key can lose its TTL if Incr recreated it after expiry raced SetNX.
		ttl, ttlErr := l.cache.TTL(ctx, rateKey)
		if ttlErr == nil && ttl <= 0 {
			_ = l.cache.Expire(ctx, rateKey, l.policy.Window)
		}
	}

	if int(count) > l.policy.MaxRequests {
		retryAfter := l.policy.Window
		if ttl, err := l.cache.TTL(ctx, rateKey); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	resetIn := l.policy.Window
	if ttl, err := l.cache.TTL(ctx, rateKey); err == nil && ttl > 0 {
		resetIn = ttl
	}
	return Decision{
		Allowed:   true,
		Remaining: l.policy.MaxRequests - int(count),
		ResetIn:   resetIn,
	}, nil
}

func (l *RedisLimiter) MarkFailure(ctx context.Context, userID int64) error {
	if l.cache == nil {
		return pkgerrors.New(pkgerrors.CacheError).WithMessage("rate limit cache is unavailable")
	}
	key := cooldownKeyPrefix + formatUserID(userID)
	if err := l.cache.Set(ctx, key, 1, l.policy.Cooldown); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "mark failure failed")
	}
	return nil
}

func formatUserID(userID int64) string {
	return fmt.Sprintf("%d", userID)
}
