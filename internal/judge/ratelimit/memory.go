package ratelimit

import (
	"context"
	"sync"
	"time"
)

// compactThreshold is the store size beyond which expired entries are dropped.
const compactThreshold = 1000

type userRecord struct {
	count         int
	windowResetAt time.Time
	lastFailedAt  time.Time
}

// MemoryLimiter keeps per-user counters in a mutex-guarded map.
// State is process-local: a restart resets all counters. Use RedisLimiter
// when the judge runs as more than one instance.
type MemoryLimiter struct {
	policy Policy

	mu    sync.Mutex
	users map[int64]*userRecord

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter with the given policy.
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	policy.applyDefaults()
	return &MemoryLimiter{
		policy: policy,
		users:  make(map[int64]*userRecord),
		now:    time.Now,
	}
}

// Admit performs a check-then-increment admission under one lock acquisition,
// so two concurrent requests can never both pass as the Nth request.
func (l *MemoryLimiter) Admit(ctx context.Context, userID int64) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.users[userID]
	if !ok {
		rec = &userRecord{}
		l.maybeCompactLocked(now)
		l.users[userID] = rec
	}

	if !rec.lastFailedAt.IsZero() && now.Sub(rec.lastFailedAt) < l.policy.Cooldown {
		return Decision{Allowed: false, RetryAfter: l.policy.CooldownRetryAfter}, nil
	}

	if now.After(rec.windowResetAt) {
		rec.count = 1
		rec.windowResetAt = now.Add(l.policy.Window)
		return Decision{
			Allowed:   true,
			Remaining: l.policy.MaxRequests - 1,
			ResetIn:   l.policy.Window,
		}, nil
	}

	if rec.count >= l.policy.MaxRequests {
		retryAfter := rec.windowResetAt.Sub(now)
		if retryAfter <= 0 {
			retryAfter = time.Millisecond
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	rec.count++
	return Decision{
		Allowed:   true,
		Remaining: l.policy.MaxRequests - rec.count,
		ResetIn:   rec.windowResetAt.Sub(now),
	}, nil
}

// MarkFailure starts the cooldown period for the user.
func (l *MemoryLimiter) MarkFailure(ctx context.Context, userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.users[userID]
	if !ok {
		rec = &userRecord{}
		l.users[userID] = rec
	}
	rec.lastFailedAt = l.now()
	return nil
}

// maybeCompactLocked drops entries whose window and cooldown have both expired.
// Called with the lock held, before inserting a new record.
func (l *MemoryLimiter) maybeCompactLocked(now time.Time) {
	if len(l.users) < compactThreshold {
		return
	}
	for id, rec := range l.users {
		if now.After(rec.windowResetAt) && now.Sub(rec.lastFailedAt) >= l.policy.Cooldown {
			delete(l.users, id)
		}
	}
}
