// Package ratelimit provides per-user admission control for judge requests.
package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultMaxRequests is the admitted request budget per window.
	DefaultMaxRequests = 10
	// DefaultWindow is the rolling admission window.
	DefaultWindow = 60 * time.Second
	// DefaultCooldown is the forced delay after a validation failure.
	DefaultCooldown = 5 * time.Second
	// DefaultCooldownRetryAfter is the fixed retry hint for cooldown denials.
	DefaultCooldownRetryAfter = time.Second
)

// Decision is the result of one admission check.
type Decision struct {
	Allowed bool

	// Remaining and ResetIn are set when Allowed.
	Remaining int
	ResetIn   time.Duration

	// RetryAfter is set when denied; always positive.
	RetryAfter time.Duration
}

// Limiter gates judge requests per user.
type Limiter interface {
	// Admit performs a check-then-increment admission for the user.
	Admit(ctx context.Context, userID int64) (Decision, error)

	// MarkFailure records a validation failure, starting the cooldown period.
	MarkFailure(ctx context.Context, userID int64) error
}

// Policy holds the tunable limiter parameters.
type Policy struct {
	MaxRequests        int
	Window             time.Duration
	Cooldown           time.Duration
	CooldownRetryAfter time.Duration
}

// DefaultPolicy returns the standard judge admission policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRequests:        DefaultMaxRequests,
		Window:             DefaultWindow,
		Cooldown:           DefaultCooldown,
		CooldownRetryAfter: DefaultCooldownRetryAfter,
	}
}

func (p *Policy) applyDefaults() {
	if p.MaxRequests <= 0 {
		p.MaxRequests = DefaultMaxRequests
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	if p.Cooldown <= 0 {
		p.Cooldown = DefaultCooldown
	}
	if p.CooldownRetryAfter <= 0 {
		p.CooldownRetryAfter = DefaultCooldownRetryAfter
	}
}
