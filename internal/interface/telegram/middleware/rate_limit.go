package middleware

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Token-bucket limiting per chat user. The audience is a few dozen teachers,
// so this protects against a stuck client re-sending callbacks, not abuse at
// scale.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained allowance per user.
	RequestsPerMinute int

	// BurstSize is the instantaneous allowance. Toggling a full class roster
	// fires many callbacks in quick succession, so keep this generous.
	BurstSize int
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         20,
	}
}

// RateLimitResult is the outcome of a limit check.
type RateLimitResult struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// RetryAfter is how long the user should wait before retrying.
	RetryAfter time.Duration
}

// RateLimiter enforces per-user request limits.
type RateLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[int64]*tokenBucket
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultRateLimitConfig().RequestsPerMinute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = DefaultRateLimitConfig().BurstSize
	}
	return &RateLimiter{
		config:  config,
		buckets: make(map[int64]*tokenBucket),
	}
}

// Check consumes one token for the user and reports whether the request is
// allowed.
func (rl *RateLimiter) Check(ctx context.Context, actorID int64) *RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	refillRate := float64(rl.config.RequestsPerMinute) / 60.0

	b, ok := rl.buckets[actorID]
	if !ok {
		b = &tokenBucket{tokens: float64(rl.config.BurstSize), lastRefill: now}
		rl.buckets[actorID] = b
	}

	// Refill since last check, capped at the burst size.
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * refillRate
	if b.tokens > float64(rl.config.BurstSize) {
		b.tokens = float64(rl.config.BurstSize)
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return &RateLimitResult{Allowed: true}
	}

	wait := time.Duration((1 - b.tokens) / refillRate * float64(time.Second))
	return &RateLimitResult{Allowed: false, RetryAfter: wait}
}

// Reset clears the user's bucket.
func (rl *RateLimiter) Reset(actorID int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, actorID)
}
