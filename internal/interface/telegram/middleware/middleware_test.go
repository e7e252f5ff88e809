package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryPassesThroughNormalReturns(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())

	result := m.RecoverWithHandler(context.Background(), 7001, "rekod", func() error {
		return nil
	})

	assert.False(t, result.Recovered)
	assert.NoError(t, result.Err)
}

func TestRecoveryPassesThroughHandlerErrors(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())

	result := m.RecoverWithHandler(context.Background(), 7001, "rekod", func() error {
		return assert.AnError
	})

	assert.False(t, result.Recovered)
	assert.ErrorIs(t, result.Err, assert.AnError)
}

func TestRecoveryCatchesPanic(t *testing.T) {
	var notified *PanicInfo
	m := NewRecoveryMiddleware(RecoveryConfig{
		OnPanic: func(ctx context.Context, info *PanicInfo) { notified = info },
	})

	result := m.RecoverWithHandler(context.Background(), 7001, "simpan", func() error {
		panic("roster index out of range")
	})

	require.True(t, result.Recovered)
	assert.Contains(t, result.UserMessage, "Maaf")
	require.NotNil(t, notified)
	assert.Equal(t, int64(7001), notified.ActorID)
	assert.Equal(t, "simpan", notified.Operation)
	assert.NotEmpty(t, notified.StackTrace)
}

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Check(ctx, 7001).Allowed, "request %d", i)
	}

	blocked := rl.Check(ctx, 7001)
	assert.False(t, blocked.Allowed)
	assert.Positive(t, blocked.RetryAfter)
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 1})
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, 7001).Allowed)
	assert.False(t, rl.Check(ctx, 7001).Allowed)
	assert.True(t, rl.Check(ctx, 7002).Allowed, "other users keep their own bucket")
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 1})
	ctx := context.Background()

	require.True(t, rl.Check(ctx, 7001).Allowed)
	require.False(t, rl.Check(ctx, 7001).Allowed)

	rl.Reset(7001)
	assert.True(t, rl.Check(ctx, 7001).Allowed)
}
