package breaker_test

import (
	"context"
	"testing"
	"time"

	"github.com/paiml/forge-go/internal/reliability/breaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P12: with failure_threshold=k, after exactly k consecutive failures the
// breaker is Open and rejects.
func TestOpensAfterFailureThreshold(t *testing.T) {
	b := breaker.New("t", breaker.Config{FailureThreshold: 2, Timeout: time.Minute, SuccessThreshold: 2})

	for i := 0; i < 2; i++ {
		ctx, err := b.Allow(context.Background())
		require.NoError(t, err)
		b.Fail(ctx)
	}

	assert.Equal(t, breaker.Open, b.State())
	_, err := b.Allow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Circuit breaker is OPEN")
}

// P13/S4: after timeout elapses, the next call transitions to HalfOpen;
// success_threshold successes in HalfOpen close the breaker.
func TestHalfOpenRecoveryCloses(t *testing.T) {
	b := breaker.New("t", breaker.Config{FailureThreshold: 2, Timeout: 100 * time.Millisecond, SuccessThreshold: 2})

	for i := 0; i < 2; i++ {
		ctx, err := b.Allow(context.Background())
		require.NoError(t, err)
		b.Fail(ctx)
	}
	assert.Equal(t, breaker.Open, b.State())

	time.Sleep(150 * time.Millisecond)

	for i := 0; i < 2; i++ {
		ctx, err := b.Allow(context.Background())
		require.NoError(t, err)
		b.Succeed(ctx)
	}

	assert.Equal(t, breaker.Closed, b.State())
}

// P14: a single failure in HalfOpen immediately reopens the breaker.
func TestHalfOpenFailureReopens(t *testing.T) {
	b := breaker.New("t", breaker.Config{FailureThreshold: 1, Timeout: 50 * time.Millisecond, SuccessThreshold: 2})

	ctx, err := b.Allow(context.Background())
	require.NoError(t, err)
	b.Fail(ctx)
	assert.Equal(t, breaker.Open, b.State())

	time.Sleep(80 * time.Millisecond)

	ctx, err = b.Allow(context.Background())
	require.NoError(t, err)
	b.Fail(ctx)

	assert.Equal(t, breaker.Open, b.State())
}
