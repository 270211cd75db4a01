package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterDeniesAttemptAfterLimitWithinWindow(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(NewMemoryStore(clk), clk)
	policy := Policy{Name: "register", Limit: 5, Window: 5 * time.Minute}

	for i := 1; i <= 5; i++ {
		res, err := limiter.Allow(context.Background(), policy, "founder@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := limiter.Allow(context.Background(), policy, "founder@example.com")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 5*time.Minute, res.RetryAfter)

	other, err := limiter.Allow(context.Background(), policy, "someone-else@example.com")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestLimiterStartsNewWindowAfterExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(NewMemoryStore(clk), clk)
	policy := Policy{Name: "payment_intent", Limit: 1, Window: time.Minute}

	res, err := limiter.Allow(context.Background(), policy, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	clk.Advance(30 * time.Second)
	res, err = limiter.Allow(context.Background(), policy, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter)

	clk.Advance(30 * time.Second)
	res, err = limiter.Allow(context.Background(), policy, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiterKeysAreCaseInsensitive(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(nil), nil)
	policy := Policy{Name: "register", Limit: 1, Window: time.Minute}

	_, err := limiter.Allow(context.Background(), policy, "Founder@Example.com")
	require.NoError(t, err)
	res, err := limiter.Allow(context.Background(), policy, " founder@example.com ")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestLimiterRejectsBadInput(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(nil), nil)

	_, err := limiter.Allow(context.Background(), Policy{Name: "x", Limit: 1, Window: time.Minute}, "  ")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = limiter.Allow(context.Background(), Policy{Name: "x"}, "a")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis down")
}

func TestLimiterPropagatesStoreErrors(t *testing.T) {
	limiter := NewLimiter(failingStore{}, nil)
	_, err := limiter.Allow(context.Background(), Policy{Name: "x", Limit: 1, Window: time.Minute}, "a")
	assert.EqualError(t, err, "redis down")
}

func TestMemoryStoreSweepsExpiredWindows(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	store := NewMemoryStore(clk)

	_, _, err := store.Increment(context.Background(), "stale", time.Second)
	require.NoError(t, err)
	clk.Advance(2 * time.Second)

	for i := 0; i < sweepEvery; i++ {
		_, _, err := store.Increment(context.Background(), "fresh", time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ratelimit:register:a@b.co", Key(Policy{Name: "register"}, "a@b.co"))
}

func TestEnforceReturnsExceededError(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(nil), nil)
	policy := Policy{Name: "register", Limit: 1, Window: time.Minute}

	require.NoError(t, limiter.Enforce(context.Background(), policy, "a@example.com", "slow down"))
	err := limiter.Enforce(context.Background(), policy, "a@example.com", "slow down")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitExceeded))

	var exceeded *ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, "slow down", exceeded.Error())
	assert.Equal(t, "register", exceeded.Policy)
	assert.Greater(t, exceeded.RetryAfter, time.Duration(0))
}

func TestEnforceWrapsStoreFailures(t *testing.T) {
	limiter := NewLimiter(failingStore{}, nil)
	err := limiter.Enforce(context.Background(), Policy{Name: "register", Limit: 1, Window: time.Minute}, "x", "")
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(err, ErrLimitExceeded))
}
