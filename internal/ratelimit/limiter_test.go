package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLimiterWithoutRedisAllowsEverything(t *testing.T) {
	limiter := NewLimiter(limiterParams{
		Config: config.Config{RateLimit: config.RateLimitConfig{Enabled: true, ReportRenderRate: 1, ReportRenderBurst: 1}},
		Log:    zaptest.NewLogger(t),
	})
	assert.False(t, limiter.Enabled())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		result, err := limiter.AllowRender(ctx, snowflake.ID(1))
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	release, ok, err := limiter.LockCommissions(ctx, snowflake.ID(1), "Supplier", snowflake.ID(7))
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestNilLimiterIsDisabled(t *testing.T) {
	var limiter *Limiter
	assert.False(t, limiter.Enabled())

	result, err := limiter.AllowRender(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestTokenBucketRejectsBadInput(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, defaultBucketTTL(0, 5))
	assert.Equal(t, 20*time.Second, defaultBucketTTL(0.5, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
}

func TestCastToFloatReadsScriptStrings(t *testing.T) {
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, float64(3), castToFloat(int64(3)))
	assert.Equal(t, float64(0), castToFloat("nope"))
}

func TestLockerValidatesInput(t *testing.T) {
	var locker *Locker
	_, _, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, errLockNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "t"))
}
