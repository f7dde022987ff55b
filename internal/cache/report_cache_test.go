package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopReportCacheNeverHits(t *testing.T) {
	c := NewNoopReportCache()
	ctx := context.Background()

	c.Set(ctx, 1, "trial_balance", "k", []byte("{}"))
	_, ok := c.Get(ctx, 1, "trial_balance", "k")
	assert.False(t, ok)
	c.Invalidate(ctx, 1)
}

func TestKeyIsStable(t *testing.T) {
	type filters struct {
		From  string `json:"from"`
		Party string `json:"party"`
	}
	a, err := Key(filters{From: "2024-01-01", Party: "1"})
	require.NoError(t, err)
	b, err := Key(filters{From: "2024-01-01", Party: "1"})
	require.NoError(t, err)
	c, err := Key(filters{From: "2024-01-02", Party: "1"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
