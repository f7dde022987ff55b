package testutil

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/cache"
)

// RecordingCache is a report cache that stores nothing and counts invalidations per company.
type RecordingCache struct {
	mu          sync.Mutex
	invalidated map[snowflake.ID]int
}

var _ cache.ReportCache = (*RecordingCache)(nil)

func NewRecordingCache() *RecordingCache {
	return &RecordingCache{invalidated: map[snowflake.ID]int{}}
}

func (c *RecordingCache) Get(context.Context, snowflake.ID, string, string) ([]byte, bool) {
	return nil, false
}

func (c *RecordingCache) Set(context.Context, snowflake.ID, string, string, []byte) {}

func (c *RecordingCache) Invalidate(_ context.Context, orgID snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated[orgID]++
}

// Invalidations returns how often the test company's reports were dropped.
func (c *RecordingCache) Invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[snowflake.ID(OrgID)]
}
