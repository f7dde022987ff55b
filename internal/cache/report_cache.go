package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/agrimarket/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultReportTTL = 10 * time.Minute

	keyReportGeneration = "reports:%s:gen"
	keyReport           = "reports:%s:%d:%s:%s"
)

// ReportCache stores rendered report payloads per company.
// Invalidate drops every cached report of the company at once.
type ReportCache interface {
	Get(ctx context.Context, orgID snowflake.ID, report, key string) ([]byte, bool)
	Set(ctx context.Context, orgID snowflake.ID, report, key string, payload []byte)
	Invalidate(ctx context.Context, orgID snowflake.ID)
}

var Module = fx.Module("cache",
	fx.Provide(NewReportCache),
)

type reportCacheParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config config.Config
	Log    *zap.Logger
}

// NewReportCache returns a redis-backed cache, or a noop cache when no redis address is configured.
func NewReportCache(p reportCacheParams) ReportCache {
	addr := strings.TrimSpace(p.Config.RedisAddr)
	if addr == "" {
		return NewNoopReportCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Config.RedisPassword),
		DB:       p.Config.RedisDB,
	})
	c := NewRedisReportCache(client, p.Log)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Log.Warn("report cache unavailable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return c
}

type redisReportCache struct {
	client *redis.Client
	log    *zap.Logger
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, log *zap.Logger) ReportCache {
	return &redisReportCache{
		client: client,
		log:    log.Named("cache.reports"),
		ttl:    defaultReportTTL,
	}
}

func (c *redisReportCache) Get(ctx context.Context, orgID snowflake.ID, report, key string) ([]byte, bool) {
	gen, err := c.generation(ctx, orgID)
	if err != nil {
		c.log.Debug("report cache generation lookup failed", zap.Error(err))
		return nil, false
	}
	payload, err := c.client.Get(ctx, fmt.Sprintf(keyReport, orgID.String(), gen, report, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("report cache read failed", zap.String("report", report), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

func (c *redisReportCache) Set(ctx context.Context, orgID snowflake.ID, report, key string, payload []byte) {
	gen, err := c.generation(ctx, orgID)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, fmt.Sprintf(keyReport, orgID.String(), gen, report, key), payload, c.ttl).Err(); err != nil {
		c.log.Debug("report cache write failed", zap.String("report", report), zap.Error(err))
	}
}

func (c *redisReportCache) Invalidate(ctx context.Context, orgID snowflake.ID) {
	// Old generations expire with their TTL.
	if err := c.client.Incr(ctx, fmt.Sprintf(keyReportGeneration, orgID.String())).Err(); err != nil {
		c.log.Warn("report cache invalidation failed", zap.String("company_id", orgID.String()), zap.Error(err))
	}
}

func (c *redisReportCache) generation(ctx context.Context, orgID snowflake.ID) (int64, error) {
	gen, err := c.client.Get(ctx, fmt.Sprintf(keyReportGeneration, orgID.String())).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

type noopReportCache struct{}

func NewNoopReportCache() ReportCache { return noopReportCache{} }

func (noopReportCache) Get(context.Context, snowflake.ID, string, string) ([]byte, bool) {
	return nil, false
}
func (noopReportCache) Set(context.Context, snowflake.ID, string, string, []byte) {}
func (noopReportCache) Invalidate(context.Context, snowflake.ID)                  {}

// Key hashes report filters into a stable cache key.
func Key(filters any) (string, error) {
	raw, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
