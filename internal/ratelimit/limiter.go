package ratelimit

import (
	"context"
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
	keyReportRender   = "reports:render:%s"
	keyCommissionLock = "commissions:lock:%s:%s:%s"
)

// Limiter throttles report file rendering per company and keeps two commission
// runs for the same party from overlapping. A nil or disabled Limiter allows everything.
type Limiter struct {
	enabled bool
	log     *zap.Logger

	bucket *TokenBucket
	locker *Locker

	renderRate  float64
	renderBurst int
	lockTTL     time.Duration
}

type limiterParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config config.Config
	Log    *zap.Logger
}

func NewLimiter(p limiterParams) *Limiter {
	log := p.Log.Named("ratelimit")
	limitCfg := p.Config.RateLimit
	addr := strings.TrimSpace(p.Config.RedisAddr)
	if !limitCfg.Enabled || addr == "" {
		return &Limiter{log: log}
	}
	if limitCfg.ReportRenderRate <= 0 || limitCfg.ReportRenderBurst <= 0 {
		log.Warn("report render limit disabled, rate and burst must be positive")
		return &Limiter{log: log}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Config.RedisPassword),
		DB:       p.Config.RedisDB,
	})
	if p.Lc != nil {
		p.Lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}
	return NewRedisLimiter(client, log, limitCfg)
}

func NewRedisLimiter(client *redis.Client, log *zap.Logger, cfg config.RateLimitConfig) *Limiter {
	ttl := time.Duration(cfg.CommissionLockTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Limiter{
		enabled:     true,
		log:         log,
		bucket:      NewTokenBucket(client),
		locker:      NewLocker(client),
		renderRate:  cfg.ReportRenderRate,
		renderBurst: cfg.ReportRenderBurst,
		lockTTL:     ttl,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowRender takes one render token of the company.
func (l *Limiter) AllowRender(ctx context.Context, orgID snowflake.ID) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyReportRender, orgID.String()), l.renderRate, l.renderBurst)
}

// LockCommissions holds the commission run of one party. ok is false when another
// run holds it. Release is always safe to call.
func (l *Limiter) LockCommissions(ctx context.Context, orgID snowflake.ID, partyType string, party snowflake.ID) (release func(), ok bool, err error) {
	noop := func() {}
	if !l.Enabled() {
		return noop, true, nil
	}
	key := fmt.Sprintf(keyCommissionLock, orgID.String(), strings.ToLower(strings.TrimSpace(partyType)), party.String())
	token, ok, err := l.locker.TryLock(ctx, key, l.lockTTL)
	if err != nil || !ok {
		return noop, ok, err
	}
	return func() {
		if err := l.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			l.log.Warn("commission lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, true, nil
}
