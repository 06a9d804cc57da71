package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"AttendTrack/internal/cache"
	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/response"
	"AttendTrack/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口
	Window time.Duration
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按用户ID限流（需要认证）
	ByUserID bool
	// 超过限制后禁止访问的时长，0 表示不额外封禁
	BlockDuration time.Duration
}

// AuthRateLimitConfig 认证接口按 IP 限流
func AuthRateLimitConfig(maxPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		Window:        time.Minute,
		MaxRequests:   maxPerMinute,
		KeyPrefix:     "rate:auth",
		BlockDuration: 5 * time.Minute,
	}
}

// RateLimiter 基于 redis zset 的滑动窗口限流器
type RateLimiter struct {
	client *redislib.Client
	keys   redis.KeyBuilder
	config RateLimitConfig
	now    func() time.Time
}

func NewRateLimiter(client *redislib.Client, keys redis.KeyBuilder, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, keys: keys, config: config, now: time.Now}
}

// identifier 优先使用已认证用户，否则使用客户端 IP
func (rl *RateLimiter) identifier(c *app.RequestContext) string {
	if rl.config.ByUserID {
		if id, ok := CurrentIdentity(c); ok {
			return "user:" + strconv.FormatInt(id.UserID, 10)
		}
	}
	return "ip:" + c.ClientIP()
}

// Allow 检查是否允许请求，返回当前窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, identifier string) (bool, int, error) {
	key := rl.keys.Key(rl.config.KeyPrefix, identifier)
	now := rl.now()
	windowStart := now.Add(-rl.config.Window)

	pipe := rl.client.TxPipeline()
	// 先移除窗口之外的记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	// 同一纳秒内的并发请求也要计为不同成员
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	zcard := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcard.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) blockKey(identifier string) string {
	return rl.keys.Key(rl.config.KeyPrefix, "block", identifier)
}

func (rl *RateLimiter) Block(ctx context.Context, identifier string) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return rl.client.Set(ctx, rl.blockKey(identifier), "1", rl.config.BlockDuration).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, identifier string) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	n, err := rl.client.Exists(ctx, rl.blockKey(identifier)).Result()
	return n > 0, err
}

// RateLimitMiddleware client 为空时不限流；redis 故障时放行并记录日志
// 连续失败后熔断，熔断期间不再访问 redis 直接放行
func RateLimitMiddleware(client *redislib.Client, keys redis.KeyBuilder, config RateLimitConfig) app.HandlerFunc {
	if client == nil || config.MaxRequests <= 0 {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	limiter := NewRateLimiter(client, keys, config)
	breaker := cache.NewCircuitBreaker(config.KeyPrefix, 5, 30*time.Second)

	return func(ctx context.Context, c *app.RequestContext) {
		identifier := limiter.identifier(c)

		var blocked bool
		err := breaker.Call(func() (err error) {
			blocked, err = limiter.IsBlocked(ctx, identifier)
			return err
		})
		if err != nil {
			if err != cache.ErrBreakerOpen {
				logger.Logger.Warn("Failed to check block status", zap.Error(err))
			}
			c.Next(ctx)
			return
		}
		if blocked {
			response.AbortWithError(ctx, c, errors.TooManyRequests)
			return
		}

		var (
			allowed bool
			count   int
		)
		err = breaker.Call(func() (err error) {
			allowed, count, err = limiter.Allow(ctx, identifier)
			return err
		})
		if err != nil {
			if err != cache.ErrBreakerOpen {
				logger.Logger.Warn("Failed to check rate limit", zap.Error(err))
			}
			c.Next(ctx)
			return
		}

		remaining := config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(limiter.now().Add(config.Window).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, identifier); err != nil {
				logger.Logger.Error("Failed to block client", zap.String("identifier", identifier), zap.Error(err))
			}
			c.Response.Header.Set("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			response.AbortWithError(ctx, c, errors.TooManyRequests)
			return
		}

		c.Next(ctx)
	}
}
