package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/pkg/response"
	"RollCall/storage/redis"
)

// RateLimitConfig 滑动窗口限流配置
type RateLimitConfig struct {
	// 窗口时长（秒）
	Window int
	// 窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 按用户 ID 限流（需要认证上下文）
	ByUserID bool
	// 按客户端 IP 限流，用户 ID 缺失时的兜底
	ByIP bool
	// 超限后的封禁时长（秒）
	BlockDuration int
}

// MarkRateLimitConfig 打卡接口限流，防止客户端重试风暴
var MarkRateLimitConfig = RateLimitConfig{
	Window:        10,
	MaxRequests:   5,
	KeyPrefix:     "mark:rate",
	ByUserID:      true,
	BlockDuration: 300,
}

// ReopenRateLimitConfig 重开补卡窗口限流
var ReopenRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   3,
	KeyPrefix:     "reopen:rate",
	ByUserID:      true,
	BlockDuration: 600,
}

// RateLimiter redis zset 滑动窗口限流器
type RateLimiter struct {
	cfg RateLimitConfig
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg}
}

func (rl *RateLimiter) limitKey(ctx context.Context, c *app.RequestContext) string {
	var identifier string
	if rl.cfg.ByUserID {
		if userID, exists := GetUserID(ctx, c); exists {
			identifier = "user:" + userID
		}
	}
	if identifier == "" && rl.cfg.ByIP {
		identifier = "ip:" + c.ClientIP()
	}
	return redis.Key(rl.cfg.KeyPrefix, identifier)
}

func (rl *RateLimiter) blockKey(ctx context.Context, c *app.RequestContext) string {
	return rl.limitKey(ctx, c) + ":block"
}

// Allow 滑动窗口判定：清掉窗口外的记录，记入本次请求，数窗口内总量
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.limitKey(ctx, c)
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.cfg.Window) * time.Second)

	pipe := redis.Client().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.cfg.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.cfg.MaxRequests, count, nil
}

// Block 超限后短时封禁，封禁期内不再走 zset
func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	ttl := time.Duration(rl.cfg.BlockDuration) * time.Second
	return redis.Client().Set(ctx, rl.blockKey(ctx, c), "1", ttl).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	result, err := redis.Client().Exists(ctx, rl.blockKey(ctx, c)).Result()
	return result > 0, err
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(cfg)

	return func(ctx context.Context, c *app.RequestContext) {
		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check block status", zap.Error(err))
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}
		if blocked {
			c.Abort()
			response.Error(ctx, c, errors.TooManyRequests)
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check rate limit", zap.Error(err))
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(cfg.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to set rate limit block", zap.Error(err))
			}
			c.Abort()
			response.Error(ctx, c, errors.TooManyRequests)
			return
		}

		c.Next(ctx)
	}
}

// MarkRateLimitMiddleware 打卡接口限流中间件
func MarkRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(MarkRateLimitConfig)
}

// ReopenRateLimitMiddleware 重开接口限流中间件
func ReopenRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(ReopenRateLimitConfig)
}

// AuthRateLimitMiddleware 认证接口按 IP 限流
func AuthRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Window:        60,
		MaxRequests:   5,
		KeyPrefix:     "auth:rate",
		ByIP:          true,
		BlockDuration: 900,
	})
}
