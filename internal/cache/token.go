package cache

import (
	"context"
	"crypto/subtle"
	"time"

	"RollCall/config"
	"RollCall/storage/redis"
)

func refreshTokenKey(userID string) string {
	return redis.Key("token", "refresh", userID)
}

// SetRefreshToken 把 refresh token 写入 Redis，每个用户只保留最新一枚，
// 旧 token 被覆盖后即失效（轮换语义）。TTL 与 JWT 刷新窗口一致。
func SetRefreshToken(ctx context.Context, userID, refreshToken string) error {
	ttl := time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour
	return redis.Client().Set(ctx, refreshTokenKey(userID), refreshToken, ttl).Err()
}

// ValidateRefreshTokenExists 校验提交的 refresh token 与 Redis 中存储的是否一致。
// Redis 不可用或 key 不存在时一律视为无效，宁可让用户重新登录。
func ValidateRefreshTokenExists(ctx context.Context, userID, refreshToken string) bool {
	stored, err := redis.Client().Get(ctx, refreshTokenKey(userID)).Result()
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) == 1
}
