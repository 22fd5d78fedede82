package cache

import (
	"context"
	"time"

	"RollCall/storage/redis"
)

// SetNX 实现的分布式锁，防止多个实例同时结算同一场次
const (
	lockPrefix = "lock"
)

// TryLock 尝试获取锁，返回 true 表示获取成功
func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullKey := redis.Key(lockPrefix, key)

	result, err := redis.Client().SetNX(ctx, fullKey, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return result, nil
}

// Unlock 释放锁
func Unlock(ctx context.Context, key string) error {
	fullKey := redis.Key(lockPrefix, key)
	return redis.Client().Del(ctx, fullKey).Err()
}
