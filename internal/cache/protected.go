package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	ri "github.com/redis/go-redis/v9"

	"RollCall/storage/redis"
)

const (
	// 空值标记，短 TTL，挡缓存穿透
	emptyValueFlag = "__EMPTY__"
	emptyValueTTL  = 5 * time.Minute
	// 读侧随机抖动上限，避免同一时刻成批回源
	readJitterMax = 200 * time.Millisecond
)

// redis 故障时快速失败，避免每个请求都吃满超时
var cacheBreaker = NewCircuitBreaker("redis-cache", 5, 30*time.Second)

// ProtectedCache 带空值保护和熔断的缓存包装器
type ProtectedCache struct {
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
}

// NewProtectedCache 创建受保护的缓存实例
func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix: keyPrefix,
		ttl:       ttl,
		emptyTTL:  emptyValueTTL,
	}
}

// Set 写缓存，value 为 nil 时落空值标记
func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	cacheKey := redis.Key(pc.keyPrefix, key)

	data := emptyValueFlag
	ttl := pc.emptyTTL
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		data = string(raw)
		ttl = pc.ttl
	}

	return cacheBreaker.Call(ctx, func() error {
		return redis.Client().Set(ctx, cacheKey, data, ttl).Err()
	})
}

// Get 读缓存。返回 (true, nil) 且 dest 未填充表示空值标记命中。
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	cacheKey := redis.Key(pc.keyPrefix, key)

	if err := pc.jitter(ctx); err != nil {
		return false, err
	}

	var data string
	var miss bool
	err := cacheBreaker.Call(ctx, func() error {
		v, err := redis.Client().Get(ctx, cacheKey).Result()
		if err == ri.Nil {
			miss = true
			return nil
		}
		if err != nil {
			return err
		}
		data = v
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to get cache: %w", err)
	}
	if miss {
		return false, nil
	}
	if data == emptyValueFlag {
		return true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (pc *ProtectedCache) jitter(ctx context.Context) error {
	delay := time.Duration(rand.Intn(int(readJitterMax)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// 预定义的缓存实例
var (
	GroupRosterProtectedCache = NewProtectedCache("group:roster", 10*time.Minute)
)
