package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"RollCall/config"
	pkgredis "RollCall/pkg/redis"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// Init 建立 Redis 连接并挂上追踪 Hook，先 Ping 确认可用再返回
func Init() error {
	once.Do(func() {
		cfg := config.Cfg
		c := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MinIdleConns: 5,
			MaxRetries:   3,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if pingErr := c.Ping(ctx).Err(); pingErr != nil {
			initErr = fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, pingErr)
			return
		}

		pkgredis.InstrumentRedisClient(c, cfg.ServiceName, cfg.RedisDB)
		client = c
	})

	return initErr
}

func Client() *redis.Client {
	if client == nil {
		panic("redis client is not initialized, call Init first")
	}
	return client
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Key 拼接带实例前缀的 Redis key，空片段会被跳过。
// 前缀可配置，同一个 Redis 上跑多套环境时互不干扰。
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = "rollcall"
	}

	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, prefix)
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}

	return strings.Join(segments, ":")
}
