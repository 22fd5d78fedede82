package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"RollCall/pkg/logger"
	"RollCall/storage/database"
	"RollCall/storage/mq"
	"RollCall/storage/redis"
)

// Close 逆序关闭存储连接：先断开 MQ 停止消息进出，再关 Redis，
// 最后关数据库，给未落盘的写入留出时间。单个失败不阻塞其余关闭。
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Logger.Info("Closing storage connections...")

	steps := []struct {
		name  string
		close func(context.Context) error
	}{
		{"message queue", mq.Close},
		{"redis", redis.Close},
		{"database", database.Close},
	}

	for _, s := range steps {
		if err := s.close(ctx); err != nil {
			logger.Logger.Error("Failed to close storage component",
				zap.String("component", s.name), zap.Error(err))
			continue
		}
		logger.Logger.Info("Storage component closed", zap.String("component", s.name))
	}

	logger.Logger.Info("All storage connections closed")
}
