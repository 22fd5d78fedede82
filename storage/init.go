package storage

import (
	"fmt"

	"RollCall/storage/database"
	"RollCall/storage/mq"
	"RollCall/storage/redis"
)

// Init 按依赖顺序初始化存储层：数据库最先（迁移依赖它），
// 然后是 Redis，最后是 RabbitMQ。任何一步失败都直接返回。
func Init() error {
	steps := []struct {
		name string
		init func() error
	}{
		{"database", database.Init},
		{"redis", redis.Init},
		{"message queue", mq.Init},
	}

	for _, s := range steps {
		if err := s.init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", s.name, err)
		}
	}

	return nil
}
