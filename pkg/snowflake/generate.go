package snowflake

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init 初始化全局 ID 生成器。机房号和机器号各占 5 位，拼成 10 位 node id，
// 保证多实例部署时不会产生重复 ID。重复调用只有第一次生效。
func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 || dataCenterID < 0 || dataCenterID > 31 {
			initErr = fmt.Errorf("snowflake node out of range: datacenter=%d machine=%d (both must be 0~31)", dataCenterID, machineID)
			return
		}

		n, err := snowflake.NewNode(dataCenterID<<5 | machineID)
		if err != nil {
			initErr = fmt.Errorf("failed to create snowflake node: %w", err)
			return
		}
		node = n
	})

	return initErr
}

// NextID 生成一个全局唯一 ID，用作签到码和消息去重键
func NextID() (int64, error) {
	if node == nil {
		return 0, fmt.Errorf("snowflake generator is not initialized, call Init first")
	}
	return node.Generate().Int64(), nil
}
