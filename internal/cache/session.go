package cache

import (
	"context"
	"fmt"
	"time"

	"RollCall/storage/redis"
)

const (
	// 调度器处理标记，避免多实例重复激活/结算同一场次
	sessionActivatedPrefix = "session:activated"
	sessionFinalizedPrefix = "session:finalized"
	messageProcessedPrefix = "message:processed"

	scheduledTTL = 24 * time.Hour
	processedTTL = 48 * time.Hour
)

// IsActivationMarked 检查场次激活消息是否已投放
func IsActivationMarked(ctx context.Context, sessionID int64) (bool, error) {
	key := redis.Key(sessionActivatedPrefix, fmt.Sprintf("%d", sessionID))
	result, err := redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check activation mark: %w", err)
	}
	return result > 0, nil
}

// MarkActivation 标记场次激活消息已投放
func MarkActivation(ctx context.Context, sessionID int64) error {
	key := redis.Key(sessionActivatedPrefix, fmt.Sprintf("%d", sessionID))
	return redis.Client().Set(ctx, key, "1", scheduledTTL).Err()
}

// IsFinalizeMarked 检查场次结算是否已处理
func IsFinalizeMarked(ctx context.Context, sessionID int64) (bool, error) {
	key := redis.Key(sessionFinalizedPrefix, fmt.Sprintf("%d", sessionID))
	result, err := redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check finalize mark: %w", err)
	}
	return result > 0, nil
}

// MarkFinalize 标记场次结算已处理
func MarkFinalize(ctx context.Context, sessionID int64) error {
	key := redis.Key(sessionFinalizedPrefix, fmt.Sprintf("%d", sessionID))
	return redis.Client().Set(ctx, key, "1", scheduledTTL).Err()
}

// UnmarkFinalize 清除结算标记，允许重试
func UnmarkFinalize(ctx context.Context, sessionID int64) error {
	key := redis.Key(sessionFinalizedPrefix, fmt.Sprintf("%d", sessionID))
	return redis.Client().Del(ctx, key).Err()
}

// TryMarkMessageProcessing 尝试原子性地标记消息正在处理（使用 SETNX）
// 返回 true 表示成功标记（首次处理），false 表示已被标记（重复消息或正在处理）
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// UnmarkMessageProcessing 取消消息处理标记（处理失败时调用，允许重试）
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkMessageProcessed 标记消息已处理（处理成功时调用，延长 TTL）
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "completed", ttl).Err()
}
