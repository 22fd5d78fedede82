package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"RollCall/internal/model"
	"RollCall/pkg/logger"
	"RollCall/pkg/snowflake"
	"RollCall/storage/mq"
)

// PublishSessionActivated 发布场次激活消息（延迟消息）
func PublishSessionActivated(ctx context.Context, msg model.SessionActivatedMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("session_id", msg.SessionID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("sess_activated_%d", id)
	}

	delay := time.Duration(msg.DelaySeconds) * time.Second

	err := mq.PublishDelayedMessage(
		ctx,
		mq.DelayedExchange,
		mq.RoutingSessionActivated,
		delay,
		msg,
	)
	if err != nil {
		logger.Logger.Error("Failed to publish session activated message",
			zap.Int64("session_id", msg.SessionID),
			zap.Int("student_count", len(msg.StudentIDs)),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published session activated message",
		zap.String("message_id", msg.MessageID),
		zap.Int64("session_id", msg.SessionID),
		zap.Int("student_count", len(msg.StudentIDs)),
		zap.Duration("delay", delay),
	)
	return nil
}

// PublishSessionSummary 发布场次结算汇总消息，发给课代表
func PublishSessionSummary(ctx context.Context, msg model.SessionSummaryMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("session_id", msg.SessionID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("sess_summary_%d", id)
	}

	delay := time.Duration(msg.DelaySeconds) * time.Second

	err := mq.PublishDelayedMessage(
		ctx,
		mq.DelayedExchange,
		mq.RoutingSessionSummary,
		delay,
		msg,
	)
	if err != nil {
		logger.Logger.Error("Failed to publish session summary message",
			zap.Int64("session_id", msg.SessionID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published session summary message",
		zap.String("message_id", msg.MessageID),
		zap.Int64("session_id", msg.SessionID),
		zap.Int64("recipient_id", msg.RecipientID),
		zap.Duration("delay", delay),
	)
	return nil
}
