package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"RollCall/internal/cache"
	"RollCall/internal/model"
	"RollCall/internal/repository"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/pkg/metrics"
	"RollCall/storage/database"
	"RollCall/storage/mq"
)

// worker 侧的消费者：把场次消息落成通知记录

func buildActivationNotification(msg model.SessionActivatedMessage) *model.Notification {
	return &model.Notification{
		MessageID:   msg.MessageID,
		SessionID:   msg.SessionID,
		GroupID:     msg.GroupID,
		RecipientID: 0, // 面向全组
		Category:    model.NotificationCategorySessionActivated,
		Title:       fmt.Sprintf("Attendance for %s is now active", msg.CourseTitle),
		Body: fmt.Sprintf("Attendance for %s (%s) is open from %s to %s. Check in before %s.",
			msg.CourseTitle, msg.CourseCode, msg.ClassStart, msg.ClassEnd, msg.EntryEndAt),
		Payload: model.JSONB{
			"session_code": msg.SessionCode,
			"class_date":   msg.ClassDate,
			"student_ids":  msg.StudentIDs,
		},
		Status: model.NotificationStatusPending,
	}
}

func buildSummaryNotification(msg model.SessionSummaryMessage) *model.Notification {
	return &model.Notification{
		MessageID:   msg.MessageID,
		SessionID:   msg.SessionID,
		GroupID:     msg.GroupID,
		RecipientID: msg.RecipientID,
		Category:    model.NotificationCategorySessionSummary,
		Title:       fmt.Sprintf("Attendance summary for %s", msg.CourseTitle),
		Body: fmt.Sprintf("%s on %s: %d present, %d late, %d left early, %d absent, %d plea(s), %d flagged.",
			msg.CourseCode, msg.ClassDate,
			msg.Stats.TotalPresent, msg.Stats.Late, msg.Stats.LeftEarly,
			msg.Stats.Absent, msg.Stats.WithPlea, msg.FlaggedCount),
		Payload: model.JSONB{
			"session_code":  msg.SessionCode,
			"stats":         msg.Stats,
			"flagged_count": msg.FlaggedCount,
		},
		Status: model.NotificationStatusPending,
	}
}

// StartSessionActivatedConsumer 消费场次激活消息，生成组内通知
func StartSessionActivatedConsumer(ctx context.Context) error {
	notifications := repository.NewNotificationRepository(database.DB())

	handler := func(body []byte) error {
		var msg model.SessionActivatedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal session activated message: %w", err)
		}

		processed, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			// 检查失败时继续处理，落库层还有一道 message_id 幂等
		} else if !processed {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}

		notification := buildActivationNotification(msg)

		created, err := notifications.CreateIdempotent(ctx, notification)
		if err != nil {
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("failed to persist activation notification: %w", err)
		}
		if created {
			metrics.RecordNotificationSent(ctx, string(notification.Category))
			if err := notifications.MarkSent(ctx, msg.MessageID); err != nil {
				logger.Logger.Warn("Failed to mark notification sent",
					zap.String("message_id", msg.MessageID),
					zap.Error(err),
				)
			}
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		logger.Logger.Info("Session activation notification delivered",
			zap.String("message_id", msg.MessageID),
			zap.Int64("session_id", msg.SessionID),
			zap.Int64("group_id", msg.GroupID),
		)
		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.QueueSessionActivated,
		ConsumerTag:   "session_activated_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartSessionSummaryConsumer 消费结算汇总消息，通知课代表
func StartSessionSummaryConsumer(ctx context.Context) error {
	notifications := repository.NewNotificationRepository(database.DB())

	handler := func(body []byte) error {
		var msg model.SessionSummaryMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal session summary message: %w", err)
		}

		processed, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !processed {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}

		notification := buildSummaryNotification(msg)

		created, err := notifications.CreateIdempotent(ctx, notification)
		if err != nil {
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("failed to persist summary notification: %w", err)
		}
		if created {
			metrics.RecordNotificationSent(ctx, string(notification.Category))
			if err := notifications.MarkSent(ctx, msg.MessageID); err != nil {
				logger.Logger.Warn("Failed to mark notification sent",
					zap.String("message_id", msg.MessageID),
					zap.Error(err),
				)
			}
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		logger.Logger.Info("Session summary notification delivered",
			zap.String("message_id", msg.MessageID),
			zap.Int64("session_id", msg.SessionID),
			zap.Int64("recipient_id", msg.RecipientID),
		)
		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.QueueSessionSummary,
		ConsumerTag:   "session_summary_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartAllConsumers 启动所有消费者（在 worker 启动时调用）
func StartAllConsumers(ctx context.Context) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"session_activated", StartSessionActivatedConsumer},
		{"session_summary", StartSessionSummaryConsumer},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					logger.Logger.Info("Consumer stopped", zap.String("consumer", name))
					return
				default:
				}

				if err := consumer(ctx); err != nil {
					logger.Logger.Error("Consumer exited with error, restarting",
						zap.String("consumer", name),
						zap.Error(err),
					)
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}(c.name, c.consumer)
	}

	wg.Wait()
}
