package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"RollCall/internal/model"
)

// NotificationRepository 通知数据访问层
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateIdempotent 按 message_id 幂等写入，重复投递直接跳过
func (r *NotificationRepository) CreateIdempotent(ctx context.Context, notification *model.Notification) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(notification)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByRecipient 按接收人分页列出通知
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, category string, unread bool, limit int, cursor int64) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if unread {
		q = q.Where("read_at IS NULL")
	}
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var notifications []model.Notification
	err := q.Order("id DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

// MarkRead 标记通知已读
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", gorm.Expr("now()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("notification not found or already read")
	}
	return nil
}

// MarkSent 标记通知已投递
func (r *NotificationRepository) MarkSent(ctx context.Context, messageID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("message_id = ?", messageID).
		Updates(map[string]interface{}{
			"status":  model.NotificationStatusSent,
			"sent_at": gorm.Expr("now()"),
		}).Error
}
