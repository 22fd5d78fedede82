package service

import (
	"context"
	"strconv"
	"sync"

	"RollCall/internal/model"
	"RollCall/internal/model/dto"
	"RollCall/internal/repository"
	"RollCall/storage/database"
)

// 站内通知查询与已读标记，写入侧在 queue 消费者中完成

type NotificationService struct {
	notifications *repository.NotificationRepository
}

var (
	notificationService *NotificationService
	notificationOnce    sync.Once
)

func Notification() *NotificationService {
	notificationOnce.Do(func() {
		notificationService = &NotificationService{
			notifications: repository.NewNotificationRepository(database.DB()),
		}
	})
	return notificationService
}

// ListNotifications 按游标分页查询用户通知
func (s *NotificationService) ListNotifications(ctx context.Context, recipientID int64, q dto.NotificationListQuery) (*dto.NotificationListData, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var cursor int64
	if q.Cursor != "" {
		parsed, err := strconv.ParseInt(q.Cursor, 10, 64)
		if err == nil && parsed > 0 {
			cursor = parsed
		}
	}

	// 多取一条判断是否还有下一页
	notifications, err := s.notifications.ListByRecipient(ctx, recipientID, q.Category, q.Unread, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	data := &dto.NotificationListData{
		Notifications: make([]dto.NotificationItem, 0, len(notifications)),
	}

	if len(notifications) > limit {
		notifications = notifications[:limit]
		data.NextCursor = strconv.FormatInt(notifications[len(notifications)-1].ID, 10)
	}

	for i := range notifications {
		data.Notifications = append(data.Notifications, toNotificationItem(&notifications[i]))
	}

	return data, nil
}

// MarkNotificationRead 标记单条通知为已读
func (s *NotificationService) MarkNotificationRead(ctx context.Context, recipientID, notificationID int64) error {
	return s.notifications.MarkRead(ctx, notificationID, recipientID)
}

func toNotificationItem(n *model.Notification) dto.NotificationItem {
	return dto.NotificationItem{
		ID:        n.ID,
		SessionID: n.SessionID,
		Category:  string(n.Category),
		Title:     n.Title,
		Body:      n.Body,
		Status:    string(n.Status),
		SentAt:    n.SentAt,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
