package model

import (
	"time"
)

// NotificationCategory 通知类别枚举
type NotificationCategory string

const (
	NotificationCategorySessionActivated NotificationCategory = "session_activated" // 场次开始提醒
	NotificationCategorySessionSummary   NotificationCategory = "session_summary"   // 结算汇总
)

// NotificationStatus 通知状态枚举
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending" // 待处理
	NotificationStatusSent    NotificationStatus = "sent"    // 已投递
	NotificationStatusFailed  NotificationStatus = "failed"  // 失败
)

// Notification 通知模型，worker 消费队列消息后落库
type Notification struct {
	BaseModel
	MessageID   string               `gorm:"uniqueIndex;type:varchar(64);not null" json:"message_id"`
	SessionID   int64                `gorm:"not null;index:idx_notifications_session" json:"session_id"`
	GroupID     int64                `gorm:"not null;index" json:"group_id"`
	RecipientID int64                `gorm:"not null;index" json:"recipient_id"` // 0 表示面向全组
	Category    NotificationCategory `gorm:"type:varchar(32);not null" json:"category"`
	Title       string               `gorm:"type:varchar(128);not null" json:"title"`
	Body        string               `gorm:"type:text" json:"body"`
	Payload     JSONB                `gorm:"type:jsonb" json:"payload,omitempty"`
	Status      NotificationStatus   `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	SentAt      *time.Time           `gorm:"type:timestamptz" json:"sent_at,omitempty"`
	ReadAt      *time.Time           `gorm:"type:timestamptz" json:"read_at,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
