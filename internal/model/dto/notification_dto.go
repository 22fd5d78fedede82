package dto

import "time"

// ========== Notification 相关 DTO ==========

// NotificationItem 通知项
type NotificationItem struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	Category  string     `json:"category"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NotificationListQuery 通知列表查询参数
type NotificationListQuery struct {
	Category string `query:"category"`
	Unread   bool   `query:"unread"`
	Limit    int    `query:"limit"`
	Cursor   string `query:"cursor"`
}

// NotificationListData 通知列表数据
type NotificationListData struct {
	Notifications []NotificationItem `json:"notifications"`
	NextCursor    string             `json:"next_cursor,omitempty"`
}
