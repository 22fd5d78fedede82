package model

// SessionActivatedMessage 场次激活消息，调度器发布，worker 消费后生成提醒
type SessionActivatedMessage struct {
	MessageID   string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	SessionID   int64  `json:"session_id"`
	SessionCode string `json:"session_code"`
	GroupID     int64  `json:"group_id"`
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	ClassDate   string `json:"class_date"`
	ClassStart  string `json:"class_start"`
	ClassEnd    string `json:"class_end"`
	EntryEndAt  string `json:"entry_end_at"`
	StudentIDs  []int64 `json:"student_ids"`
	ScheduledAt string `json:"scheduled_at"`
	DelaySeconds int   `json:"delay_seconds"`
}

// SessionSummaryMessage 场次结算汇总消息，发给课代表
type SessionSummaryMessage struct {
	MessageID    string       `json:"message_id"` // 消息唯一ID，用于幂等性检查
	SessionID    int64        `json:"session_id"`
	SessionCode  string       `json:"session_code"`
	GroupID      int64        `json:"group_id"`
	RecipientID  int64        `json:"recipient_id"` // 课代表
	CourseCode   string       `json:"course_code"`
	CourseTitle  string       `json:"course_title"`
	ClassDate    string       `json:"class_date"`
	Stats        SummaryStats `json:"stats"`
	FlaggedCount int          `json:"flagged_count"`
	ScheduledAt  string       `json:"scheduled_at"`
	DelaySeconds int          `json:"delay_seconds"`
}
