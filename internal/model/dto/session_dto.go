package dto

import "time"

// ========== Session 相关 DTO ==========

// CreateSessionRequest 创建场次请求
type CreateSessionRequest struct {
	GroupID       int64    `json:"group_id" binding:"required"`
	ScheduleID    int64    `json:"schedule_id" binding:"required"`
	CourseCode    string   `json:"course_code" binding:"required"`
	CourseTitle   string   `json:"course_title" binding:"required"`
	LecturerName  string   `json:"lecturer_name"`
	LecturerEmail string   `json:"lecturer_email"`
	ClassDate     string   `json:"class_date" binding:"required"` // "2006-01-02"
	ClassStart    string   `json:"class_start" binding:"required"` // "15:04"
	ClassEnd      string   `json:"class_end" binding:"required"`
	EntryStart    string   `json:"entry_start"` // "<h>H<m>M" 或 "FULL"，缺省取配置默认值
	EntryEnd      string   `json:"entry_end"`
	Kind          string   `json:"kind"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	RadiusMeters  int      `json:"radius_meters"`
	AutoEnd       *bool    `json:"auto_end,omitempty"`
	Notes         string   `json:"notes"`

	Settings *SessionSettingsPayload `json:"settings,omitempty"`
}

// SessionSettingsPayload 创建时的策略覆盖，缺省字段沿用默认策略
type SessionSettingsPayload struct {
	ProofRequirement        *string `json:"proof_requirement,omitempty"`
	AllowLateJoiners        *bool   `json:"allow_late_joiners,omitempty"`
	AllowEarlyCheckIn       *bool   `json:"allow_early_check_in,omitempty"`
	AllowLateCheckIn        *bool   `json:"allow_late_check_in,omitempty"`
	AllowEarlyCheckOut      *bool   `json:"allow_early_check_out,omitempty"`
	AllowLateCheckOut       *bool   `json:"allow_late_check_out,omitempty"`
	EnableCheckInOut        *bool   `json:"enable_check_in_out,omitempty"`
	MinimumPresenceDuration *int    `json:"minimum_presence_duration,omitempty"`
}

// SessionData 场次详情数据
type SessionData struct {
	ID            int64      `json:"id"`
	SessionCode   string     `json:"session_code"`
	GroupID       int64      `json:"group_id"`
	ScheduleID    int64      `json:"schedule_id"`
	CourseCode    string     `json:"course_code"`
	CourseTitle   string     `json:"course_title"`
	LecturerName  string     `json:"lecturer_name,omitempty"`
	ClassDate     string     `json:"class_date"`
	ClassStart    string     `json:"class_start"`
	ClassEnd      string     `json:"class_end"`
	EntryStartAt  time.Time  `json:"entry_start_at"`
	EntryEndAt    time.Time  `json:"entry_end_at"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	AutoEnd       bool       `json:"auto_end"`
	Reopened      bool       `json:"reopened"`
	ReopenedUntil *time.Time `json:"reopened_until,omitempty"`
	RadiusMeters  int        `json:"radius_meters,omitempty"`
	Stats         *SummaryData `json:"stats,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SummaryData 汇总计数
type SummaryData struct {
	TotalPresent int `json:"total_present"`
	OnTime       int `json:"on_time"`
	Late         int `json:"late"`
	LeftEarly    int `json:"left_early"`
	Absent       int `json:"absent"`
	WithPlea     int `json:"with_plea"`
}

// GroupSessionsQuery 小组场次列表查询参数
type GroupSessionsQuery struct {
	Status string `query:"status"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit"`
	Cursor string `query:"cursor"`
}

// GroupSessionsData 小组场次列表数据
type GroupSessionsData struct {
	Sessions   []SessionData `json:"sessions"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// SessionTabData 课代表视角的场次总览
type SessionTabData struct {
	Session SessionData  `json:"session"`
	Records []RecordData `json:"records"`
	Flagged int          `json:"flagged"`
}
