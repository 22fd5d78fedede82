package dto

import "time"

// ========== 重开相关 DTO ==========

// ReopenSessionRequest 重开场次请求
type ReopenSessionRequest struct {
	Duration string  `json:"duration" binding:"required"` // "<h>H<m>M"
	Strategy string  `json:"strategy"`                    // all / custom，缺省 all
	Students []int64 `json:"students,omitempty"`          // custom 时必填

	Features *ReopenFeaturesPayload `json:"features,omitempty"`
}

// ReopenFeaturesPayload 重开行为开关覆盖
type ReopenFeaturesPayload struct {
	AllowFreshCheckInOut     *bool   `json:"allow_fresh_check_in_out,omitempty"`
	AllowCheckOutForCheckedIn *bool  `json:"allow_check_out_for_checked_in,omitempty"`
	EnableFinalStatusControl *bool   `json:"enable_final_status_control,omitempty"`
	RequireGeo               *bool   `json:"require_geo,omitempty"`
	AbsentHandling           *string `json:"absent_handling,omitempty"`
	PartialHandling          *string `json:"partial_handling,omitempty"`
}

// ReopenSessionData 重开结果数据
type ReopenSessionData struct {
	SessionID       int64     `json:"session_id"`
	ReopenedUntil   time.Time `json:"reopened_until"`
	Strategy        string    `json:"strategy"`
	AllowedStudents []int64   `json:"allowed_students,omitempty"`
}
