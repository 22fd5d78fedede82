package dto

import "time"

// ========== 打卡相关 DTO ==========

// MarkEntryRequest 打卡请求
type MarkEntryRequest struct {
	Mode      string   `json:"mode" binding:"required"` // checkIn / checkOut
	Method    string   `json:"method"`                  // geo / manual，缺省 geo
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	HasProof  bool     `json:"has_proof"`
	StudentID int64    `json:"student_id,omitempty"` // 课代表代操作时指定
	Note      string   `json:"note,omitempty"`
}

// MarkEntryData 打卡结果数据
type MarkEntryData struct {
	SessionID             int64      `json:"session_id"`
	StudentID             int64      `json:"student_id"`
	Mode                  string     `json:"mode"`
	MarkedAt              time.Time  `json:"marked_at"`
	CheckInStatus         string     `json:"check_in_status"`
	CheckOutStatus        string     `json:"check_out_status"`
	FinalStatus           string     `json:"final_status"`
	ArrivalDeltaMinutes   int        `json:"arrival_delta_minutes"`
	DepartureDeltaMinutes int        `json:"departure_delta_minutes"`
	DurationMinutes       int        `json:"duration_minutes"`
	DistanceMeters        *int       `json:"distance_meters,omitempty"`
	WithinRange           bool       `json:"within_range"`
	Flagged               bool       `json:"flagged"`
	FlagCodes             []string   `json:"flag_codes,omitempty"`
	Reopened              bool       `json:"reopened"`
}

// RecordData 单条学生记录数据
type RecordData struct {
	StudentID       int64      `json:"student_id"`
	StudentName     string     `json:"student_name"`
	CheckInStatus   string     `json:"check_in_status"`
	CheckOutStatus  string     `json:"check_out_status"`
	FinalStatus     string     `json:"final_status"`
	CheckInAt       *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt      *time.Time `json:"check_out_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	MarkedBy        string     `json:"marked_by"`
	Flagged         bool       `json:"flagged"`
	PleaStatus      string     `json:"plea_status,omitempty"`
}
