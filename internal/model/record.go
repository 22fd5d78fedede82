package model

import (
	"time"

	"RollCall/internal/attendance"
)

// MarkDetail 单次打卡的原始细节，签到签退各嵌入一份
type MarkDetail struct {
	Time           *time.Time            `gorm:"type:timestamptz" json:"time,omitempty"`
	Method         attendance.MarkMethod `gorm:"type:varchar(16)" json:"method,omitempty"`
	Latitude       *float64              `json:"latitude,omitempty"`
	Longitude      *float64              `json:"longitude,omitempty"`
	DistanceMeters *int                  `json:"distance_meters,omitempty"`
}

// Coordinate 打卡上报坐标，经纬度任一缺失返回 nil
func (d *MarkDetail) Coordinate() *attendance.Coordinate {
	if d.Latitude == nil || d.Longitude == nil {
		return nil
	}
	return &attendance.Coordinate{Latitude: *d.Latitude, Longitude: *d.Longitude}
}

// PleaInfo 缺勤申诉，整体作为 jsonb 存储
type PleaInfo struct {
	Message       string                `json:"message,omitempty"`
	Reasons       []string              `json:"reasons,omitempty"`
	ProofFileName string                `json:"proof_file_name,omitempty"`
	ProofURL      string                `json:"proof_url,omitempty"`
	SubmittedAt   time.Time             `json:"submitted_at"`
	Status        attendance.PleaStatus `json:"status"`
	ReviewedAt    *time.Time            `json:"reviewed_at,omitempty"`
	ReviewedBy    int64                 `json:"reviewed_by,omitempty"`
	ReviewerNote  string                `json:"reviewer_note,omitempty"`
}

// MetaEntry 记录级操作留痕，重开补卡、状态改写等都在这里追加
type MetaEntry struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedBy   int64          `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// StudentAttendanceRecord 单个学生在单个场次内的考勤记录
type StudentAttendanceRecord struct {
	BaseModel
	SessionID   int64  `gorm:"not null;uniqueIndex:idx_records_session_student" json:"session_id"`
	StudentID   int64  `gorm:"not null;uniqueIndex:idx_records_session_student;index" json:"student_id"`
	StudentName string `gorm:"type:varchar(64);not null" json:"student_name"`

	CheckInStatus  attendance.CheckInStatus  `gorm:"type:varchar(16);not null;default:'absent'" json:"check_in_status"`
	CheckOutStatus attendance.CheckOutStatus `gorm:"type:varchar(16);not null;default:'missed'" json:"check_out_status"`
	FinalStatus    attendance.FinalStatus    `gorm:"type:varchar(16);not null;default:'absent'" json:"final_status"`

	CheckIn  MarkDetail `gorm:"embedded;embeddedPrefix:check_in_" json:"check_in"`
	CheckOut MarkDetail `gorm:"embedded;embeddedPrefix:check_out_" json:"check_out"`

	ArrivalDeltaMinutes   int  `gorm:"not null;default:0" json:"arrival_delta_minutes"`
	DepartureDeltaMinutes int  `gorm:"not null;default:0" json:"departure_delta_minutes"`
	DurationMinutes       int  `gorm:"not null;default:0" json:"duration_minutes"`
	WasWithinRange        bool `gorm:"not null;default:false" json:"was_within_range"`
	CheckInVerified       bool `gorm:"not null;default:false" json:"check_in_verified"`

	MarkedBy attendance.MarkedBy `gorm:"type:varchar(16);not null;default:'system'" json:"marked_by"`

	Flagged   bool       `gorm:"not null;default:false;index" json:"flagged"`
	Flags     FlagList   `gorm:"type:jsonb;default:'[]'" json:"flags"`
	FlaggedAt *time.Time `gorm:"type:timestamptz" json:"flagged_at,omitempty"`
	FlaggedBy int64      `gorm:"default:0" json:"flagged_by,omitempty"`

	Plea *PleaInfo `gorm:"type:jsonb" json:"plea,omitempty"`

	Warnings     int `gorm:"not null;default:0" json:"warnings"`
	Penalty      int `gorm:"not null;default:0" json:"penalty"`
	RewardPoints int `gorm:"not null;default:0" json:"reward_points"`

	JoinedAfterCreation bool `gorm:"not null;default:false" json:"joined_after_creation"`

	Meta MetaEntries `gorm:"type:jsonb;default:'[]'" json:"meta,omitempty"`
}

// TableName 指定表名
func (StudentAttendanceRecord) TableName() string {
	return "student_attendance_records"
}

// Snapshot 提取重开决策需要的记录快照
func (r *StudentAttendanceRecord) Snapshot() attendance.RecordSnapshot {
	snap := attendance.RecordSnapshot{
		CheckInAt:     r.CheckIn.Time,
		CheckOutAt:    r.CheckOut.Time,
		CheckInStatus: r.CheckInStatus,
	}
	if r.Plea != nil {
		snap.PleaStatus = r.Plea.Status
	}
	return snap
}

// AppendMeta 追加一条操作留痕
func (r *StudentAttendanceRecord) AppendMeta(entry MetaEntry) {
	r.Meta = append(r.Meta, entry)
}
