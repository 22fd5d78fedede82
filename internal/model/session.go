package model

import (
	"time"

	"RollCall/internal/attendance"
)

// SessionStatus 场次生命周期状态枚举
type SessionStatus string

const (
	SessionStatusUpcoming SessionStatus = "upcoming" // 未开始
	SessionStatusActive   SessionStatus = "active"   // 进行中，可打卡
	SessionStatusClosed   SessionStatus = "closed"   // 已关闭
)

// AttendanceKind 考勤形式枚举
type AttendanceKind string

const (
	AttendancePhysical AttendanceKind = "physical"
	AttendanceVirtual  AttendanceKind = "virtual"
)

// AttendanceSession 一次课堂考勤场次
type AttendanceSession struct {
	BaseModel
	SessionCode   string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"session_code"`
	GroupID       int64          `gorm:"not null;index" json:"group_id"`
	ScheduleID    int64          `gorm:"not null;uniqueIndex:idx_sessions_schedule_slot" json:"schedule_id"`
	CourseCode    string         `gorm:"type:varchar(32);not null" json:"course_code"`
	CourseTitle   string         `gorm:"type:varchar(128);not null" json:"course_title"`
	LecturerName  string         `gorm:"type:varchar(64)" json:"lecturer_name"`
	LecturerEmail string         `gorm:"type:varchar(128)" json:"lecturer_email"`
	ClassDate     string         `gorm:"type:char(10);not null;uniqueIndex:idx_sessions_schedule_slot;index:idx_sessions_status_date" json:"class_date"` // "2006-01-02"
	ClassStart    string         `gorm:"type:char(5);not null;uniqueIndex:idx_sessions_schedule_slot" json:"class_start"`                                // "15:04"
	ClassEnd      string         `gorm:"type:char(5);not null" json:"class_end"`
	EntryStart    string         `gorm:"type:varchar(16);not null;default:'0H10M'" json:"entry_start"`
	EntryEnd      string         `gorm:"type:varchar(16);not null;default:'1H30M'" json:"entry_end"`
	Kind          AttendanceKind `gorm:"type:varchar(16);not null;default:'physical'" json:"kind"`

	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters int      `gorm:"not null;default:0" json:"radius_meters"`

	Settings SessionSettings `gorm:"type:jsonb;not null;default:'{}'" json:"settings"`

	Status      SessionStatus `gorm:"type:varchar(16);not null;default:'upcoming';index:idx_sessions_status_date" json:"status"`
	Initialized bool          `gorm:"not null;default:false" json:"initialized"`
	AutoEnd     bool          `gorm:"not null;default:true" json:"auto_end"`

	// 重开子状态
	Reopened              bool             `gorm:"not null;default:false;index" json:"reopened"`
	ReopenedUntil         *time.Time       `gorm:"type:timestamptz" json:"reopened_until,omitempty"`
	ReopenAllowedStudents StudentIDList    `gorm:"type:jsonb;default:'[]'" json:"reopen_allowed_students"`
	ReopenFeatures        ReopenFeatureSet `gorm:"type:jsonb;default:'{}'" json:"reopen_features"`

	SummaryStats SummaryStats `gorm:"embedded;embeddedPrefix:stats_" json:"summary_stats"`

	CreatedBy int64  `gorm:"not null" json:"created_by"`
	Notes     string `gorm:"type:text" json:"notes,omitempty"`
}

// TableName 指定表名
func (AttendanceSession) TableName() string {
	return "attendance_sessions"
}

// SummaryStats 场次汇总计数，结算时从记录全量重算，从不增量累积
type SummaryStats struct {
	TotalPresent int `gorm:"not null;default:0" json:"total_present"`
	OnTime       int `gorm:"not null;default:0" json:"on_time"`
	Late         int `gorm:"not null;default:0" json:"late"`
	LeftEarly    int `gorm:"not null;default:0" json:"left_early"`
	Absent       int `gorm:"not null;default:0" json:"absent"`
	WithPlea     int `gorm:"not null;default:0" json:"with_plea"`
}

// Location 场次定点坐标，经纬度任一缺失返回 nil
func (s *AttendanceSession) Location() *attendance.Coordinate {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &attendance.Coordinate{Latitude: *s.Latitude, Longitude: *s.Longitude}
}

// Window 计算本场次的绝对时间窗口；重开只放宽 entryEnd，不收窄
func (s *AttendanceSession) Window(loc *time.Location) (attendance.Window, error) {
	w, err := attendance.ComputeWindow(s.ClassDate, s.ClassStart, s.ClassEnd, s.EntryStart, s.EntryEnd, loc)
	if err != nil {
		return attendance.Window{}, err
	}
	if s.Reopened && s.ReopenedUntil != nil {
		w = w.WidenTo(*s.ReopenedUntil)
	}
	return w, nil
}

// ComputeSummaryStats 从学生记录全量重算汇总计数
func ComputeSummaryStats(records []StudentAttendanceRecord) SummaryStats {
	var stats SummaryStats
	for i := range records {
		r := &records[i]
		switch r.FinalStatus {
		case attendance.FinalPresent, attendance.FinalPartial, attendance.FinalExcused:
			// 除缺勤外的一切终态都计入出席，免签视同到场
			stats.TotalPresent++
		case attendance.FinalAbsent:
			stats.Absent++
		}
		if r.CheckInStatus == attendance.CheckInOnTime {
			stats.OnTime++
		}
		if r.CheckInStatus == attendance.CheckInLate {
			stats.Late++
		}
		if r.CheckOutStatus == attendance.CheckOutLeftEarly {
			stats.LeftEarly++
		}
		if r.Plea != nil && (r.Plea.Status == attendance.PleaPending || len(r.Plea.Reasons) > 0) {
			stats.WithPlea++
		}
	}
	return stats
}
