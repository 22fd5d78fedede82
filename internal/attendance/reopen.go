package attendance

import (
	"time"

	pkgerrors "RollCall/pkg/errors"
)

// ReopenStrategy 重开时的白名单生成策略
type ReopenStrategy string

const (
	ReopenAll    ReopenStrategy = "all"    // 原先完成双签的学生
	ReopenCustom ReopenStrategy = "custom" // 显式名单
)

// ReopenStatusRules 重开路径的最终状态策略。
// 空值表示沿用 ResolveFinalStatus 的计算结果。
type ReopenStatusRules struct {
	PartialHandling FinalStatus `json:"partial_handling,omitempty"` // 补签退场景
	AbsentHandling  FinalStatus `json:"absent_handling,omitempty"`  // 全新双签场景
}

// ReopenFeatures 重开窗口的行为开关
type ReopenFeatures struct {
	AllowFreshCheckInOut      bool              `json:"allow_fresh_check_in_out"`
	AllowCheckOutForCheckedIn bool              `json:"allow_check_out_for_checked_in"`
	EnableFinalStatusControl  bool              `json:"enable_final_status_control"`
	RequireGeo                bool              `json:"require_geo"`
	FinalStatusRules          ReopenStatusRules `json:"final_status_rules"`
}

// DefaultReopenFeatures 宽松默认：全新双签记为 present，补签退按计算结果。
func DefaultReopenFeatures() ReopenFeatures {
	return ReopenFeatures{
		AllowFreshCheckInOut:      true,
		AllowCheckOutForCheckedIn: true,
		EnableFinalStatusControl:  true,
		RequireGeo:                false,
		FinalStatusRules: ReopenStatusRules{
			AbsentHandling:  FinalPresent,
			PartialHandling: "",
		},
	}
}

// ReopenState 场次上的重开子状态
type ReopenState struct {
	AllowedStudents []int64
	Until           *time.Time
	Features        ReopenFeatures
}

// ReopenAttempt 重开窗口内的一次标记尝试
type ReopenAttempt struct {
	StudentID   int64
	Time        time.Time
	GeoChecked  bool
	WithinRange bool
}

// RecordSnapshot 校验所需的记录现状
type RecordSnapshot struct {
	CheckInAt     *time.Time
	CheckOutAt    *time.Time
	CheckInStatus CheckInStatus
	PleaStatus    PleaStatus
}

// ReopenKind 重开路径支持的两种尝试形态
type ReopenKind string

const (
	ReopenFreshPair    ReopenKind = "fresh_pair"     // 原本从未标记，原子补上双签
	ReopenLateCheckOut ReopenKind = "late_check_out" // 已签到，补一次签退
)

// ReopenPlan 一次合法重开标记要落库的内容
type ReopenPlan struct {
	Kind                  ReopenKind
	CheckInStatus         CheckInStatus
	CheckOutStatus        CheckOutStatus
	FinalStatus           FinalStatus
	ArrivalDeltaMinutes   int
	DepartureDeltaMinutes int
	DurationMinutes       int
}

// PlanReopenMark 裁决重开窗口内的一次标记，返回要应用的变更。
// 只做纯计算，落库由调用方完成。
func PlanReopenMark(st ReopenState, rec RecordSnapshot, at ReopenAttempt, classStart, classEnd time.Time) (ReopenPlan, error) {
	if st.Until != nil && at.Time.After(*st.Until) {
		return ReopenPlan{}, pkgerrors.ReopenExpired
	}

	allowed := false
	for _, id := range st.AllowedStudents {
		if id == at.StudentID {
			allowed = true
			break
		}
	}
	if !allowed {
		return ReopenPlan{}, pkgerrors.ReopenForbidden
	}

	arrivalDelta := int(at.Time.Sub(classStart) / time.Minute)
	departureDelta := int(classEnd.Sub(at.Time) / time.Minute)

	checkedIn := rec.CheckInAt != nil
	checkedOut := rec.CheckOutAt != nil

	switch {
	// 原本从未标记：原子补上签到+签退
	case !checkedIn && !checkedOut:
		if !st.Features.AllowFreshCheckInOut {
			return ReopenPlan{}, pkgerrors.ReopenFreshDenied
		}
		if st.Features.RequireGeo && (!at.GeoChecked || !at.WithinRange) {
			return ReopenPlan{}, pkgerrors.ReopenGeoRejected
		}

		final := ResolveFinalStatus(CheckInLate, CheckOutLeftEarly, rec.PleaStatus)
		if st.Features.EnableFinalStatusControl && st.Features.FinalStatusRules.AbsentHandling != "" {
			final = st.Features.FinalStatusRules.AbsentHandling
		}

		return ReopenPlan{
			Kind:                  ReopenFreshPair,
			CheckInStatus:         CheckInLate,
			CheckOutStatus:        CheckOutLeftEarly,
			FinalStatus:           final,
			ArrivalDeltaMinutes:   arrivalDelta,
			DepartureDeltaMinutes: departureDelta,
			DurationMinutes:       0,
		}, nil

	// 已签到未签退：补一次签退
	case checkedIn && !checkedOut:
		if !st.Features.AllowCheckOutForCheckedIn {
			return ReopenPlan{}, pkgerrors.ReopenCheckOutDenied
		}

		outStatus := CheckOutLeftEarly
		if departureDelta >= 0 {
			outStatus = CheckOutOnTime
		}

		final := ResolveFinalStatus(rec.CheckInStatus, outStatus, rec.PleaStatus)
		if st.Features.EnableFinalStatusControl && st.Features.FinalStatusRules.PartialHandling != "" {
			final = st.Features.FinalStatusRules.PartialHandling
		}

		return ReopenPlan{
			Kind:                  ReopenLateCheckOut,
			CheckInStatus:         rec.CheckInStatus,
			CheckOutStatus:        outStatus,
			FinalStatus:           final,
			ArrivalDeltaMinutes:   arrivalDelta,
			DepartureDeltaMinutes: departureDelta,
			DurationMinutes:       int(at.Time.Sub(*rec.CheckInAt) / time.Minute),
		}, nil

	default:
		return ReopenPlan{}, pkgerrors.ReopenAlreadyComplete
	}
}
