package attendance

import (
	"fmt"
	"time"
)

// FlagReason 可疑标记的原因码
type FlagReason string

const (
	FlagOutsideWindow   FlagReason = "outside_marking_window"
	FlagLocationMismatch FlagReason = "location_mismatch"
	FlagGeoDisabled     FlagReason = "geo_disabled"
	FlagManualOverride  FlagReason = "manual_override"
	FlagSuspiciousTiming FlagReason = "suspicious_timing"
	FlagRepeatOffender  FlagReason = "repeat_offender"
	FlagProofNeeded     FlagReason = "proof_needed"
	FlagFakeLocation    FlagReason = "fake_location"
	FlagLateJoiner      FlagReason = "joined_after_attendance_created"
	FlagOther           FlagReason = "other"
)

// FlagSeverity 严重程度
type FlagSeverity string

const (
	SeverityLow    FlagSeverity = "low"
	SeverityMedium FlagSeverity = "medium"
	SeverityHigh   FlagSeverity = "high"
)

// FlagDetector 检出来源
type FlagDetector string

const (
	DetectorSystem FlagDetector = "system"
	DetectorRep    FlagDetector = "rep"
)

// Flag 记录在学生条目上的一条可疑标记
type Flag struct {
	Code       FlagReason   `json:"code"`
	Severity   FlagSeverity `json:"severity"`
	DetectedBy FlagDetector `json:"detected_by"`
	Note       string       `json:"note,omitempty"`
}

// FlagInput 一次标记尝试的可观测事实
type FlagInput struct {
	MarkTime    time.Time
	EntryStart  time.Time
	EntryEnd    time.Time
	Method      MarkMethod
	HasLocation bool
	GeoChecked  bool
	WithinRange bool
}

// EvaluateFlags 检查一次标记尝试，产出零或多条标记。
// 标记不是拒绝：打卡照常落库，由班代事后复核。
func EvaluateFlags(in FlagInput) []Flag {
	var flags []Flag

	if in.MarkTime.Before(in.EntryStart) || in.MarkTime.After(in.EntryEnd) {
		flags = append(flags, Flag{
			Code:       FlagOutsideWindow,
			Severity:   SeverityMedium,
			DetectedBy: DetectorSystem,
			Note: fmt.Sprintf("marked at %s, window %s - %s",
				in.MarkTime.Format("15:04"),
				in.EntryStart.Format("15:04"),
				in.EntryEnd.Format("15:04")),
		})
	}

	if in.Method == MethodGeo && in.GeoChecked && !in.WithinRange {
		flags = append(flags, Flag{
			Code:       FlagLocationMismatch,
			Severity:   SeverityMedium,
			DetectedBy: DetectorSystem,
			Note:       "reported location outside the class radius",
		})
	}

	if in.Method == MethodGeo && !in.GeoChecked {
		note := "geo method without a reported coordinate"
		if in.HasLocation {
			// 学生报了坐标，但场次没配定位参照，校验没跑起来
			note = "session has no location reference to verify against"
		}
		flags = append(flags, Flag{
			Code:       FlagGeoDisabled,
			Severity:   SeverityMedium,
			DetectedBy: DetectorSystem,
			Note:       note,
		})
	}

	return flags
}
