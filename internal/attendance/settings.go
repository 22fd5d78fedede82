package attendance

import (
	"fmt"
	"time"

	pkgerrors "RollCall/pkg/errors"
)

// ProofRequirement 签到时的身份佐证要求
type ProofRequirement string

const (
	ProofNone        ProofRequirement = "none"
	ProofSelfie      ProofRequirement = "selfie"
	ProofFingerprint ProofRequirement = "fingerprint"
)

// Settings 一个考勤场次的准入策略包。
// 字段全部显式列出，不用开放 map，默认值见 DefaultSettings。
type Settings struct {
	ProofRequirement        ProofRequirement `json:"proof_requirement"`
	AllowLateJoiners        bool             `json:"allow_late_joiners"`
	AllowEarlyCheckIn       bool             `json:"allow_early_check_in"`
	AllowLateCheckIn        bool             `json:"allow_late_check_in"`
	AllowEarlyCheckOut      bool             `json:"allow_early_check_out"`
	AllowLateCheckOut       bool             `json:"allow_late_check_out"`
	EnableCheckInOut        bool             `json:"enable_check_in_out"`
	MinimumPresenceDuration int              `json:"minimum_presence_duration"` // 分钟，0 表示不限
}

// DefaultSettings 默认策略：窗口内自由签到签退，不要佐证。
func DefaultSettings() Settings {
	return Settings{
		ProofRequirement:        ProofNone,
		AllowLateJoiners:        true,
		AllowEarlyCheckIn:       true,
		AllowLateCheckIn:        false,
		AllowEarlyCheckOut:      true,
		AllowLateCheckOut:       true,
		EnableCheckInOut:        true,
		MinimumPresenceDuration: 0,
	}
}

// Attempt 一次待校验的标记尝试
type Attempt struct {
	Mode                MarkMode
	Method              MarkMethod
	Time                time.Time
	HasProof            bool
	JoinedAfterCreation bool
	CheckInTime         *time.Time // 已有签到时间，签退时用于时长校验
	Reopened            bool       // 重开路径跳过最短在场时长
}

// EnforceSettings 按场次策略校验一次标记尝试。
// 失败即返回，只报第一条违规（fail-fast），错误信息带上实际/允许的时间。
func EnforceSettings(s Settings, w Window, a Attempt) error {
	switch a.Mode {
	case ModeCheckIn:
		return enforceCheckIn(s, w, a)
	case ModeCheckOut:
		return enforceCheckOut(s, w, a)
	default:
		return pkgerrors.InvalidMarkMode
	}
}

func enforceCheckIn(s Settings, w Window, a Attempt) error {
	if !s.AllowLateJoiners && a.JoinedAfterCreation {
		return pkgerrors.LateJoinerDenied
	}

	if s.ProofRequirement == ProofSelfie && !a.HasProof {
		return pkgerrors.WithMessage(pkgerrors.ProofRequired,
			"This session requires a selfie proof on check-in")
	}

	if !s.AllowEarlyCheckIn && a.Time.Before(w.EntryStart) {
		return pkgerrors.WithMessage(pkgerrors.TooEarlyCheckIn,
			fmt.Sprintf("Check-in opens at %s, attempted at %s",
				w.EntryStart.Format("15:04"), a.Time.Format("15:04")))
	}

	if !s.AllowLateCheckIn && a.Time.After(w.EntryEnd) {
		return pkgerrors.WithMessage(pkgerrors.TooLateCheckIn,
			fmt.Sprintf("Check-in closed at %s, attempted at %s",
				w.EntryEnd.Format("15:04"), a.Time.Format("15:04")))
	}

	return nil
}

func enforceCheckOut(s Settings, w Window, a Attempt) error {
	if !s.EnableCheckInOut {
		return pkgerrors.CheckOutDisabled
	}

	if !s.AllowEarlyCheckOut && a.Time.Before(w.EntryStart) {
		return pkgerrors.WithMessage(pkgerrors.TooEarlyCheckOut,
			fmt.Sprintf("Check-out opens at %s, attempted at %s",
				w.EntryStart.Format("15:04"), a.Time.Format("15:04")))
	}

	if !s.AllowLateCheckOut && a.Time.After(w.EntryEnd) {
		return pkgerrors.WithMessage(pkgerrors.TooLateCheckOut,
			fmt.Sprintf("Check-out closed at %s, attempted at %s",
				w.EntryEnd.Format("15:04"), a.Time.Format("15:04")))
	}

	// 重开窗口本身就是例外通道，不再卡最短在场时长
	if s.MinimumPresenceDuration > 0 && !a.Reopened && a.CheckInTime != nil {
		elapsed := int(a.Time.Sub(*a.CheckInTime) / time.Minute)
		if elapsed < s.MinimumPresenceDuration {
			return pkgerrors.WithMessage(pkgerrors.ShortDuration,
				fmt.Sprintf("Present for %d minute(s), minimum is %d",
					elapsed, s.MinimumPresenceDuration))
		}
	}

	return nil
}
