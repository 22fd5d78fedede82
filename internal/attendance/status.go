package attendance

// 各状态枚举都按闭集建模，派生逻辑用穷举分支表达

// CheckInStatus 签到状态
type CheckInStatus string

const (
	CheckInOnTime CheckInStatus = "on_time"
	CheckInLate   CheckInStatus = "late"
	CheckInMissed CheckInStatus = "missed"
	CheckInAbsent CheckInStatus = "absent"
)

// CheckOutStatus 签退状态
type CheckOutStatus string

const (
	CheckOutOnTime    CheckOutStatus = "on_time"
	CheckOutLeftEarly CheckOutStatus = "left_early"
	CheckOutMissed    CheckOutStatus = "missed"
)

// FinalStatus 学生本节课的最终出勤结论
type FinalStatus string

const (
	FinalPresent FinalStatus = "present"
	FinalPartial FinalStatus = "partial"
	FinalAbsent  FinalStatus = "absent"
	FinalExcused FinalStatus = "excused"
)

// PleaStatus 请假申诉的审核状态
type PleaStatus string

const (
	PleaPending  PleaStatus = "pending"
	PleaApproved PleaStatus = "approved"
	PleaRejected PleaStatus = "rejected"
	PleaNone     PleaStatus = ""
)

// MarkMethod 打卡方式
type MarkMethod string

const (
	MethodGeo    MarkMethod = "geo"
	MethodManual MarkMethod = "manual"
)

// MarkMode 一次标记请求的类型
type MarkMode string

const (
	ModeCheckIn  MarkMode = "checkIn"
	ModeCheckOut MarkMode = "checkOut"
)

// MarkedBy 谁发起了这次标记
type MarkedBy string

const (
	MarkedByStudent MarkedBy = "student"
	MarkedByRep     MarkedBy = "rep"
	MarkedBySystem  MarkedBy = "system"
)

// ResolveFinalStatus 从签到/签退/申诉三个独立状态派生最终结论。
// 纯函数：任一半边变化时整体重算，不做增量修补。
func ResolveFinalStatus(in CheckInStatus, out CheckOutStatus, plea PleaStatus) FinalStatus {
	// 1. 批准的申诉覆盖一切
	if plea == PleaApproved {
		return FinalExcused
	}

	// 2. 两头都没到
	if in == CheckInAbsent && out == CheckOutMissed {
		return FinalAbsent
	}

	// 3. 部分出勤
	partial := (in != CheckInAbsent && out == CheckOutMissed) ||
		(in == CheckInAbsent && out != CheckOutMissed) ||
		(in == CheckInLate && out == CheckOutOnTime) ||
		(in == CheckInOnTime && out == CheckOutLeftEarly) ||
		(in == CheckInLate && out == CheckOutLeftEarly)
	if partial {
		return FinalPartial
	}

	// 4. 全程在场
	if in == CheckInOnTime && out == CheckOutOnTime {
		return FinalPresent
	}

	return FinalAbsent
}
