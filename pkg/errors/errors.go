package errors

import "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// token 包使用的哨兵错误。
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator is not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrInvalidTokenType             = errors.New("invalid token type")
	ErrUserIDNotFound               = errors.New("user ID not found in token claims")
)

// TooManyRequests 限流触发。
var TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}

// 认证与权限相关错误。
var (
	InvalidRequest   = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized     = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	ForbiddenForRole = Definition{Code: "FORBIDDEN_FOR_ROLE", Message: "Operation not allowed for this role"}
	InvalidUserID    = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
)

// 考勤场次创建与查询错误。
var (
	MissingFields     = Definition{Code: "MISSING_FIELDS", Message: "Missing required fields"}
	InvalidTimeRange  = Definition{Code: "INVALID_TIME_RANGE", Message: "Class end time must be later than start time"}
	InvalidEntryWindow = Definition{Code: "INVALID_ENTRY_WINDOW", Message: "Marking end must be after start, in valid H and M format"}
	InvalidLocation   = Definition{Code: "INVALID_LOCATION", Message: "Latitude and longitude must be valid numbers"}
	AttendanceExists  = Definition{Code: "ATTENDANCE_EXISTS", Message: "Attendance session already exists for this schedule and time"}
	AttendanceNotFound = Definition{Code: "ATTENDANCE_NOT_FOUND", Message: "Attendance session not found"}
	GroupNotFound     = Definition{Code: "GROUP_NOT_FOUND", Message: "Group not found"}
	ScheduleNotFound  = Definition{Code: "SCHEDULE_NOT_FOUND", Message: "Schedule not found"}
	RecordNotFound    = Definition{Code: "RECORD_NOT_FOUND", Message: "Student attendance record not found"}
)

// 打卡标记错误。
var (
	AttendanceClosed    = Definition{Code: "ATTENDANCE_CLOSED", Message: "Attendance is closed"}
	AttendanceUpcoming  = Definition{Code: "ATTENDANCE_UPCOMING", Message: "Attendance is not active yet"}
	NotAllowedToMark    = Definition{Code: "NOT_ALLOWED_TO_MARK", Message: "You are not allowed to mark this attendance"}
	AlreadyCheckedIn    = Definition{Code: "ALREADY_CHECKED_IN", Message: "Check-in already recorded"}
	AlreadyCheckedOut   = Definition{Code: "ALREADY_CHECKED_OUT", Message: "Check-out already recorded"}
	CheckInRequired     = Definition{Code: "CHECK_IN_REQUIRED", Message: "Check-out requires a prior check-in"}
	CheckOutDisabled    = Definition{Code: "CHECK_OUT_DISABLED", Message: "Check-out is disabled for this session"}
	InvalidMarkMode     = Definition{Code: "INVALID_MARK_MODE", Message: "Mark mode must be checkIn or checkOut"}
	GeoUnavailable      = Definition{Code: "GEO_UNAVAILABLE", Message: "Geo evaluation unavailable for this attempt"}
	FinalizeInProgress  = Definition{Code: "FINALIZE_IN_PROGRESS", Message: "Session is being finalized by another request"}
)

// 策略（settings）校验错误。
var (
	TooEarlyCheckIn   = Definition{Code: "TOO_EARLY_CHECKIN", Message: "Check-in attempted before the marking window opens"}
	TooLateCheckIn    = Definition{Code: "TOO_LATE_CHECKIN", Message: "Check-in attempted after the marking window closed"}
	TooEarlyCheckOut  = Definition{Code: "TOO_EARLY_CHECKOUT", Message: "Check-out attempted before the marking window opens"}
	TooLateCheckOut   = Definition{Code: "TOO_LATE_CHECKOUT", Message: "Check-out attempted after the marking window closed"}
	ShortDuration     = Definition{Code: "SHORT_DURATION", Message: "Presence duration shorter than the required minimum"}
	ProofRequired     = Definition{Code: "PROOF_REQUIRED", Message: "Proof payload is required for check-in"}
	LateJoinerDenied  = Definition{Code: "LATE_JOINER_DENIED", Message: "Students who joined after session creation may not mark"}
)

// 重开（reopen）子协议错误。
var (
	ReopenForbidden       = Definition{Code: "REOPEN_FORBIDDEN", Message: "You are not allowed to mark attendance during reopen"}
	ReopenExpired         = Definition{Code: "REOPEN_EXPIRED", Message: "Reopen window has expired"}
	ReopenAlreadyComplete = Definition{Code: "REOPEN_ALREADY_COMPLETE", Message: "You have already checked in and checked out"}
	ReopenFreshDenied     = Definition{Code: "REOPEN_FRESH_DENIED", Message: "Fresh check-in and check-out not allowed during reopen"}
	ReopenCheckOutDenied  = Definition{Code: "REOPEN_CHECKOUT_DENIED", Message: "Late check-out not allowed for already checked-in student"}
	ReopenGeoRejected     = Definition{Code: "REOPEN_GEO_REJECTED", Message: "Geo-location required and user is out of range"}
	NotReopened           = Definition{Code: "NOT_REOPENED", Message: "Attendance session is not reopened"}
	InvalidReopenDuration = Definition{Code: "INVALID_REOPEN_DURATION", Message: "Reopen duration must be a valid H and M offset"}
)

// 请假申诉（plea）错误。
var (
	PleaAlreadyReviewed = Definition{Code: "PLEA_ALREADY_REVIEWED", Message: "Plea has already been reviewed"}
	PleaNotSubmitted    = Definition{Code: "PLEA_NOT_SUBMITTED", Message: "No plea submitted for this record"}
	InvalidPleaStatus   = Definition{Code: "INVALID_PLEA_STATUS", Message: "Plea review status must be approved or rejected"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:          Unauthorized,
	ForbiddenForRole.Code:      ForbiddenForRole,
	InvalidUserID.Code:         InvalidUserID,
	MissingFields.Code:         MissingFields,
	InvalidTimeRange.Code:      InvalidTimeRange,
	InvalidEntryWindow.Code:    InvalidEntryWindow,
	InvalidLocation.Code:       InvalidLocation,
	AttendanceExists.Code:      AttendanceExists,
	AttendanceNotFound.Code:    AttendanceNotFound,
	GroupNotFound.Code:         GroupNotFound,
	ScheduleNotFound.Code:      ScheduleNotFound,
	RecordNotFound.Code:        RecordNotFound,
	AttendanceClosed.Code:      AttendanceClosed,
	AttendanceUpcoming.Code:    AttendanceUpcoming,
	NotAllowedToMark.Code:      NotAllowedToMark,
	AlreadyCheckedIn.Code:      AlreadyCheckedIn,
	AlreadyCheckedOut.Code:     AlreadyCheckedOut,
	CheckInRequired.Code:       CheckInRequired,
	CheckOutDisabled.Code:      CheckOutDisabled,
	InvalidMarkMode.Code:       InvalidMarkMode,
	GeoUnavailable.Code:        GeoUnavailable,
	FinalizeInProgress.Code:    FinalizeInProgress,
	TooEarlyCheckIn.Code:       TooEarlyCheckIn,
	TooLateCheckIn.Code:        TooLateCheckIn,
	TooEarlyCheckOut.Code:      TooEarlyCheckOut,
	TooLateCheckOut.Code:       TooLateCheckOut,
	ShortDuration.Code:         ShortDuration,
	ProofRequired.Code:         ProofRequired,
	LateJoinerDenied.Code:      LateJoinerDenied,
	ReopenForbidden.Code:       ReopenForbidden,
	ReopenExpired.Code:         ReopenExpired,
	ReopenAlreadyComplete.Code: ReopenAlreadyComplete,
	ReopenFreshDenied.Code:     ReopenFreshDenied,
	ReopenCheckOutDenied.Code:  ReopenCheckOutDenied,
	ReopenGeoRejected.Code:     ReopenGeoRejected,
	NotReopened.Code:           NotReopened,
	InvalidReopenDuration.Code: InvalidReopenDuration,
	PleaAlreadyReviewed.Code:   PleaAlreadyReviewed,
	PleaNotSubmitted.Code:      PleaNotSubmitted,
	InvalidPleaStatus.Code:     InvalidPleaStatus,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// WithMessage 在保留错误码的前提下替换提示信息，用于携带实际/期望时间等上下文。
func WithMessage(def Definition, message string) Definition {
	return Definition{Code: def.Code, Message: message}
}

// SkipMessageError 表示消息应被确认但跳过处理（幂等去重命中）。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return e.Reason
}
