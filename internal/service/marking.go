package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"RollCall/config"
	"RollCall/internal/attendance"
	"RollCall/internal/cache"
	"RollCall/internal/model"
	"RollCall/internal/model/dto"
	"RollCall/internal/repository"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/pkg/metrics"
	"RollCall/storage/database"
)

// 打卡主管线：窗口 -> 地理围栏 -> 策略 -> 标记 -> 状态派生 -> 汇总重算

type MarkingService struct {
	sessions *repository.SessionRepository
	records  *repository.RecordRepository
	roster   *repository.RosterRepository
	now      func() time.Time
}

var (
	markingService *MarkingService
	markingOnce    sync.Once
)

func Marking() *MarkingService {
	markingOnce.Do(func() {
		db := database.DB()
		markingService = &MarkingService{
			sessions: repository.NewSessionRepository(db),
			records:  repository.NewRecordRepository(db),
			roster:   repository.NewRosterRepository(db),
			now:      time.Now,
		}
	})
	return markingService
}

// MarkEntry 处理一次签到或签退请求
func (s *MarkingService) MarkEntry(ctx context.Context, sessionID, actorID int64, actorRole string, req dto.MarkEntryRequest) (*dto.MarkEntryData, error) {
	mode := attendance.MarkMode(req.Mode)
	if mode != attendance.ModeCheckIn && mode != attendance.ModeCheckOut {
		return nil, pkgerrors.InvalidMarkMode
	}

	method := attendance.MarkMethod(req.Method)
	if method == "" {
		method = attendance.MethodGeo
	}
	if method != attendance.MethodGeo && method != attendance.MethodManual {
		return nil, pkgerrors.InvalidMarkMode
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}

	studentID := actorID
	markedBy := attendance.MarkedByStudent
	if req.StudentID > 0 && req.StudentID != actorID {
		if actorRole != string(model.GroupRoleRep) {
			return nil, pkgerrors.ForbiddenForRole
		}
		studentID = req.StudentID
		markedBy = attendance.MarkedByRep
	}

	switch session.Status {
	case model.SessionStatusUpcoming:
		return nil, pkgerrors.AttendanceUpcoming
	case model.SessionStatusClosed:
		return nil, pkgerrors.AttendanceClosed
	}

	member, err := s.lookupMember(ctx, session.GroupID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group member: %w", err)
	}
	if member == nil {
		return nil, pkgerrors.NotAllowedToMark
	}

	record, err := s.records.FindBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	if record == nil {
		// 激活后才入组的学生在首次打卡时补建记录
		record = &model.StudentAttendanceRecord{
			SessionID:           sessionID,
			StudentID:           studentID,
			StudentName:         member.Name,
			CheckInStatus:       attendance.CheckInAbsent,
			CheckOutStatus:      attendance.CheckOutMissed,
			FinalStatus:         attendance.FinalAbsent,
			JoinedAfterCreation: member.JoinedAt.After(session.CreatedAt),
		}
	}

	// 重开窗口走专用通道
	if session.Reopened {
		return Reopen().HandleReopenedMark(ctx, session, record, markedBy, req)
	}

	if err := validateMarkOrder(mode, record); err != nil {
		return nil, err
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}
	window, err := session.Window(loc)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reporter := reporterCoordinate(req)
	target := session.Location()

	geoChecked := false
	withinRange := true // 只有真正完成地理校验才可能落成 false
	var distance *int
	if method == attendance.MethodGeo && target != nil {
		prox, geoErr := attendance.VerifyProximity(reporter, target, session.RadiusMeters)
		if geoErr == nil {
			geoChecked = true
			withinRange = prox.WithinRange
			d := prox.DistanceMeters
			distance = &d
		}
		// 缺坐标不拦截，交给 FlagEngine 记 geo_disabled
	}

	attempt := attendance.Attempt{
		Mode:                mode,
		Method:              method,
		Time:                now,
		HasProof:            req.HasProof,
		JoinedAfterCreation: record.JoinedAfterCreation,
		CheckInTime:         record.CheckIn.Time,
	}
	if err := attendance.EnforceSettings(attendance.Settings(session.Settings), window, attempt); err != nil {
		return nil, err
	}

	flags := attendance.EvaluateFlags(attendance.FlagInput{
		MarkTime:    now,
		EntryStart:  window.EntryStart,
		EntryEnd:    window.EntryEnd,
		Method:      method,
		HasLocation: reporter != nil,
		GeoChecked:  geoChecked,
		WithinRange: withinRange,
	})

	detail := model.MarkDetail{
		Time:           &now,
		Method:         method,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DistanceMeters: distance,
	}

	switch mode {
	case attendance.ModeCheckIn:
		record.CheckIn = detail
		record.ArrivalDeltaMinutes = int(now.Sub(window.ClassStart) / time.Minute)
		if now.After(window.EntryStart) {
			record.CheckInStatus = attendance.CheckInLate
		} else {
			record.CheckInStatus = attendance.CheckInOnTime
		}
		record.WasWithinRange = withinRange
		record.CheckInVerified = geoChecked && withinRange
	case attendance.ModeCheckOut:
		record.CheckOut = detail
		record.DepartureDeltaMinutes = int(window.ClassEnd.Sub(now) / time.Minute)
		if now.Before(window.ClassEnd) {
			record.CheckOutStatus = attendance.CheckOutLeftEarly
		} else {
			record.CheckOutStatus = attendance.CheckOutOnTime
		}
		record.DurationMinutes = int(now.Sub(*record.CheckIn.Time) / time.Minute)
	}

	record.MarkedBy = markedBy
	if len(flags) > 0 {
		record.Flagged = true
		record.Flags = append(record.Flags, flags...)
		record.FlaggedAt = &now
	}

	pleaStatus := attendance.PleaNone
	if record.Plea != nil {
		pleaStatus = record.Plea.Status
	}
	record.FinalStatus = attendance.ResolveFinalStatus(record.CheckInStatus, record.CheckOutStatus, pleaStatus)

	if err := s.records.Save(ctx, record); err != nil {
		logger.Logger.Error("Failed to save attendance record",
			zap.Int64("session_id", sessionID),
			zap.Int64("student_id", studentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	if err := Session().RecomputeSummary(ctx, session); err != nil {
		logger.Logger.Error("Failed to recompute session summary",
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Attendance mark recorded",
		zap.Int64("session_id", sessionID),
		zap.Int64("student_id", studentID),
		zap.String("mode", string(mode)),
		zap.String("check_in_status", string(record.CheckInStatus)),
		zap.String("final_status", string(record.FinalStatus)),
		zap.Bool("flagged", record.Flagged),
	)

	markStatus := string(record.CheckInStatus)
	if mode == attendance.ModeCheckOut {
		markStatus = string(record.CheckOutStatus)
	}
	metrics.RecordMark(ctx, string(mode), markStatus, time.Since(now).Seconds())
	metrics.RecordFlags(ctx, len(flags))

	return buildMarkEntryData(session, record, mode, now, distance, withinRange), nil
}

// lookupMember 花名册走缓存，未命中时回源并整组回填
func (s *MarkingService) lookupMember(ctx context.Context, groupID, studentID int64) (*cache.RosterEntry, error) {
	roster, err := cache.GetGroupRoster(ctx, groupID)
	if err != nil {
		logger.Logger.Warn("Failed to read roster cache",
			zap.Int64("group_id", groupID),
			zap.Error(err),
		)
	}

	if roster == nil {
		members, err := s.roster.Members(ctx, groupID)
		if err != nil {
			return nil, err
		}

		roster = &cache.RosterCache{
			GroupID:   groupID,
			Members:   make([]cache.RosterEntry, 0, len(members)),
			UpdatedAt: s.now().Unix(),
		}
		for _, m := range members {
			roster.Members = append(roster.Members, cache.RosterEntry{
				StudentID: m.StudentID,
				Name:      m.Name,
				Email:     m.Email,
				Role:      string(m.Role),
				JoinedAt:  m.JoinedAt,
			})
		}

		if err := cache.SetGroupRoster(ctx, groupID, roster); err != nil {
			logger.Logger.Warn("Failed to write roster cache",
				zap.Int64("group_id", groupID),
				zap.Error(err),
			)
		}
	}

	for i := range roster.Members {
		if roster.Members[i].StudentID == studentID {
			return &roster.Members[i], nil
		}
	}
	return nil, nil
}

// validateMarkOrder 签退必须发生在签到之后，且两种标记各只允许一次
func validateMarkOrder(mode attendance.MarkMode, record *model.StudentAttendanceRecord) error {
	switch mode {
	case attendance.ModeCheckIn:
		if record.CheckIn.Time != nil {
			return pkgerrors.AlreadyCheckedIn
		}
	case attendance.ModeCheckOut:
		if record.CheckIn.Time == nil {
			return pkgerrors.CheckInRequired
		}
		if record.CheckOut.Time != nil {
			return pkgerrors.AlreadyCheckedOut
		}
	}
	return nil
}

func reporterCoordinate(req dto.MarkEntryRequest) *attendance.Coordinate {
	if req.Latitude == nil || req.Longitude == nil {
		return nil
	}
	return &attendance.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
}

func buildMarkEntryData(session *model.AttendanceSession, record *model.StudentAttendanceRecord, mode attendance.MarkMode, at time.Time, distance *int, withinRange bool) *dto.MarkEntryData {
	data := &dto.MarkEntryData{
		SessionID:             session.ID,
		StudentID:             record.StudentID,
		Mode:                  string(mode),
		MarkedAt:              at,
		CheckInStatus:         string(record.CheckInStatus),
		CheckOutStatus:        string(record.CheckOutStatus),
		FinalStatus:           string(record.FinalStatus),
		ArrivalDeltaMinutes:   record.ArrivalDeltaMinutes,
		DepartureDeltaMinutes: record.DepartureDeltaMinutes,
		DurationMinutes:       record.DurationMinutes,
		DistanceMeters:        distance,
		WithinRange:           withinRange,
		Flagged:               record.Flagged,
		Reopened:              session.Reopened,
	}
	for _, f := range record.Flags {
		data.FlagCodes = append(data.FlagCodes, string(f.Code))
	}
	return data
}
