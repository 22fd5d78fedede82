package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"RollCall/config"
	"RollCall/internal/attendance"
	"RollCall/internal/model"
	"RollCall/internal/model/dto"
	"RollCall/internal/repository"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/pkg/snowflake"
	"RollCall/storage/database"
	"RollCall/utils"
)

// 场次创建后由调度器激活，这里只负责建档与查询

type SessionService struct {
	sessions *repository.SessionRepository
	records  *repository.RecordRepository
	roster   *repository.RosterRepository
	now      func() time.Time
}

var (
	sessionService *SessionService
	sessionOnce    sync.Once
)

func Session() *SessionService {
	sessionOnce.Do(func() {
		db := database.DB()
		sessionService = &SessionService{
			sessions: repository.NewSessionRepository(db),
			records:  repository.NewRecordRepository(db),
			roster:   repository.NewRosterRepository(db),
			now:      time.Now,
		}
	})
	return sessionService
}

// CreateSession 创建考勤场次，所有校验失败都返回带错误码的 Definition
func (s *SessionService) CreateSession(ctx context.Context, userID int64, req dto.CreateSessionRequest) (*dto.SessionData, error) {
	if req.GroupID <= 0 || req.ScheduleID <= 0 ||
		req.CourseCode == "" || req.CourseTitle == "" ||
		req.ClassDate == "" || req.ClassStart == "" || req.ClassEnd == "" {
		return nil, pkgerrors.MissingFields
	}

	if req.LecturerEmail != "" && !utils.ValidateEmail(req.LecturerEmail) {
		return nil, pkgerrors.WithMessage(pkgerrors.InvalidRequest, "Lecturer email is not a valid address")
	}

	group, err := s.roster.GroupByID(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}
	if group == nil {
		return nil, pkgerrors.GroupNotFound
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}

	classStart, err := attendance.ParseClassTime(req.ClassDate, req.ClassStart, loc)
	if err != nil {
		return nil, pkgerrors.InvalidTimeRange
	}
	classEnd, err := attendance.ParseClassTime(req.ClassDate, req.ClassEnd, loc)
	if err != nil {
		return nil, pkgerrors.InvalidTimeRange
	}
	if !classEnd.After(classStart) {
		return nil, pkgerrors.InvalidTimeRange
	}
	minClass := time.Duration(config.Cfg.MinimumClassMinutes) * time.Minute
	if classEnd.Sub(classStart) < minClass {
		return nil, pkgerrors.WithMessage(pkgerrors.InvalidTimeRange,
			fmt.Sprintf("Class must run at least %d minutes", config.Cfg.MinimumClassMinutes))
	}

	entryStart := req.EntryStart
	if entryStart == "" {
		entryStart = config.Cfg.DefaultEntryStart
	}
	entryEnd := req.EntryEnd
	if entryEnd == "" {
		entryEnd = config.Cfg.DefaultEntryEnd
	}
	if err := attendance.ValidateEntryOffsets(entryStart, entryEnd, req.ClassStart, req.ClassEnd); err != nil {
		return nil, err
	}

	if err := validateSessionLocation(req.Latitude, req.Longitude, req.RadiusMeters); err != nil {
		return nil, err
	}

	dup, err := s.sessions.FindDuplicate(ctx, req.ScheduleID, req.ClassDate, req.ClassStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate session: %w", err)
	}
	if dup != nil {
		return nil, pkgerrors.AttendanceExists
	}

	code, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session code: %w", err)
	}

	kind := model.AttendancePhysical
	if req.Kind == string(model.AttendanceVirtual) {
		kind = model.AttendanceVirtual
	}
	autoEnd := true
	if req.AutoEnd != nil {
		autoEnd = *req.AutoEnd
	}

	session := &model.AttendanceSession{
		SessionCode:   fmt.Sprintf("ATT-%d", code),
		GroupID:       req.GroupID,
		ScheduleID:    req.ScheduleID,
		CourseCode:    req.CourseCode,
		CourseTitle:   req.CourseTitle,
		LecturerName:  req.LecturerName,
		LecturerEmail: req.LecturerEmail,
		ClassDate:     req.ClassDate,
		ClassStart:    req.ClassStart,
		ClassEnd:      req.ClassEnd,
		EntryStart:    entryStart,
		EntryEnd:      entryEnd,
		Kind:          kind,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		RadiusMeters:  req.RadiusMeters,
		Settings:      mergeSettings(req.Settings),
		Status:        model.SessionStatusUpcoming,
		AutoEnd:       autoEnd,
		CreatedBy:     userID,
		Notes:         req.Notes,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		logger.Logger.Error("Failed to create attendance session",
			zap.Int64("group_id", req.GroupID),
			zap.Int64("schedule_id", req.ScheduleID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.Logger.Info("Attendance session created",
		zap.Int64("session_id", session.ID),
		zap.String("session_code", session.SessionCode),
		zap.String("class_date", session.ClassDate),
	)

	data := toSessionData(session, loc)
	return &data, nil
}

// GetSession 查询场次详情
func (s *SessionService) GetSession(ctx context.Context, sessionID int64) (*dto.SessionData, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}
	data := toSessionData(session, loc)
	data.Stats = summaryData(session.SummaryStats)
	return &data, nil
}

// GetGroupSessions 分页列出小组的场次
func (s *SessionService) GetGroupSessions(ctx context.Context, groupID int64, q dto.GroupSessionsQuery) (*dto.GroupSessionsData, error) {
	group, err := s.roster.GroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}
	if group == nil {
		return nil, pkgerrors.GroupNotFound
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var cursor int64
	if q.Cursor != "" {
		cursor, err = strconv.ParseInt(q.Cursor, 10, 64)
		if err != nil {
			cursor = 0
		}
	}

	sessions, err := s.sessions.ListByGroup(ctx, groupID, q.Status, q.From, q.To, limit+1, cursor)
	if err != nil {
		logger.Logger.Error("Failed to list group sessions",
			zap.Int64("group_id", groupID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var nextCursor string
	if len(sessions) > limit {
		nextCursor = strconv.FormatInt(sessions[limit-1].ID, 10)
		sessions = sessions[:limit]
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}

	items := make([]dto.SessionData, 0, len(sessions))
	for i := range sessions {
		item := toSessionData(&sessions[i], loc)
		item.Stats = summaryData(sessions[i].SummaryStats)
		items = append(items, item)
	}

	return &dto.GroupSessionsData{Sessions: items, NextCursor: nextCursor}, nil
}

// GetSessionTab 课代表视角：场次详情加全部学生记录
func (s *SessionService) GetSessionTab(ctx context.Context, sessionID int64) (*dto.SessionTabData, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}

	records, err := s.records.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}

	tab := &dto.SessionTabData{Session: toSessionData(session, loc)}
	tab.Session.Stats = summaryData(session.SummaryStats)
	for i := range records {
		r := &records[i]
		if r.Flagged {
			tab.Flagged++
		}
		tab.Records = append(tab.Records, toRecordData(r))
	}
	return tab, nil
}

// DeleteSession 删除场次及其全部学生记录，只有创建者可删
func (s *SessionService) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return pkgerrors.AttendanceNotFound
	}
	if session.CreatedBy != userID {
		return pkgerrors.ForbiddenForRole
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Logger.Error("Failed to delete session",
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	logger.Logger.Info("Attendance session deleted",
		zap.Int64("session_id", sessionID),
		zap.Int64("deleted_by", userID),
	)
	return nil
}

// FinalizeSession 课代表手动结算场次：锁定未打卡记录为缺勤并返回汇总
func (s *SessionService) FinalizeSession(ctx context.Context, userID, sessionID int64) (*dto.SummaryData, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}
	if session.Status == model.SessionStatusClosed {
		return nil, pkgerrors.AttendanceClosed
	}
	if session.Status == model.SessionStatusUpcoming {
		return nil, pkgerrors.AttendanceUpcoming
	}

	if err := Lifecycle().FinalizeSession(ctx, session); err != nil {
		return nil, err
	}

	logger.Logger.Info("Attendance session finalized manually",
		zap.Int64("session_id", sessionID),
		zap.Int64("finalized_by", userID),
	)
	return summaryData(session.SummaryStats), nil
}

// RecomputeSummary 从记录全量重算并保存场次汇总
func (s *SessionService) RecomputeSummary(ctx context.Context, session *model.AttendanceSession) error {
	records, err := s.records.ListBySession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	session.SummaryStats = model.ComputeSummaryStats(records)
	return s.sessions.Save(ctx, session)
}

func validateSessionLocation(lat, lon *float64, radius int) error {
	if lat == nil && lon == nil {
		return nil
	}
	if lat == nil || lon == nil {
		return pkgerrors.InvalidLocation
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return pkgerrors.InvalidLocation
	}
	if radius <= 0 {
		return pkgerrors.WithMessage(pkgerrors.InvalidLocation,
			"Radius must be a positive number of meters when a location is set")
	}
	return nil
}

func mergeSettings(p *dto.SessionSettingsPayload) model.SessionSettings {
	settings := attendance.DefaultSettings()
	if p != nil {
		if p.ProofRequirement != nil {
			settings.ProofRequirement = attendance.ProofRequirement(*p.ProofRequirement)
		}
		if p.AllowLateJoiners != nil {
			settings.AllowLateJoiners = *p.AllowLateJoiners
		}
		if p.AllowEarlyCheckIn != nil {
			settings.AllowEarlyCheckIn = *p.AllowEarlyCheckIn
		}
		if p.AllowLateCheckIn != nil {
			settings.AllowLateCheckIn = *p.AllowLateCheckIn
		}
		if p.AllowEarlyCheckOut != nil {
			settings.AllowEarlyCheckOut = *p.AllowEarlyCheckOut
		}
		if p.AllowLateCheckOut != nil {
			settings.AllowLateCheckOut = *p.AllowLateCheckOut
		}
		if p.EnableCheckInOut != nil {
			settings.EnableCheckInOut = *p.EnableCheckInOut
		}
		if p.MinimumPresenceDuration != nil && *p.MinimumPresenceDuration >= 0 {
			settings.MinimumPresenceDuration = *p.MinimumPresenceDuration
		}
	}
	return model.SessionSettings(settings)
}

func toSessionData(session *model.AttendanceSession, loc *time.Location) dto.SessionData {
	data := dto.SessionData{
		ID:            session.ID,
		SessionCode:   session.SessionCode,
		GroupID:       session.GroupID,
		ScheduleID:    session.ScheduleID,
		CourseCode:    session.CourseCode,
		CourseTitle:   session.CourseTitle,
		LecturerName:  session.LecturerName,
		ClassDate:     session.ClassDate,
		ClassStart:    session.ClassStart,
		ClassEnd:      session.ClassEnd,
		Kind:          string(session.Kind),
		Status:        string(session.Status),
		AutoEnd:       session.AutoEnd,
		Reopened:      session.Reopened,
		ReopenedUntil: session.ReopenedUntil,
		RadiusMeters:  session.RadiusMeters,
		CreatedAt:     session.CreatedAt,
	}
	if w, err := session.Window(loc); err == nil {
		data.EntryStartAt = w.EntryStart
		data.EntryEndAt = w.EntryEnd
	}
	return data
}

func summaryData(stats model.SummaryStats) *dto.SummaryData {
	return &dto.SummaryData{
		TotalPresent: stats.TotalPresent,
		OnTime:       stats.OnTime,
		Late:         stats.Late,
		LeftEarly:    stats.LeftEarly,
		Absent:       stats.Absent,
		WithPlea:     stats.WithPlea,
	}
}

func toRecordData(r *model.StudentAttendanceRecord) dto.RecordData {
	data := dto.RecordData{
		StudentID:       r.StudentID,
		StudentName:     r.StudentName,
		CheckInStatus:   string(r.CheckInStatus),
		CheckOutStatus:  string(r.CheckOutStatus),
		FinalStatus:     string(r.FinalStatus),
		CheckInAt:       r.CheckIn.Time,
		CheckOutAt:      r.CheckOut.Time,
		DurationMinutes: r.DurationMinutes,
		MarkedBy:        string(r.MarkedBy),
		Flagged:         r.Flagged,
	}
	if r.Plea != nil {
		data.PleaStatus = string(r.Plea.Status)
	}
	return data
}
