package service

import (
	"context"
	"fmt"
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
	"RollCall/pkg/metrics"
	"RollCall/storage/database"
)

// 重开子协议：课代表发起重开，指定名单内的学生走专用补卡通道

type ReopenService struct {
	sessions *repository.SessionRepository
	records  *repository.RecordRepository
	roster   *repository.RosterRepository
	now      func() time.Time
}

var (
	reopenService *ReopenService
	reopenOnce    sync.Once
)

func Reopen() *ReopenService {
	reopenOnce.Do(func() {
		db := database.DB()
		reopenService = &ReopenService{
			sessions: repository.NewSessionRepository(db),
			records:  repository.NewRecordRepository(db),
			roster:   repository.NewRosterRepository(db),
			now:      time.Now,
		}
	})
	return reopenService
}

// ReopenSession 在正常关闭后重开一个场次
func (s *ReopenService) ReopenSession(ctx context.Context, sessionID, actorID int64, actorRole string, req dto.ReopenSessionRequest) (*dto.ReopenSessionData, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}
	if actorRole != string(model.GroupRoleRep) && session.CreatedBy != actorID {
		return nil, pkgerrors.ForbiddenForRole
	}

	switch session.Status {
	case model.SessionStatusUpcoming:
		return nil, pkgerrors.AttendanceUpcoming
	case model.SessionStatusActive:
		if !session.Reopened {
			return nil, pkgerrors.Definition{
				Code:    "ATTENDANCE_STILL_ACTIVE",
				Message: "Attendance session is still active, close it before reopening",
			}
		}
	}

	minutes, ok := attendance.ParseOffset(req.Duration)
	if !ok || minutes <= 0 {
		return nil, pkgerrors.InvalidReopenDuration
	}
	if minutes > config.Cfg.MaxReopenMinutes {
		return nil, pkgerrors.WithMessage(pkgerrors.InvalidReopenDuration,
			fmt.Sprintf("Reopen duration %d minute(s) exceeds the maximum of %d", minutes, config.Cfg.MaxReopenMinutes))
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}
	classEnd, err := attendance.ParseClassTime(session.ClassDate, session.ClassEnd, loc)
	if err != nil {
		return nil, pkgerrors.InvalidTimeRange
	}

	now := s.now()
	until := now.Add(time.Duration(minutes) * time.Minute)
	// 重开窗口从不越过下课时间
	if until.After(classEnd) {
		until = classEnd
	}
	if !until.After(now) {
		return nil, pkgerrors.WithMessage(pkgerrors.InvalidReopenDuration,
			"Class has already ended, the reopen window would be empty")
	}

	allowed, err := s.resolveAllowList(ctx, session, req)
	if err != nil {
		return nil, err
	}

	session.Status = model.SessionStatusActive
	session.Reopened = true
	session.ReopenedUntil = &until
	session.ReopenAllowedStudents = allowed
	session.ReopenFeatures = mergeReopenFeatures(req.Features)

	if err := s.sessions.Save(ctx, session); err != nil {
		logger.Logger.Error("Failed to reopen session",
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to reopen session: %w", err)
	}

	logger.Logger.Info("Attendance session reopened",
		zap.Int64("session_id", sessionID),
		zap.Int64("reopened_by", actorID),
		zap.Time("reopened_until", until),
		zap.Int("allowed_students", len(allowed)),
	)

	strategy := req.Strategy
	if strategy == "" {
		strategy = string(attendance.ReopenAll)
	}
	metrics.RecordSessionReopened(ctx, strategy)

	return &dto.ReopenSessionData{
		SessionID:       sessionID,
		ReopenedUntil:   until,
		Strategy:        strategy,
		AllowedStudents: allowed,
	}, nil
}

// HandleReopenedMark 重开窗口内的标记请求，由打卡主管线转入
func (s *ReopenService) HandleReopenedMark(ctx context.Context, session *model.AttendanceSession, record *model.StudentAttendanceRecord, markedBy attendance.MarkedBy, req dto.MarkEntryRequest) (*dto.MarkEntryData, error) {
	loc, err := config.LoadClassLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load class timezone: %w", err)
	}
	window, err := session.Window(loc)
	if err != nil {
		return nil, err
	}

	now := s.now()
	features := attendance.ReopenFeatures(session.ReopenFeatures)

	geoChecked := false
	withinRange := false
	var distance *int
	if target := session.Location(); target != nil {
		if prox, geoErr := attendance.VerifyProximity(reporterCoordinate(req), target, session.RadiusMeters); geoErr == nil {
			geoChecked = true
			withinRange = prox.WithinRange
			d := prox.DistanceMeters
			distance = &d
		}
	}

	state := attendance.ReopenState{
		AllowedStudents: session.ReopenAllowedStudents,
		Until:           session.ReopenedUntil,
		Features:        features,
	}
	attempt := attendance.ReopenAttempt{
		StudentID:   record.StudentID,
		Time:        now,
		GeoChecked:  geoChecked,
		WithinRange: withinRange,
	}

	plan, err := attendance.PlanReopenMark(state, record.Snapshot(), attempt, window.ClassStart, window.ClassEnd)
	if err != nil {
		return nil, err
	}

	detail := model.MarkDetail{
		Time:           &now,
		Method:         attendance.MarkMethod(req.Method),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DistanceMeters: distance,
	}
	if detail.Method == "" {
		detail.Method = attendance.MethodGeo
	}

	switch plan.Kind {
	case attendance.ReopenFreshPair:
		record.CheckIn = detail
		record.CheckOut = detail
	case attendance.ReopenLateCheckOut:
		record.CheckOut = detail
	}

	record.CheckInStatus = plan.CheckInStatus
	record.CheckOutStatus = plan.CheckOutStatus
	record.FinalStatus = plan.FinalStatus
	record.ArrivalDeltaMinutes = plan.ArrivalDeltaMinutes
	record.DepartureDeltaMinutes = plan.DepartureDeltaMinutes
	record.DurationMinutes = plan.DurationMinutes
	record.MarkedBy = markedBy
	if geoChecked {
		record.WasWithinRange = withinRange
	}

	// 重开路径的每次落子都留痕，与正常通道区分
	record.AppendMeta(model.MetaEntry{
		Type:        "reopen_mark",
		Description: fmt.Sprintf("Marked via reopen window (%s)", plan.Kind),
		Data: map[string]any{
			"kind":            string(plan.Kind),
			"check_in_status": string(plan.CheckInStatus),
			"check_out_status": string(plan.CheckOutStatus),
			"final_status":    string(plan.FinalStatus),
			"marked_at":       now.Format(time.RFC3339),
		},
		CreatedBy: record.StudentID,
		CreatedAt: now,
	})

	if err := s.records.Save(ctx, record); err != nil {
		logger.Logger.Error("Failed to save reopened mark",
			zap.Int64("session_id", session.ID),
			zap.Int64("student_id", record.StudentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	if err := Session().RecomputeSummary(ctx, session); err != nil {
		logger.Logger.Error("Failed to recompute session summary",
			zap.Int64("session_id", session.ID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Reopened mark recorded",
		zap.Int64("session_id", session.ID),
		zap.Int64("student_id", record.StudentID),
		zap.String("kind", string(plan.Kind)),
		zap.String("final_status", string(plan.FinalStatus)),
	)

	mode := attendance.ModeCheckIn
	if plan.Kind == attendance.ReopenLateCheckOut {
		mode = attendance.ModeCheckOut
	}
	return buildMarkEntryData(session, record, mode, now, distance, withinRange), nil
}

// resolveAllowList 计算重开名单：all 为原先完成双签的学生，custom 为显式名单
func (s *ReopenService) resolveAllowList(ctx context.Context, session *model.AttendanceSession, req dto.ReopenSessionRequest) (model.StudentIDList, error) {
	strategy := attendance.ReopenStrategy(req.Strategy)
	if strategy == "" {
		strategy = attendance.ReopenAll
	}

	switch strategy {
	case attendance.ReopenCustom:
		if len(req.Students) == 0 {
			return nil, pkgerrors.WithMessage(pkgerrors.MissingFields,
				"Custom reopen strategy requires a non-empty student list")
		}
		allowed := make(model.StudentIDList, 0, len(req.Students))
		for _, id := range req.Students {
			member, err := s.roster.Member(ctx, session.GroupID, id)
			if err != nil {
				return nil, fmt.Errorf("failed to query group member: %w", err)
			}
			if member == nil {
				return nil, pkgerrors.NotAllowedToMark
			}
			allowed = append(allowed, id)
		}
		return allowed, nil

	case attendance.ReopenAll:
		records, err := s.records.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		var allowed model.StudentIDList
		for i := range records {
			if records[i].CheckIn.Time != nil && records[i].CheckOut.Time != nil {
				allowed = append(allowed, records[i].StudentID)
			}
		}
		return allowed, nil

	default:
		return nil, pkgerrors.WithMessage(pkgerrors.MissingFields,
			"Reopen strategy must be all or custom")
	}
}

func mergeReopenFeatures(p *dto.ReopenFeaturesPayload) model.ReopenFeatureSet {
	features := attendance.DefaultReopenFeatures()
	if p != nil {
		if p.AllowFreshCheckInOut != nil {
			features.AllowFreshCheckInOut = *p.AllowFreshCheckInOut
		}
		if p.AllowCheckOutForCheckedIn != nil {
			features.AllowCheckOutForCheckedIn = *p.AllowCheckOutForCheckedIn
		}
		if p.EnableFinalStatusControl != nil {
			features.EnableFinalStatusControl = *p.EnableFinalStatusControl
		}
		if p.RequireGeo != nil {
			features.RequireGeo = *p.RequireGeo
		}
		if p.AbsentHandling != nil {
			features.FinalStatusRules.AbsentHandling = attendance.FinalStatus(*p.AbsentHandling)
		}
		if p.PartialHandling != nil {
			features.FinalStatusRules.PartialHandling = attendance.FinalStatus(*p.PartialHandling)
		}
	}
	return model.ReopenFeatureSet(features)
}
