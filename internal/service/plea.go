package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"RollCall/internal/attendance"
	"RollCall/internal/model"
	"RollCall/internal/model/dto"
	"RollCall/internal/repository"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/storage/database"
)

// 缺勤申诉：学生提交，课代表审核，批准后最终状态改写为 excused

type PleaService struct {
	sessions *repository.SessionRepository
	records  *repository.RecordRepository
	now      func() time.Time
}

var (
	pleaService *PleaService
	pleaOnce    sync.Once
)

func Plea() *PleaService {
	pleaOnce.Do(func() {
		db := database.DB()
		pleaService = &PleaService{
			sessions: repository.NewSessionRepository(db),
			records:  repository.NewRecordRepository(db),
			now:      time.Now,
		}
	})
	return pleaService
}

// SubmitPlea 学生为自己的缺勤记录提交申诉
func (s *PleaService) SubmitPlea(ctx context.Context, sessionID, studentID int64, req dto.SubmitPleaRequest) (*dto.PleaData, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}

	record, err := s.records.FindBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	if record == nil {
		return nil, pkgerrors.RecordNotFound
	}

	if record.Plea != nil && record.Plea.Status != attendance.PleaNone {
		if record.Plea.Status == attendance.PleaPending {
			return nil, pkgerrors.WithMessage(pkgerrors.PleaAlreadyReviewed,
				"A plea is already pending review for this record")
		}
		return nil, pkgerrors.PleaAlreadyReviewed
	}

	now := s.now()
	record.Plea = &model.PleaInfo{
		Message:       req.Message,
		Reasons:       req.Reasons,
		ProofFileName: req.ProofFileName,
		ProofURL:      req.ProofURL,
		SubmittedAt:   now,
		Status:        attendance.PleaPending,
	}
	record.AppendMeta(model.MetaEntry{
		Type:        "plea_submitted",
		Description: "Absence plea submitted",
		CreatedBy:   studentID,
		CreatedAt:   now,
	})

	if err := s.records.Save(ctx, record); err != nil {
		logger.Logger.Error("Failed to save plea",
			zap.Int64("session_id", sessionID),
			zap.Int64("student_id", studentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save plea: %w", err)
	}

	if err := Session().RecomputeSummary(ctx, session); err != nil {
		logger.Logger.Error("Failed to recompute session summary",
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Absence plea submitted",
		zap.Int64("session_id", sessionID),
		zap.Int64("student_id", studentID),
	)

	return pleaData(record), nil
}

// ReviewPlea 课代表审核申诉，批准后重算最终状态
func (s *PleaService) ReviewPlea(ctx context.Context, sessionID, studentID, reviewerID int64, actorRole string, req dto.ReviewPleaRequest) (*dto.PleaData, error) {
	if actorRole != string(model.GroupRoleRep) {
		return nil, pkgerrors.ForbiddenForRole
	}

	decision := attendance.PleaStatus(req.Decision)
	if decision != attendance.PleaApproved && decision != attendance.PleaRejected {
		return nil, pkgerrors.InvalidPleaStatus
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		return nil, pkgerrors.AttendanceNotFound
	}

	record, err := s.records.FindBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	if record == nil {
		return nil, pkgerrors.RecordNotFound
	}
	if record.Plea == nil || record.Plea.Status == attendance.PleaNone {
		return nil, pkgerrors.PleaNotSubmitted
	}
	if record.Plea.Status != attendance.PleaPending {
		return nil, pkgerrors.PleaAlreadyReviewed
	}

	now := s.now()
	record.Plea.Status = decision
	record.Plea.ReviewedAt = &now
	record.Plea.ReviewedBy = reviewerID
	record.Plea.ReviewerNote = req.Note
	record.FinalStatus = attendance.ResolveFinalStatus(record.CheckInStatus, record.CheckOutStatus, decision)
	record.AppendMeta(model.MetaEntry{
		Type:        "plea_reviewed",
		Description: fmt.Sprintf("Plea %s by reviewer", decision),
		Data:        map[string]any{"decision": string(decision)},
		CreatedBy:   reviewerID,
		CreatedAt:   now,
	})

	if err := s.records.Save(ctx, record); err != nil {
		logger.Logger.Error("Failed to save plea review",
			zap.Int64("session_id", sessionID),
			zap.Int64("student_id", studentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save plea review: %w", err)
	}

	if err := Session().RecomputeSummary(ctx, session); err != nil {
		logger.Logger.Error("Failed to recompute session summary",
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Absence plea reviewed",
		zap.Int64("session_id", sessionID),
		zap.Int64("student_id", studentID),
		zap.String("decision", string(decision)),
	)

	return pleaData(record), nil
}

func pleaData(record *model.StudentAttendanceRecord) *dto.PleaData {
	data := &dto.PleaData{
		SessionID:   record.SessionID,
		StudentID:   record.StudentID,
		FinalStatus: string(record.FinalStatus),
	}
	if record.Plea != nil {
		data.Status = string(record.Plea.Status)
		data.Message = record.Plea.Message
		data.Reasons = record.Plea.Reasons
		data.SubmittedAt = record.Plea.SubmittedAt
		data.ReviewedAt = record.Plea.ReviewedAt
		data.ReviewerNote = record.Plea.ReviewerNote
	}
	return data
}
