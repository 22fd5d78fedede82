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
	"RollCall/internal/queue"
	"RollCall/internal/repository"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/pkg/metrics"
	"RollCall/storage/database"
)

// 生命周期迁移：激活、关闭、结算，都是幂等的 tick 函数，由调度器驱动

type LifecycleService struct {
	sessions *repository.SessionRepository
	records  *repository.RecordRepository
	roster   *repository.RosterRepository
	now      func() time.Time
}

var (
	lifecycleService *LifecycleService
	lifecycleOnce    sync.Once
)

func Lifecycle() *LifecycleService {
	lifecycleOnce.Do(func() {
		db := database.DB()
		lifecycleService = &LifecycleService{
			sessions: repository.NewSessionRepository(db),
			records:  repository.NewRecordRepository(db),
			roster:   repository.NewRosterRepository(db),
			now:      time.Now,
		}
	})
	return lifecycleService
}

// seedAbsentRecords 为组内每个成员生成一条初始缺勤记录；学生打卡时改写，
// 从未打卡则结算时维持缺勤
func seedAbsentRecords(session *model.AttendanceSession, members []model.GroupMember) ([]model.StudentAttendanceRecord, []int64) {
	seeds := make([]model.StudentAttendanceRecord, 0, len(members))
	studentIDs := make([]int64, 0, len(members))
	for _, member := range members {
		studentIDs = append(studentIDs, member.StudentID)
		seeds = append(seeds, model.StudentAttendanceRecord{
			SessionID:      session.ID,
			StudentID:      member.StudentID,
			StudentName:    member.Name,
			CheckInStatus:  attendance.CheckInAbsent,
			CheckOutStatus: attendance.CheckOutMissed,
			FinalStatus:    attendance.FinalAbsent,
			MarkedBy:       attendance.MarkedBySystem,
		})
	}
	return seeds, studentIDs
}

// settleUnmarkedRecord 把没有签到的记录锁定为缺勤并重新派生终态，
// 返回记录是否被改写。已签到或已是缺勤终态的记录原样跳过，结算因此幂等。
func settleUnmarkedRecord(record *model.StudentAttendanceRecord) bool {
	if record.CheckIn.Time != nil {
		return false
	}
	if record.FinalStatus == attendance.FinalAbsent && record.CheckInStatus == attendance.CheckInAbsent {
		return false
	}
	record.CheckInStatus = attendance.CheckInAbsent
	record.CheckOutStatus = attendance.CheckOutMissed
	pleaStatus := attendance.PleaNone
	if record.Plea != nil {
		pleaStatus = record.Plea.Status
	}
	record.FinalStatus = attendance.ResolveFinalStatus(record.CheckInStatus, record.CheckOutStatus, pleaStatus)
	return true
}

// ActivateSession 激活单个场次：播种缺勤记录，upcoming -> active，发激活消息
func (s *LifecycleService) ActivateSession(ctx context.Context, session *model.AttendanceSession) error {
	members, err := s.roster.Members(ctx, session.GroupID)
	if err != nil {
		return fmt.Errorf("failed to list group members: %w", err)
	}

	seeds, studentIDs := seedAbsentRecords(session, members)
	if err := s.records.BulkCreate(ctx, seeds); err != nil {
		return fmt.Errorf("failed to seed absent records: %w", err)
	}

	updated, err := s.sessions.UpdateStatusIf(ctx, session.ID,
		model.SessionStatusUpcoming, model.SessionStatusActive,
		map[string]interface{}{"initialized": true})
	if err != nil {
		return fmt.Errorf("failed to activate session: %w", err)
	}
	if !updated {
		// 别的实例抢先激活了
		return nil
	}

	loc, err := config.LoadClassLocation()
	if err != nil {
		return fmt.Errorf("failed to load class timezone: %w", err)
	}
	window, err := attendance.ComputeWindow(session.ClassDate, session.ClassStart, session.ClassEnd,
		session.EntryStart, session.EntryEnd, loc)
	if err != nil {
		return err
	}

	msg := model.SessionActivatedMessage{
		SessionID:   session.ID,
		SessionCode: session.SessionCode,
		GroupID:     session.GroupID,
		CourseCode:  session.CourseCode,
		CourseTitle: session.CourseTitle,
		ClassDate:   session.ClassDate,
		ClassStart:  session.ClassStart,
		ClassEnd:    session.ClassEnd,
		EntryEndAt:  window.EntryEnd.Format("15:04"),
		StudentIDs:  studentIDs,
		ScheduledAt: s.now().Format(time.RFC3339),
	}
	if err := queue.PublishSessionActivated(ctx, msg); err != nil {
		// 消息发布失败不回滚激活，下一轮靠缓存标记防止重发
		logger.Logger.Error("Failed to publish activation message",
			zap.Int64("session_id", session.ID),
			zap.Error(err),
		)
		return err
	}

	metrics.RecordSessionActivated(ctx)
	logger.Logger.Info("Session activated",
		zap.Int64("session_id", session.ID),
		zap.String("session_code", session.SessionCode),
		zap.Int("seeded_records", len(seeds)),
	)
	return nil
}

// CloseSession 关闭单个场次：active -> closed，重开状态一并清掉
func (s *LifecycleService) CloseSession(ctx context.Context, session *model.AttendanceSession) (bool, error) {
	updated, err := s.sessions.UpdateStatusIf(ctx, session.ID,
		model.SessionStatusActive, model.SessionStatusClosed,
		map[string]interface{}{
			"reopened":       false,
			"reopened_until": nil,
		})
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}
	if updated {
		metrics.RecordSessionClosed(ctx)
		logger.Logger.Info("Session closed",
			zap.Int64("session_id", session.ID),
			zap.String("session_code", session.SessionCode),
		)
	}
	return updated, nil
}

// FinalizeSession 结算：没签到的锁定为 absent，汇总全量重算，通知课代表
func (s *LifecycleService) FinalizeSession(ctx context.Context, session *model.AttendanceSession) error {
	// 调度器和手动结算接口可能同时到达，结算本身幂等，锁只是少做无用功
	lockKey := fmt.Sprintf("finalize:%d", session.ID)
	locked, err := cache.TryLock(ctx, lockKey, time.Minute)
	if err != nil {
		logger.Logger.Warn("Failed to acquire finalize lock, proceeding without it",
			zap.Int64("session_id", session.ID),
			zap.Error(err),
		)
	} else if !locked {
		return pkgerrors.FinalizeInProgress
	} else {
		defer cache.Unlock(ctx, lockKey)
	}

	records, err := s.records.ListBySession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	for i := range records {
		record := &records[i]
		if !settleUnmarkedRecord(record) {
			continue
		}
		if err := s.records.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to finalize record: %w", err)
		}
	}

	session.SummaryStats = model.ComputeSummaryStats(records)
	session.Status = model.SessionStatusClosed
	session.Reopened = false
	session.ReopenedUntil = nil
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save finalized session: %w", err)
	}

	flagged, err := s.records.CountFlagged(ctx, session.ID)
	if err != nil {
		logger.Logger.Warn("Failed to count flagged records",
			zap.Int64("session_id", session.ID),
			zap.Error(err),
		)
	}

	var recipientID int64
	if rep, err := s.roster.Rep(ctx, session.GroupID); err == nil && rep != nil {
		recipientID = rep.StudentID
	} else {
		recipientID = session.CreatedBy
	}

	msg := model.SessionSummaryMessage{
		SessionID:    session.ID,
		SessionCode:  session.SessionCode,
		GroupID:      session.GroupID,
		RecipientID:  recipientID,
		CourseCode:   session.CourseCode,
		CourseTitle:  session.CourseTitle,
		ClassDate:    session.ClassDate,
		Stats:        session.SummaryStats,
		FlaggedCount: int(flagged),
		ScheduledAt:  s.now().Format(time.RFC3339),
	}
	if err := queue.PublishSessionSummary(ctx, msg); err != nil {
		return err
	}

	metrics.RecordSessionFinalized(ctx)
	logger.Logger.Info("Session finalized",
		zap.Int64("session_id", session.ID),
		zap.Int("total_present", session.SummaryStats.TotalPresent),
		zap.Int("absent", session.SummaryStats.Absent),
	)
	return nil
}
