package schedule

// 场次调度器：周期扫描驱动 upcoming -> active -> closed 迁移，全部为幂等 tick

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
	"RollCall/internal/repository"
	"RollCall/internal/service"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	"RollCall/storage/database"
)

var (
	schedulerOnce sync.Once
	schedulerInst *SessionScheduler
)

type SessionScheduler struct {
	logger   *zap.Logger
	sessions *repository.SessionRepository

	activatorRunning bool
	activatorMu      sync.Mutex
	closerRunning    bool
	closerMu         sync.Mutex
	finalizerRunning bool
	finalizerMu      sync.Mutex

	now func() time.Time
}

func GetScheduler() *SessionScheduler {
	schedulerOnce.Do(func() {
		schedulerInst = &SessionScheduler{
			logger:   logger.Logger,
			sessions: repository.NewSessionRepository(database.DB()),
			now:      time.Now,
		}
	})
	return schedulerInst
}

// ActivateDueSessions 激活今天所有未初始化的 upcoming 场次
func (s *SessionScheduler) ActivateDueSessions(ctx context.Context) error {
	s.activatorMu.Lock()
	if s.activatorRunning {
		s.activatorMu.Unlock()
		s.logger.Info("Activator tick already running, skipping")
		return nil
	}
	s.activatorRunning = true
	s.activatorMu.Unlock()

	defer func() {
		s.activatorMu.Lock()
		s.activatorRunning = false
		s.activatorMu.Unlock()
	}()

	loc, err := config.LoadClassLocation()
	if err != nil {
		return fmt.Errorf("failed to load class timezone: %w", err)
	}
	today := s.now().In(loc).Format("2006-01-02")

	sessions, err := s.sessions.ListDueForActivation(ctx, today)
	if err != nil {
		s.logger.Error("Failed to query sessions due for activation", zap.Error(err))
		return fmt.Errorf("failed to query due sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil
	}

	s.logger.Info("Found sessions to activate",
		zap.String("class_date", today),
		zap.Int("session_count", len(sessions)),
	)

	errCount := 0
	for i := range sessions {
		session := &sessions[i]

		marked, err := cache.IsActivationMarked(ctx, session.ID)
		if err != nil {
			s.logger.Warn("Failed to check activation mark",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
			// 检查失败时照常激活，激活本身是幂等的
		} else if marked {
			continue
		}

		if err := service.Lifecycle().ActivateSession(ctx, session); err != nil {
			errCount++
			s.logger.Error("Failed to activate session",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}

		if err := cache.MarkActivation(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to mark activation",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	if errCount > 0 {
		return fmt.Errorf("activator tick completed with %d errors", errCount)
	}
	return nil
}

// CloseExpiredSessions 关闭下课时间已过的 active 场次；重开中的场次等窗口过期再关
func (s *SessionScheduler) CloseExpiredSessions(ctx context.Context) error {
	s.closerMu.Lock()
	if s.closerRunning {
		s.closerMu.Unlock()
		s.logger.Info("Closer tick already running, skipping")
		return nil
	}
	s.closerRunning = true
	s.closerMu.Unlock()

	defer func() {
		s.closerMu.Lock()
		s.closerRunning = false
		s.closerMu.Unlock()
	}()

	loc, err := config.LoadClassLocation()
	if err != nil {
		return fmt.Errorf("failed to load class timezone: %w", err)
	}
	now := s.now()

	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to query active sessions", zap.Error(err))
		return fmt.Errorf("failed to query active sessions: %w", err)
	}

	closed := 0
	errCount := 0
	for i := range sessions {
		session := &sessions[i]

		classEnd, err := attendance.ParseClassTime(session.ClassDate, session.ClassEnd, loc)
		if err != nil {
			errCount++
			s.logger.Error("Failed to parse class end time",
				zap.Int64("session_id", session.ID),
				zap.String("class_end", session.ClassEnd),
				zap.Error(err),
			)
			continue
		}

		if session.Reopened {
			// 重开窗口没到期之前不关
			if session.ReopenedUntil != nil && now.Before(*session.ReopenedUntil) {
				continue
			}
		} else if now.Before(classEnd) {
			continue
		}

		ok, err := service.Lifecycle().CloseSession(ctx, session)
		if err != nil {
			errCount++
			s.logger.Error("Failed to close expired session",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			closed++
		}
	}

	if closed > 0 {
		s.logger.Info("Closed expired sessions", zap.Int("closed_count", closed))
	}
	if errCount > 0 {
		return fmt.Errorf("closer tick completed with %d errors", errCount)
	}
	return nil
}

// FinalizeEndedSessions 结算 autoEnd 且课程已结束的场次：锁定缺勤、重算汇总、通知课代表
func (s *SessionScheduler) FinalizeEndedSessions(ctx context.Context) error {
	s.finalizerMu.Lock()
	if s.finalizerRunning {
		s.finalizerMu.Unlock()
		s.logger.Info("Finalizer tick already running, skipping")
		return nil
	}
	s.finalizerRunning = true
	s.finalizerMu.Unlock()

	defer func() {
		s.finalizerMu.Lock()
		s.finalizerRunning = false
		s.finalizerMu.Unlock()
	}()

	loc, err := config.LoadClassLocation()
	if err != nil {
		return fmt.Errorf("failed to load class timezone: %w", err)
	}
	now := s.now()

	candidates, err := s.listFinalizable(ctx, now, loc)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	s.logger.Info("Found sessions to finalize", zap.Int("session_count", len(candidates)))

	errCount := 0
	for i := range candidates {
		session := &candidates[i]

		marked, err := cache.IsFinalizeMarked(ctx, session.ID)
		if err != nil {
			s.logger.Warn("Failed to check finalize mark",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
		} else if marked {
			continue
		}

		if err := cache.MarkFinalize(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to mark finalize",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
		}

		if err := service.Lifecycle().FinalizeSession(ctx, session); err != nil {
			if err == pkgerrors.FinalizeInProgress {
				// 另一个实例或手动结算请求抢到了锁
				continue
			}
			errCount++
			cache.UnmarkFinalize(ctx, session.ID)
			s.logger.Error("Failed to finalize session",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	if errCount > 0 {
		return fmt.Errorf("finalizer tick completed with %d errors", errCount)
	}
	return nil
}

// listFinalizable 找出需要结算的场次：autoEnd、下课已过，包含重开窗口已过期的
func (s *SessionScheduler) listFinalizable(ctx context.Context, now time.Time, loc *time.Location) ([]model.AttendanceSession, error) {
	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to query active sessions", zap.Error(err))
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}

	reopenedExpired, err := s.sessions.ListReopenedExpired(ctx, now)
	if err != nil {
		s.logger.Error("Failed to query expired reopened sessions", zap.Error(err))
		return nil, fmt.Errorf("failed to query reopened sessions: %w", err)
	}

	return s.selectFinalizable(active, reopenedExpired, now, loc), nil
}

// selectFinalizable 过滤出可结算的场次；autoEnd=false 的场次无论哪条路
// 进来都不自动结算，留给课代表手动触发
func (s *SessionScheduler) selectFinalizable(active, reopenedExpired []model.AttendanceSession, now time.Time, loc *time.Location) []model.AttendanceSession {
	seen := make(map[int64]bool)
	var out []model.AttendanceSession
	appendSession := func(session model.AttendanceSession) {
		if seen[session.ID] {
			return
		}
		seen[session.ID] = true
		out = append(out, session)
	}

	for _, session := range active {
		if !session.AutoEnd {
			continue
		}
		if session.Reopened {
			if session.ReopenedUntil == nil || now.Before(*session.ReopenedUntil) {
				continue
			}
			appendSession(session)
			continue
		}
		classEnd, err := attendance.ParseClassTime(session.ClassDate, session.ClassEnd, loc)
		if err != nil {
			s.logger.Error("Failed to parse class end time",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}
		if now.After(classEnd) {
			appendSession(session)
		}
	}

	for _, session := range reopenedExpired {
		if !session.AutoEnd {
			continue
		}
		appendSession(session)
	}

	return out
}
