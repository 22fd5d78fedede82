package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"RollCall/internal/model"
)

// SessionRepository 考勤场次数据访问层
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create 创建场次
func (r *SessionRepository) Create(ctx context.Context, session *model.AttendanceSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByID 按主键查询场次，未找到返回 (nil, nil)
func (r *SessionRepository) FindByID(ctx context.Context, id int64) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByCode 按场次编码查询
func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).Where("session_code = ?", code).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindDuplicate 查询同一课表槽位上已存在的场次，用于防重复创建
func (r *SessionRepository) FindDuplicate(ctx context.Context, scheduleID int64, classDate, classStart string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND class_date = ? AND class_start = ?", scheduleID, classDate, classStart).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByGroup 按小组分页列出场次，cursor 为上一页最后一条的 ID
func (r *SessionRepository) ListByGroup(ctx context.Context, groupID int64, status string, from, to string, limit int, cursor int64) ([]model.AttendanceSession, error) {
	q := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if from != "" {
		q = q.Where("class_date >= ?", from)
	}
	if to != "" {
		q = q.Where("class_date <= ?", to)
	}
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var sessions []model.AttendanceSession
	err := q.Order("id DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

// ListDueForActivation 列出某日应激活的场次：当天、upcoming、尚未初始化
func (r *SessionRepository) ListDueForActivation(ctx context.Context, classDate string) ([]model.AttendanceSession, error) {
	var sessions []model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND class_date = ? AND initialized = ?", model.SessionStatusUpcoming, classDate, false).
		Find(&sessions).Error
	return sessions, err
}

// ListActive 列出所有进行中的场次
func (r *SessionRepository) ListActive(ctx context.Context) ([]model.AttendanceSession, error) {
	var sessions []model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SessionStatusActive).
		Find(&sessions).Error
	return sessions, err
}

// ListReopenedExpired 列出重开窗口已过期的场次
func (r *SessionRepository) ListReopenedExpired(ctx context.Context, now time.Time) ([]model.AttendanceSession, error) {
	var sessions []model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("reopened = ? AND reopened_until IS NOT NULL AND reopened_until < ?", true, now).
		Find(&sessions).Error
	return sessions, err
}

// UpdateStatusIf 带条件的状态迁移，返回是否真的更新了行，避免并发重复处理
func (r *SessionRepository) UpdateStatusIf(ctx context.Context, id int64, from, to model.SessionStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Save 整体保存场次
func (r *SessionRepository) Save(ctx context.Context, session *model.AttendanceSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// Delete 删除场次及其学生记录
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.StudentAttendanceRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.AttendanceSession{}, id).Error
	})
}
