package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"RollCall/internal/model"
)

// RecordRepository 学生考勤记录数据访问层
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// BulkCreate 批量播种学生记录，冲突时跳过，保证激活重试幂等
func (r *RecordRepository) BulkCreate(ctx context.Context, records []model.StudentAttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(&records).Error
}

// FindBySessionAndStudent 查询某学生在某场次的记录，未找到返回 (nil, nil)
func (r *RecordRepository) FindBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*model.StudentAttendanceRecord, error) {
	var record model.StudentAttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBySession 列出场次全部学生记录
func (r *RecordRepository) ListBySession(ctx context.Context, sessionID int64) ([]model.StudentAttendanceRecord, error) {
	var records []model.StudentAttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("student_id ASC").
		Find(&records).Error
	return records, err
}

// ListAbsentBySession 列出场次内签到状态仍为 absent 的记录
func (r *RecordRepository) ListAbsentBySession(ctx context.Context, sessionID int64) ([]model.StudentAttendanceRecord, error) {
	var records []model.StudentAttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND check_in_status = ?", sessionID, "absent").
		Find(&records).Error
	return records, err
}

// CountFlagged 统计场次内被标记的记录数
func (r *RecordRepository) CountFlagged(ctx context.Context, sessionID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StudentAttendanceRecord{}).
		Where("session_id = ? AND flagged = ?", sessionID, true).
		Count(&count).Error
	return count, err
}

// Save 整体保存记录
func (r *RecordRepository) Save(ctx context.Context, record *model.StudentAttendanceRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
