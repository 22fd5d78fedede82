package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"RollCall/internal/model"
)

// RosterRepository 小组与成员数据访问层
type RosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// GroupByID 按主键查询小组，未找到返回 (nil, nil)
func (r *RosterRepository) GroupByID(ctx context.Context, id int64) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Members 列出小组在册成员
func (r *RosterRepository) Members(ctx context.Context, groupID int64) ([]model.GroupMember, error) {
	var members []model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND removed = ?", groupID, false).
		Order("student_id ASC").
		Find(&members).Error
	return members, err
}

// Member 查询某学生的成员关系，未找到返回 (nil, nil)
func (r *RosterRepository) Member(ctx context.Context, groupID, studentID int64) (*model.GroupMember, error) {
	var member model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND student_id = ? AND removed = ?", groupID, studentID, false).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Rep 查询小组课代表，未找到返回 (nil, nil)
func (r *RosterRepository) Rep(ctx context.Context, groupID int64) (*model.GroupMember, error) {
	var member model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND role = ? AND removed = ?", groupID, model.GroupRoleRep, false).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}
