package model

import (
	"time"
)

// GroupRole 小组成员角色枚举
type GroupRole string

const (
	GroupRoleStudent GroupRole = "student"
	GroupRoleRep     GroupRole = "rep" // 课代表，可代操作
)

// Group 班级小组
type Group struct {
	BaseModel
	Name        string `gorm:"type:varchar(128);not null" json:"name"`
	CourseCode  string `gorm:"type:varchar(32);index" json:"course_code"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	OwnerID     int64  `gorm:"not null" json:"owner_id"`
	Archived    bool   `gorm:"not null;default:false" json:"archived"`
}

// TableName 指定表名
func (Group) TableName() string {
	return "groups"
}

// GroupMember 小组成员，JoinedAt 用于识别场次创建后加入的学生
type GroupMember struct {
	BaseModel
	GroupID   int64     `gorm:"not null;uniqueIndex:idx_group_members_member" json:"group_id"`
	StudentID int64     `gorm:"not null;uniqueIndex:idx_group_members_member;index" json:"student_id"`
	Name      string    `gorm:"type:varchar(64);not null" json:"name"`
	Email     string    `gorm:"type:varchar(128)" json:"email,omitempty"`
	Role      GroupRole `gorm:"type:varchar(16);not null;default:'student'" json:"role"`
	JoinedAt  time.Time `gorm:"type:timestamptz;not null;default:now()" json:"joined_at"`
	Removed   bool      `gorm:"not null;default:false" json:"removed"`
}

// TableName 指定表名
func (GroupMember) TableName() string {
	return "group_members"
}
