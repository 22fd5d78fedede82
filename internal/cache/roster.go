package cache

import (
	"context"
	"strconv"
	"time"
)

// 缓存小组花名册，打卡主管线每次都要校验成员资格，避免反复查库

// RosterEntry 花名册缓存条目
type RosterEntry struct {
	StudentID int64     `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// RosterCache 小组花名册缓存结构
type RosterCache struct {
	GroupID   int64         `json:"group_id"`
	Members   []RosterEntry `json:"members"`
	UpdatedAt int64         `json:"updated_at"`
}

func SetGroupRoster(ctx context.Context, groupID int64, roster *RosterCache) error {
	key := strconv.FormatInt(groupID, 10)
	return GroupRosterProtectedCache.Set(ctx, key, roster)
}

// GetGroupRoster 获取花名册缓存，未命中返回 nil
func GetGroupRoster(ctx context.Context, groupID int64) (*RosterCache, error) {
	key := strconv.FormatInt(groupID, 10)
	var roster RosterCache

	hit, err := GroupRosterProtectedCache.Get(ctx, key, &roster)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, nil
	}
	if roster.GroupID == 0 {
		// 空值标记命中，dest 未被填充
		return nil, nil
	}
	return &roster, nil
}
