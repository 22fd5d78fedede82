package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"RollCall/internal/attendance"
)

// jsonb 列的 Valuer/Scanner 实现，扫描时容忍 NULL

func jsonbValue(v interface{}) (driver.Value, error) {
	return json.Marshal(v)
}

func jsonbScan(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported jsonb source type")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, dest)
}

// JSONB 自定义 JSONB 类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return jsonbScan(j, value)
}

// SessionSettings 场次策略包（JSONB）
type SessionSettings attendance.Settings

func (s SessionSettings) Value() (driver.Value, error) { return jsonbValue(s) }
func (s *SessionSettings) Scan(value interface{}) error { return jsonbScan(s, value) }

// ReopenFeatureSet 重开行为开关（JSONB）
type ReopenFeatureSet attendance.ReopenFeatures

func (f ReopenFeatureSet) Value() (driver.Value, error) { return jsonbValue(f) }
func (f *ReopenFeatureSet) Scan(value interface{}) error { return jsonbScan(f, value) }

// FlagList 学生记录上的可疑标记列表（JSONB）
type FlagList []attendance.Flag

func (l FlagList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *FlagList) Scan(value interface{}) error { return jsonbScan(l, value) }

// StudentIDList 学生 ID 列表（JSONB）
type StudentIDList []int64

func (l StudentIDList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *StudentIDList) Scan(value interface{}) error { return jsonbScan(l, value) }

// Value 申诉整体序列化为 jsonb
func (p *PleaInfo) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return jsonbValue(p)
}

// Scan 申诉反序列化
func (p *PleaInfo) Scan(value interface{}) error { return jsonbScan(p, value) }

// MetaEntries 记录级审计日志（JSONB）
type MetaEntries []MetaEntry

func (m MetaEntries) Value() (driver.Value, error) { return jsonbValue(m) }
func (m *MetaEntries) Scan(value interface{}) error { return jsonbScan(m, value) }
