package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ── 审计字段 ──

// BaseModel 创建/更新时间与操作人
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 教室、通知等可软删除的记录
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 带乐观锁版本号；预约审批与用户资料更新时校验
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// ── 星期集合 ──

// Weekdays 对应 PostgreSQL INT[]，元素为 ISO 星期（1=周一 … 7=周日），
// 写入时去重并升序。
type Weekdays []int

// Scan 解析 {1,3,5}
func (w *Weekdays) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("Weekdays: 不支持的类型 %T", src)
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
	out := Weekdays{}
	if raw == "" {
		*w = out
		return nil
	}
	for _, field := range strings.Split(raw, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || d < 1 || d > 7 {
			return fmt.Errorf("Weekdays: 非法元素 %q", field)
		}
		out = append(out, d)
	}
	*w = out
	return nil
}

// Value 输出 {1,3,5}
func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	seen := make(map[int]bool, len(w))
	days := make([]int, 0, len(w))
	for _, d := range w {
		if d < 1 || d > 7 {
			return nil, fmt.Errorf("Weekdays: 非法元素 %d", d)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)

	var b strings.Builder
	b.WriteByte('{')
	for i, d := range days {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(d))
	}
	b.WriteByte('}')
	return b.String(), nil
}
