package scheduling

import (
	"context"
	"fmt"
	"time"

	"room-booking/internal/model"
)

// OverlapFinder 冲突查询契约：同一教室、未取消、且满足
// existing_start < candidate_end AND existing_end > candidate_start 的预约是否存在
type OverlapFinder interface {
	HasOverlap(ctx context.Context, roomID string, iv Interval) (bool, error)
}

// Reserver 插入契约：写入一条 pending 预约；区间已被占用时返回 ErrConflict
type Reserver interface {
	Reserve(ctx context.Context, booking *model.Booking) error
}

// BookingStore 检查与预留两步分离，调用方可自行决定是否包裹在事务中
type BookingStore interface {
	OverlapFinder
	Reserver
}

// ConflictChecker 只读的冲突检查器，每个候选区间只查询一次
type ConflictChecker struct {
	finder OverlapFinder
}

// NewConflictChecker 创建 ConflictChecker
func NewConflictChecker(finder OverlapFinder) *ConflictChecker {
	return &ConflictChecker{finder: finder}
}

// HasConflict 候选区间 [start, end) 是否与 roomID 的有效预约冲突
func (c *ConflictChecker) HasConflict(ctx context.Context, roomID string, start, end time.Time) (bool, error) {
	iv := Interval{Start: start, End: end}
	if roomID == "" || !iv.Valid() {
		return false, fmt.Errorf("%w: 教室或时间区间无效", ErrInvalidInput)
	}
	return c.finder.HasOverlap(ctx, roomID, iv)
}

// ConflictsWith 在给定的预约列表中做同样的判定，供内存实现与预检复用
func ConflictsWith(existing []model.Booking, roomID string, iv Interval) bool {
	for i := range existing {
		b := &existing[i]
		if b.RoomID != roomID || !b.IsActive() {
			continue
		}
		if iv.Overlaps(Interval{Start: b.StartTime, End: b.EndTime}) {
			return true
		}
	}
	return false
}
