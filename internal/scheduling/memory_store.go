package scheduling

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"room-booking/internal/model"
)

// MemoryStore 基于内存列表的 BookingStore，Reserve 在锁内复查冲突
type MemoryStore struct {
	mu       sync.Mutex
	bookings []model.Booking
	lookups  int
}

// NewMemoryStore 以已有预约初始化
func NewMemoryStore(existing ...model.Booking) *MemoryStore {
	return &MemoryStore{bookings: append([]model.Booking(nil), existing...)}
}

// HasOverlap 实现 OverlapFinder
func (m *MemoryStore) HasOverlap(_ context.Context, roomID string, iv Interval) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	return ConflictsWith(m.bookings, roomID, iv), nil
}

// Reserve 实现 Reserver
func (m *MemoryStore) Reserve(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ConflictsWith(m.bookings, b.RoomID, Interval{Start: b.StartTime, End: b.EndTime}) {
		return ErrConflict
	}
	if b.BookingID == "" {
		b.BookingID = uuid.NewString()
	}
	m.bookings = append(m.bookings, *b)
	return nil
}

// Bookings 返回当前预约快照
func (m *MemoryStore) Bookings() []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Booking(nil), m.bookings...)
}

// Lookups 已执行的冲突查询次数
func (m *MemoryStore) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}
