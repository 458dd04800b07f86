package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"room-booking/internal/model"
	"room-booking/internal/scheduling"
	pkgerrors "room-booking/pkg/errors"
)

// BookingRepository 预约数据访问接口
//
// HasOverlap / Reserve 满足 scheduling.BookingStore，检查与写入是两个独立步骤。
type BookingRepository interface {
	HasOverlap(ctx context.Context, roomID string, iv scheduling.Interval) (bool, error)
	HasActiveFrom(ctx context.Context, roomID string, from time.Time) (bool, error)
	Reserve(ctx context.Context, booking *model.Booking) error

	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.Booking, int64, error)
	ListActiveByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Booking, error)
	ListUpcomingByUser(ctx context.Context, userID string, from time.Time, limit int) ([]model.Booking, error)
	ListByRoomAndDate(ctx context.Context, roomID string, date time.Time) ([]model.Booking, error)
	ListPending(ctx context.Context, offset, limit int) ([]model.Booking, int64, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int64, error)

	CancelIfPendingOwned(ctx context.Context, id, userID string) (bool, error)
	UpdateReview(ctx context.Context, booking *model.Booking) error
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

// ── 冲突检查与预留 ──

// overlapQuery 同一教室、未取消、满足 start < candidate_end AND end > candidate_start
func overlapQuery(db *gorm.DB, roomID string, start, end time.Time) *gorm.DB {
	return db.Model(&model.Booking{}).
		Where("room_id = ? AND status <> ?", roomID, model.BookingStatusCancelled).
		Where("start_time < ? AND end_time > ?", end, start)
}

func (r *bookingRepo) HasOverlap(ctx context.Context, roomID string, iv scheduling.Interval) (bool, error) {
	var count int64
	err := overlapQuery(r.db.WithContext(ctx), roomID, iv.Start, iv.End).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// HasActiveFrom 教室在 from 之后是否仍有未取消的预约
func (r *bookingRepo) HasActiveFrom(ctx context.Context, roomID string, from time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("room_id = ? AND status <> ? AND end_time > ?", roomID, model.BookingStatusCancelled, from).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// Reserve 在事务内按教室加咨询锁、复查冲突后写入
//
// 同一教室的并发写入在 pg_advisory_xact_lock 上串行化；
// bookings_no_overlap 排他约束兜底，违反时同样返回 scheduling.ErrConflict。
func (r *bookingRepo) Reserve(ctx context.Context, booking *model.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", booking.RoomID).Error; err != nil {
			return err
		}

		var count int64
		if err := overlapQuery(tx, booking.RoomID, booking.StartTime, booking.EndTime).
			Limit(1).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return scheduling.ErrConflict
		}

		return tx.Create(booking).Error
	})
	if pkgerrors.IsExclusionViolation(err) {
		return scheduling.ErrConflict
	}
	return err
}

// ── 查询 ──

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("Booker").
		Preload("Lecturer").
		Preload("Course").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("booked_by = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Room").Preload("Lecturer").Preload("Course").
		Offset(offset).Limit(limit).
		Order("start_time DESC").
		Find(&bookings).Error
	return bookings, total, err
}

// ListActiveByUserSince 日历订阅使用
func (r *bookingRepo) ListActiveByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").Preload("Lecturer").Preload("Course").
		Where("booked_by = ? AND status <> ? AND end_time >= ?", userID, model.BookingStatusCancelled, since).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListUpcomingByUser(ctx context.Context, userID string, from time.Time, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	db := r.db.WithContext(ctx).
		Preload("Room").
		Where("status <> ? AND start_time >= ?", model.BookingStatusCancelled, from)
	if userID != "" {
		db = db.Where("booked_by = ?", userID)
	}
	err := db.Order("start_time ASC").Limit(limit).Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByRoomAndDate(ctx context.Context, roomID string, date time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND booking_date = ? AND status <> ?",
			roomID, date.Format("2006-01-02"), model.BookingStatusCancelled).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListPending(ctx context.Context, offset, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("status = ?", model.BookingStatusPending)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Room").Preload("Booker").Preload("Course").
		Offset(offset).Limit(limit).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, total, err
}

// ListBetween 导出报表使用，按 booking_date 闭区间筛选
func (r *bookingRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").Preload("Booker").Preload("Lecturer").Preload("Course").
		Where("booking_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("booking_date ASC, start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

type statusCount struct {
	Status string
	Count  int64
}

// CountByStatus 按状态统计；userID 为空时统计全部
func (r *bookingRepo) CountByStatus(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []statusCount
	db := r.db.WithContext(ctx).Model(&model.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if userID != "" {
		db = db.Where("booked_by = ?", userID)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ── 状态变更 ──

// CancelIfPendingOwned 仅当预约属于 userID 且仍为 pending 时取消，返回是否取消成功
func (r *bookingRepo) CancelIfPendingOwned(ctx context.Context, id, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_id = ? AND booked_by = ? AND status = ?", id, userID, model.BookingStatusPending).
		Updates(map[string]interface{}{
			"status":     model.BookingStatusCancelled,
			"updated_by": userID,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateReview 审批人变更状态，基于 version 的乐观锁
func (r *bookingRepo) UpdateReview(ctx context.Context, booking *model.Booking) error {
	oldVersion := booking.Version
	result := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_id = ? AND version = ?", booking.BookingID, oldVersion).
		Updates(map[string]interface{}{
			"status":      booking.Status,
			"reviewed_by": booking.ReviewedBy,
			"reviewed_at": booking.ReviewedAt,
			"updated_by":  booking.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	booking.Version = oldVersion + 1
	return nil
}
