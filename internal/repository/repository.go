package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Course       CourseRepository
	Lecturer     LecturerRepository
	Room         RoomRepository
	Booking      BookingRepository
	Series       SeriesRepository
	Notification NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Course:       NewCourseRepo(db),
		Lecturer:     NewLecturerRepo(db),
		Room:         NewRoomRepo(db),
		Booking:      NewBookingRepo(db),
		Series:       NewSeriesRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务 tx 的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}
