package repository

import (
	"context"

	"gorm.io/gorm"

	"room-booking/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
}

// LecturerRepository 授课教师数据访问接口
type LecturerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Lecturer, error)
	List(ctx context.Context, includeInactive bool) ([]model.Lecturer, error)
}

// ── Course ──

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).Where("course_id = ?", id).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).Order("code ASC").Find(&courses).Error
	return courses, err
}

// ── Lecturer ──

type lecturerRepo struct {
	db *gorm.DB
}

// NewLecturerRepo 创建 LecturerRepository 实例
func NewLecturerRepo(db *gorm.DB) LecturerRepository {
	return &lecturerRepo{db: db}
}

func (r *lecturerRepo) GetByID(ctx context.Context, id string) (*model.Lecturer, error) {
	var lecturer model.Lecturer
	err := r.db.WithContext(ctx).Where("lecturer_id = ?", id).First(&lecturer).Error
	if err != nil {
		return nil, err
	}
	return &lecturer, nil
}

func (r *lecturerRepo) List(ctx context.Context, includeInactive bool) ([]model.Lecturer, error) {
	var lecturers []model.Lecturer
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&lecturers).Error
	return lecturers, err
}
