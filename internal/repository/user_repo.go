package repository

import (
	"context"

	"gorm.io/gorm"

	"room-booking/internal/model"
	pkgerrors "room-booking/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByStudentID(ctx context.Context, studentID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByRole(ctx context.Context, roles ...string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

// profileColumns Update 允许写回的列
var profileColumns = []string{"name", "email", "phone", "password_hash", "course_id", "updated_by", "updated_at", "version"}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// first 按条件取单个用户，连带所属课程
func (r *userRepo) first(ctx context.Context, query string, arg any) (*model.User, error) {
	user := new(model.User)
	if err := r.db.WithContext(ctx).Preload("Course").Where(query, arg).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "user_id = ?", id)
}

func (r *userRepo) GetByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	return r.first(ctx, "student_id = ?", studentID)
}

// GetByEmail 邮箱大小写不敏感
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepo) ListByRole(ctx context.Context, roles ...string) ([]model.User, error) {
	var users []model.User
	if len(roles) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("role IN ?", roles).Order("name").Find(&users).Error
	return users, err
}

// Update 只写回资料列；version 不匹配时返回 ErrOptimisticLock
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	expected := user.Version
	user.Version++
	res := r.db.WithContext(ctx).
		Model(user).
		Select(profileColumns).
		Where("version = ?", expected).
		Updates(user)
	if res.Error != nil {
		user.Version = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		user.Version = expected
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
