package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"room-booking/internal/dto"
	"room-booking/internal/repository"
	pkgerrors "room-booking/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrEmailTaken = errors.New("邮箱已被使用")
)

// UserService 个人资料业务接口
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserDetailResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserDetail(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		existing, err := s.repo.User.GetByEmail(ctx, *req.Email)
		if err == nil && existing.UserID != userID {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询邮箱失败", zap.Error(err))
			return nil, err
		}
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			user.Phone = nil
		} else {
			user.Phone = &phone
		}
	}
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新个人资料失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	return toUserDetail(user), nil
}
