package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"room-booking/config"
	"room-booking/internal/dto"
	"room-booking/internal/model"
	"room-booking/internal/repository"
)

// DashboardService 仪表盘业务接口
type DashboardService interface {
	Get(ctx context.Context, userID, role string) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo          *repository.Repository
	loc           *time.Location
	upcomingLimit int
	now           func() time.Time
	logger        *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) DashboardService {
	limit := cfg.Booking.UpcomingLimit
	if limit <= 0 {
		limit = 5
	}
	return &dashboardService{
		repo:          repo,
		loc:           cfg.Booking.Location(),
		upcomingLimit: limit,
		now:           time.Now,
		logger:        logger,
	}
}

// Get 课代表只统计自己的预约；审批人与管理员统计全部并附带待审批数
func (s *dashboardService) Get(ctx context.Context, userID, role string) (*dto.DashboardResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	scope := userID
	if isReviewer(role) {
		scope = ""
	}

	counts, err := s.repo.Booking.CountByStatus(ctx, scope)
	if err != nil {
		s.logger.Error("统计预约失败", zap.Error(err))
		return nil, err
	}

	upcoming, err := s.repo.Booking.ListUpcomingByUser(ctx, scope, s.now(), s.upcomingLimit)
	if err != nil {
		s.logger.Error("查询近期预约失败", zap.Error(err))
		return nil, err
	}

	unread, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.DashboardResponse{
		User: *toUserResponse(user),
		Counts: dto.BookingCounts{
			Pending:   counts[model.BookingStatusPending],
			Approved:  counts[model.BookingStatusApproved],
			Cancelled: counts[model.BookingStatusCancelled],
		},
		Upcoming:            toBookingResponses(upcoming, s.loc),
		UnreadNotifications: unread,
	}
	resp.Counts.Total = resp.Counts.Pending + resp.Counts.Approved + resp.Counts.Cancelled

	if isReviewer(role) {
		pending := resp.Counts.Pending
		resp.PendingReview = &pending
	}
	return resp, nil
}
