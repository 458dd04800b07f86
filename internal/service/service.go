package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"room-booking/config"
	"room-booking/internal/event"
	"room-booking/internal/repository"
	"room-booking/pkg/jwt"
	"room-booking/pkg/redis"
)

// Cache 教室目录缓存；*redis.Client 满足
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenStore Token 黑名单；*redis.Client 满足
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Room         RoomService
	Catalog      CatalogService
	Booking      BookingService
	Notification NotificationService
	Dashboard    DashboardService
	Export       ExportService
	Calendar     CalendarService
}

// NewService 创建 Service 聚合
//
// rdb 为 nil 时不启用缓存与 Token 黑名单；publisher 为 nil 时使用进程内发布器，
// 事件直接交给 NotificationService 处理。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	publisher event.Publisher,
	logger *zap.Logger,
) *Service {
	var (
		cache  Cache
		tokens TokenStore
	)
	if rdb != nil {
		cache = rdb
		tokens = rdb
	}

	notification := NewNotificationService(repo, cfg.Booking.Location(), logger)
	if publisher == nil {
		publisher = event.NewLocalPublisher(notification, logger)
	}

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, tokens, logger),
		User:         NewUserService(repo, logger),
		Room:         NewRoomService(cfg, repo, cache, logger),
		Catalog:      NewCatalogService(repo, logger),
		Booking:      NewBookingService(cfg, repo, publisher, logger),
		Notification: notification,
		Dashboard:    NewDashboardService(cfg, repo, logger),
		Export:       NewExportService(cfg, repo, logger),
		Calendar:     NewCalendarService(cfg, repo, logger),
	}
}
