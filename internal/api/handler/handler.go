package handler

import (
	"room-booking/config"
	"room-booking/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Room         *RoomHandler
	Catalog      *CatalogHandler
	Booking      *BookingHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cfg),
		User:         NewUserHandler(svc.User),
		Room:         NewRoomHandler(svc.Room),
		Catalog:      NewCatalogHandler(svc.Catalog),
		Booking:      NewBookingHandler(svc.Booking, svc.Calendar),
		Notification: NewNotificationHandler(svc.Notification),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
		Export:       NewExportHandler(svc.Export),
	}
}
