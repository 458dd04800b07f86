package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"room-booking/config"
	"room-booking/internal/api/handler"
	"room-booking/internal/api/middleware"
	"room-booking/internal/model"
	"room-booking/pkg/jwt"
	"room-booking/pkg/redis"
)

// 登录限流：每 IP 每分钟 10 次
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎；rdb 可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		blacklist middleware.Blacklist
		limiter   middleware.Limiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", health(db, rdb))

	reviewers := []string{model.RoleApprover, model.RoleAdmin}

	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, loginRateLimit, loginRateWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetProfile)
				users.PUT("/me", h.User.UpdateProfile)
			}

			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.List)
				rooms.GET("/:id", h.Room.GetByID)
				rooms.GET("/:id/bookings", h.Room.DayBookings)
				rooms.POST("", middleware.RoleAuth(model.RoleAdmin), h.Room.Create)
				rooms.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Room.Update)
				rooms.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Room.Delete)
			}

			authorized.GET("/lecturers", h.Catalog.ListLecturers)
			authorized.GET("/courses", h.Catalog.ListCourses)

			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", h.Booking.Create)
				bookings.POST("/check", h.Booking.Check)
				bookings.POST("/schedule", h.Booking.Schedule)
				bookings.GET("/my", h.Booking.ListMine)
				bookings.GET("/my/calendar.ics", h.Booking.MyCalendar)
				bookings.GET("/pending", middleware.RoleAuth(reviewers...), h.Booking.ListPending)
				bookings.GET("/:id", h.Booking.GetByID)
				bookings.POST("/:id/cancel", h.Booking.Cancel)
				bookings.POST("/:id/approve", middleware.RoleAuth(reviewers...), h.Booking.Approve)
				bookings.POST("/:id/reject", middleware.RoleAuth(reviewers...), h.Booking.Reject)
			}

			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}

			authorized.GET("/dashboard", h.Dashboard.Get)
			authorized.GET("/export/bookings", middleware.RoleAuth(reviewers...), h.Export.ExportBookings)
		}
	}

	return r
}

// health 数据库不可用时返回 503；Redis 为可选依赖，仅报告状态
func health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status["status"] = "degraded"
				status["database"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(c.Request.Context()); err != nil {
				status["redis"] = "unavailable"
			}
		}

		c.JSON(code, status)
	}
}
