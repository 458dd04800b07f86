package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"room-booking/internal/dto"
	"room-booking/internal/service"
	"room-booking/pkg/response"
)

// NotificationHandler 站内通知
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.notificationSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UnreadCount GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkRead PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleNotificationError(c, service.ErrNotificationNotFound)
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), id, userID); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// MarkAllRead PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleNotificationError(c, service.ErrNotificationNotFound)
		return
	}

	if err := h.notificationSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 14001, "通知不存在")
	default:
		response.InternalError(c)
	}
}
