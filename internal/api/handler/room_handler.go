package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"room-booking/internal/dto"
	"room-booking/internal/service"
	"room-booking/pkg/response"
)

// RoomHandler 教室模块 HTTP 处理器
type RoomHandler struct {
	roomSvc service.RoomService
}

// NewRoomHandler 创建 RoomHandler
func NewRoomHandler(roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

// List 教室列表
// GET /api/v1/rooms
func (h *RoomHandler) List(c *gin.Context) {
	var req dto.RoomListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rooms, err := h.roomSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, rooms)
}

// GetByID 教室详情
// GET /api/v1/rooms/:id
func (h *RoomHandler) GetByID(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		h.handleRoomError(c, service.ErrRoomNotFound)
		return
	}

	room, err := h.roomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// DayBookings 教室某日的占用情况
// GET /api/v1/rooms/:id/bookings?date=YYYY-MM-DD
func (h *RoomHandler) DayBookings(c *gin.Context) {
	var req dto.RoomDayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleRoomError(c, service.ErrRoomNotFound)
		return
	}

	day, err := h.roomSvc.DayBookings(c.Request.Context(), id, &req)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, day)
}

// Create 创建教室（管理员）
// POST /api/v1/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.Created(c, room)
}

// Update 更新教室（管理员）
// PUT /api/v1/rooms/:id
func (h *RoomHandler) Update(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleRoomError(c, service.ErrRoomNotFound)
		return
	}

	room, err := h.roomSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// Delete 删除教室（管理员）
// DELETE /api/v1/rooms/:id
func (h *RoomHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleRoomError(c, service.ErrRoomNotFound)
		return
	}

	if err := h.roomSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 12001, "教室不存在")
	case errors.Is(err, service.ErrRoomNameTaken):
		response.Conflict(c, 12002, "教室名称已存在")
	case errors.Is(err, service.ErrRoomUnavailable):
		response.Conflict(c, 12003, "教室当前不可预约")
	case errors.Is(err, service.ErrRoomInUse):
		response.Conflict(c, 12005, "教室仍有未结束的预约，无法删除")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12004, "日期格式应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
