package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/internal/dto"
	"room-booking/internal/service"
	"room-booking/pkg/response"
)

// BookingHandler 预约模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc  service.BookingService
	calendarSvc service.CalendarService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService, calendarSvc service.CalendarService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc, calendarSvc: calendarSvc}
}

// Create 单次预约
// POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Create(c.Request.Context(), &req, userID, GetCourseID(c))
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, booking)
}

// Check 冲突检查（只读）
// POST /api/v1/bookings/check
func (h *BookingHandler) Check(c *gin.Context) {
	var req dto.CheckConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.bookingSvc.Check(c.Request.Context(), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// Schedule 按重复规则批量预约
// POST /api/v1/bookings/schedule
func (h *BookingHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.bookingSvc.Schedule(c.Request.Context(), &req, userID, GetCourseID(c))
	if err != nil {
		// 中途失败：已写入的预约保留，连同部分结果一起返回
		if errors.Is(err, service.ErrScheduleIncomplete) && result != nil {
			response.ErrorWithData(c, http.StatusInternalServerError, 13009, service.ErrScheduleIncomplete.Error(), result)
			return
		}
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, result)
}

// GetByID 预约详情
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetByID(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleBookingError(c, service.ErrBookingNotFound)
		return
	}

	booking, err := h.bookingSvc.GetByID(c.Request.Context(), id, userID, role)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// ListMine 我的预约
// GET /api/v1/bookings/my
func (h *BookingHandler) ListMine(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.bookingSvc.ListMine(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// MyCalendar 导出我的预约为 iCalendar
// GET /api/v1/bookings/my/calendar.ics
func (h *BookingHandler) MyCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.calendarSvc.MyCalendar(c.Request.Context(), userID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="bookings.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// Cancel 取消预约（仅预约人，且仍为待审核）
// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleBookingError(c, service.ErrCannotCancel)
		return
	}

	if err := h.bookingSvc.Cancel(c.Request.Context(), id, userID); err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListPending 待审批预约（审批人）
// GET /api/v1/bookings/pending
func (h *BookingHandler) ListPending(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.bookingSvc.ListPending(c.Request.Context(), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Approve 审批通过
// POST /api/v1/bookings/:id/approve
func (h *BookingHandler) Approve(c *gin.Context) {
	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleBookingError(c, service.ErrBookingNotFound)
		return
	}

	booking, err := h.bookingSvc.Approve(c.Request.Context(), id, reviewerID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// Reject 驳回；请求体可省略
// POST /api/v1/bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	var req dto.ReviewBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c)
	if !ok {
		h.handleBookingError(c, service.ErrBookingNotFound)
		return
	}

	booking, err := h.bookingSvc.Reject(c.Request.Context(), id, reviewerID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 13001, "预约不存在")
	case errors.Is(err, service.ErrBookingInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13002, "预约参数无效", err.Error())
	case errors.Is(err, service.ErrBookingConflict):
		response.Conflict(c, 13003, "该时段与已有预约冲突")
	case errors.Is(err, service.ErrBookingForbidden):
		response.Forbidden(c, 13004, "无权访问该预约")
	case errors.Is(err, service.ErrBookingNotPending):
		response.Conflict(c, 13005, "只能审批待审核的预约")
	case errors.Is(err, service.ErrCannotCancel):
		response.ErrorWithDetails(c, http.StatusConflict, 13006, "无法取消该预约", err.Error())
	case errors.Is(err, service.ErrLecturerNotFound):
		response.BadRequest(c, 13007, "教师不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.BadRequest(c, 13008, "课程不存在")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 12001, "教室不存在")
	case errors.Is(err, service.ErrRoomUnavailable):
		response.Conflict(c, 12003, "教室当前不可预约")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
