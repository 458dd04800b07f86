package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/internal/dto"
	"room-booking/internal/service"
	"room-booking/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportBookings 导出日期范围内的预约为 Excel（审批人/管理员）
// GET /api/v1/export/bookings?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ExportHandler) ExportBookings(c *gin.Context) {
	var req dto.ExportBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportBookings(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportRangeInvalid):
		response.BadRequest(c, 16101, "导出日期范围无效")
	case errors.Is(err, service.ErrExportNoBookings):
		response.NotFound(c, 16102, "该时间范围内没有预约")
	default:
		response.InternalError(c)
	}
}
