package handler

import (
	"github.com/gin-gonic/gin"

	"room-booking/internal/service"
	"room-booking/pkg/response"
)

// CatalogHandler 教师与课程目录
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListLecturers GET /api/v1/lecturers
func (h *CatalogHandler) ListLecturers(c *gin.Context) {
	list, err := h.catalogSvc.ListLecturers(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, list)
}

// ListCourses GET /api/v1/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	list, err := h.catalogSvc.ListCourses(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, list)
}
