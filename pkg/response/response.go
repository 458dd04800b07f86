package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 成功时的业务码与消息
const (
	CodeOK    = 0
	messageOK = "success"
)

// Response 统一响应结构 {code, message, data?, details?, request_id?}
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Details   string      `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 分页响应数据
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// write 所有响应的出口；附带 RequestID 中间件写入的 request_id 便于排查
func write(c *gin.Context, status int, body Response) {
	body.RequestID = c.GetString("request_id")
	c.JSON(status, body)
}

// ── 成功响应 ──

// OK 200
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{Code: CodeOK, Message: messageOK, Data: data})
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Response{Code: CodeOK, Message: messageOK, Data: data})
}

// OKPage 200 分页；pageSize<=0 时按单页处理
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	} else if total > 0 {
		totalPages = 1
	}
	write(c, http.StatusOK, Response{
		Code:    CodeOK,
		Message: messageOK,
		Data: PageData{
			List: list,
			Pagination: Pagination{
				Page:       page,
				PageSize:   pageSize,
				Total:      total,
				TotalPages: totalPages,
			},
		},
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	write(c, httpStatus, Response{Code: code, Message: message})
}

// ErrorWithDetails 附带原因说明，如校验失败的具体字段
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message, details string) {
	write(c, httpStatus, Response{Code: code, Message: message, Details: details})
}

// ErrorWithData 附带数据，如中途失败的批量预约已创建部分
func ErrorWithData(c *gin.Context, httpStatus int, code int, message string, data interface{}) {
	write(c, httpStatus, Response{Code: code, Message: message, Data: data})
}

// ── 常见快捷方式 ──

func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500，不向客户端暴露内部错误
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
}
