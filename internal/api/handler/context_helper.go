package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"room-booking/pkg/response"
)

// 由 middleware.JWTAuth 写入的上下文键
const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxCourseID = "course_id"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxUserID)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxRole)
}

// GetCourseID 提取 course_id；用户未关联课程时为空字符串
func GetCourseID(c *gin.Context) string {
	return c.GetString(ctxCourseID)
}

// GetTokenInfo 提取当前 Access Token 的 jti 与过期时间
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	return c.GetString(ctxTokenJTI), c.GetTime(ctxTokenExp)
}

// PathID 读取路由参数 :id 并规范为小写 UUID。
// 非法时返回 false，由调用方按各自的"不存在"语义响应
func PathID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
