package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/pkg/response"
)

// BodyLimit 限制请求体大小；maxBytes<=0 时不限制。
// 声明了 Content-Length 的超限请求直接 413，分块请求读取超限时绑定失败（400）。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
