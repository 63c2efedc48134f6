package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// BodyLimit 限制请求体大小
// Content-Length 已超限时直接拒绝；否则包装 Body，读取越界由绑定处返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
