package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders 纯 JSON / 文件下载 API 的安全响应头
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		// 课表含个人信息，不允许中间代理缓存
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
