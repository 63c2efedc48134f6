package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/pkg/redis"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// RateLimit Redis 滑动窗口限流，按 用户（未认证时按 IP）+ 路由 计数
// rdb 为 nil、limit <= 0 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		who := c.GetString(CtxUserID)
		if who == "" {
			who = "ip:" + c.ClientIP()
		}
		key := "rate_limit:" + who + ":" + c.Request.Method + ":" + c.FullPath()

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err == nil && !allowed {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooMany, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
