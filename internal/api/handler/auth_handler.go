package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/api/middleware"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// TokenRevoker Token 黑名单，由 pkg/redis.Client 实现
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthHandler 认证模块 HTTP 处理器
// Token 由外部身份服务签发，这里只负责注销
type AuthHandler struct {
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler；revoker 为 nil 时注销为空操作
func NewAuthHandler(revoker TokenRevoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{revoker: revoker, logger: logger}
}

// Logout 注销当前 Token，黑名单保留到 Token 过期
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := c.GetString(middleware.CtxTokenID)
	if h.revoker == nil || jti == "" {
		response.OK(c, nil)
		return
	}

	ttl := time.Until(tokenExpiry(c))
	if ttl <= 0 {
		response.OK(c, nil)
		return
	}

	if err := h.revoker.BlacklistToken(c.Request.Context(), jti, ttl); err != nil {
		h.logger.Error("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
