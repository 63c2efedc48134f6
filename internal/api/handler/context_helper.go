package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/api/middleware"
	"github.com/SRCAndy/lucy-tejada/pkg/jwt"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// MustGetUserID 从上下文读取 user_id；缺失时写入 401，调用方应直接 return
func MustGetUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.CtxUserID)
	if uid == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return uid, true
}

// MustGetRole 从上下文读取 role
func MustGetRole(c *gin.Context) (string, bool) {
	role := c.GetString(middleware.CtxRole)
	if role == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return role, true
}

// resolveStudentID 学生只能操作本人；管理员必须显式指定学生
func resolveStudentID(c *gin.Context, requested string) (string, bool) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", false
	}

	switch role {
	case jwt.RoleStudent:
		if requested != "" && requested != uid {
			response.Forbidden(c, response.CodeForbidden, "只能操作本人的选课")
			return "", false
		}
		return uid, true
	case jwt.RoleAdmin:
		if requested == "" {
			response.BadRequest(c, response.CodeInvalidParam, "student_id 不能为空")
			return "", false
		}
		return requested, true
	default:
		response.Forbidden(c, response.CodeForbidden, "无权限访问")
		return "", false
	}
}

// tokenExpiry 当前 Token 的过期时间，缺失时返回零值
func tokenExpiry(c *gin.Context) time.Time {
	if v, ok := c.Get(middleware.CtxTokenExp); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}
