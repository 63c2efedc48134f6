package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// ── 业务错误码 ──
// 1xxxx 通用 / 2xxxx 课程 / 3xxxx 选课 / 4xxxx 课表同步与导出 / 5xxxx 内部错误

const (
	CodeEmailExists = 10101

	CodeCourseNotFound   = 20001
	CodeCourseCodeExists = 20002
	CodeTeacherNotFound  = 20003
	CodeInvalidCredits   = 20004
	CodeBlockNotFound    = 20005

	CodeStudentNotFound    = 30001
	CodeAlreadyEnrolled    = 30002
	CodeCourseFull         = 30003
	CodeEnrollmentNotFound = 30004
	CodeStudentNoExists    = 30005

	CodeSyncScopeRequired = 40001
	CodeExportEmpty       = 40101
)

// handleServiceError 将 Service 层哨兵错误映射为 HTTP 状态与业务码
func handleServiceError(c *gin.Context, err error) {
	switch {
	// 课程
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, CodeCourseNotFound, "课程不存在")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, CodeCourseCodeExists, "课程编号已存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, CodeTeacherNotFound, "教师不存在")
	case errors.Is(err, service.ErrInvalidCredits):
		response.BadRequest(c, CodeInvalidCredits, "学分必须为正整数")
	case errors.Is(err, service.ErrBlockNotFound):
		response.NotFound(c, CodeBlockNotFound, "课时块不存在")

	// 选课
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, CodeStudentNotFound, "学生不存在")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, CodeAlreadyEnrolled, "已选该课程")
	case errors.Is(err, service.ErrCourseFull):
		response.Conflict(c, CodeCourseFull, "课程人数已满")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, CodeEnrollmentNotFound, "选课记录不存在")

	// 人员
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, CodeEmailExists, "邮箱已被使用")
	case errors.Is(err, service.ErrStudentNoExists):
		response.Conflict(c, CodeStudentNoExists, "学号或邮箱已被使用")

	// 同步 / 导出
	case errors.Is(err, service.ErrSyncScopeRequired):
		response.BadRequest(c, CodeSyncScopeRequired, "必须指定 student_id 或 course_id")
	case errors.Is(err, service.ErrExportEmpty):
		response.NotFound(c, CodeExportEmpty, "课表为空，无可导出内容")

	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// handleBindError 请求绑定失败；请求体超过 BodyLimit 时返回 413
func handleBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大")
		return
	}
	response.BadRequest(c, response.CodeInvalidParam, "参数校验失败")
}
