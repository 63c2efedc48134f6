package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/jwt"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// TimetableHandler 课表视图 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
	syncSvc      service.SyncService
	logger       *zap.Logger
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService, syncSvc service.SyncService, logger *zap.Logger) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc, syncSvc: syncSvc, logger: logger}
}

// Mine 当前学生课表；resync=true 时先同步本人课表
// GET /api/v1/timetables/me
func (h *TimetableHandler) Mine(c *gin.Context) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resync, _ := strconv.ParseBool(c.Query("resync"))
	if resync {
		// 同步失败不影响查看已有课表
		if _, err := h.syncSvc.SyncForStudent(c.Request.Context(), uid); err != nil {
			h.logger.Warn("查看课表前同步失败", zap.String("student_id", uid), zap.Error(err))
		}
	}

	tt, err := h.timetableSvc.StudentTimetable(c.Request.Context(), uid)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, tt)
}

// Student 指定学生课表
// GET /api/v1/timetables/students/:id
func (h *TimetableHandler) Student(c *gin.Context) {
	tt, err := h.timetableSvc.StudentTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, tt)
}

// Teacher 教师课表；教师只能查看本人
// GET /api/v1/timetables/teachers/:id
func (h *TimetableHandler) Teacher(c *gin.Context) {
	teacherID := c.Param("id")

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	if role == jwt.RoleTeacher {
		uid, ok := MustGetUserID(c)
		if !ok {
			return
		}
		if uid != teacherID {
			response.Forbidden(c, response.CodeForbidden, "只能查看本人课表")
			return
		}
	}

	tt, err := h.timetableSvc.TeacherTimetable(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, tt)
}
