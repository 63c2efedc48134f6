package handler

import (
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	People     *PeopleHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Sync       *SyncHandler
	Timetable  *TimetableHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合；revoker 为 nil 表示未启用 Token 黑名单
func NewHandler(svc *service.Service, revoker TokenRevoker, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(revoker, logger),
		People:     NewPeopleHandler(svc.Teacher, svc.Student),
		Course:     NewCourseHandler(svc.Course, svc.Enrollment, svc.Sync),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Sync:       NewSyncHandler(svc.Sync),
		Timetable:  NewTimetableHandler(svc.Timetable, svc.Sync, logger),
		Export:     NewExportHandler(svc.Export),
	}
}
