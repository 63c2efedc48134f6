package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// PeopleHandler 教师 / 学生 HTTP 处理器
type PeopleHandler struct {
	teacherSvc service.TeacherService
	studentSvc service.StudentService
}

// NewPeopleHandler 创建 PeopleHandler
func NewPeopleHandler(teacherSvc service.TeacherService, studentSvc service.StudentService) *PeopleHandler {
	return &PeopleHandler{teacherSvc: teacherSvc, studentSvc: studentSvc}
}

// ListTeachers 教师列表
// GET /api/v1/teachers
func (h *PeopleHandler) ListTeachers(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	list, total, err := h.teacherSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateTeacher 创建教师
// POST /api/v1/teachers
func (h *PeopleHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	teacher, err := h.teacherSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, teacher)
}

// ListStudents 学生列表
// GET /api/v1/students
func (h *PeopleHandler) ListStudents(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateStudent 创建学生
// POST /api/v1/students
func (h *PeopleHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, student)
}
