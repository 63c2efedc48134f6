package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// EnrollmentHandler 选课模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// Enroll 选课，成功后立即同步该学生在此课程的课表
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	studentID, ok := resolveStudentID(c, req.StudentID)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Enroll(c.Request.Context(), studentID, req.CourseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, result)
}

// Withdraw 退课，同时删除该课程在学生课表中的课时块
// DELETE /api/v1/enrollments
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	studentID, ok := resolveStudentID(c, req.StudentID)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Withdraw(c.Request.Context(), studentID, req.CourseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// ListMine 当前学生已选课程
// GET /api/v1/enrollments/me
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.enrollmentSvc.ListByStudent(c.Request.Context(), uid)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}
