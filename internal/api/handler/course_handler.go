package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc     service.CourseService
	enrollmentSvc service.EnrollmentService
	syncSvc       service.SyncService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService, enrollmentSvc service.EnrollmentService, syncSvc service.SyncService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc, enrollmentSvc: enrollmentSvc, syncSvc: syncSvc}
}

// List 课程列表（含已选人数）
// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	list, total, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetByID 课程详情（含课时块）
// GET /api/v1/courses/:id
func (h *CourseHandler) GetByID(c *gin.Context) {
	course, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, course)
}

// Create 创建课程并按学分生成课时块
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, course)
}

// Update 更新课程
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, course)
}

// Delete 删除课程：课表行 → 课时块 → 选课记录 → 课程
// DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	result, err := h.courseSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// RegenerateBlocks 重新生成课时块并同步该课程的选课学生
// POST /api/v1/courses/:id/blocks/regenerate
func (h *CourseHandler) RegenerateBlocks(c *gin.Context) {
	result, err := h.courseSvc.RegenerateBlocks(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// ListStudents 课程的选课学生
// GET /api/v1/courses/:id/students
func (h *CourseHandler) ListStudents(c *gin.Context) {
	list, err := h.enrollmentSvc.ListStudentsByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// DeleteBlock 删除单个课时块及其课表行
// DELETE /api/v1/blocks/:id
func (h *CourseHandler) DeleteBlock(c *gin.Context) {
	result, err := h.syncSvc.DeleteBlock(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}
