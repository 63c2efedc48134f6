package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/response"
)

// SyncHandler 选课-课表同步与孤儿清理 HTTP 处理器（管理员）
type SyncHandler struct {
	syncSvc service.SyncService
}

// NewSyncHandler 创建 SyncHandler
func NewSyncHandler(syncSvc service.SyncService) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

// SyncAll 全量同步
// POST /api/v1/sync/all
func (h *SyncHandler) SyncAll(c *gin.Context) {
	result, err := h.syncSvc.SyncAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Sync 按学生 / 课程范围同步；两者同时给出时取交集
// POST /api/v1/sync
func (h *SyncHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		result *dto.SyncResult
		err    error
	)
	switch {
	case req.StudentID != "" && req.CourseID != "":
		result, err = h.syncSvc.SyncOne(ctx, req.StudentID, req.CourseID)
	case req.StudentID != "":
		result, err = h.syncSvc.SyncForStudent(ctx, req.StudentID)
	case req.CourseID != "":
		result, err = h.syncSvc.SyncForCourse(ctx, req.CourseID)
	default:
		err = service.ErrSyncScopeRequired
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Stats 同步覆盖情况与各表总数
// GET /api/v1/sync/stats
func (h *SyncHandler) Stats(c *gin.Context) {
	stats, err := h.syncSvc.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, stats)
}

// OrphanReport 孤儿记录统计（只读）
// GET /api/v1/cleanup/orphans
func (h *SyncHandler) OrphanReport(c *gin.Context) {
	report, err := h.syncSvc.OrphanReport(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, report)
}

// CleanupOrphans 删除孤儿记录
// DELETE /api/v1/cleanup/orphans
func (h *SyncHandler) CleanupOrphans(c *gin.Context) {
	result, err := h.syncSvc.CleanupOrphans(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}
