package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 课表导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// MineExcel 导出本人课表为 Excel
// GET /api/v1/export/timetables/me.xlsx
func (h *ExportHandler) MineExcel(c *gin.Context) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStudentExcel(c.Request.Context(), uid)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// MineICS 导出本人课表为 iCalendar，每个课时块按周重复
// GET /api/v1/export/timetables/me.ics?week_start=2026-10-19&weeks=16
func (h *ExportHandler) MineICS(c *gin.Context) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ExportICSRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	weekStart := time.Now()
	if req.WeekStart != "" {
		// binding 已校验格式
		weekStart, _ = time.ParseInLocation("2006-01-02", req.WeekStart, time.Local)
	}

	data, filename, err := h.exportSvc.ExportStudentICS(c.Request.Context(), uid, weekStart, req.Weeks)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	attachment(c, filename, contentTypeICS, data)
}

// attachment 以附件形式返回文件
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}
