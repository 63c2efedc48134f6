package dto

// ── 分页 ──

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationRequest 列表接口通用分页参数；越界值按默认值处理
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码，从 1 开始
func (p *PaginationRequest) GetPage() int {
	return max(p.Page, 1)
}

// GetPageSize 每页条数，范围 [1, 100]
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p.PageSize <= 0:
		return defaultPageSize
	case p.PageSize > maxPageSize:
		return maxPageSize
	default:
		return p.PageSize
	}
}

// GetOffset SQL OFFSET
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// TimeLayout 响应中时间戳统一格式（RFC 3339）
const TimeLayout = "2006-01-02T15:04:05Z07:00"
