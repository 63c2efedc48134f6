package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求（课时块由学分自动生成）
type CreateCourseRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=150"`
	Code      string `json:"code"       binding:"required,max=30"`
	TeacherID string `json:"teacher_id" binding:"required,uuid"`
	Credits   int    `json:"credits"    binding:"required"`
	Capacity  int    `json:"capacity"   binding:"required,min=1"`
}

// UpdateCourseRequest 更新课程请求；学分变化会重新生成课时块
type UpdateCourseRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=150"`
	TeacherID *string `json:"teacher_id" binding:"omitempty,uuid"`
	Credits   *int    `json:"credits"`
	Capacity  *int    `json:"capacity"   binding:"omitempty,min=1"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	PaginationRequest
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Credits       int             `json:"credits"`
	Capacity      int             `json:"capacity"`
	EnrolledCount int64           `json:"enrolled_count"`
	Teacher       *TeacherBrief   `json:"teacher,omitempty"`
	TeacherID     string          `json:"teacher_id"`
	Blocks        []BlockResponse `json:"blocks,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// TeacherBrief 教师简要信息（嵌入课程响应）
type TeacherBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BlockResponse 课时块响应
type BlockResponse struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	TeacherID string `json:"teacher_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"` // "08:00"
	EndTime   string `json:"end_time"`   // "10:00"
}

// RegenerateBlocksResponse 重新生成课时块结果
type RegenerateBlocksResponse struct {
	Blocks             []BlockResponse `json:"blocks"`
	RemovedAssignments int64           `json:"removed_assignments"`
	Sync               SyncResult      `json:"sync"`
}

// DeleteCourseResponse 删除课程结果，按删除顺序列出各表删除条数
type DeleteCourseResponse struct {
	Assignments int64 `json:"assignments"`
	Blocks      int64 `json:"blocks"`
	Enrollments int64 `json:"enrollments"`
}

// DeleteBlockResponse 删除课时块结果
type DeleteBlockResponse struct {
	RemovedAssignments int64 `json:"removed_assignments"`
}
