package dto

// ── 选课模块 DTO ──

// EnrollRequest 选课 / 退课请求
// 学生调用时 student_id 可省略，以 Token 中的身份为准
type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"omitempty,uuid"`
	CourseID  string `json:"course_id"  binding:"required,uuid"`
}

// EnrollmentResponse 选课记录响应
type EnrollmentResponse struct {
	ID         string          `json:"id"`
	StudentID  string          `json:"student_id"`
	CourseID   string          `json:"course_id"`
	Course     *CourseResponse `json:"course,omitempty"`
	EnrolledAt string          `json:"enrolled_at"`
}

// EnrollResponse 选课结果（含课表同步统计）
type EnrollResponse struct {
	Enrollment EnrollmentResponse `json:"enrollment"`
	Sync       SyncResult         `json:"sync"`
}

// WithdrawResponse 退课结果
type WithdrawResponse struct {
	RemovedAssignments int64 `json:"removed_assignments"`
}

// CourseStudentResponse 课程选课学生
type CourseStudentResponse struct {
	StudentResponse
	EnrolledAt string `json:"enrolled_at"`
}
