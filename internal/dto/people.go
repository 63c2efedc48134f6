package dto

// ── 教师 / 学生 DTO ──

// CreateTeacherRequest 创建教师请求
type CreateTeacherRequest struct {
	Name  string `json:"name"  binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email"`
}

// TeacherResponse 教师信息响应
type TeacherResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	Email     string `json:"email"      binding:"required,email"`
	StudentNo string `json:"student_no" binding:"required,max=30"`
}

// StudentResponse 学生信息响应
type StudentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentNo string `json:"student_no"`
	CreatedAt string `json:"created_at,omitempty"`
}
