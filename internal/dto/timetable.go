package dto

// ── 课表视图 DTO ──

// TimetableEntry 课表中的一个课时块
type TimetableEntry struct {
	BlockID     string `json:"block_id"`
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name"`
	CourseCode  string `json:"course_code"`
	TeacherName string `json:"teacher_name,omitempty"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// TimetableConflict 同一学生两个不同课程的课时块时间重叠，仅作提示
type TimetableConflict struct {
	DayOfWeek int    `json:"day_of_week"`
	BlockA    string `json:"block_a"`
	CourseA   string `json:"course_a"`
	BlockB    string `json:"block_b"`
	CourseB   string `json:"course_b"`
}

// StudentTimetableResponse 学生课表
type StudentTimetableResponse struct {
	StudentID string              `json:"student_id"`
	Entries   []TimetableEntry    `json:"entries"`
	Conflicts []TimetableConflict `json:"conflicts"`
}

// TeacherTimetableResponse 教师课表
type TeacherTimetableResponse struct {
	TeacherID string           `json:"teacher_id"`
	Entries   []TimetableEntry `json:"entries"`
}

// ExportICSRequest iCalendar 导出参数
type ExportICSRequest struct {
	WeekStart string `form:"week_start" binding:"omitempty,datetime=2006-01-02"` // 默认本周一
	Weeks     int    `form:"weeks"      binding:"omitempty,min=1,max=52"`        // 默认 16 周
}
