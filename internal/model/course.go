package model

// Course 课程表，对应 courses
// 已选人数不落库，始终由 enrollments 实时统计
type Course struct {
	CourseID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Name      string `gorm:"type:varchar(150);not null"                     json:"name"`
	Code      string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"code"`
	TeacherID string `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	Credits   int    `gorm:"type:smallint;not null"                         json:"credits"`
	Capacity  int    `gorm:"not null"                                       json:"capacity"`
	BaseModel

	// 关联
	Teacher *Teacher      `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
	Blocks  []CourseBlock `gorm:"foreignKey:CourseID;references:CourseID"   json:"blocks,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CourseWithCount 课程 + 实时选课人数
type CourseWithCount struct {
	Course
	EnrolledCount int64
}
