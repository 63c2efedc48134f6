package model

import "time"

// Enrollment 选课表，对应 enrollments，(student_id, course_id) 唯一
type Enrollment struct {
	EnrollmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_enrollments_student_course" json:"student_id"`
	CourseID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_enrollments_student_course;index" json:"course_id"`
	EnrolledAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID;references:CourseID"   json:"course,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// EnrollmentPair 同步使用的 (学生, 课程) 键
type EnrollmentPair struct {
	StudentID string `gorm:"column:student_id"`
	CourseID  string `gorm:"column:course_id"`
}
