package model

// Student 学生表，对应 students
type Student struct {
	StudentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string `gorm:"type:varchar(150);not null;uniqueIndex"         json:"email"`
	StudentNo string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"student_no"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
