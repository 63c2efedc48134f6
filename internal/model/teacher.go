package model

// Teacher 教师表，对应 teachers
type Teacher struct {
	TeacherID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string `gorm:"type:varchar(150);not null;uniqueIndex"         json:"email"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
