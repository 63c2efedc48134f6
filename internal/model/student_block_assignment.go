package model

import "time"

// StudentBlockAssignment 学生课表派生表，对应 student_block_assignments
// 存在当且仅当 Enrollment(student, course) 与 CourseBlock(block ∈ course) 同时存在
// (student_id, block_id) 唯一；行无可变字段，只有创建与删除
type StudentBlockAssignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_sba_student_block" json:"student_id"`
	CourseID     string    `gorm:"type:uuid;not null;index"                       json:"course_id"`
	BlockID      string    `gorm:"type:uuid;not null;uniqueIndex:uq_sba_student_block;index" json:"block_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联（只读视图使用）
	Block  *CourseBlock `gorm:"foreignKey:BlockID;references:BlockID"   json:"block,omitempty"`
	Course *Course      `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (StudentBlockAssignment) TableName() string { return "student_block_assignments" }

// AssignmentKey 派生行的逻辑主键
type AssignmentKey struct {
	StudentID string
	BlockID   string
}

// Key 返回派生行的逻辑主键
func (a *StudentBlockAssignment) Key() AssignmentKey {
	return AssignmentKey{StudentID: a.StudentID, BlockID: a.BlockID}
}
