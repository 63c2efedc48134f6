package model

import (
	"time"

	"gorm.io/datatypes"
)

// BlockDuration 每个课时块固定 2 小时
const BlockDuration = 2 * time.Hour

// CourseBlock 课时块表，对应 course_blocks
// 区间为 [StartTime, EndTime)，EndTime 恒等于 StartTime + 2h
type CourseBlock struct {
	BlockID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"block_id"`
	CourseID  string         `gorm:"type:uuid;not null;index"                       json:"course_id"`
	TeacherID string         `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	DayOfWeek int            `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1-5
	StartTime datatypes.Time `gorm:"type:time;not null"                             json:"start_time"`
	EndTime   datatypes.Time `gorm:"type:time;not null"                             json:"end_time"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (CourseBlock) TableName() string { return "course_blocks" }

// Overlaps 判断两个课时块是否在同一天且时间区间相交
func (b *CourseBlock) Overlaps(other *CourseBlock) bool {
	if b.DayOfWeek != other.DayOfWeek {
		return false
	}
	return b.StartTime < other.EndTime && other.StartTime < b.EndTime
}
