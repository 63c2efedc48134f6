package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SRCAndy/lucy-tejada/internal/model"
	pkgerrors "github.com/SRCAndy/lucy-tejada/pkg/errors"
)

// AssignmentRepository 学生课表派生表数据访问接口
type AssignmentRepository interface {
	// ListByScope 按学生/课程过滤派生行，空字段表示不过滤
	ListByScope(ctx context.Context, filter PairFilter) ([]model.StudentBlockAssignment, error)
	// InsertIfAbsent 依赖 (student_id, block_id) 唯一约束；已存在时不更新，返回 created=false
	InsertIfAbsent(ctx context.Context, assignment *model.StudentBlockAssignment) (created bool, err error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	// ListTimetableByStudent 学生课表视图：关联课时块、课程与教师
	ListTimetableByStudent(ctx context.Context, studentID string) ([]model.StudentBlockAssignment, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) ListByScope(ctx context.Context, filter PairFilter) ([]model.StudentBlockAssignment, error) {
	var rows []model.StudentBlockAssignment
	db := r.db.WithContext(ctx)
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.CourseID != "" {
		db = db.Where("course_id = ?", filter.CourseID)
	}
	err := db.Order("student_id ASC, course_id ASC").Find(&rows).Error
	return rows, err
}

func (r *assignmentRepo) InsertIfAbsent(ctx context.Context, assignment *model.StudentBlockAssignment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "block_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(assignment)
	if res.Error != nil {
		// 并发下极少数情况仍可能冒出唯一冲突，按已存在处理
		if pkgerrors.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *assignmentRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("assignment_id IN ?", ids).Delete(&model.StudentBlockAssignment{})
	return res.RowsAffected, res.Error
}

func (r *assignmentRepo) ListTimetableByStudent(ctx context.Context, studentID string) ([]model.StudentBlockAssignment, error) {
	var rows []model.StudentBlockAssignment
	err := r.db.WithContext(ctx).
		Joins("Block").
		Preload("Course").
		Preload("Course.Teacher").
		Where("student_block_assignments.student_id = ?", studentID).
		Order(`"Block".day_of_week ASC, "Block".start_time ASC`).
		Find(&rows).Error
	return rows, err
}
