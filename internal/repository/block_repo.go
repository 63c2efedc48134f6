package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SRCAndy/lucy-tejada/internal/model"
)

// BlockRepository 课时块数据访问接口
type BlockRepository interface {
	GetByID(ctx context.Context, id string) (*model.CourseBlock, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseBlock, error)
	ListByCourses(ctx context.Context, courseIDs []string) ([]model.CourseBlock, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.CourseBlock, error)
	// DeleteWithAssignments 事务内先删除引用该课时块的派生课表，再删除课时块
	DeleteWithAssignments(ctx context.Context, blockID string) (removedAssignments int64, studentIDs []string, err error)
}

type blockRepo struct {
	db *gorm.DB
}

// NewBlockRepo 创建 BlockRepository 实例
func NewBlockRepo(db *gorm.DB) BlockRepository {
	return &blockRepo{db: db}
}

func (r *blockRepo) GetByID(ctx context.Context, id string) (*model.CourseBlock, error) {
	var block model.CourseBlock
	if err := r.db.WithContext(ctx).Where("block_id = ?", id).First(&block).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *blockRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseBlock, error) {
	var blocks []model.CourseBlock
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("day_of_week ASC, start_time ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *blockRepo) ListByCourses(ctx context.Context, courseIDs []string) ([]model.CourseBlock, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var blocks []model.CourseBlock
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("course_id ASC, day_of_week ASC, start_time ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *blockRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.CourseBlock, error) {
	var blocks []model.CourseBlock
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("teacher_id = ?", teacherID).
		Order("day_of_week ASC, start_time ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *blockRepo) DeleteWithAssignments(ctx context.Context, blockID string) (int64, []string, error) {
	var removed int64
	var studentIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var block model.CourseBlock
		if err := tx.Where("block_id = ?", blockID).First(&block).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.StudentBlockAssignment{}).
			Where("block_id = ?", blockID).
			Pluck("student_id", &studentIDs).Error; err != nil {
			return err
		}

		res := tx.Where("block_id = ?", blockID).Delete(&model.StudentBlockAssignment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		return tx.Where("block_id = ?", blockID).Delete(&model.CourseBlock{}).Error
	})
	return removed, studentIDs, err
}
