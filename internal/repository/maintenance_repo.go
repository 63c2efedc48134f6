package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SRCAndy/lucy-tejada/internal/model"
)

// OrphanCounts 孤儿记录统计 / 清理结果
type OrphanCounts struct {
	Assignments int64    // 课时块、课程或选课对已不存在的派生课表
	Blocks      int64    // 课程已不存在的课时块
	Enrollments int64    // 课程已不存在的选课记录
	StudentIDs  []string // 清理时受影响的学生
}

// TableTotals 各表总行数及选课对同步情况
type TableTotals struct {
	Students    int64
	Courses     int64
	Blocks      int64
	Enrollments int64
	Assignments int64
	// MissingPairs 课表行数少于课程课时块数的选课对
	MissingPairs int64
	// SyncedPairs 课表行数与课程课时块数一致的选课对
	SyncedPairs int64
}

// 孤儿派生行：课时块不存在、课程不存在，或选课对已不存在
const orphanAssignmentCond = `
NOT EXISTS (SELECT 1 FROM course_blocks b WHERE b.block_id = student_block_assignments.block_id AND b.course_id = student_block_assignments.course_id)
OR NOT EXISTS (SELECT 1 FROM courses c WHERE c.course_id = student_block_assignments.course_id)
OR NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = student_block_assignments.student_id AND e.course_id = student_block_assignments.course_id)`

const orphanBlockCond = `NOT EXISTS (SELECT 1 FROM courses c WHERE c.course_id = course_blocks.course_id)`

const orphanEnrollmentCond = `NOT EXISTS (SELECT 1 FROM courses c WHERE c.course_id = enrollments.course_id)`

// MaintenanceRepository 跨表一致性维护
type MaintenanceRepository interface {
	CountOrphans(ctx context.Context) (*OrphanCounts, error)
	// DeleteOrphans 事务内按顺序清理：派生课表 → 课时块 → 选课记录
	DeleteOrphans(ctx context.Context) (*OrphanCounts, error)
	Totals(ctx context.Context) (*TableTotals, error)
}

type maintenanceRepo struct {
	db *gorm.DB
}

// NewMaintenanceRepo 创建 MaintenanceRepository 实例
func NewMaintenanceRepo(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepo{db: db}
}

func (r *maintenanceRepo) CountOrphans(ctx context.Context) (*OrphanCounts, error) {
	counts := &OrphanCounts{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.StudentBlockAssignment{}).Where(orphanAssignmentCond).Count(&counts.Assignments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.CourseBlock{}).Where(orphanBlockCond).Count(&counts.Blocks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Enrollment{}).Where(orphanEnrollmentCond).Count(&counts.Enrollments).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *maintenanceRepo) DeleteOrphans(ctx context.Context) (*OrphanCounts, error) {
	counts := &OrphanCounts{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先删除引用孤儿课时块 / 孤儿选课的派生行（它们也满足 orphanAssignmentCond）
		var removed []model.StudentBlockAssignment
		res := tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "student_id"}}}).
			Where(orphanAssignmentCond).
			Delete(&removed)
		if res.Error != nil {
			return res.Error
		}
		counts.Assignments = res.RowsAffected
		seen := make(map[string]struct{}, len(removed))
		for _, a := range removed {
			if _, ok := seen[a.StudentID]; !ok {
				seen[a.StudentID] = struct{}{}
				counts.StudentIDs = append(counts.StudentIDs, a.StudentID)
			}
		}

		res = tx.Where(orphanBlockCond).Delete(&model.CourseBlock{})
		if res.Error != nil {
			return res.Error
		}
		counts.Blocks = res.RowsAffected

		res = tx.Where(orphanEnrollmentCond).Delete(&model.Enrollment{})
		if res.Error != nil {
			return res.Error
		}
		counts.Enrollments = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *maintenanceRepo) Totals(ctx context.Context) (*TableTotals, error) {
	var totals TableTotals
	err := r.db.WithContext(ctx).Raw(`
SELECT
	(SELECT COUNT(*) FROM students)                  AS students,
	(SELECT COUNT(*) FROM courses)                   AS courses,
	(SELECT COUNT(*) FROM course_blocks)             AS blocks,
	(SELECT COUNT(*) FROM enrollments)               AS enrollments,
	(SELECT COUNT(*) FROM student_block_assignments) AS assignments,
	COUNT(*) FILTER (WHERE p.assigned < p.expected)  AS missing_pairs,
	COUNT(*) FILTER (WHERE p.assigned = p.expected)  AS synced_pairs
FROM (
	SELECT
		(SELECT COUNT(*) FROM student_block_assignments a
			WHERE a.student_id = e.student_id AND a.course_id = e.course_id) AS assigned,
		(SELECT COUNT(*) FROM course_blocks b WHERE b.course_id = e.course_id) AS expected
	FROM enrollments e
) p`).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
