package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SRCAndy/lucy-tejada/internal/model"
)

// CourseDeletion 删除课程时各表清理的行数
type CourseDeletion struct {
	Assignments int64
	Blocks      int64
	Enrollments int64
	StudentIDs  []string // 受影响的学生，用于失效课表缓存
}

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	// CreateWithBlocks 在同一事务中写入课程及其课时块
	CreateWithBlocks(ctx context.Context, course *model.Course, blocks []model.CourseBlock) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	List(ctx context.Context, teacherID string, offset, limit int) ([]model.CourseWithCount, int64, error)
	// Update 保存课程字段，并把课时块的 teacher_id 同步为课程当前教师
	// blocks 非 nil 时在同一事务内替换课时块（同 ReplaceBlocks），学分与课时块不会出现不一致
	Update(ctx context.Context, course *model.Course, blocks []model.CourseBlock) (removedAssignments int64, err error)
	// ReplaceBlocks 事务内按顺序删除：课程的派生课表 → 旧课时块，再插入新课时块
	ReplaceBlocks(ctx context.Context, courseID string, blocks []model.CourseBlock) (removedAssignments int64, err error)
	// DeleteCascade 事务内按顺序删除：派生课表 → 课时块 → 选课记录 → 课程本身
	// 课程不存在时返回 gorm.ErrRecordNotFound 且不做任何修改
	DeleteCascade(ctx context.Context, courseID string) (*CourseDeletion, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) CreateWithBlocks(ctx context.Context, course *model.Course, blocks []model.CourseBlock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Omit 关联，避免 GORM 自动 upsert Teacher/Blocks
		if err := tx.Omit(clause.Associations).Create(course).Error; err != nil {
			return err
		}
		if len(blocks) == 0 {
			return nil
		}
		for i := range blocks {
			blocks[i].CourseID = course.CourseID
			blocks[i].TeacherID = course.TeacherID
		}
		return tx.Omit(clause.Associations).Create(&blocks).Error
	})
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, teacherID string, offset, limit int) ([]model.CourseWithCount, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{})
	if teacherID != "" {
		db = db.Where("teacher_id = ?", teacherID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Teacher").
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	counts, err := r.countEnrolled(ctx, courses)
	if err != nil {
		return nil, 0, err
	}

	result := make([]model.CourseWithCount, 0, len(courses))
	for _, c := range courses {
		result = append(result, model.CourseWithCount{Course: c, EnrolledCount: counts[c.CourseID]})
	}
	return result, total, nil
}

// countEnrolled 实时聚合已选人数，不依赖冗余计数字段
func (r *courseRepo) countEnrolled(ctx context.Context, courses []model.Course) (map[string]int64, error) {
	counts := make(map[string]int64, len(courses))
	if len(courses) == 0 {
		return counts, nil
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CourseID)
	}

	var rows []struct {
		CourseID string
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course, blocks []model.CourseBlock) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(course).Error; err != nil {
			return err
		}
		if blocks != nil {
			n, err := replaceBlocks(tx, course.CourseID, blocks)
			if err != nil {
				return err
			}
			removed = n
		}
		// 课时块冗余保存授课教师，随课程同步
		return tx.Model(&model.CourseBlock{}).
			Where("course_id = ? AND teacher_id <> ?", course.CourseID, course.TeacherID).
			Update("teacher_id", course.TeacherID).Error
	})
	return removed, err
}

func (r *courseRepo) ReplaceBlocks(ctx context.Context, courseID string, blocks []model.CourseBlock) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := replaceBlocks(tx, courseID, blocks)
		removed = n
		return err
	})
	return removed, err
}

// replaceBlocks 须在事务内调用：派生课表 → 旧课时块 → 插入新课时块
func replaceBlocks(tx *gorm.DB, courseID string, blocks []model.CourseBlock) (int64, error) {
	res := tx.Where("course_id = ?", courseID).Delete(&model.StudentBlockAssignment{})
	if res.Error != nil {
		return 0, res.Error
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&model.CourseBlock{}).Error; err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return res.RowsAffected, nil
	}
	return res.RowsAffected, tx.Omit(clause.Associations).Create(&blocks).Error
}

func (r *courseRepo) DeleteCascade(ctx context.Context, courseID string) (*CourseDeletion, error) {
	result := &CourseDeletion{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定课程行，避免与并发选课交错
		var course model.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("course_id = ?", courseID).
			First(&course).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Enrollment{}).
			Where("course_id = ?", courseID).
			Pluck("student_id", &result.StudentIDs).Error; err != nil {
			return err
		}

		res := tx.Where("course_id = ?", courseID).Delete(&model.StudentBlockAssignment{})
		if res.Error != nil {
			return res.Error
		}
		result.Assignments = res.RowsAffected

		res = tx.Where("course_id = ?", courseID).Delete(&model.CourseBlock{})
		if res.Error != nil {
			return res.Error
		}
		result.Blocks = res.RowsAffected

		res = tx.Where("course_id = ?", courseID).Delete(&model.Enrollment{})
		if res.Error != nil {
			return res.Error
		}
		result.Enrollments = res.RowsAffected

		return tx.Where("course_id = ?", courseID).Delete(&model.Course{}).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
