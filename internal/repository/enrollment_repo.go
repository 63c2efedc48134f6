package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SRCAndy/lucy-tejada/internal/model"
	pkgerrors "github.com/SRCAndy/lucy-tejada/pkg/errors"
)

var (
	// ErrCourseCapacityReached 课程已满（在事务内基于实时人数判定）
	ErrCourseCapacityReached = errors.New("课程容量已满")
	// ErrEnrollmentStudentMissing 写入时学生已不存在（外键冲突）
	ErrEnrollmentStudentMissing = errors.New("选课学生不存在")
)

// PairFilter 选课对过滤条件，空字段表示不过滤
type PairFilter struct {
	StudentID string
	CourseID  string
}

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	// CreateWithinCapacity 锁定课程行后校验实时人数并写入选课记录
	// 课程不存在返回 gorm.ErrRecordNotFound；已满返回 ErrCourseCapacityReached；重复返回 pkgerrors.ErrUniqueViolation
	// 学生在校验后被删除时返回 ErrEnrollmentStudentMissing
	CreateWithinCapacity(ctx context.Context, enrollment *model.Enrollment) error
	Get(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	ListPairs(ctx context.Context, filter PairFilter) ([]model.EnrollmentPair, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	// DeleteWithAssignments 事务内先删除该选课对的派生课表，再删除选课记录
	// 选课记录不存在时返回 gorm.ErrRecordNotFound
	DeleteWithAssignments(ctx context.Context, studentID, courseID string) (removedAssignments int64, err error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) CreateWithinCapacity(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("course_id = ?", enrollment.CourseID).
			First(&course).Error; err != nil {
			return err
		}

		var enrolled int64
		if err := tx.Model(&model.Enrollment{}).
			Where("course_id = ?", enrollment.CourseID).
			Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled >= int64(course.Capacity) {
			return ErrCourseCapacityReached
		}

		if err := tx.Omit(clause.Associations).Create(enrollment).Error; err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return pkgerrors.ErrUniqueViolation
			}
			// 课程行已加锁，外键冲突只可能来自学生
			if pkgerrors.IsForeignKeyViolation(err) {
				return ErrEnrollmentStudentMissing
			}
			return err
		}
		return nil
	})
}

func (r *enrollmentRepo) Get(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) ListPairs(ctx context.Context, filter PairFilter) ([]model.EnrollmentPair, error) {
	var pairs []model.EnrollmentPair
	db := r.db.WithContext(ctx).Model(&model.Enrollment{}).Distinct("student_id", "course_id")
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.CourseID != "" {
		db = db.Where("course_id = ?", filter.CourseID)
	}
	err := db.Order("course_id ASC, student_id ASC").Scan(&pairs).Error
	return pairs, err
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Teacher").
		Where("student_id = ?", studentID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&total).Error
	return total, err
}

func (r *enrollmentRepo) DeleteWithAssignments(ctx context.Context, studentID, courseID string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment model.Enrollment
		if err := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).
			First(&enrollment).Error; err != nil {
			return err
		}

		res := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).
			Delete(&model.StudentBlockAssignment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		return tx.Where("enrollment_id = ?", enrollment.EnrollmentID).Delete(&model.Enrollment{}).Error
	})
	return removed, err
}
