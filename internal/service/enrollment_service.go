package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/model"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
	pkgerrors "github.com/SRCAndy/lucy-tejada/pkg/errors"
)

// ── 选课模块业务错误 ──

var (
	ErrStudentNotFound    = errors.New("学生不存在")
	ErrAlreadyEnrolled    = errors.New("已选该课程")
	ErrCourseFull         = errors.New("课程人数已满")
	ErrEnrollmentNotFound = errors.New("选课记录不存在")
)

// EnrollmentService 选课业务接口
// 选课成功后立即为该选课对同步课表；退课按 派生课表 → 选课记录 顺序删除
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID, courseID string) (*dto.EnrollResponse, error)
	Withdraw(ctx context.Context, studentID, courseID string) (*dto.WithdrawResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error)
	ListStudentsByCourse(ctx context.Context, courseID string) ([]dto.CourseStudentResponse, error)
}

type enrollmentService struct {
	repo   *repository.Repository
	sync   SyncService
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, sync SyncService, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, sync: sync, logger: logger}
}

// ────────────────────── Enroll ──────────────────────

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID string) (*dto.EnrollResponse, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	enrollment := &model.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := s.repo.Enrollment.CreateWithinCapacity(ctx, enrollment); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrCourseNotFound
		case errors.Is(err, repository.ErrEnrollmentStudentMissing):
			return nil, ErrStudentNotFound
		case errors.Is(err, repository.ErrCourseCapacityReached):
			return nil, ErrCourseFull
		case pkgerrors.IsUniqueViolation(err):
			return nil, ErrAlreadyEnrolled
		}
		s.logger.Error("创建选课记录失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err))
		return nil, err
	}

	// 选课已生效；同步失败不回滚选课，由定时全量同步补齐
	result, err := s.sync.SyncOne(ctx, studentID, courseID)
	if err != nil {
		s.logger.Warn("选课后同步课表失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err))
		result = &dto.SyncResult{Pairs: 1, Errors: 1}
	}

	return &dto.EnrollResponse{
		Enrollment: *toEnrollmentResponse(enrollment),
		Sync:       *result,
	}, nil
}

// ────────────────────── Withdraw ──────────────────────

func (s *enrollmentService) Withdraw(ctx context.Context, studentID, courseID string) (*dto.WithdrawResponse, error) {
	return s.sync.Withdraw(ctx, studentID, courseID)
}

// ────────────────────── 查询 ──────────────────────

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生选课失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		result = append(result, *toEnrollmentResponse(&enrollments[i]))
	}
	return result, nil
}

func (s *enrollmentService) ListStudentsByCourse(ctx context.Context, courseID string) ([]dto.CourseStudentResponse, error) {
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程选课学生失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseStudentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		item := dto.CourseStudentResponse{EnrolledAt: e.EnrolledAt.Format(dto.TimeLayout)}
		if e.Student != nil {
			item.StudentResponse = *toStudentResponse(e.Student)
		} else {
			item.ID = e.StudentID
		}
		result = append(result, item)
	}
	return result, nil
}

// ── 内部辅助方法 ──

func toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:         e.EnrollmentID,
		StudentID:  e.StudentID,
		CourseID:   e.CourseID,
		EnrolledAt: e.EnrolledAt.Format(dto.TimeLayout),
	}
	if e.Course != nil {
		resp.Course = toCourseResponse(e.Course, 0)
	}
	return resp
}
