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

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound   = errors.New("课程不存在")
	ErrCourseCodeExists = errors.New("课程编号已存在")
	ErrTeacherNotFound  = errors.New("教师不存在")
)

// CourseService 课程业务接口
// 课时块由学分生成，课程与课时块同事务写入；删除走 SyncService 的有序删除
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string) (*dto.DeleteCourseResponse, error)
	RegenerateBlocks(ctx context.Context, id string) (*dto.RegenerateBlocksResponse, error)
	ListBlocks(ctx context.Context, id string) ([]dto.BlockResponse, error)
}

type courseService struct {
	repo      *repository.Repository
	generator *BlockGenerator
	sync      SyncService
	logger    *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, generator *BlockGenerator, sync SyncService, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, generator: generator, sync: sync, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	// 1. 先生成课时块：学分非法时不做任何 I/O
	specs, err := s.generator.Generate(req.Credits)
	if err != nil {
		return nil, err
	}

	// 2. 授课教师
	teacher, err := s.repo.Teacher.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("teacher_id", req.TeacherID), zap.Error(err))
		return nil, err
	}

	// 3. 课程编号唯一
	if _, err := s.repo.Course.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrCourseCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询课程编号失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	// 4. 课程 + 课时块同事务写入
	course := &model.Course{
		Name:      req.Name,
		Code:      req.Code,
		TeacherID: req.TeacherID,
		Credits:   req.Credits,
		Capacity:  req.Capacity,
	}
	blocks := ToModels(specs, "", req.TeacherID)
	if err := s.repo.Course.CreateWithBlocks(ctx, course, blocks); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("创建课程失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}
	course.Teacher = teacher
	course.Blocks = blocks

	s.logger.Info("课程已创建",
		zap.String("course_id", course.CourseID),
		zap.Int("credits", course.Credits),
		zap.Int("blocks", len(blocks)))

	return toCourseResponse(course, 0), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.repo.Enrollment.CountByCourse(ctx, id)
	if err != nil {
		s.logger.Error("统计选课人数失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course, enrolled), nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	courses, total, err := s.repo.Course.List(ctx, req.TeacherID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i].Course, courses[i].EnrolledCount))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	creditsChanged := req.Credits != nil && *req.Credits != course.Credits
	if creditsChanged && *req.Credits <= 0 {
		return nil, ErrInvalidCredits
	}

	if req.TeacherID != nil && *req.TeacherID != course.TeacherID {
		teacher, err := s.repo.Teacher.GetByID(ctx, *req.TeacherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeacherNotFound
			}
			s.logger.Error("查询教师失败", zap.String("teacher_id", *req.TeacherID), zap.Error(err))
			return nil, err
		}
		course.TeacherID = teacher.TeacherID
		course.Teacher = teacher
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Capacity != nil {
		course.Capacity = *req.Capacity
	}

	// 学分变化 → 课时块数量变化；新课时块与课程字段在同一事务内落库
	var blocks []model.CourseBlock
	if creditsChanged {
		specs, err := s.generator.Generate(*req.Credits)
		if err != nil {
			return nil, err
		}
		course.Credits = *req.Credits
		blocks = ToModels(specs, course.CourseID, course.TeacherID)
	}

	removed, err := s.repo.Course.Update(ctx, course, blocks)
	if err != nil {
		s.logger.Error("更新课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	// 旧派生行已随旧课时块删除；同步失败不回滚更新，由定时全量同步补齐
	if creditsChanged {
		if _, err := s.sync.SyncForCourse(ctx, id); err != nil {
			s.logger.Warn("学分变更后同步课表失败",
				zap.String("course_id", id),
				zap.Int64("removed_assignments", removed),
				zap.Error(err))
		}
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, id string) (*dto.DeleteCourseResponse, error) {
	return s.sync.DeleteCourse(ctx, id)
}

// ────────────────────── RegenerateBlocks ──────────────────────

func (s *courseService) RegenerateBlocks(ctx context.Context, id string) (*dto.RegenerateBlocksResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	specs, err := s.generator.Generate(course.Credits)
	if err != nil {
		return nil, err
	}
	blocks := ToModels(specs, course.CourseID, course.TeacherID)

	removed, err := s.repo.Course.ReplaceBlocks(ctx, course.CourseID, blocks)
	if err != nil {
		s.logger.Error("替换课时块失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	// 旧派生行已随旧课时块删除，为全部选课学生补齐新课时块
	result, err := s.sync.SyncForCourse(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("重新生成后同步课表失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.RegenerateBlocksResponse{
		Blocks:             toBlockResponses(blocks),
		RemovedAssignments: removed,
		Sync:               *result,
	}, nil
}

// ────────────────────── ListBlocks ──────────────────────

func (s *courseService) ListBlocks(ctx context.Context, id string) ([]dto.BlockResponse, error) {
	if _, err := s.getCourse(ctx, id); err != nil {
		return nil, err
	}
	blocks, err := s.repo.Block.ListByCourse(ctx, id)
	if err != nil {
		s.logger.Error("查询课时块失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return toBlockResponses(blocks), nil
}

// ── 内部辅助方法 ──

func (s *courseService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func toCourseResponse(c *model.Course, enrolled int64) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:            c.CourseID,
		Name:          c.Name,
		Code:          c.Code,
		Credits:       c.Credits,
		Capacity:      c.Capacity,
		EnrolledCount: enrolled,
		TeacherID:     c.TeacherID,
		Blocks:        toBlockResponses(c.Blocks),
		CreatedAt:     c.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:     c.UpdatedAt.Format(dto.TimeLayout),
	}
	if c.Teacher != nil {
		resp.Teacher = &dto.TeacherBrief{ID: c.Teacher.TeacherID, Name: c.Teacher.Name}
	}
	return resp
}

func toBlockResponses(blocks []model.CourseBlock) []dto.BlockResponse {
	if len(blocks) == 0 {
		return nil
	}
	result := make([]dto.BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, dto.BlockResponse{
			ID:        b.BlockID,
			CourseID:  b.CourseID,
			TeacherID: b.TeacherID,
			DayOfWeek: b.DayOfWeek,
			StartTime: clock(b.StartTime),
			EndTime:   clock(b.EndTime),
		})
	}
	return result
}
