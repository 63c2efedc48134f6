package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/model"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
)

// TimetableService 课表视图
//
// 设计说明：
//   - 学生课表读取派生表 student_block_assignments，按 周几 + 起始时间 排序
//   - 不同课程的课时块时间重叠只作为 conflicts 返回，不调整放置
//   - 学生课表结果缓存在 Redis，由 SyncService 在写入后失效
type TimetableService interface {
	StudentTimetable(ctx context.Context, studentID string) (*dto.StudentTimetableResponse, error)
	TeacherTimetable(ctx context.Context, teacherID string) (*dto.TeacherTimetableResponse, error)
}

type timetableService struct {
	repo   *repository.Repository
	cache  TimetableCache
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, cache TimetableCache, logger *zap.Logger) TimetableService {
	if cache == nil {
		cache = noopTimetableCache{}
	}
	return &timetableService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── 学生课表 ──────────────────────

func (s *timetableService) StudentTimetable(ctx context.Context, studentID string) (*dto.StudentTimetableResponse, error) {
	if tt, ok := s.cache.Get(ctx, studentID); ok {
		return tt, nil
	}

	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	rows, err := s.repo.Assignment.ListTimetableByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	blocks := make([]model.CourseBlock, 0, len(rows))
	courses := make(map[string]*model.Course, len(rows))
	for _, r := range rows {
		if r.Block == nil {
			continue
		}
		blocks = append(blocks, *r.Block)
		if r.Course != nil {
			courses[r.CourseID] = r.Course
		}
	}
	sortBlocks(blocks)

	tt := &dto.StudentTimetableResponse{
		StudentID: studentID,
		Entries:   toTimetableEntries(blocks, courses),
		Conflicts: findConflicts(blocks),
	}
	s.cache.Set(ctx, studentID, tt)
	return tt, nil
}

// ────────────────────── 教师课表 ──────────────────────

func (s *timetableService) TeacherTimetable(ctx context.Context, teacherID string) (*dto.TeacherTimetableResponse, error) {
	if _, err := s.repo.Teacher.GetByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	blocks, err := s.repo.Block.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询教师课表失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	sortBlocks(blocks)

	courses := make(map[string]*model.Course)
	for _, b := range blocks {
		if b.Course != nil {
			courses[b.CourseID] = b.Course
		}
	}

	return &dto.TeacherTimetableResponse{
		TeacherID: teacherID,
		Entries:   toTimetableEntries(blocks, courses),
	}, nil
}

// ── 内部辅助方法 ──

func sortBlocks(blocks []model.CourseBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].DayOfWeek != blocks[j].DayOfWeek {
			return blocks[i].DayOfWeek < blocks[j].DayOfWeek
		}
		return blocks[i].StartTime < blocks[j].StartTime
	})
}

// findConflicts 两两比较同一天内不同课程的课时块，blocks 需已排序
func findConflicts(blocks []model.CourseBlock) []dto.TimetableConflict {
	conflicts := make([]dto.TimetableConflict, 0)
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[j].DayOfWeek != blocks[i].DayOfWeek {
				break
			}
			if blocks[i].CourseID == blocks[j].CourseID || !blocks[i].Overlaps(&blocks[j]) {
				continue
			}
			conflicts = append(conflicts, dto.TimetableConflict{
				DayOfWeek: blocks[i].DayOfWeek,
				BlockA:    blocks[i].BlockID,
				CourseA:   blocks[i].CourseID,
				BlockB:    blocks[j].BlockID,
				CourseB:   blocks[j].CourseID,
			})
		}
	}
	return conflicts
}

func toTimetableEntries(blocks []model.CourseBlock, courses map[string]*model.Course) []dto.TimetableEntry {
	entries := make([]dto.TimetableEntry, 0, len(blocks))
	for _, b := range blocks {
		e := dto.TimetableEntry{
			BlockID:   b.BlockID,
			CourseID:  b.CourseID,
			DayOfWeek: b.DayOfWeek,
			StartTime: clock(b.StartTime),
			EndTime:   clock(b.EndTime),
		}
		if c, ok := courses[b.CourseID]; ok {
			e.CourseName = c.Name
			e.CourseCode = c.Code
			if c.Teacher != nil {
				e.TeacherName = c.Teacher.Name
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// clock 将 time 列格式化为 "15:04"
func clock(t datatypes.Time) string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
