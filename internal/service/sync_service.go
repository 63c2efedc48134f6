package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/model"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
)

// ── 课表同步模块业务错误 ──

var (
	ErrSyncScopeRequired = errors.New("必须指定 student_id 或 course_id")
	ErrBlockNotFound     = errors.New("课时块不存在")
)

// SyncService 选课 → 学生课表同步
//
// 不变式：StudentBlockAssignment(s, b) 存在 ⇔ Enrollment(s, course(b)) 与 CourseBlock(b) 同时存在。
//   - 同步按集合差实现：期望集合 − 实际集合 → 插入；实际集合 − 期望集合 → 删除
//   - 插入依赖 (student_id, block_id) 唯一约束，重复执行结果不变
//   - 单个选课对失败只计入 Errors，不中断整体同步
//   - 删除课程 / 退课 / 删除课时块按 派生课表 → 上游记录 的顺序在同一事务中执行
type SyncService interface {
	SyncOne(ctx context.Context, studentID, courseID string) (*dto.SyncResult, error)
	SyncAll(ctx context.Context) (*dto.SyncResult, error)
	SyncForCourse(ctx context.Context, courseID string) (*dto.SyncResult, error)
	SyncForStudent(ctx context.Context, studentID string) (*dto.SyncResult, error)

	DeleteCourse(ctx context.Context, courseID string) (*dto.DeleteCourseResponse, error)
	Withdraw(ctx context.Context, studentID, courseID string) (*dto.WithdrawResponse, error)
	DeleteBlock(ctx context.Context, blockID string) (*dto.DeleteBlockResponse, error)

	CleanupOrphans(ctx context.Context) (*dto.CleanupResult, error)
	OrphanReport(ctx context.Context) (*dto.CleanupResult, error)
	Stats(ctx context.Context) (*dto.SyncStats, error)
}

type syncService struct {
	repo   *repository.Repository
	cache  TimetableCache
	logger *zap.Logger
}

// NewSyncService 创建 SyncService 实例；cache 为 nil 时不做缓存失效
func NewSyncService(repo *repository.Repository, cache TimetableCache, logger *zap.Logger) SyncService {
	if cache == nil {
		cache = noopTimetableCache{}
	}
	return &syncService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── 同步入口 ──────────────────────

func (s *syncService) SyncOne(ctx context.Context, studentID, courseID string) (*dto.SyncResult, error) {
	if studentID == "" || courseID == "" {
		return nil, ErrSyncScopeRequired
	}
	return s.reconcile(ctx, repository.PairFilter{StudentID: studentID, CourseID: courseID})
}

func (s *syncService) SyncAll(ctx context.Context) (*dto.SyncResult, error) {
	return s.reconcile(ctx, repository.PairFilter{})
}

func (s *syncService) SyncForCourse(ctx context.Context, courseID string) (*dto.SyncResult, error) {
	if courseID == "" {
		return nil, ErrSyncScopeRequired
	}
	return s.reconcile(ctx, repository.PairFilter{CourseID: courseID})
}

func (s *syncService) SyncForStudent(ctx context.Context, studentID string) (*dto.SyncResult, error) {
	if studentID == "" {
		return nil, ErrSyncScopeRequired
	}
	return s.reconcile(ctx, repository.PairFilter{StudentID: studentID})
}

// fillConcurrency 同一次同步中并发补齐的选课对数量上限
const fillConcurrency = 4

// ═══════════════════════════════════════════════════════════
// reconcile: 在给定范围内让派生课表与选课 × 课时块一致
// ═══════════════════════════════════════════════════════════
//
// 步骤：
//  1. 先读现有派生行，再读选课对（顺序不可交换，见下）
//  2. 加载选课对涉及课程的全部课时块
//  3. 删除不在期望集合中的派生行（失败即中止）
//  4. 并发补齐各选课对缺失的行；单个选课对失败计入 Errors 后继续
//
// 派生行只会在其选课记录提交之后写入，因此先读派生行时，
// 其中任何一行的选课记录要么出现在随后读到的选课对里，要么已被退课删除。
// 反过来先读选课对，则并发选课写入的新行会被误判为多余行并删除。
func (s *syncService) reconcile(ctx context.Context, filter repository.PairFilter) (*dto.SyncResult, error) {
	log := s.logger.With(zap.String("student_id", filter.StudentID), zap.String("course_id", filter.CourseID))

	// 1. 源数据
	actual, err := s.repo.Assignment.ListByScope(ctx, filter)
	if err != nil {
		log.Error("加载现有课表失败", zap.Error(err))
		return nil, fmt.Errorf("加载同步数据失败: %w", err)
	}
	pairs, err := s.repo.Enrollment.ListPairs(ctx, filter)
	if err != nil {
		log.Error("加载选课记录失败", zap.Error(err))
		return nil, fmt.Errorf("加载同步数据失败: %w", err)
	}

	// 2. 课时块
	courseIDs := make([]string, 0, len(pairs))
	pairSet := make(map[model.EnrollmentPair]struct{}, len(pairs))
	seenCourse := make(map[string]struct{})
	for _, p := range pairs {
		pairSet[p] = struct{}{}
		if _, ok := seenCourse[p.CourseID]; !ok {
			seenCourse[p.CourseID] = struct{}{}
			courseIDs = append(courseIDs, p.CourseID)
		}
	}
	blocks, err := s.repo.Block.ListByCourses(ctx, courseIDs)
	if err != nil {
		log.Error("加载课时块失败", zap.Error(err))
		return nil, fmt.Errorf("加载课时块失败: %w", err)
	}
	blocksByCourse := make(map[string][]model.CourseBlock, len(courseIDs))
	blockCourse := make(map[string]string, len(blocks))
	for _, b := range blocks {
		blocksByCourse[b.CourseID] = append(blocksByCourse[b.CourseID], b)
		blockCourse[b.BlockID] = b.CourseID
	}

	result := &dto.SyncResult{Pairs: len(pairs)}
	touched := make(map[string]struct{})

	// 3. 实际 − 期望
	present := make(map[model.AssignmentKey]struct{}, len(actual))
	var stale []string
	for i := range actual {
		a := &actual[i]
		_, enrolled := pairSet[model.EnrollmentPair{StudentID: a.StudentID, CourseID: a.CourseID}]
		owner, blockExists := blockCourse[a.BlockID]
		if enrolled && blockExists && owner == a.CourseID {
			present[a.Key()] = struct{}{}
			continue
		}
		stale = append(stale, a.AssignmentID)
		touched[a.StudentID] = struct{}{}
	}
	if len(stale) > 0 {
		removed, err := s.repo.Assignment.DeleteByIDs(ctx, stale)
		if err != nil {
			log.Error("删除多余课表失败", zap.Int("count", len(stale)), zap.Error(err))
			return nil, fmt.Errorf("删除多余课表失败: %w", err)
		}
		result.Removed = int(removed)
	}

	// 4. 期望 − 实际；present 此后只读，各选课对的键互不相交
	var (
		g     errgroup.Group
		resMu sync.Mutex
	)
	g.SetLimit(fillConcurrency)
	for _, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			created, skipped, err := s.fillPair(ctx, p, blocksByCourse[p.CourseID], present)

			resMu.Lock()
			defer resMu.Unlock()
			result.Created += created
			result.Skipped += skipped
			if created > 0 {
				touched[p.StudentID] = struct{}{}
			}
			if err != nil {
				result.Errors++
				log.Warn("同步选课对失败",
					zap.String("pair_student_id", p.StudentID),
					zap.String("pair_course_id", p.CourseID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	s.invalidate(context.WithoutCancel(ctx), touched)
	if err := ctx.Err(); err != nil {
		log.Warn("课表同步被取消", zap.Int("created", result.Created), zap.Error(err))
		return result, err
	}

	log.Info("课表同步完成",
		zap.Int("pairs", result.Pairs),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("removed", result.Removed),
		zap.Int("errors", result.Errors))
	return result, nil
}

// fillPair 为一个选课对补齐课时块；遇到第一个非冲突错误即放弃该选课对
func (s *syncService) fillPair(
	ctx context.Context,
	pair model.EnrollmentPair,
	blocks []model.CourseBlock,
	present map[model.AssignmentKey]struct{},
) (created, skipped int, err error) {
	for _, b := range blocks {
		if _, ok := present[model.AssignmentKey{StudentID: pair.StudentID, BlockID: b.BlockID}]; ok {
			skipped++
			continue
		}
		ok, err := s.repo.Assignment.InsertIfAbsent(ctx, &model.StudentBlockAssignment{
			StudentID: pair.StudentID,
			CourseID:  pair.CourseID,
			BlockID:   b.BlockID,
		})
		if err != nil {
			return created, skipped, err
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}
	return created, skipped, nil
}

func (s *syncService) invalidate(ctx context.Context, students map[string]struct{}) {
	if len(students) == 0 {
		return
	}
	ids := make([]string, 0, len(students))
	for id := range students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	s.cache.Invalidate(ctx, ids...)
}

// ────────────────────── 有序删除 ──────────────────────

func (s *syncService) DeleteCourse(ctx context.Context, courseID string) (*dto.DeleteCourseResponse, error) {
	del, err := s.repo.Course.DeleteCascade(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("删除课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, del.StudentIDs...)
	s.logger.Info("课程已删除",
		zap.String("course_id", courseID),
		zap.Int64("assignments", del.Assignments),
		zap.Int64("blocks", del.Blocks),
		zap.Int64("enrollments", del.Enrollments))

	return &dto.DeleteCourseResponse{
		Assignments: del.Assignments,
		Blocks:      del.Blocks,
		Enrollments: del.Enrollments,
	}, nil
}

func (s *syncService) Withdraw(ctx context.Context, studentID, courseID string) (*dto.WithdrawResponse, error) {
	removed, err := s.repo.Enrollment.DeleteWithAssignments(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("退课失败",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, studentID)
	return &dto.WithdrawResponse{RemovedAssignments: removed}, nil
}

func (s *syncService) DeleteBlock(ctx context.Context, blockID string) (*dto.DeleteBlockResponse, error) {
	removed, studentIDs, err := s.repo.Block.DeleteWithAssignments(ctx, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		s.logger.Error("删除课时块失败", zap.String("block_id", blockID), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, studentIDs...)
	return &dto.DeleteBlockResponse{RemovedAssignments: removed}, nil
}

// ────────────────────── 孤儿清理 / 统计 ──────────────────────

func (s *syncService) CleanupOrphans(ctx context.Context) (*dto.CleanupResult, error) {
	counts, err := s.repo.Maintenance.DeleteOrphans(ctx)
	if err != nil {
		s.logger.Error("清理孤儿记录失败", zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, counts.StudentIDs...)
	s.logger.Info("孤儿记录已清理",
		zap.Int64("assignments", counts.Assignments),
		zap.Int64("blocks", counts.Blocks),
		zap.Int64("enrollments", counts.Enrollments))
	return toCleanupResult(counts), nil
}

func (s *syncService) OrphanReport(ctx context.Context) (*dto.CleanupResult, error) {
	counts, err := s.repo.Maintenance.CountOrphans(ctx)
	if err != nil {
		s.logger.Error("统计孤儿记录失败", zap.Error(err))
		return nil, err
	}
	return toCleanupResult(counts), nil
}

func (s *syncService) Stats(ctx context.Context) (*dto.SyncStats, error) {
	totals, err := s.repo.Maintenance.Totals(ctx)
	if err != nil {
		s.logger.Error("查询同步统计失败", zap.Error(err))
		return nil, err
	}
	return &dto.SyncStats{
		MissingPairs: totals.MissingPairs,
		SyncedPairs:  totals.SyncedPairs,
		Totals: dto.TableTotals{
			Students:    totals.Students,
			Courses:     totals.Courses,
			Blocks:      totals.Blocks,
			Enrollments: totals.Enrollments,
			Assignments: totals.Assignments,
		},
	}, nil
}

func toCleanupResult(c *repository.OrphanCounts) *dto.CleanupResult {
	return &dto.CleanupResult{
		Assignments: c.Assignments,
		Blocks:      c.Blocks,
		Enrollments: c.Enrollments,
	}
}
