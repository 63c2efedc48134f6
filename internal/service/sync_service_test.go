package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/model"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
)

// ── 测试辅助 ──

func setupTestSyncService() (SyncService, *memStore, *recordingCache) {
	store := newMemStore()
	cache := newRecordingCache()
	svc := NewSyncService(newMockRepository(store), cache, zap.NewNop())
	return svc, store, cache
}

// seedTwoCourses t1 教授 c3（3 学分，2 块）与 c4（4 学分，3 块）；s1 选两门，s2 只选 c3
func seedTwoCourses(store *memStore) {
	store.addTeacher("t1", "Prof. Lucy")
	store.addStudent("s1", "Ana")
	store.addStudent("s2", "Beto")
	store.addCourse("c3", "t1", 3, 30)
	store.addCourse("c4", "t1", 4, 30)
	store.addEnrollment("s1", "c3")
	store.addEnrollment("s1", "c4")
	store.addEnrollment("s2", "c3")
}

// ── SyncAll 测试 ──

func TestSyncService_SyncAll_CreatesEveryAssignment(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Pairs)
	assert.Equal(t, 7, result.Created)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, store.expectedKeys(), store.assignmentKeys())
}

func TestSyncService_SyncAll_Idempotent(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	second, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created, "第二次同步不应新建")
	assert.Equal(t, 7, second.Skipped, "第二次同步应全部跳过")
	assert.Equal(t, 0, second.Removed)
	assert.Len(t, store.assignmentKeys(), 7)
}

func TestSyncService_SyncAll_RepairsDrift(t *testing.T) {
	svc, store, cache := setupTestSyncService()
	seedTwoCourses(store)
	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	// 漂移：缺一行、多一行（未选课）、一行指向已不存在的课时块
	for id, a := range store.assignments {
		if a.StudentID == "s1" && a.BlockID == "c4-b2" {
			delete(store.assignments, id)
		}
	}
	store.addAssignment("s2", "c4", "c4-b0")
	store.addAssignment("s1", "c3", "ghost-block")

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Removed)
	assert.Equal(t, store.expectedKeys(), store.assignmentKeys(), "同步后派生集合应与期望完全一致")
	assert.Contains(t, cache.invalidated, "s1")
	assert.Contains(t, cache.invalidated, "s2")
}

func TestSyncService_SyncAll_PairFailureIsolated(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)
	store.insertErr["s1"] = errors.New("connection reset")

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err, "单个选课对失败不应中止同步")
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, 2, result.Created, "s2 的两行仍应写入")

	keys := store.assignmentKeys()
	assert.Contains(t, keys, model.AssignmentKey{StudentID: "s2", BlockID: "c3-b0"})
	assert.Contains(t, keys, model.AssignmentKey{StudentID: "s2", BlockID: "c3-b1"})
}

func TestSyncService_SyncAll_LoadFailure(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)
	store.listPairsErr = errors.New("database unavailable")

	_, err := svc.SyncAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.listPairsErr)
	assert.Empty(t, store.assignmentKeys())
}

func TestSyncService_SyncAll_DeleteFailureIsFatal(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)
	store.addAssignment("s2", "c4", "c4-b0")
	store.deleteErr = errors.New("lock timeout")

	_, err := svc.SyncAll(context.Background())
	assert.ErrorIs(t, err, store.deleteErr)
}

func TestSyncService_SyncAll_Cancelled(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SyncAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// ── 并发写入交错测试 ──

// interleavedReads 在同步读取派生行与选课对之间插入一次并发写入；
// 无论哪一个读取先完成，between 都只在第一次读取之后执行一次
type interleavedReads struct {
	once    sync.Once
	between func()
}

func (r *interleavedReads) after() { r.once.Do(r.between) }

type interleavedAssignmentRepo struct {
	repository.AssignmentRepository
	reads *interleavedReads
}

func (r *interleavedAssignmentRepo) ListByScope(ctx context.Context, filter repository.PairFilter) ([]model.StudentBlockAssignment, error) {
	rows, err := r.AssignmentRepository.ListByScope(ctx, filter)
	r.reads.after()
	return rows, err
}

type interleavedEnrollmentRepo struct {
	repository.EnrollmentRepository
	reads *interleavedReads
}

func (r *interleavedEnrollmentRepo) ListPairs(ctx context.Context, filter repository.PairFilter) ([]model.EnrollmentPair, error) {
	pairs, err := r.EnrollmentRepository.ListPairs(ctx, filter)
	r.reads.after()
	return pairs, err
}

func setupInterleavedSyncService(store *memStore, between func()) SyncService {
	repo := newMockRepository(store)
	reads := &interleavedReads{between: between}
	repo.Assignment = &interleavedAssignmentRepo{AssignmentRepository: repo.Assignment, reads: reads}
	repo.Enrollment = &interleavedEnrollmentRepo{EnrollmentRepository: repo.Enrollment, reads: reads}
	return NewSyncService(repo, newRecordingCache(), zap.NewNop())
}

func TestSyncService_SyncAll_ConcurrentEnrollKeepsNewRows(t *testing.T) {
	store := newMemStore()
	seedTwoCourses(store)
	store.addStudent("s3", "Carla")

	first, err := setupInterleavedSyncService(store, func() {}).SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, first.Created)

	// 选课事务在两次读取之间提交：选课记录与其派生行同时出现
	svc := setupInterleavedSyncService(store, func() {
		store.addEnrollment("s3", "c3")
		store.addAssignment("s3", "c3", "c3-b0")
		store.addAssignment("s3", "c3", "c3-b1")
	})

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Removed, "刚提交的选课派生行不应被当作多余行删除")
	assert.Equal(t, 0, result.Errors)

	keys := store.assignmentKeys()
	assert.Contains(t, keys, model.AssignmentKey{StudentID: "s3", BlockID: "c3-b0"})
	assert.Contains(t, keys, model.AssignmentKey{StudentID: "s3", BlockID: "c3-b1"})
	assert.Equal(t, store.expectedKeys(), keys)
}

func TestSyncService_SyncAll_ConcurrentWithdrawLeavesNoOrphans(t *testing.T) {
	store := newMemStore()
	seedTwoCourses(store)

	first, err := setupInterleavedSyncService(store, func() {}).SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, first.Created)

	// 退课事务在两次读取之间提交：选课记录与其派生行同时消失
	svc := setupInterleavedSyncService(store, func() {
		removed, err := (&mockEnrollmentRepo{store}).DeleteWithAssignments(context.Background(), "s2", "c3")
		require.NoError(t, err)
		require.Equal(t, int64(2), removed)
	})

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, store.expectedKeys(), store.assignmentKeys(), "退课后不应重新写回派生行")
	for key := range store.assignmentKeys() {
		assert.NotEqual(t, "s2", key.StudentID)
	}
}

// ── 范围同步测试 ──

func TestSyncService_ScopeRequired(t *testing.T) {
	svc, _, _ := setupTestSyncService()
	ctx := context.Background()

	_, err := svc.SyncOne(ctx, "", "c3")
	assert.ErrorIs(t, err, ErrSyncScopeRequired)
	_, err = svc.SyncOne(ctx, "s1", "")
	assert.ErrorIs(t, err, ErrSyncScopeRequired)
	_, err = svc.SyncForCourse(ctx, "")
	assert.ErrorIs(t, err, ErrSyncScopeRequired)
	_, err = svc.SyncForStudent(ctx, "")
	assert.ErrorIs(t, err, ErrSyncScopeRequired)
}

func TestSyncService_SyncOne_OnlyTouchesPair(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	result, err := svc.SyncOne(context.Background(), "s1", "c4")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pairs)
	assert.Equal(t, 3, result.Created)
	assert.Len(t, store.assignmentKeys(), 3)
}

func TestSyncService_SyncOne_WithoutEnrollmentRemovesStale(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)
	store.addAssignment("s2", "c4", "c4-b0")
	store.addAssignment("s2", "c4", "c4-b1")

	result, err := svc.SyncOne(context.Background(), "s2", "c4")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pairs)
	assert.Equal(t, 2, result.Removed)
	assert.Empty(t, store.assignmentKeys())
}

func TestSyncService_SyncForCourse(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	result, err := svc.SyncForCourse(context.Background(), "c3")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pairs)
	assert.Equal(t, 4, result.Created)
	for key, course := range store.assignmentKeys() {
		assert.Equal(t, "c3", course, "不应触及其他课程: %+v", key)
	}
}

func TestSyncService_SyncForStudent(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	result, err := svc.SyncForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pairs)
	assert.Equal(t, 5, result.Created)
	for key := range store.assignmentKeys() {
		assert.Equal(t, "s1", key.StudentID)
	}
}

// ── 有序删除测试 ──

func TestSyncService_Withdraw_KeepsOtherStudents(t *testing.T) {
	svc, store, cache := setupTestSyncService()
	store.addTeacher("t1", "Prof. Lucy")
	store.addStudent("s1", "Ana")
	store.addStudent("s2", "Beto")
	store.addCourse("c", "t1", 3, 30)
	store.addEnrollment("s1", "c")
	store.addEnrollment("s2", "c")

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, result.Created)

	resp, err := svc.Withdraw(context.Background(), "s1", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.RemovedAssignments)

	keys := store.assignmentKeys()
	assert.Len(t, keys, 2)
	for key := range keys {
		assert.Equal(t, "s2", key.StudentID)
	}
	assert.Contains(t, cache.invalidated, "s1")
}

func TestSyncService_Withdraw_NotFound(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	_, err := svc.Withdraw(context.Background(), "s2", "c4")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestSyncService_DeleteCourse_RemovesEverything(t *testing.T) {
	svc, store, cache := setupTestSyncService()
	store.addTeacher("t1", "Prof. Lucy")
	store.addStudent("s1", "Ana")
	store.addStudent("s2", "Beto")
	store.addCourse("c", "t1", 3, 30)
	store.addEnrollment("s1", "c")
	store.addEnrollment("s2", "c")
	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	cache.invalidated = nil

	resp, err := svc.DeleteCourse(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Assignments)
	assert.Equal(t, int64(2), resp.Blocks)
	assert.Equal(t, int64(2), resp.Enrollments)

	assert.Empty(t, store.assignmentKeys())
	assert.Empty(t, store.blocks)
	assert.Empty(t, store.enrollments)
	assert.NotContains(t, store.courses, "c")
	assert.ElementsMatch(t, []string{"s1", "s2"}, cache.invalidated)
}

func TestSyncService_DeleteCourse_NotFound(t *testing.T) {
	svc, _, _ := setupTestSyncService()

	_, err := svc.DeleteCourse(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSyncService_DeleteBlock(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)
	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	resp, err := svc.DeleteBlock(context.Background(), "c3-b0")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.RemovedAssignments)
	assert.Equal(t, store.expectedKeys(), store.assignmentKeys())

	_, err = svc.DeleteBlock(context.Background(), "c3-b0")
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

// ── 孤儿清理 / 统计测试 ──

func TestSyncService_OrphanReportAndCleanup(t *testing.T) {
	svc, store, cache := setupTestSyncService()
	seedTwoCourses(store)
	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	// 直接删除课程行，模拟绕过有序删除留下的孤儿
	delete(store.courses, "c4")

	report, err := svc.OrphanReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Assignments)
	assert.Equal(t, int64(3), report.Blocks)
	assert.Equal(t, int64(1), report.Enrollments)

	cleaned, err := svc.CleanupOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report, cleaned)
	assert.Contains(t, cache.invalidated, "s1")

	after, err := svc.OrphanReport(context.Background())
	require.NoError(t, err)
	assert.Zero(t, after.Assignments+after.Blocks+after.Enrollments)
	assert.Equal(t, store.expectedKeys(), store.assignmentKeys())
}

func TestSyncService_Stats(t *testing.T) {
	svc, store, _ := setupTestSyncService()
	seedTwoCourses(store)

	before, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), before.MissingPairs)
	assert.Equal(t, int64(0), before.SyncedPairs)

	_, err = svc.SyncOne(context.Background(), "s2", "c3")
	require.NoError(t, err)

	after, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.MissingPairs)
	assert.Equal(t, int64(1), after.SyncedPairs)
	assert.Equal(t, int64(2), after.Totals.Students)
	assert.Equal(t, int64(2), after.Totals.Courses)
	assert.Equal(t, int64(5), after.Totals.Blocks)
	assert.Equal(t, int64(3), after.Totals.Enrollments)
	assert.Equal(t, int64(2), after.Totals.Assignments)
}
