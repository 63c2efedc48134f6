package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/model"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
)

func setupTestEnrollmentService() (EnrollmentService, *memStore) {
	store := newMemStore()
	repo := newMockRepository(store)
	logger := zap.NewNop()
	svc := NewEnrollmentService(repo, NewSyncService(repo, nil, logger), logger)

	store.addTeacher("t1", "Prof. Lucy")
	store.addStudent("s1", "Ana")
	store.addStudent("s2", "Beto")
	store.addCourse("c3", "t1", 3, 1)
	return svc, store
}

func TestEnrollmentService_Enroll_SyncsBlocks(t *testing.T) {
	svc, store := setupTestEnrollmentService()

	result, err := svc.Enroll(context.Background(), "s1", "c3")
	require.NoError(t, err)
	assert.Equal(t, "c3", result.Enrollment.CourseID)
	assert.Equal(t, 2, result.Sync.Created)

	keys := store.assignmentKeys()
	assert.Contains(t, keys, model.AssignmentKey{StudentID: "s1", BlockID: "c3-b0"})
	assert.Contains(t, keys, model.AssignmentKey{StudentID: "s1", BlockID: "c3-b1"})
}

func TestEnrollmentService_Enroll_Duplicate(t *testing.T) {
	svc, store := setupTestEnrollmentService()
	store.courses["c3"].Capacity = 5

	_, err := svc.Enroll(context.Background(), "s1", "c3")
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "s1", "c3")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Len(t, store.assignmentKeys(), 2)
}

func TestEnrollmentService_Enroll_CourseFull(t *testing.T) {
	svc, store := setupTestEnrollmentService()

	_, err := svc.Enroll(context.Background(), "s1", "c3")
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "s2", "c3")
	assert.ErrorIs(t, err, ErrCourseFull)
	assert.Len(t, store.enrollments, 1)
}

func TestEnrollmentService_Enroll_NotFound(t *testing.T) {
	svc, _ := setupTestEnrollmentService()

	_, err := svc.Enroll(context.Background(), "ghost", "c3")
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = svc.Enroll(context.Background(), "s1", "ghost")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

// vanishingStudentRepo 校验通过后立即删除学生，模拟选课与删除学生并发
type vanishingStudentRepo struct {
	repository.StudentRepository
	store *memStore
}

func (r *vanishingStudentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	student, err := r.StudentRepository.GetByID(ctx, id)
	r.store.mu.Lock()
	delete(r.store.students, id)
	r.store.mu.Unlock()
	return student, err
}

func TestEnrollmentService_Enroll_StudentDeletedConcurrently(t *testing.T) {
	store := newMemStore()
	store.addTeacher("t1", "Prof. Lucy")
	store.addStudent("s1", "Ana")
	store.addCourse("c3", "t1", 3, 5)

	repo := newMockRepository(store)
	repo.Student = &vanishingStudentRepo{StudentRepository: repo.Student, store: store}
	svc := NewEnrollmentService(repo, NewSyncService(repo, nil, zap.NewNop()), zap.NewNop())

	_, err := svc.Enroll(context.Background(), "s1", "c3")
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.Empty(t, store.enrollments)
	assert.Empty(t, store.assignmentKeys())
}

func TestEnrollmentService_Withdraw(t *testing.T) {
	svc, store := setupTestEnrollmentService()
	_, err := svc.Enroll(context.Background(), "s1", "c3")
	require.NoError(t, err)

	resp, err := svc.Withdraw(context.Background(), "s1", "c3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.RemovedAssignments)
	assert.Empty(t, store.enrollments)
	assert.Empty(t, store.assignmentKeys())

	_, err = svc.Withdraw(context.Background(), "s1", "c3")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestEnrollmentService_ListByStudent(t *testing.T) {
	svc, store := setupTestEnrollmentService()
	store.addCourse("c4", "t1", 4, 10)
	store.addEnrollment("s1", "c3")
	store.addEnrollment("s1", "c4")

	list, err := svc.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, e := range list {
		require.NotNil(t, e.Course)
		assert.Equal(t, e.CourseID, e.Course.ID)
	}
}

func TestEnrollmentService_ListStudentsByCourse(t *testing.T) {
	svc, store := setupTestEnrollmentService()
	store.addEnrollment("s1", "c3")
	store.addEnrollment("s2", "c3")

	list, err := svc.ListStudentsByCourse(context.Background(), "c3")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"Ana", "Beto"}, []string{list[0].Name, list[1].Name})

	_, err = svc.ListStudentsByCourse(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
