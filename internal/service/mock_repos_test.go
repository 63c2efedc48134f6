package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/internal/model"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
	pkgerrors "github.com/SRCAndy/lucy-tejada/pkg/errors"
)

// ── 内存存储：所有 mock repo 共享，保证跨表操作可观察 ──

type memStore struct {
	mu  sync.Mutex
	seq int

	teachers    map[string]*model.Teacher
	students    map[string]*model.Student
	courses     map[string]*model.Course
	blocks      map[string]*model.CourseBlock
	enrollments map[string]*model.Enrollment
	assignments map[string]*model.StudentBlockAssignment

	// 故障注入
	insertErr    map[string]error // student_id → InsertIfAbsent 返回的错误
	listPairsErr error
	deleteErr    error
	replaceErr   error // 替换课时块时返回的错误，不做任何修改
}

func newMemStore() *memStore {
	return &memStore{
		teachers:    make(map[string]*model.Teacher),
		students:    make(map[string]*model.Student),
		courses:     make(map[string]*model.Course),
		blocks:      make(map[string]*model.CourseBlock),
		enrollments: make(map[string]*model.Enrollment),
		assignments: make(map[string]*model.StudentBlockAssignment),
		insertErr:   make(map[string]error),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

func newMockRepository(store *memStore) *repository.Repository {
	return &repository.Repository{
		Teacher:     &mockTeacherRepo{store},
		Student:     &mockStudentRepo{store},
		Course:      &mockCourseRepo{store},
		Block:       &mockBlockRepo{store},
		Enrollment:  &mockEnrollmentRepo{store},
		Assignment:  &mockAssignmentRepo{store},
		Maintenance: &mockMaintenanceRepo{store},
	}
}

// ── 查询辅助（调用方需持锁） ──

func (m *memStore) findEnrollment(studentID, courseID string) *model.Enrollment {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (m *memStore) countEnrolled(courseID string) int64 {
	var n int64
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			n++
		}
	}
	return n
}

func (m *memStore) courseBlocks(courseID string) []model.CourseBlock {
	var result []model.CourseBlock
	for _, b := range m.blocks {
		if b.CourseID == courseID {
			result = append(result, *b)
		}
	}
	sortBlocks(result)
	return result
}

func (m *memStore) deleteAssignmentsWhere(pred func(a *model.StudentBlockAssignment) bool) (int64, []string) {
	var n int64
	seen := make(map[string]bool)
	var students []string
	for id, a := range m.assignments {
		if pred(a) {
			delete(m.assignments, id)
			n++
			if !seen[a.StudentID] {
				seen[a.StudentID] = true
				students = append(students, a.StudentID)
			}
		}
	}
	sort.Strings(students)
	return n, students
}

func (m *memStore) replaceBlocks(courseID string, blocks []model.CourseBlock) int64 {
	removed, _ := m.deleteAssignmentsWhere(func(a *model.StudentBlockAssignment) bool { return a.CourseID == courseID })
	for id, b := range m.blocks {
		if b.CourseID == courseID {
			delete(m.blocks, id)
		}
	}
	for i := range blocks {
		if blocks[i].BlockID == "" {
			blocks[i].BlockID = m.nextID("block")
		}
		b := blocks[i]
		m.blocks[b.BlockID] = &b
	}
	return removed
}

func (m *memStore) isOrphan(a *model.StudentBlockAssignment) bool {
	b, ok := m.blocks[a.BlockID]
	if !ok || b.CourseID != a.CourseID {
		return true
	}
	if _, ok := m.courses[a.CourseID]; !ok {
		return true
	}
	return m.findEnrollment(a.StudentID, a.CourseID) == nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct{ s *memStore }

func (r *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.teachers {
		if t.Email == teacher.Email {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if teacher.TeacherID == "" {
		teacher.TeacherID = r.s.nextID("teacher")
	}
	teacher.CreatedAt = time.Now()
	cp := *teacher
	r.s.teachers[teacher.TeacherID] = &cp
	return nil
}

func (r *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockTeacherRepo) List(_ context.Context, offset, limit int) ([]model.Teacher, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.Teacher
	for _, t := range r.s.teachers {
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ s *memStore }

func (r *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.students {
		if st.Email == student.Email || st.StudentNo == student.StudentNo {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if student.StudentID == "" {
		student.StudentID = r.s.nextID("student")
	}
	student.CreatedAt = time.Now()
	cp := *student
	r.s.students[student.StudentID] = &cp
	return nil
}

func (r *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if st, ok := r.s.students[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockStudentRepo) List(_ context.Context, offset, limit int) ([]model.Student, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.Student
	for _, st := range r.s.students {
		all = append(all, *st)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StudentNo < all[j].StudentNo })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ s *memStore }

func (r *mockCourseRepo) CreateWithBlocks(_ context.Context, course *model.Course, blocks []model.CourseBlock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.courses {
		if c.Code == course.Code {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if course.CourseID == "" {
		course.CourseID = r.s.nextID("course")
	}
	cp := *course
	cp.Teacher, cp.Blocks = nil, nil
	r.s.courses[course.CourseID] = &cp
	for i := range blocks {
		blocks[i].CourseID = course.CourseID
		blocks[i].TeacherID = course.TeacherID
		if blocks[i].BlockID == "" {
			blocks[i].BlockID = r.s.nextID("block")
		}
		b := blocks[i]
		r.s.blocks[b.BlockID] = &b
	}
	return nil
}

func (r *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	if t, ok := r.s.teachers[c.TeacherID]; ok {
		tc := *t
		cp.Teacher = &tc
	}
	cp.Blocks = r.s.courseBlocks(id)
	return &cp, nil
}

func (r *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.courses {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockCourseRepo) List(_ context.Context, teacherID string, offset, limit int) ([]model.CourseWithCount, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.CourseWithCount
	for _, c := range r.s.courses {
		if teacherID != "" && c.TeacherID != teacherID {
			continue
		}
		all = append(all, model.CourseWithCount{Course: *c, EnrolledCount: r.s.countEnrolled(c.CourseID)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (r *mockCourseRepo) Update(_ context.Context, course *model.Course, blocks []model.CourseBlock) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed int64
	if blocks != nil {
		if r.s.replaceErr != nil {
			return 0, r.s.replaceErr
		}
		removed = r.s.replaceBlocks(course.CourseID, blocks)
	}
	cp := *course
	cp.Teacher, cp.Blocks = nil, nil
	r.s.courses[course.CourseID] = &cp
	for _, b := range r.s.blocks {
		if b.CourseID == course.CourseID {
			b.TeacherID = course.TeacherID
		}
	}
	return removed, nil
}

func (r *mockCourseRepo) ReplaceBlocks(_ context.Context, courseID string, blocks []model.CourseBlock) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.replaceErr != nil {
		return 0, r.s.replaceErr
	}
	return r.s.replaceBlocks(courseID, blocks), nil
}

func (r *mockCourseRepo) DeleteCascade(_ context.Context, courseID string) (*repository.CourseDeletion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[courseID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if r.s.deleteErr != nil {
		return nil, r.s.deleteErr
	}
	del := &repository.CourseDeletion{}
	for _, e := range r.s.enrollments {
		if e.CourseID == courseID {
			del.StudentIDs = append(del.StudentIDs, e.StudentID)
		}
	}
	sort.Strings(del.StudentIDs)
	del.Assignments, _ = r.s.deleteAssignmentsWhere(func(a *model.StudentBlockAssignment) bool { return a.CourseID == courseID })
	for id, b := range r.s.blocks {
		if b.CourseID == courseID {
			delete(r.s.blocks, id)
			del.Blocks++
		}
	}
	for id, e := range r.s.enrollments {
		if e.CourseID == courseID {
			delete(r.s.enrollments, id)
			del.Enrollments++
		}
	}
	delete(r.s.courses, courseID)
	return del, nil
}

// ── Mock BlockRepository ──

type mockBlockRepo struct{ s *memStore }

func (r *mockBlockRepo) GetByID(_ context.Context, id string) (*model.CourseBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.blocks[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockBlockRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.courseBlocks(courseID), nil
}

func (r *mockBlockRepo) ListByCourses(_ context.Context, courseIDs []string) ([]model.CourseBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.CourseBlock
	for _, id := range courseIDs {
		result = append(result, r.s.courseBlocks(id)...)
	}
	return result, nil
}

func (r *mockBlockRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.CourseBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.CourseBlock
	for _, b := range r.s.blocks {
		if b.TeacherID != teacherID {
			continue
		}
		cp := *b
		if c, ok := r.s.courses[b.CourseID]; ok {
			cc := *c
			cp.Course = &cc
		}
		result = append(result, cp)
	}
	sortBlocks(result)
	return result, nil
}

func (r *mockBlockRepo) DeleteWithAssignments(_ context.Context, blockID string) (int64, []string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blocks[blockID]; !ok {
		return 0, nil, gorm.ErrRecordNotFound
	}
	removed, students := r.s.deleteAssignmentsWhere(func(a *model.StudentBlockAssignment) bool { return a.BlockID == blockID })
	delete(r.s.blocks, blockID)
	return removed, students, nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ s *memStore }

func (r *mockEnrollmentRepo) CreateWithinCapacity(_ context.Context, enrollment *model.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	course, ok := r.s.courses[enrollment.CourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.s.countEnrolled(course.CourseID) >= int64(course.Capacity) {
		return repository.ErrCourseCapacityReached
	}
	if r.s.findEnrollment(enrollment.StudentID, enrollment.CourseID) != nil {
		return pkgerrors.ErrUniqueViolation
	}
	if _, ok := r.s.students[enrollment.StudentID]; !ok {
		return repository.ErrEnrollmentStudentMissing
	}
	if enrollment.EnrollmentID == "" {
		enrollment.EnrollmentID = r.s.nextID("enroll")
	}
	enrollment.EnrolledAt = time.Now()
	cp := *enrollment
	r.s.enrollments[cp.EnrollmentID] = &cp
	return nil
}

func (r *mockEnrollmentRepo) Get(_ context.Context, studentID, courseID string) (*model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e := r.s.findEnrollment(studentID, courseID); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockEnrollmentRepo) ListPairs(_ context.Context, filter repository.PairFilter) ([]model.EnrollmentPair, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listPairsErr != nil {
		return nil, r.s.listPairsErr
	}
	var pairs []model.EnrollmentPair
	for _, e := range r.s.enrollments {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		pairs = append(pairs, model.EnrollmentPair{StudentID: e.StudentID, CourseID: e.CourseID})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].CourseID != pairs[j].CourseID {
			return pairs[i].CourseID < pairs[j].CourseID
		}
		return pairs[i].StudentID < pairs[j].StudentID
	})
	return pairs, nil
}

func (r *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.Enrollment
	for _, e := range r.s.enrollments {
		if e.StudentID != studentID {
			continue
		}
		cp := *e
		if c, ok := r.s.courses[e.CourseID]; ok {
			cc := *c
			cp.Course = &cc
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnrollmentID < result[j].EnrollmentID })
	return result, nil
}

func (r *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.Enrollment
	for _, e := range r.s.enrollments {
		if e.CourseID != courseID {
			continue
		}
		cp := *e
		if st, ok := r.s.students[e.StudentID]; ok {
			sc := *st
			cp.Student = &sc
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnrollmentID < result[j].EnrollmentID })
	return result, nil
}

func (r *mockEnrollmentRepo) CountByCourse(_ context.Context, courseID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countEnrolled(courseID), nil
}

func (r *mockEnrollmentRepo) DeleteWithAssignments(_ context.Context, studentID, courseID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := r.s.findEnrollment(studentID, courseID)
	if e == nil {
		return 0, gorm.ErrRecordNotFound
	}
	removed, _ := r.s.deleteAssignmentsWhere(func(a *model.StudentBlockAssignment) bool {
		return a.StudentID == studentID && a.CourseID == courseID
	})
	delete(r.s.enrollments, e.EnrollmentID)
	return removed, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ s *memStore }

func (r *mockAssignmentRepo) ListByScope(_ context.Context, filter repository.PairFilter) ([]model.StudentBlockAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.StudentBlockAssignment
	for _, a := range r.s.assignments {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssignmentID < result[j].AssignmentID })
	return result, nil
}

func (r *mockAssignmentRepo) InsertIfAbsent(_ context.Context, a *model.StudentBlockAssignment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err, ok := r.s.insertErr[a.StudentID]; ok {
		return false, err
	}
	for _, existing := range r.s.assignments {
		if existing.StudentID == a.StudentID && existing.BlockID == a.BlockID {
			return false, nil
		}
	}
	if a.AssignmentID == "" {
		a.AssignmentID = r.s.nextID("sba")
	}
	a.CreatedAt = time.Now()
	cp := *a
	r.s.assignments[cp.AssignmentID] = &cp
	return true, nil
}

func (r *mockAssignmentRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteErr != nil {
		return 0, r.s.deleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.s.assignments[id]; ok {
			delete(r.s.assignments, id)
			n++
		}
	}
	return n, nil
}

func (r *mockAssignmentRepo) ListTimetableByStudent(_ context.Context, studentID string) ([]model.StudentBlockAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.StudentBlockAssignment
	for _, a := range r.s.assignments {
		if a.StudentID != studentID {
			continue
		}
		cp := *a
		if b, ok := r.s.blocks[a.BlockID]; ok {
			bc := *b
			cp.Block = &bc
		}
		if c, ok := r.s.courses[a.CourseID]; ok {
			cc := *c
			if t, ok := r.s.teachers[c.TeacherID]; ok {
				tc := *t
				cc.Teacher = &tc
			}
			cp.Course = &cc
		}
		result = append(result, cp)
	}
	return result, nil
}

// ── Mock MaintenanceRepository ──

type mockMaintenanceRepo struct{ s *memStore }

func (r *mockMaintenanceRepo) CountOrphans(_ context.Context) (*repository.OrphanCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := &repository.OrphanCounts{}
	for _, a := range r.s.assignments {
		if r.s.isOrphan(a) {
			counts.Assignments++
		}
	}
	for _, b := range r.s.blocks {
		if _, ok := r.s.courses[b.CourseID]; !ok {
			counts.Blocks++
		}
	}
	for _, e := range r.s.enrollments {
		if _, ok := r.s.courses[e.CourseID]; !ok {
			counts.Enrollments++
		}
	}
	return counts, nil
}

func (r *mockMaintenanceRepo) DeleteOrphans(_ context.Context) (*repository.OrphanCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := &repository.OrphanCounts{}
	counts.Assignments, counts.StudentIDs = r.s.deleteAssignmentsWhere(r.s.isOrphan)
	for id, b := range r.s.blocks {
		if _, ok := r.s.courses[b.CourseID]; !ok {
			delete(r.s.blocks, id)
			counts.Blocks++
		}
	}
	for id, e := range r.s.enrollments {
		if _, ok := r.s.courses[e.CourseID]; !ok {
			delete(r.s.enrollments, id)
			counts.Enrollments++
		}
	}
	return counts, nil
}

func (r *mockMaintenanceRepo) Totals(_ context.Context) (*repository.TableTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := &repository.TableTotals{
		Students:    int64(len(r.s.students)),
		Courses:     int64(len(r.s.courses)),
		Blocks:      int64(len(r.s.blocks)),
		Enrollments: int64(len(r.s.enrollments)),
		Assignments: int64(len(r.s.assignments)),
	}
	for _, e := range r.s.enrollments {
		var assigned int64
		for _, a := range r.s.assignments {
			if a.StudentID == e.StudentID && a.CourseID == e.CourseID {
				assigned++
			}
		}
		expected := int64(len(r.s.courseBlocks(e.CourseID)))
		if assigned < expected {
			totals.MissingPairs++
		} else if assigned == expected {
			totals.SyncedPairs++
		}
	}
	return totals, nil
}

// ── 通用辅助 ──

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── 测试数据构造 ──

func (m *memStore) addTeacher(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teachers[id] = &model.Teacher{TeacherID: id, Name: name, Email: id + "@uni.edu"}
}

func (m *memStore) addStudent(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[id] = &model.Student{StudentID: id, Name: name, Email: id + "@uni.edu", StudentNo: "NO-" + id}
}

// addCourse 按学分以顺序策略生成课时块，块 ID 为 <courseID>-b<i>
func (m *memStore) addCourse(id, teacherID string, credits, capacity int) []model.CourseBlock {
	specs, err := NewBlockGenerator(SequentialSlotPicker{}).Generate(credits)
	if err != nil {
		panic(err)
	}
	blocks := ToModels(specs, id, teacherID)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[id] = &model.Course{CourseID: id, Name: "Course " + id, Code: "C-" + id, TeacherID: teacherID, Credits: credits, Capacity: capacity}
	for i := range blocks {
		blocks[i].BlockID = fmt.Sprintf("%s-b%d", id, i)
		b := blocks[i]
		m.blocks[b.BlockID] = &b
	}
	return blocks
}

func (m *memStore) addEnrollment(studentID, courseID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("enroll")
	m.enrollments[id] = &model.Enrollment{EnrollmentID: id, StudentID: studentID, CourseID: courseID, EnrolledAt: time.Now()}
}

func (m *memStore) addAssignment(studentID, courseID, blockID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("sba")
	m.assignments[id] = &model.StudentBlockAssignment{AssignmentID: id, StudentID: studentID, CourseID: courseID, BlockID: blockID}
	return id
}

func (m *memStore) assignmentKeys() map[model.AssignmentKey]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make(map[model.AssignmentKey]string, len(m.assignments))
	for _, a := range m.assignments {
		keys[a.Key()] = a.CourseID
	}
	return keys
}

// expectedKeys 由选课 × 课时块推导出的期望派生集合
func (m *memStore) expectedKeys() map[model.AssignmentKey]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make(map[model.AssignmentKey]string)
	for _, e := range m.enrollments {
		for _, b := range m.blocks {
			if b.CourseID == e.CourseID {
				keys[model.AssignmentKey{StudentID: e.StudentID, BlockID: b.BlockID}] = e.CourseID
			}
		}
	}
	return keys
}

// ── Mock TimetableCache ──

type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]*dto.StudentTimetableResponse
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*dto.StudentTimetableResponse)}
}

func (c *recordingCache) Get(_ context.Context, studentID string) (*dto.StudentTimetableResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tt, ok := c.entries[studentID]
	return tt, ok
}

func (c *recordingCache) Set(_ context.Context, studentID string, tt *dto.StudentTimetableResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[studentID] = tt
}

func (c *recordingCache) Invalidate(_ context.Context, studentIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range studentIDs {
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
}
