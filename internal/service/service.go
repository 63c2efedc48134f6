package service

import (
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/config"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
	"github.com/SRCAndy/lucy-tejada/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Teacher    TeacherService
	Student    StudentService
	Course     CourseService
	Enrollment EnrollmentService
	Sync       SyncService
	Timetable  TimetableService
	Export     ExportService
}

// NewService 创建 Service 聚合；rdb 为 nil 时课表不走缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	cache := NewTimetableCache(rdb, cfg.Cache.TimetableTTL, logger)
	generator := NewBlockGenerator(NewSlotPicker(&cfg.Schedule))

	syncSvc := NewSyncService(repo, cache, logger)
	timetableSvc := NewTimetableService(repo, cache, logger)

	return &Service{
		Teacher:    NewTeacherService(repo, logger),
		Student:    NewStudentService(repo, logger),
		Course:     NewCourseService(repo, generator, syncSvc, logger),
		Enrollment: NewEnrollmentService(repo, syncSvc, logger),
		Sync:       syncSvc,
		Timetable:  timetableSvc,
		Export:     NewExportService(timetableSvc, logger),
	}
}
