package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/dto"
	"github.com/SRCAndy/lucy-tejada/pkg/redis"
)

// TimetableCache 学生课表缓存；任何触及该学生的同步都会使其失效
type TimetableCache interface {
	Get(ctx context.Context, studentID string) (*dto.StudentTimetableResponse, bool)
	Set(ctx context.Context, studentID string, timetable *dto.StudentTimetableResponse)
	Invalidate(ctx context.Context, studentIDs ...string)
}

const timetableCachePrefix = "timetable:student:"

// TimetableCacheKey 学生课表缓存键
func TimetableCacheKey(studentID string) string {
	return timetableCachePrefix + studentID
}

// NewTimetableCache Redis 未启用时返回空实现
func NewTimetableCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) TimetableCache {
	if client == nil {
		return noopTimetableCache{}
	}
	return &redisTimetableCache{client: client, ttl: ttl, logger: logger}
}

type redisTimetableCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func (c *redisTimetableCache) Get(ctx context.Context, studentID string) (*dto.StudentTimetableResponse, bool) {
	var tt dto.StudentTimetableResponse
	if err := c.client.GetJSON(ctx, TimetableCacheKey(studentID), &tt); err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			c.logger.Warn("读取课表缓存失败", zap.String("student_id", studentID), zap.Error(err))
		}
		return nil, false
	}
	return &tt, true
}

func (c *redisTimetableCache) Set(ctx context.Context, studentID string, timetable *dto.StudentTimetableResponse) {
	if err := c.client.SetJSON(ctx, TimetableCacheKey(studentID), timetable, c.ttl); err != nil {
		c.logger.Warn("写入课表缓存失败", zap.String("student_id", studentID), zap.Error(err))
	}
}

func (c *redisTimetableCache) Invalidate(ctx context.Context, studentIDs ...string) {
	if len(studentIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		keys = append(keys, TimetableCacheKey(id))
	}
	// 失效失败只影响缓存新鲜度，TTL 到期后自愈
	if err := c.client.Delete(ctx, keys...); err != nil {
		c.logger.Warn("清除课表缓存失败", zap.Int("count", len(keys)), zap.Error(err))
	}
}

type noopTimetableCache struct{}

func (noopTimetableCache) Get(context.Context, string) (*dto.StudentTimetableResponse, bool) {
	return nil, false
}
func (noopTimetableCache) Set(context.Context, string, *dto.StudentTimetableResponse) {}
func (noopTimetableCache) Invalidate(context.Context, ...string)                      {}
