package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/internal/service"
)

// SyncAllLockKey 多实例部署时保证每个周期只有一个实例执行全量同步
const SyncAllLockKey = "lock:sync-all"

// 单次全量同步 + 孤儿清理的最长执行时间
const runTimeout = 10 * time.Minute

// Locker 分布式互斥锁，由 pkg/redis.Client 实现
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// ErrLockHeld 锁被其他实例持有，本周期跳过
var ErrLockHeld = errors.New("全量同步锁被其他实例持有")

// Reconciler 定时执行 SyncAll + CleanupOrphans
//
//   - 同一进程内 SkipIfStillRunning 防止重入
//   - 跨进程依赖 Redis SETNX 锁；locker 为 nil 时只做进程内保护
//   - 不做断点续传，中断后由下一周期重新全量对齐
type Reconciler struct {
	cron    *cron.Cron
	sync    service.SyncService
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewReconciler 解析 cron 表达式并注册任务，尚未启动
func NewReconciler(cronExpr string, sync service.SyncService, locker Locker, lockTTL time.Duration, logger *zap.Logger) (*Reconciler, error) {
	cl := cronLogger{logger.Sugar()}
	r := &Reconciler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sync:    sync,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
	}

	if _, err := r.cron.AddFunc(cronExpr, r.tick); err != nil {
		return nil, fmt.Errorf("注册定时同步任务失败: %w", err)
	}
	return r, nil
}

// Start 启动调度（非阻塞）
func (r *Reconciler) Start() {
	r.cron.Start()
	r.logger.Info("定时课表同步已启动")
}

// Stop 停止调度，返回的 ctx 在正在运行的任务结束后关闭
func (r *Reconciler) Stop() context.Context {
	return r.cron.Stop()
}

func (r *Reconciler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := r.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrLockHeld) {
			r.logger.Info("跳过本周期全量同步", zap.Error(err))
			return
		}
		r.logger.Error("定时课表同步失败", zap.Error(err))
	}
}

// RunOnce 执行一次全量同步与孤儿清理
func (r *Reconciler) RunOnce(ctx context.Context) error {
	if r.locker != nil {
		token, ok, err := r.locker.TryLock(ctx, SyncAllLockKey, r.lockTTL)
		if err != nil {
			return fmt.Errorf("获取全量同步锁失败: %w", err)
		}
		if !ok {
			return ErrLockHeld
		}
		defer func() {
			if err := r.locker.Unlock(context.WithoutCancel(ctx), SyncAllLockKey, token); err != nil {
				r.logger.Warn("释放全量同步锁失败", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	result, err := r.sync.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("全量同步失败: %w", err)
	}

	cleaned, err := r.sync.CleanupOrphans(ctx)
	if err != nil {
		return fmt.Errorf("清理孤儿记录失败: %w", err)
	}

	r.logger.Info("定时课表同步完成",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("removed", result.Removed),
		zap.Int("errors", result.Errors),
		zap.Int64("orphan_assignments", cleaned.Assignments),
		zap.Int64("orphan_blocks", cleaned.Blocks),
		zap.Int64("orphan_enrollments", cleaned.Enrollments))
	return nil
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
