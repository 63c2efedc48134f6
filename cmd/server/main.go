package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/config"
	"github.com/SRCAndy/lucy-tejada/internal/api/handler"
	"github.com/SRCAndy/lucy-tejada/internal/api/router"
	"github.com/SRCAndy/lucy-tejada/internal/job"
	"github.com/SRCAndy/lucy-tejada/internal/repository"
	"github.com/SRCAndy/lucy-tejada/internal/service"
	"github.com/SRCAndy/lucy-tejada/pkg/database"
	"github.com/SRCAndy/lucy-tejada/pkg/jwt"
	applogger "github.com/SRCAndy/lucy-tejada/pkg/logger"
	"github.com/SRCAndy/lucy-tejada/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config/config.yaml")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("placement", cfg.Schedule.Placement),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	// 4. 连接 Redis（可选：未启用或连接失败时降级运行）
	var (
		rdb     *redis.Client
		revoker handler.TokenRevoker
		locker  job.Locker
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，缓存、限流、Token 黑名单与同步锁将不可用", zap.Error(err))
			rdb = nil
		}
	}
	// 接口变量只在 rdb 非 nil 时赋值，避免持有类型化 nil
	if rdb != nil {
		revoker = rdb
		locker = rdb
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, rdb, logger)
	h := handler.NewHandler(svc, revoker, logger)

	// 7. 定时全量同步（可选）
	var reconciler *job.Reconciler
	if cfg.Sync.Cron != "" {
		reconciler, err = job.NewReconciler(cfg.Sync.Cron, svc.Sync, locker, cfg.Sync.LockTTL, logger)
		if err != nil {
			logger.Fatal("初始化定时同步失败", zap.Error(err))
		}
		reconciler.Start()
	}

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待正在执行的同步任务结束
	if reconciler != nil {
		select {
		case <-reconciler.Stop().Done():
		case <-ctx.Done():
			logger.Warn("等待定时同步结束超时")
		}
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
