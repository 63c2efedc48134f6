package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SRCAndy/lucy-tejada/config"
	"github.com/SRCAndy/lucy-tejada/internal/api/handler"
	"github.com/SRCAndy/lucy-tejada/internal/api/middleware"
	"github.com/SRCAndy/lucy-tejada/pkg/jwt"
	"github.com/SRCAndy/lucy-tejada/pkg/redis"
)

const (
	roleAdmin   = jwt.RoleAdmin
	roleTeacher = jwt.RoleTeacher
	roleStudent = jwt.RoleStudent
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时关闭限流与 Token 黑名单
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		authorized.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, time.Minute))
		{
			// 认证模块
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 人员模块
			teachers := authorized.Group("/teachers", middleware.RoleAuth(roleAdmin))
			{
				teachers.GET("", h.People.ListTeachers)
				teachers.POST("", h.People.CreateTeacher)
			}
			students := authorized.Group("/students", middleware.RoleAuth(roleAdmin))
			{
				students.GET("", h.People.ListStudents)
				students.POST("", h.People.CreateStudent)
			}

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.List)
				courses.GET("/:id", h.Course.GetByID)
				courses.POST("", middleware.RoleAuth(roleAdmin), h.Course.Create)
				courses.PUT("/:id", middleware.RoleAuth(roleAdmin), h.Course.Update)
				courses.DELETE("/:id", middleware.RoleAuth(roleAdmin), h.Course.Delete)
				courses.POST("/:id/blocks/regenerate", middleware.RoleAuth(roleAdmin), h.Course.RegenerateBlocks)
				courses.GET("/:id/students", middleware.RoleAuth(roleAdmin, roleTeacher), h.Course.ListStudents)
			}
			authorized.DELETE("/blocks/:id", middleware.RoleAuth(roleAdmin), h.Course.DeleteBlock)

			// 选课模块（学生仅限本人，Handler 层鉴权）
			enrollments := authorized.Group("/enrollments")
			{
				enrollments.POST("", middleware.RoleAuth(roleStudent, roleAdmin), h.Enrollment.Enroll)
				enrollments.DELETE("", middleware.RoleAuth(roleStudent, roleAdmin), h.Enrollment.Withdraw)
				enrollments.GET("/me", middleware.RoleAuth(roleStudent), h.Enrollment.ListMine)
			}

			// 同步模块
			sync := authorized.Group("/sync", middleware.RoleAuth(roleAdmin))
			{
				sync.POST("/all", h.Sync.SyncAll)
				sync.POST("", h.Sync.Sync)
				sync.GET("/stats", h.Sync.Stats)
			}
			cleanup := authorized.Group("/cleanup", middleware.RoleAuth(roleAdmin))
			{
				cleanup.GET("/orphans", h.Sync.OrphanReport)
				cleanup.DELETE("/orphans", h.Sync.CleanupOrphans)
			}

			// 课表模块
			timetables := authorized.Group("/timetables")
			{
				timetables.GET("/me", middleware.RoleAuth(roleStudent), h.Timetable.Mine)
				timetables.GET("/students/:id", middleware.RoleAuth(roleAdmin), h.Timetable.Student)
				timetables.GET("/teachers/:id", middleware.RoleAuth(roleAdmin, roleTeacher), h.Timetable.Teacher)
			}

			// 导出模块
			export := authorized.Group("/export/timetables", middleware.RoleAuth(roleStudent))
			{
				export.GET("/me.xlsx", h.Export.MineExcel)
				export.GET("/me.ics", h.Export.MineICS)
			}
		}
	}

	return r
}
