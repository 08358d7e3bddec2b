package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/config"
	"github.com/forhay123/haybee-edu-sub014/internal/controller"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/scheduler"
	"github.com/forhay123/haybee-edu-sub014/internal/service"
	"github.com/forhay123/haybee-edu-sub014/pkg/database"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"
	"github.com/forhay123/haybee-edu-sub014/pkg/monitoring"
	"github.com/forhay123/haybee-edu-sub014/pkg/security"
	"github.com/forhay123/haybee-edu-sub014/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	runner   *scheduler.Runner
	services *services
}

type repositories struct {
	term         *repository.TermRepository
	student      *repository.StudentRepository
	schedule     *repository.ScheduleRepository
	progress     *repository.ProgressRepository
	assessment   *repository.AssessmentRepository
	notification *repository.NotificationRepository
	conflict     *repository.ConflictRepository
}

type services struct {
	termWeek      *service.TermWeekService
	expander      *service.ScheduleExpander
	builder       *service.AssessmentBuilder
	notifier      *service.NotificationService
	progressInit  *service.ProgressInitializer
	orchestrator  *service.WeeklyOrchestrator
	accessibility *service.AccessibilityService
	graceExpiry   *service.GraceExpiryService
	finalizer     *service.Finalizer
	submissions   *service.SubmissionService
	maintenance   *service.MaintenanceService
	archival      *service.ArchivalService
	conflicts     *service.ConflictService
}

type controllers struct {
	health     *controller.HealthController
	admin      *controller.AdminController
	schedule   *controller.ScheduleController
	assessment *controller.AssessmentController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		term:         repository.NewTermRepository(db),
		student:      repository.NewStudentRepository(db),
		schedule:     repository.NewScheduleRepository(db),
		progress:     repository.NewProgressRepository(db),
		assessment:   repository.NewAssessmentRepository(db),
		notification: repository.NewNotificationRepository(db),
		conflict:     repository.NewConflictRepository(db),
	}
}

func (a *App) initServices(r *repositories, rdb *redis.Client) *services {
	clock := service.SystemClock
	termWeek := service.NewTermWeekService(r.term)
	expander := service.NewScheduleExpander(r.student, termWeek)
	builder := service.NewAssessmentBuilder(r.assessment, r.student)
	notifier := service.NewNotificationService(r.notification, rdb)
	progressInit := service.NewProgressInitializer(r.progress, builder, notifier)
	archival := service.NewArchivalService(termWeek, r.schedule, r.progress, r.student, clock)
	orchestrator := service.NewWeeklyOrchestrator(termWeek, expander, progressInit, archival, r.student, r.schedule, r.progress, clock)
	graceExpiry := service.NewGraceExpiryService(r.progress, r.schedule, r.student, r.assessment, notifier, clock)

	return &services{
		termWeek:      termWeek,
		expander:      expander,
		builder:       builder,
		notifier:      notifier,
		progressInit:  progressInit,
		orchestrator:  orchestrator,
		accessibility: service.NewAccessibilityService(r.progress, r.student, r.assessment, notifier, clock),
		graceExpiry:   graceExpiry,
		finalizer:     service.NewFinalizer(r.progress, r.assessment, graceExpiry, clock),
		submissions:   service.NewSubmissionService(r.progress, r.assessment, graceExpiry, clock),
		maintenance:   service.NewMaintenanceService(r.schedule, r.student, notifier, clock),
		archival:      archival,
		conflicts:     service.NewConflictService(r.conflict, r.schedule, clock),
	}
}

func (a *App) initControllers(s *services, r *repositories, db *gorm.DB) *controllers {
	clock := service.SystemClock
	return &controllers{
		health:     controller.NewHealthController(db),
		admin:      controller.NewAdminController(r.term, s.termWeek, s.orchestrator, s.maintenance, s.archival, s.finalizer, clock),
		schedule:   controller.NewScheduleController(r.schedule, r.notification, r.conflict, s.conflicts, s.termWeek, clock),
		assessment: controller.NewAssessmentController(r.progress, r.student, s.submissions, s.progressInit, s.builder, s.notifier, clock),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	maxReq := cfg.RateLimit.MaxRequests
	if maxReq <= 0 {
		maxReq = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxReq, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 按配置的节奏挂起全部周期任务
// 开窗 10 分钟，宽限过期 15 分钟，兜底定稿每小时加 2 小时成绩册补扫
// 提前提交作废巡检每小时，每日 00:05 安全扫描，02:00 课表维护
// 周日 23:59 生成下一周并归档本周
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	if !cfg.Scheduler.Enabled {
		logger.Log.Info("background scheduler disabled by config")
		return
	}
	r := scheduler.NewRunner(service.SystemClock)
	a.runner = r

	r.Every(cfg.Scheduler.OpenInterval(), scheduler.Task{
		Name: "open_windows",
		Run: func() error {
			_, err := s.accessibility.OpenDueWindows()
			return err
		},
	})
	r.Every(cfg.Scheduler.ExpiryInterval(), scheduler.Task{
		Name: "expire_grace",
		Run: func() error {
			_, err := s.graceExpiry.ExpireOverdue()
			return err
		},
	})
	r.Every(cfg.Scheduler.FinalizerInterval(), scheduler.Task{
		Name: "finalize_missed",
		Run: func() error {
			_, err := s.finalizer.Run()
			return err
		},
	})
	r.Every(cfg.Scheduler.FinalizerInterval(), scheduler.Task{
		Name: "gradebook_scan",
		Run: func() error {
			_, err := s.finalizer.RunGradebookScan()
			return err
		},
	})
	r.DailyAt(cfg.Scheduler.SafetyPassHour, cfg.Scheduler.SafetyPassMinute, scheduler.Task{
		Name: "daily_safety_pass",
		Run: func() error {
			_, err := s.finalizer.RunDailySafetyPass()
			return err
		},
	})
	r.Every(time.Hour, scheduler.Task{
		Name: "nullify_pre_window",
		Run: func() error {
			_, err := s.submissions.SweepPreWindow()
			return err
		},
	})
	r.DailyAt(cfg.Scheduler.MaintenanceHour, cfg.Scheduler.MaintenanceMinute, scheduler.Task{
		Name: "schedule_maintenance",
		Run: func() error {
			_, err := s.maintenance.Run()
			return err
		},
	})
	// 生成下一周时编排器内部会顺带归档本周
	r.WeeklyAt(time.Sunday, cfg.Scheduler.WeeklyGenHour, cfg.Scheduler.WeeklyGenMinute, scheduler.Task{
		Name: "weekly_generation",
		Run: func() error {
			_, err := s.orchestrator.GenerateNextWeek()
			return err
		},
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	svcs := app.initServices(repos, rdb)
	app.services = svcs
	ctrls := app.initControllers(svcs, repos, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lesson-scheduler", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, ctrls)

	app.startBackgroundTasks(svcs, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.runner != nil {
		a.runner.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
