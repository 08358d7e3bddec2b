package app

import (
	"github.com/forhay123/haybee-edu-sub014/docs"
	"github.com/forhay123/haybee-edu-sub014/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	admin := router.Group("/api/admin")
	{
		admin.POST("/terms", c.admin.CreateTerm)
		admin.GET("/terms/active", c.admin.ActiveTerm)
		admin.PUT("/terms/:id/activate", c.admin.ActivateTerm)
		admin.POST("/holidays", c.admin.CreateHoliday)
		admin.POST("/generation/week/:week", c.admin.GenerateWeek)
		admin.POST("/generation/student/:id/week/:week", c.admin.RegenerateStudentWeek)
		admin.POST("/maintenance/run", c.admin.RunMaintenance)
		admin.POST("/finalizer/run", c.admin.RunFinalizer)
		admin.POST("/archive/week/:week", c.admin.ArchiveWeek)
	}

	teacher := router.Group("/api/teacher")
	{
		teacher.GET("/conflicts", c.schedule.UnresolvedConflicts)
		teacher.POST("/conflicts/:id/resolve", c.schedule.ResolveConflict)
		teacher.GET("/schedules/missing-topic", c.schedule.MissingTopicSchedules)
		teacher.GET("/assessments/pending", c.assessment.PendingCustomAssessments)
		teacher.POST("/assessments/custom", c.assessment.CreateCustomAssessment)
		teacher.POST("/progress/:id/reschedule", c.assessment.Reschedule)
	}

	student := router.Group("/api/student")
	{
		student.GET("/current-week", c.schedule.CurrentWeek)
		student.GET("/:profileId/schedules", c.schedule.StudentDailySchedule)
		student.GET("/:profileId/progress", c.assessment.StudentProgress)
		student.GET("/notifications/:userId", c.schedule.StudentNotifications)
		student.GET("/progress/:id/access", c.assessment.AccessCheck)
		student.POST("/progress/:id/submit", c.assessment.Submit)
	}
}
