package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.POST("/logout", c.auth.Logout)
		authGroup.GET("/me", c.auth.Me)

		// 学习端
		authGroup.GET("/tasks", c.task.MyTasks)
		authGroup.GET("/tasks/:id/progress", c.progress.TaskProgress)
		authGroup.GET("/tasks/:id/files/:fileId/download-url", c.task.FileDownloadURL)
		authGroup.GET("/tasks/:id/quiz", c.quiz.Questions)
		authGroup.GET("/tasks/:id/quiz/submissions", c.quiz.MySubmissions)
		authGroup.POST("/progress", c.progress.Report)
		authGroup.POST("/quiz/submissions", c.quiz.Submit)
	}

	// 3. 管理员路由。授权与认证分开：角色每次从库里重读
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(repos.user))
	{
		adminGroup.GET("/users", c.user.ListUsers)
		adminGroup.PUT("/users/:id/role", c.user.ChangeRole)
		adminGroup.PUT("/users/:id/disabled", c.user.SetDisabled)

		adminGroup.POST("/tasks", c.task.CreateTask)
		adminGroup.GET("/tasks", c.task.ListTasks)
		adminGroup.GET("/tasks/:id", c.task.GetTask)
		adminGroup.PUT("/tasks/:id", c.task.UpdateTask)
		adminGroup.DELETE("/tasks/:id", c.task.DeleteTask)
		adminGroup.POST("/tasks/:id/publish", c.task.PublishTask)
		adminGroup.POST("/tasks/:id/archive", c.task.ArchiveTask)
		adminGroup.POST("/tasks/:id/assignments", c.task.AssignTask)
		adminGroup.DELETE("/tasks/:id/assignments/:userId", c.task.UnassignTask)
		adminGroup.POST("/tasks/:id/files", c.task.RegisterFile)
		adminGroup.DELETE("/tasks/:id/files/:fileId", c.task.RemoveFile)
		adminGroup.POST("/tasks/:id/questions", c.task.AddQuestion)
		adminGroup.DELETE("/tasks/:id/questions/:questionId", c.task.RemoveQuestion)

		adminGroup.POST("/files/upload-url", c.file.CreateUploadURL)

		adminGroup.GET("/reports/overview", c.report.Overview)
		adminGroup.GET("/reports/tasks/:id", c.report.TaskReport)
		adminGroup.GET("/reports/users/:id", c.report.UserReport)
	}
}
