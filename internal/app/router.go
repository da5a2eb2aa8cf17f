package app

import (
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/middleware"
	"exam_center_backend/internal/model"
	"exam_center_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		// 学生端：开始/作答/提交
		student := api.Group("")
		student.Use(middleware.RoleMiddleware(model.Student))
		{
			student.POST("/exams/:id/attempts", c.attempt.StartAttempt)
			student.PUT("/attempts/:id/answers", c.attempt.SaveAnswer)
			student.POST("/attempts/:id/submit", c.attempt.SubmitAttempt)
		}

		// 教师端：评分与结算
		grading := api.Group("/grading")
		grading.Use(middleware.RoleMiddleware(model.Teacher))
		{
			grading.GET("/attempts/:id", c.grading.GetSession)
			grading.POST("/answers/:id/grade", c.grading.GradeAnswer)
			grading.POST("/attempts/:id/batch", c.grading.BatchGrade)
			grading.POST("/attempts/:id/ai", c.grading.AIGradeSession)
			grading.POST("/grades/:id/approve", c.grading.ApproveGrade)
			grading.PUT("/grades/:id", c.grading.EditGrade)
			grading.POST("/attempts/:id/finalize", c.grading.FinalizeSession)
			grading.POST("/attempts/:id/reopen", c.grading.ReopenSession)
		}
	}
}
