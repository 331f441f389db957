package api

import (
	"github.com/Ccode104/Lab-Assistant/api/handler"
	"github.com/Ccode104/Lab-Assistant/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	subHandler *handler.SubmissionHandler,
	quizHandler *handler.QuizHandler,
	reviewHandler *handler.ReviewHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	// 创建默认的Gin路由引擎
	router := gin.Default()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	// 健康检查API
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// 创建API分组
	api := router.Group("/api")
	{
		// 提交管理API
		subGroup := api.Group("/submissions")
		{
			// 上传实验代码 - POST /api/submissions/upload
			subGroup.POST("/upload", subHandler.UploadSubmission)

			// 获取提交列表 - GET /api/submissions
			subGroup.GET("", subHandler.ListSubmissions)

			// 获取提交处理状态 - GET /api/submissions/:id/status
			subGroup.GET("/:id/status", subHandler.GetSubmissionStatus)

			// 获取提交的代码块 - GET /api/submissions/:id/blocks
			subGroup.GET("/:id/blocks", subHandler.GetSubmissionBlocks)

			// 获取提交的检查问题 - GET /api/submissions/:id/questions
			subGroup.GET("/:id/questions", quizHandler.GetSubmissionQuestions)

			// 获取提交的处理任务 - GET /api/submissions/:id/tasks
			if taskHandler != nil {
				subGroup.GET("/:id/tasks", taskHandler.GetSubmissionTasks)
			}

			// 删除提交 - DELETE /api/submissions/:id
			subGroup.DELETE("/:id", subHandler.DeleteSubmission)
		}

		// 问答评估API
		quizGroup := api.Group("/quiz")
		{
			// 评估回答 - POST /api/quiz/evaluate
			quizGroup.POST("/evaluate", quizHandler.EvaluateAnswer)

			// 语义检索问题 - GET /api/quiz/search
			quizGroup.GET("/search", quizHandler.SearchQuestions)

			// 最近提问的问题 - GET /api/quiz/recent
			quizGroup.GET("/recent", quizHandler.GetRecentQuestions)
		}

		// 检查会话API
		reviewGroup := api.Group("/reviews")
		{
			// 创建检查会话 - POST /api/reviews
			reviewGroup.POST("", reviewHandler.CreateReview)

			// 获取会话列表 - GET /api/reviews
			reviewGroup.GET("", reviewHandler.ListReviews)

			// 获取会话详情 - GET /api/reviews/:session_id
			reviewGroup.GET("/:session_id", reviewHandler.GetReview)

			// 获取会话消息历史 - GET /api/reviews/:session_id/messages
			reviewGroup.GET("/:session_id/messages", reviewHandler.GetReviewHistory)

			// 添加消息或记录问答 - POST /api/reviews/:session_id/messages
			reviewGroup.POST("/:session_id/messages", reviewHandler.AddMessage)

			// 重命名会话 - PUT /api/reviews/:session_id/rename
			reviewGroup.PUT("/:session_id/rename", reviewHandler.RenameReview)

			// 删除会话 - DELETE /api/reviews/:session_id
			reviewGroup.DELETE("/:session_id", reviewHandler.DeleteReview)
		}

		// 任务管理API
		if taskHandler != nil {
			taskGroup := api.Group("/tasks")
			{
				// 任务回调 - POST /api/tasks/callback
				taskGroup.POST("/callback", taskHandler.HandleCallback)

				// 获取任务状态 - GET /api/tasks/:id
				taskGroup.GET("/:id", taskHandler.GetTaskStatus)
			}
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// RegisterWebUI 注册Web UI路由
// TODO: 当前端页面准备好后实现此函数
func RegisterWebUI(router *gin.Engine) {
	// 待实现：集成前端页面
	// 示例：router.StaticFile("/", "./web/dist/index.html")
	// 示例：router.Static("/static", "./web/dist/static")
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
