package handler

import (
	"net/http"

	"github.com/Ccode104/Lab-Assistant/api/middleware"
	"github.com/Ccode104/Lab-Assistant/api/model"
	"github.com/Ccode104/Lab-Assistant/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// QuizHandler 处理问答评估相关的API请求
type QuizHandler struct {
	quizService *services.QuizService // 口试问答服务
	logger      *logrus.Logger        // 日志记录器
}

// NewQuizHandler 创建新的问答处理器
func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		logger:      middleware.GetLogger(),
	}
}

// GetSubmissionQuestions 获取提交对应的问题列表
// GET /api/submissions/:id/questions
func (h *QuizHandler) GetSubmissionQuestions(c *gin.Context) {
	// 绑定路径参数
	var req model.SubmissionStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的提交ID"))
		return
	}

	// 获取问题列表，缓存未命中时回退数据库或重新生成
	questions, err := h.quizService.QuestionsForSubmission(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":         err.Error(),
			"submission_id": req.ID,
		}).Error("Failed to get submission questions")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取问题列表失败",
		))
		return
	}

	resp := model.QuestionListResponse{
		SubmissionID: req.ID,
		Questions:    model.ConvertToQuestionInfo(questions),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// EvaluateAnswer 评估学生对问题的回答
// POST /api/quiz/evaluate
func (h *QuizHandler) EvaluateAnswer(c *gin.Context) {
	// 绑定请求参数
	var req model.EvaluateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid evaluate request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"question_id": req.QuestionID,
	}).Info("Processing answer evaluation")

	// 评估回答
	eval, err := h.quizService.EvaluateAnswer(c.Request.Context(), req.QuestionID, req.Answer)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":       err.Error(),
			"question_id": req.QuestionID,
		}).Error("Failed to evaluate answer")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"评估回答失败",
		))
		return
	}

	resp := model.EvaluationResponse{
		QuestionID: req.QuestionID,
		Score:      eval.Score,
		Verdict:    eval.Verdict,
		Feedback:   eval.Feedback,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// SearchQuestions 按语义检索问题库
// GET /api/quiz/search
func (h *QuizHandler) SearchQuestions(c *gin.Context) {
	// 绑定查询参数
	var req model.QuestionSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 检索问题
	matches, err := h.quizService.SearchQuestions(c.Request.Context(), req.Query, req.SubmissionID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
			"query": req.Query,
		}).Error("Failed to search questions")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"检索问题失败",
		))
		return
	}

	// 转换为响应格式
	infos := make([]model.QuestionMatchInfo, 0, len(matches))
	for _, m := range matches {
		infos = append(infos, model.QuestionMatchInfo{
			Question: model.QuestionInfo{
				QuestionID: m.Question.QuestionID,
				BlockID:    m.Question.BlockID,
				Position:   m.Question.Position,
				Text:       m.Question.Text,
				Difficulty: string(m.Question.Difficulty),
				AskedCount: m.Question.AskedCount,
			},
			Score: m.Score,
		})
	}

	resp := model.QuestionSearchResponse{
		Query:   req.Query,
		Matches: infos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetRecentQuestions 获取最近提问过的问题
// GET /api/quiz/recent
func (h *QuizHandler) GetRecentQuestions(c *gin.Context) {
	// 绑定查询参数
	var req model.GetRecentQuestionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	questions, err := h.quizService.RecentQuestions(c.Request.Context(), req.Limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent questions")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取最近问题失败",
		))
		return
	}

	resp := model.GetRecentQuestionsResponse{
		Questions: questions,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
