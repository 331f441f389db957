package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Ccode104/Lab-Assistant/api/middleware"
	"github.com/Ccode104/Lab-Assistant/api/model"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReviewHandler 处理检查会话相关的API请求
type ReviewHandler struct {
	reviewService *services.ReviewService // 检查会话服务
	quizService   *services.QuizService   // 口试问答服务，评估回答用
	logger        *logrus.Logger          // 日志记录器
}

// NewReviewHandler 创建新的检查会话处理器
func NewReviewHandler(reviewService *services.ReviewService, quizService *services.QuizService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		quizService:   quizService,
		logger:        middleware.GetLogger(),
	}
}

// CreateReview 创建新的检查会话
// POST /api/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	// 绑定请求参数
	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid create review request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	// 创建会话
	session, err := h.reviewService.CreateReview(c.Request.Context(), req.SubmissionID, req.Title)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":         err.Error(),
			"submission_id": req.SubmissionID,
		}).Error("Failed to create review session")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"创建检查会话失败",
		))
		return
	}

	// 记录学号信息
	if req.StudentID != "" {
		session.StudentID = req.StudentID
		if err := h.reviewService.UpdateReviewSession(c.Request.Context(), session); err != nil {
			h.logger.WithError(err).WithField("session_id", session.ID).Warn("Failed to record student ID")
		}
	}

	resp := model.CreateReviewResponse{
		SessionID:    session.ID,
		SubmissionID: session.SubmissionID,
		Title:        session.Title,
		CreatedAt:    session.CreatedAt,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListReviews 获取检查会话列表
// GET /api/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	// 绑定查询参数
	var req model.ReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 计算分页参数
	offset := (req.GetPage() - 1) * req.GetPageSize()
	limit := req.GetPageSize()

	// 构建过滤条件
	filters := make(map[string]interface{})
	if req.SubmissionID != "" {
		filters["submission_id"] = req.SubmissionID
	}
	if req.StudentID != "" {
		filters["student_id"] = req.StudentID
	}
	if req.Tags != "" {
		filters["tags"] = req.Tags
	}
	if req.StartTime != nil {
		filters["start_time"] = req.StartTime.Format(time.RFC3339)
	}
	if req.EndTime != nil {
		filters["end_time"] = req.EndTime.Format(time.RFC3339)
	}

	var (
		infos []model.ReviewInfo
		total int64
	)

	if len(filters) == 0 {
		// 无过滤条件时走带消息数量的查询
		reviews, count, err := h.reviewService.GetReviewsWithMessageCount(c.Request.Context(), offset, limit)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list review sessions")
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"获取检查会话列表失败",
			))
			return
		}
		total = count

		infos = make([]model.ReviewInfo, 0, len(reviews))
		for _, review := range reviews {
			info := model.ReviewInfo{}
			if v, ok := review["id"].(string); ok {
				info.ID = v
			}
			if v, ok := review["submission_id"].(string); ok {
				info.SubmissionID = v
			}
			if v, ok := review["title"].(string); ok {
				info.Title = v
			}
			if v, ok := review["student_id"].(string); ok {
				info.StudentID = v
			}
			if v, ok := review["created_at"].(time.Time); ok {
				info.CreatedAt = v
			}
			if v, ok := review["updated_at"].(time.Time); ok {
				info.UpdatedAt = v
			}
			if v, ok := review["message_count"].(int64); ok {
				info.MessageCount = int(v)
			}
			infos = append(infos, info)
		}
	} else {
		// 有过滤条件时逐个统计消息数量
		sessions, count, err := h.reviewService.ListReviewSessions(c.Request.Context(), offset, limit, filters)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list review sessions")
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"获取检查会话列表失败",
			))
			return
		}
		total = count

		infos = make([]model.ReviewInfo, 0, len(sessions))
		for _, session := range sessions {
			msgCount, err := h.reviewService.CountReviewMessages(c.Request.Context(), session.ID)
			if err != nil {
				msgCount = 0
			}
			infos = append(infos, model.ReviewInfo{
				ID:           session.ID,
				SubmissionID: session.SubmissionID,
				Title:        session.Title,
				StudentID:    session.StudentID,
				CreatedAt:    session.CreatedAt,
				UpdatedAt:    session.UpdatedAt,
				MessageCount: int(msgCount),
			})
		}
	}

	resp := model.ReviewListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Reviews:  infos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetReview 获取检查会话详情
// GET /api/reviews/:session_id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	// 绑定路径参数
	var req model.DeleteReviewRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	// 获取会话
	session, err := h.reviewService.GetReviewSession(c.Request.Context(), req.SessionID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": req.SessionID,
		}).Error("Failed to get review session")

		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到检查会话"))
		return
	}

	// 统计消息数量
	msgCount, err := h.reviewService.CountReviewMessages(c.Request.Context(), req.SessionID)
	if err != nil {
		msgCount = 0
	}

	resp := model.ReviewInfo{
		ID:           session.ID,
		SubmissionID: session.SubmissionID,
		Title:        session.Title,
		StudentID:    session.StudentID,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		MessageCount: int(msgCount),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetReviewHistory 获取检查会话的消息历史
// GET /api/reviews/:session_id/messages
func (h *ReviewHandler) GetReviewHistory(c *gin.Context) {
	// 绑定路径参数
	var req model.ReviewHistoryRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	// 绑定分页参数
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 获取会话
	session, err := h.reviewService.GetReviewSession(c.Request.Context(), req.SessionID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": req.SessionID,
		}).Error("Failed to get review session")

		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到检查会话"))
		return
	}

	// 计算分页参数
	offset := (req.GetPage() - 1) * req.GetPageSize()
	limit := req.GetPageSize()

	// 获取消息列表
	messages, _, err := h.reviewService.GetReviewMessages(c.Request.Context(), req.SessionID, offset, limit)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": req.SessionID,
		}).Error("Failed to get review messages")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取会话消息失败",
		))
		return
	}

	// 转换为响应格式
	messageInfos := make([]model.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		info := model.MessageInfo{
			ID:         strconv.FormatUint(uint64(msg.ID), 10),
			Role:       string(msg.Role),
			Content:    msg.Content,
			QuestionID: msg.QuestionID,
			Score:      msg.Score,
			Verdict:    msg.Verdict,
			CreatedAt:  msg.CreatedAt,
		}

		// 解析代码块引用
		if len(msg.Refs) > 0 {
			var refs []models.BlockRef
			if err := json.Unmarshal(msg.Refs, &refs); err != nil {
				h.logger.WithError(err).WithField("message_id", msg.ID).Warn("Failed to unmarshal block refs")
			} else {
				info.Refs = make([]model.BlockRefInfo, 0, len(refs))
				for _, ref := range refs {
					info.Refs = append(info.Refs, model.BlockRefInfo{
						BlockID:      ref.BlockID,
						SubmissionID: ref.SubmissionID,
						StartLine:    ref.StartLine,
						EndLine:      ref.EndLine,
						Text:         ref.Text,
					})
				}
			}
		}

		messageInfos = append(messageInfos, info)
	}

	resp := model.ReviewHistoryResponse{
		SessionID:    session.ID,
		SubmissionID: session.SubmissionID,
		Title:        session.Title,
		Messages:     messageInfos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// AddMessage 向检查会话添加消息
// 带question_id和answer时执行完整的评估流程并记录问答，否则追加单条消息
// POST /api/reviews/:session_id/messages
func (h *ReviewHandler) AddMessage(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	// 绑定请求参数
	var req model.CreateReviewMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的请求参数"))
		return
	}

	// 确认会话存在
	if _, err := h.reviewService.GetReviewSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到检查会话"))
		return
	}

	// 评估模式：评估学生回答并记录完整问答
	if req.QuestionID != "" && req.Answer != "" {
		h.recordExchange(c, sessionID, &req)
		return
	}

	// 普通模式：追加单条消息
	if req.Content == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"消息内容不能为空",
		))
		return
	}

	msg := &models.ReviewMessage{
		SessionID: sessionID,
		Role:      models.ReviewRole(req.Role),
		Content:   req.Content,
	}
	if err := h.reviewService.AddMessage(c.Request.Context(), msg); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": sessionID,
		}).Error("Failed to add review message")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"添加消息失败",
		))
		return
	}

	resp := model.MessageInfo{
		ID:        strconv.FormatUint(uint64(msg.ID), 10),
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// recordExchange 评估回答并把完整的问答记录到会话
func (h *ReviewHandler) recordExchange(c *gin.Context, sessionID string, req *model.CreateReviewMessageRequest) {
	ctx := c.Request.Context()

	// 评估回答
	eval, err := h.quizService.EvaluateAnswer(ctx, req.QuestionID, req.Answer)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":       err.Error(),
			"session_id":  sessionID,
			"question_id": req.QuestionID,
		}).Error("Failed to evaluate answer")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"评估回答失败",
		))
		return
	}

	// 加载问题和代码块，构建引用信息
	question, block, err := h.quizService.QuestionContext(ctx, req.QuestionID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":       err.Error(),
			"question_id": req.QuestionID,
		}).Error("Failed to load question context")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"加载问题信息失败",
		))
		return
	}

	refs := []models.BlockRef{
		{
			BlockID:      block.BlockID,
			SubmissionID: block.SubmissionID,
			StartLine:    block.StartLine,
			EndLine:      block.EndLine,
			Text:         block.Text,
		},
	}

	// 记录完整的问答到会话
	if err := h.reviewService.RecordExchange(ctx, sessionID, req.QuestionID, question.Text, req.Answer, eval, refs); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": sessionID,
		}).Error("Failed to record exchange")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"记录问答失败",
		))
		return
	}

	resp := model.ExchangeResponse{
		SessionID:  sessionID,
		QuestionID: req.QuestionID,
		Question:   question.Text,
		Answer:     req.Answer,
		Score:      eval.Score,
		Verdict:    eval.Verdict,
		Feedback:   eval.Feedback,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// RenameReview 重命名检查会话
// PUT /api/reviews/:session_id/rename
func (h *ReviewHandler) RenameReview(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	// 绑定请求体
	var req model.RenameReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的请求参数"))
		return
	}
	req.SessionID = sessionID

	// 重命名会话
	if err := h.reviewService.RenameReviewSession(c.Request.Context(), req.SessionID, req.Title); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": req.SessionID,
		}).Error("Failed to rename review session")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"重命名会话失败",
		))
		return
	}

	// 返回更新后的会话信息
	session, err := h.reviewService.GetReviewSession(c.Request.Context(), req.SessionID)
	if err != nil {
		c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"session_id": req.SessionID, "title": req.Title}))
		return
	}

	resp := model.ReviewInfo{
		ID:           session.ID,
		SubmissionID: session.SubmissionID,
		Title:        session.Title,
		StudentID:    session.StudentID,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteReview 删除检查会话及其消息
// DELETE /api/reviews/:session_id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	// 绑定路径参数
	var req model.DeleteReviewRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	// 删除会话
	if err := h.reviewService.DeleteReviewSession(c.Request.Context(), req.SessionID); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"session_id": req.SessionID,
		}).Error("Failed to delete review session")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除会话失败",
		))
		return
	}

	h.logger.WithField("session_id", req.SessionID).Info("Review session deleted")

	resp := model.DeleteReviewResponse{
		Success:   true,
		SessionID: req.SessionID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
