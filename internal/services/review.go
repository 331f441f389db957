package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/llm"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReviewService 检查会话服务
// 负责管理实验检查会话和问答记录的业务逻辑
type ReviewService struct {
	repo   repository.ReviewRepository // 检查会话仓储接口
	logger *logrus.Logger              // 日志记录器
}

// ReviewOption 检查会话服务配置选项
type ReviewOption func(*ReviewService)

// NewReviewService 创建检查会话服务实例
func NewReviewService(repo repository.ReviewRepository, opts ...ReviewOption) *ReviewService {
	// 创建服务实例
	service := &ReviewService{
		repo:   repo,
		logger: logrus.New(),
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(service)
	}

	return service
}

// WithReviewLogger 设置日志记录器
func WithReviewLogger(logger *logrus.Logger) ReviewOption {
	return func(s *ReviewService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// CreateReview 创建新的检查会话
func (s *ReviewService) CreateReview(ctx context.Context, submissionID string, title string) (*models.ReviewSession, error) {
	if submissionID == "" {
		return nil, errors.New("submission ID cannot be empty")
	}

	if title == "" {
		title = "检查会话 " + time.Now().Format("2006-01-02 15:04:05")
	}

	// 创建会话对象
	session := &models.ReviewSession{
		ID:           uuid.New().String(),
		SubmissionID: submissionID,
		Title:        title,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// 保存到数据库
	err := s.repo.CreateSession(session)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create review session")
		return nil, fmt.Errorf("failed to create review session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":    session.ID,
		"submission_id": submissionID,
	}).Info("Review session created")
	return session, nil
}

// GetReviewSession 获取检查会话详情
func (s *ReviewService) GetReviewSession(ctx context.Context, sessionID string) (*models.ReviewSession, error) {
	if sessionID == "" {
		return nil, errors.New("session ID cannot be empty")
	}

	// 从仓储获取会话
	session, err := s.repo.GetSession(sessionID)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to get review session")
		return nil, fmt.Errorf("failed to get review session: %w", err)
	}

	return session, nil
}

// ListReviewSessions 列出检查会话
func (s *ReviewService) ListReviewSessions(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.ReviewSession, int64, error) {
	// 从仓储获取会话列表
	sessions, total, err := s.repo.ListSessions(offset, limit, filters)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list review sessions")
		return nil, 0, fmt.Errorf("failed to list review sessions: %w", err)
	}

	return sessions, total, nil
}

// UpdateReviewSession 更新检查会话
func (s *ReviewService) UpdateReviewSession(ctx context.Context, session *models.ReviewSession) error {
	if session.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	// 确保更新时间被设置
	session.UpdatedAt = time.Now()

	// 保存到数据库
	err := s.repo.UpdateSession(session)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", session.ID).Error("Failed to update review session")
		return fmt.Errorf("failed to update review session: %w", err)
	}

	s.logger.WithField("session_id", session.ID).Info("Review session updated")
	return nil
}

// DeleteReviewSession 删除检查会话
func (s *ReviewService) DeleteReviewSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	// 从数据库删除
	err := s.repo.DeleteSession(sessionID)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to delete review session")
		return fmt.Errorf("failed to delete review session: %w", err)
	}

	s.logger.WithField("session_id", sessionID).Info("Review session deleted")
	return nil
}

// AddMessage 添加检查消息
func (s *ReviewService) AddMessage(ctx context.Context, message *models.ReviewMessage) error {
	if message.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	if message.Content == "" {
		return errors.New("message content cannot be empty")
	}

	// 确保消息角色有效
	if message.Role != models.RoleExaminer &&
		message.Role != models.RoleStudent &&
		message.Role != models.RoleVerdict {
		message.Role = models.RoleStudent // 默认为学生角色
	}

	// 确保创建时间被设置
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	// 保存到数据库
	err := s.repo.CreateMessage(message)
	if err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{
				"session_id": message.SessionID,
				"role":       message.Role,
			}).Error("Failed to add review message")
		return fmt.Errorf("failed to add review message: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": message.SessionID,
		"role":       message.Role,
	}).Info("Review message added")
	return nil
}

// GetReviewMessages 获取会话消息列表
func (s *ReviewService) GetReviewMessages(ctx context.Context, sessionID string, offset, limit int) ([]*models.ReviewMessage, int64, error) {
	if sessionID == "" {
		return nil, 0, errors.New("session ID cannot be empty")
	}

	// 从仓储获取消息
	messages, total, err := s.repo.GetMessages(sessionID, offset, limit)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to get review messages")
		return nil, 0, fmt.Errorf("failed to get review messages: %w", err)
	}

	return messages, total, nil
}

// GetRecentMessages 获取最近的消息
func (s *ReviewService) GetRecentMessages(ctx context.Context, limit int) ([]*models.ReviewMessage, error) {
	if limit <= 0 {
		limit = 10 // 默认获取10条
	}

	// 从仓储获取最近消息
	messages, err := s.repo.GetRecentMessages(limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get recent messages")
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}

	return messages, nil
}

// CountReviewMessages 统计会话消息数量
func (s *ReviewService) CountReviewMessages(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, errors.New("session ID cannot be empty")
	}

	// 统计消息数量
	count, err := s.repo.CountMessages(sessionID)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to count review messages")
		return 0, fmt.Errorf("failed to count review messages: %w", err)
	}

	return count, nil
}

// SaveMessageWithRefs 保存带有代码块引用的消息
func (s *ReviewService) SaveMessageWithRefs(ctx context.Context, message *models.ReviewMessage, refs []models.BlockRef) error {
	if message.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	if message.Content == "" {
		return errors.New("message content cannot be empty")
	}

	// 将引用的代码块序列化为JSON
	if len(refs) > 0 {
		refsJSON, err := json.Marshal(refs)
		if err != nil {
			s.logger.WithError(err).Error("Failed to marshal block refs to JSON")
			return fmt.Errorf("failed to marshal block refs: %w", err)
		}

		// 将JSON赋值给消息的Refs字段
		message.Refs = refsJSON
	}

	// 保存到数据库
	err := s.repo.CreateMessage(message)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", message.SessionID).Error("Failed to save message with refs")
		return fmt.Errorf("failed to save message with refs: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": message.SessionID,
		"refs_count": len(refs),
	}).Info("Message with refs saved")
	return nil
}

// RenameReviewSession 重命名检查会话
func (s *ReviewService) RenameReviewSession(ctx context.Context, sessionID string, newTitle string) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	if newTitle == "" {
		return errors.New("new title cannot be empty")
	}

	// 获取会话
	session, err := s.repo.GetSession(sessionID)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to get review session for rename")
		return fmt.Errorf("failed to get review session: %w", err)
	}

	// 更新标题
	session.Title = newTitle
	session.UpdatedAt = time.Now()

	// 保存更新
	err = s.repo.UpdateSession(session)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to rename review session")
		return fmt.Errorf("failed to rename review session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"new_title":  newTitle,
	}).Info("Review session renamed")
	return nil
}

// RecordExchange 记录一轮完整的问答交互
// 依次写入考官提问、学生回答和评定结论三条消息
func (s *ReviewService) RecordExchange(ctx context.Context, sessionID string, questionID string, questionText string, answer string, eval *llm.Evaluation, refs []models.BlockRef) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if questionText == "" {
		return errors.New("question text cannot be empty")
	}
	if answer == "" {
		return errors.New("answer cannot be empty")
	}
	if eval == nil {
		return errors.New("evaluation cannot be nil")
	}

	now := time.Now()

	// 考官提问，附带引用的代码块
	questionMsg := &models.ReviewMessage{
		SessionID:  sessionID,
		Role:       models.RoleExaminer,
		Content:    questionText,
		QuestionID: questionID,
		CreatedAt:  now,
	}
	if err := s.SaveMessageWithRefs(ctx, questionMsg, refs); err != nil {
		return fmt.Errorf("failed to record question: %w", err)
	}

	// 学生回答
	answerMsg := &models.ReviewMessage{
		SessionID:  sessionID,
		Role:       models.RoleStudent,
		Content:    answer,
		QuestionID: questionID,
		CreatedAt:  now,
	}
	if err := s.repo.CreateMessage(answerMsg); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to record answer")
		return fmt.Errorf("failed to record answer: %w", err)
	}

	// 评定结论，内容为评语
	content := eval.Feedback
	if content == "" {
		content = eval.Verdict
	}
	score := eval.Score
	verdictMsg := &models.ReviewMessage{
		SessionID:  sessionID,
		Role:       models.RoleVerdict,
		Content:    content,
		QuestionID: questionID,
		Score:      &score,
		Verdict:    eval.Verdict,
		CreatedAt:  now,
	}
	if err := s.repo.CreateMessage(verdictMsg); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to record verdict")
		return fmt.Errorf("failed to record verdict: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"question_id": questionID,
		"score":       eval.Score,
		"verdict":     eval.Verdict,
	}).Info("Review exchange recorded")
	return nil
}

// GetReviewsWithMessageCount 获取带消息数量的检查会话列表
func (s *ReviewService) GetReviewsWithMessageCount(ctx context.Context, offset, limit int) ([]map[string]interface{}, int64, error) {
	// 获取会话列表
	sessions, total, err := s.repo.ListSessions(offset, limit, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list review sessions: %w", err)
	}

	// 准备返回结果
	result := make([]map[string]interface{}, len(sessions))

	// 为每个会话添加消息数量
	for i, session := range sessions {
		// 获取消息数量
		count, err := s.repo.CountMessages(session.ID)
		if err != nil {
			s.logger.WithError(err).WithField("session_id", session.ID).Warn("Failed to count messages")
			count = 0 // 出错时默认为0
		}

		// 构建带有消息数量的会话信息
		result[i] = map[string]interface{}{
			"id":            session.ID,
			"submission_id": session.SubmissionID,
			"title":         session.Title,
			"student_id":    session.StudentID,
			"created_at":    session.CreatedAt,
			"updated_at":    session.UpdatedAt,
			"message_count": count,
		}
	}

	return result, total, nil
}
