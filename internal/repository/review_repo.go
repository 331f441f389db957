package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewRepository 检查会话仓储接口
// 负责检查会话和问答记录的存储和检索
type ReviewRepository interface {
	// CreateSession 创建检查会话
	CreateSession(session *models.ReviewSession) error

	// GetSession 获取检查会话
	GetSession(id string) (*models.ReviewSession, error)

	// ListSessions 列出检查会话，支持分页和筛选
	ListSessions(offset, limit int, filters map[string]interface{}) ([]*models.ReviewSession, int64, error)

	// UpdateSession 更新检查会话
	UpdateSession(session *models.ReviewSession) error

	// DeleteSession 删除检查会话
	DeleteSession(id string) error

	// CreateMessage 创建检查消息
	CreateMessage(message *models.ReviewMessage) error

	// GetMessages 获取会话消息列表
	GetMessages(sessionID string, offset, limit int) ([]*models.ReviewMessage, int64, error)

	// GetRecentMessages 获取最近的消息
	GetRecentMessages(limit int) ([]*models.ReviewMessage, error)

	// CountMessages 统计会话消息数量
	CountMessages(sessionID string) (int64, error)

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) ReviewRepository
}

// reviewRepo 检查会话仓储实现
type reviewRepo struct {
	db *gorm.DB // 数据库连接
}

// NewReviewRepository 创建检查会话仓储实例
func NewReviewRepository() ReviewRepository {
	return &reviewRepo{
		db: database.MustDB(),
	}
}

// NewReviewRepositoryWithDB 使用指定的数据库连接创建检查会话仓储实例
func NewReviewRepositoryWithDB(db *gorm.DB) ReviewRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &reviewRepo{
		db: db,
	}
}

// WithContext 创建带有上下文的仓储
func (r *reviewRepo) WithContext(ctx context.Context) ReviewRepository {
	return &reviewRepo{
		db: r.db.WithContext(ctx),
	}
}

// CreateSession 创建检查会话
func (r *reviewRepo) CreateSession(session *models.ReviewSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	if session.SubmissionID == "" {
		return errors.New("submission ID cannot be empty")
	}

	// 确保时间字段被设置
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	return r.db.Create(session).Error
}

// GetSession 获取检查会话
func (r *reviewRepo) GetSession(id string) (*models.ReviewSession, error) {
	var session models.ReviewSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
		}
		return nil, err
	}
	return &session, nil
}

// ListSessions 列出检查会话，支持分页和筛选
func (r *reviewRepo) ListSessions(offset, limit int, filters map[string]interface{}) ([]*models.ReviewSession, int64, error) {
	var sessions []*models.ReviewSession
	var total int64

	// 创建查询构造器
	query := r.db.Model(&models.ReviewSession{})

	// 应用筛选条件
	if filters != nil {
		// 提交ID过滤
		if submissionID, ok := filters["submission_id"].(string); ok && submissionID != "" {
			query = query.Where("submission_id = ?", submissionID)
		}

		// 学号过滤
		if studentID, ok := filters["student_id"].(string); ok && studentID != "" {
			query = query.Where("student_id = ?", studentID)
		}

		// 标签过滤
		if tags, ok := filters["tags"].(string); ok && tags != "" {
			// 使用LIKE查询匹配包含指定标签的会话
			query = query.Where("tags LIKE ?", "%"+tags+"%")
		}

		// 时间范围过滤
		if startTime, ok := filters["start_time"].(time.Time); ok {
			query = query.Where("created_at >= ?", startTime)
		}

		if endTime, ok := filters["end_time"].(time.Time); ok {
			query = query.Where("created_at <= ?", endTime)
		}

		// 标题关键词搜索
		if title, ok := filters["title"].(string); ok && title != "" {
			query = query.Where("title LIKE ?", "%"+title+"%")
		}
	}

	// 获取总数
	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 应用排序和分页
	err = query.Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&sessions).Error

	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// UpdateSession 更新检查会话
func (r *reviewRepo) UpdateSession(session *models.ReviewSession) error {
	if session.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	// 确保更新时间被更新
	session.UpdatedAt = time.Now()

	return r.db.Save(session).Error
}

// DeleteSession 删除检查会话
func (r *reviewRepo) DeleteSession(id string) error {
	// 开启事务
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 删除会话的所有消息
		if err := tx.Where("session_id = ?", id).Delete(&models.ReviewMessage{}).Error; err != nil {
			return err
		}

		// 2. 删除会话记录
		if err := tx.Where("id = ?", id).Delete(&models.ReviewSession{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// CreateMessage 创建检查消息
func (r *reviewRepo) CreateMessage(message *models.ReviewMessage) error {
	if message.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	// 确保时间字段被设置
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	// 创建消息记录
	if err := r.db.Create(message).Error; err != nil {
		return err
	}

	// 更新会话的最后更新时间
	return r.db.Model(&models.ReviewSession{}).
		Where("id = ?", message.SessionID).
		Update("updated_at", time.Now()).Error
}

// GetMessages 获取会话消息列表
func (r *reviewRepo) GetMessages(sessionID string, offset, limit int) ([]*models.ReviewMessage, int64, error) {
	var messages []*models.ReviewMessage
	var total int64

	// 先检查会话是否存在
	var exists int64
	err := r.db.Model(&models.ReviewSession{}).
		Where("id = ?", sessionID).
		Count(&exists).Error

	if err != nil {
		return nil, 0, err
	}

	if exists == 0 {
		return nil, 0, fmt.Errorf("%w: %s", models.ErrSessionNotFound, sessionID)
	}

	// 获取消息总数
	err = r.db.Model(&models.ReviewMessage{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error

	if err != nil {
		return nil, 0, err
	}

	// 查询消息列表
	err = r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error

	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// GetRecentMessages 获取最近的消息
func (r *reviewRepo) GetRecentMessages(limit int) ([]*models.ReviewMessage, error) {
	var messages []*models.ReviewMessage

	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	return messages, nil
}

// CountMessages 统计会话消息数量
func (r *reviewRepo) CountMessages(sessionID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReviewMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error

	return count, err
}
