package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/sirupsen/logrus"
)

// SubmissionStatusManager 提交状态管理器
// 负责管理实验提交处理的生命周期状态
type SubmissionStatusManager struct {
	repo   repository.SubmissionRepository // 提交仓储接口
	logger *logrus.Logger                  // 日志记录器
	mu     sync.Mutex                      // 互斥锁，保证状态转换的原子性
}

// NewSubmissionStatusManager 创建提交状态管理器
func NewSubmissionStatusManager(repo repository.SubmissionRepository, logger *logrus.Logger) *SubmissionStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &SubmissionStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// MarkAsUploaded 将提交标记为已上传状态
// 提交记录由调用方构造，这里补全状态字段后入库
func (m *SubmissionStatusManager) MarkAsUploaded(ctx context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub == nil || sub.ID == "" {
		return errors.New("submission id cannot be empty")
	}

	m.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"filename":      sub.FileName,
		"student_id":    sub.StudentID,
	}).Info("Marking submission as uploaded")

	// 补全状态字段
	sub.Status = models.SubStatusUploaded
	sub.Progress = 0
	if sub.FileType == "" {
		sub.FileType = getFileType(sub.FileName)
	}
	if sub.UploadedAt.IsZero() {
		sub.UploadedAt = time.Now()
	}
	sub.UpdatedAt = time.Now()

	// 保存到仓储
	return m.repo.Create(sub)
}

// MarkAsProcessing 将提交标记为处理中状态
// 允许从已上传状态进入，也允许失败后重试
func (m *SubmissionStatusManager) MarkAsProcessing(ctx context.Context, submissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前提交
	sub, err := m.repo.GetByID(submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	// 检查状态转换的有效性
	if sub.Status != models.SubStatusUploaded && sub.Status != models.SubStatusFailed {
		return fmt.Errorf("invalid state transition: submission %s is in %s state, expected %s or %s",
			submissionID, sub.Status, models.SubStatusUploaded, models.SubStatusFailed)
	}

	m.logger.WithField("submission_id", submissionID).Info("Marking submission as processing")

	// 更新状态
	return m.repo.UpdateStatus(submissionID, models.SubStatusProcessing, "")
}

// MarkAsCompleted 将提交标记为处理完成状态
func (m *SubmissionStatusManager) MarkAsCompleted(ctx context.Context, submissionID string, blockCount int, questionCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前提交
	sub, err := m.repo.GetByID(submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	// 检查状态转换的有效性
	if sub.Status != models.SubStatusProcessing && sub.Status != models.SubStatusUploaded {
		return fmt.Errorf("invalid state transition: submission %s is in %s state, expected %s or %s",
			submissionID, sub.Status, models.SubStatusProcessing, models.SubStatusUploaded)
	}

	m.logger.WithFields(logrus.Fields{
		"submission_id":  submissionID,
		"block_count":    blockCount,
		"question_count": questionCount,
	}).Info("Marking submission as completed")

	// 更新状态
	if err := m.repo.UpdateStatus(submissionID, models.SubStatusCompleted, ""); err != nil {
		return err
	}

	// 更新提交记录，补充代码块和问题数量
	// Update会写入全部字段，完成时间需要在模型上显式设置
	now := time.Now()
	sub.Status = models.SubStatusCompleted
	sub.BlockCount = blockCount
	sub.QuestionCount = questionCount
	sub.Progress = 100
	sub.CurrentStage = models.StageCompleted
	sub.ProcessedAt = &now
	return m.repo.Update(sub)
}

// MarkAsFailed 将提交标记为处理失败状态
func (m *SubmissionStatusManager) MarkAsFailed(ctx context.Context, submissionID string, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前提交
	_, err := m.repo.GetByID(submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"error":         errorMsg,
	}).Error("Marking submission as failed")

	// 更新状态
	return m.repo.UpdateStatus(submissionID, models.SubStatusFailed, errorMsg)
}

// MarkStage 更新提交的当前处理阶段
func (m *SubmissionStatusManager) MarkStage(ctx context.Context, submissionID string, stage models.ProcessStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"stage":         stage,
	}).Debug("Updating submission stage")

	return m.repo.UpdateStage(submissionID, stage)
}

// UpdateProgress 更新提交处理进度
func (m *SubmissionStatusManager) UpdateProgress(ctx context.Context, submissionID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前提交
	sub, err := m.repo.GetByID(submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	// 只有处理中的提交才能更新进度
	if sub.Status != models.SubStatusProcessing {
		return fmt.Errorf("cannot update progress: submission %s is not in processing state", submissionID)
	}

	m.logger.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"progress":      progress,
	}).Debug("Updating submission progress")

	// 更新进度
	return m.repo.UpdateProgress(submissionID, progress)
}

// GetStatus 获取提交当前状态
func (m *SubmissionStatusManager) GetStatus(ctx context.Context, submissionID string) (models.SubmissionStatus, error) {
	sub, err := m.repo.GetByID(submissionID)
	if err != nil {
		return "", fmt.Errorf("failed to get submission status: %w", err)
	}
	return sub.Status, nil
}

// GetSubmission 获取完整的提交对象
func (m *SubmissionStatusManager) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	return m.repo.GetByID(submissionID)
}

// ListSubmissions 获取提交列表
func (m *SubmissionStatusManager) ListSubmissions(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Submission, int64, error) {
	return m.repo.List(offset, limit, filters)
}

// DeleteSubmission 删除提交状态记录
func (m *SubmissionStatusManager) DeleteSubmission(ctx context.Context, submissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithField("submission_id", submissionID).Info("Deleting submission status record")
	return m.repo.Delete(submissionID)
}

// ValidateStateTransition 验证状态转换的有效性
func (m *SubmissionStatusManager) ValidateStateTransition(from, to models.SubmissionStatus) error {
	// 定义有效的状态转换
	validTransitions := map[models.SubmissionStatus][]models.SubmissionStatus{
		models.SubStatusUploaded: {
			models.SubStatusProcessing,
			models.SubStatusCompleted, // 小文件可能直接完成
			models.SubStatusFailed,    // 上传后可能立即失败
		},
		models.SubStatusProcessing: {
			models.SubStatusCompleted,
			models.SubStatusFailed,
		},
		// 终态
		models.SubStatusCompleted: {},
		models.SubStatusFailed:    {models.SubStatusProcessing}, // 允许重试
	}

	// 检查是否是有效转换
	allowed := false
	for _, validTo := range validTransitions[from] {
		if validTo == to {
			allowed = true
			break
		}
	}

	if !allowed {
		return errors.New("invalid state transition")
	}

	return nil
}

// getFileType 根据文件名获取文件类型
func getFileType(fileName string) string {
	ext := ""
	for i := len(fileName) - 1; i >= 0 && fileName[i] != '.'; i-- {
		ext = string(fileName[i]) + ext
	}
	return ext
}
