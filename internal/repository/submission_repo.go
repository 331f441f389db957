package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// submissionRepo 实验提交仓储实现
type submissionRepo struct {
	db        *gorm.DB        // 数据库连接
	taskQueue taskqueue.Queue // 任务队列
	ctx       context.Context // 上下文，可用于事务或超时控制
	logger    *logrus.Logger  // 日志记录器
}

// NewSubmissionRepository 创建提交仓储实例
func NewSubmissionRepository() SubmissionRepository {
	return &submissionRepo{
		db:     database.MustDB(),
		ctx:    context.Background(),
		logger: logrus.New(),
	}
}

// NewSubmissionRepositoryWithDB 使用指定的数据库连接创建提交仓储实例
func NewSubmissionRepositoryWithDB(db *gorm.DB) SubmissionRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &submissionRepo{
		db:     db,
		ctx:    context.Background(),
		logger: logrus.New(),
	}
}

// NewSubmissionRepositoryWithQueue 使用指定的数据库连接和任务队列创建提交仓储实例
func NewSubmissionRepositoryWithQueue(db *gorm.DB, queue taskqueue.Queue) SubmissionRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &submissionRepo{
		db:        db,
		taskQueue: queue,
		ctx:       context.Background(),
		logger:    logrus.New(),
	}
}

// Create 创建提交记录
func (r *submissionRepo) Create(sub *models.Submission) error {
	if sub.ID == "" {
		return errors.New("submission ID cannot be empty")
	}

	return r.db.Create(sub).Error
}

// Update 更新提交记录
func (r *submissionRepo) Update(sub *models.Submission) error {
	if sub.ID == "" {
		return errors.New("submission ID cannot be empty")
	}

	return r.db.Save(sub).Error
}

// GetByID 根据ID获取提交
func (r *submissionRepo) GetByID(id string) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
		}
		return nil, err
	}
	return &sub, nil
}

// List 列出提交列表，支持分页和筛选
func (r *submissionRepo) List(offset, limit int, filters map[string]interface{}) ([]*models.Submission, int64, error) {
	var subs []*models.Submission
	var total int64

	// 创建查询构造器
	query := r.db.Model(&models.Submission{})

	// 应用筛选条件
	if filters != nil {
		// 状态过滤
		if status, ok := filters["status"]; ok {
			// 处理不同类型的status
			switch s := status.(type) {
			case models.SubmissionStatus:
				// 如果是SubmissionStatus类型，转换为string
				query = query.Where("status = ?", string(s))
			case string:
				// 如果已经是string，直接使用
				if s != "" {
					query = query.Where("status = ?", s)
				}
			default:
				// 其他类型，尝试转换为string
				statusStr := fmt.Sprintf("%v", status)
				if statusStr != "" {
					query = query.Where("status = ?", statusStr)
				}
			}
		}

		// 学号过滤
		if studentID, ok := filters["student_id"].(string); ok && studentID != "" {
			query = query.Where("student_id = ?", studentID)
		}

		// 实验名过滤
		if labName, ok := filters["lab_name"].(string); ok && labName != "" {
			query = query.Where("lab_name = ?", labName)
		}

		// 标签过滤
		if tags, ok := filters["tags"].(string); ok && tags != "" {
			// 使用LIKE查询匹配包含指定标签的提交
			query = query.Where("tags LIKE ?", "%"+tags+"%")
		}

		// 时间范围过滤
		if startTime, ok := filters["start_time"].(string); ok && startTime != "" {
			query = query.Where("uploaded_at >= ?", startTime)
		}

		if endTime, ok := filters["end_time"].(string); ok && endTime != "" {
			query = query.Where("uploaded_at <= ?", endTime)
		}

		// 文件名过滤
		if fileName, ok := filters["file_name"].(string); ok && fileName != "" {
			query = query.Where("file_name LIKE ?", "%"+fileName+"%")
		}
	}

	// 获取总数
	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 应用排序、分页并执行查询
	err = query.Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&subs).Error

	if err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

// Delete 删除提交记录
func (r *submissionRepo) Delete(id string) error {
	// 开启事务
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 删除提交的代码块
		if err := tx.Where("submission_id = ?", id).Delete(&models.CodeBlock{}).Error; err != nil {
			return err
		}

		// 2. 删除提交的检查问题
		if err := tx.Where("submission_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}

		// 3. 删除提交记录
		if err := tx.Where("id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		// 4. 如果任务队列已初始化，尝试获取并删除相关任务
		if r.taskQueue != nil {
			ctx := r.getContext()
			tasks, err := r.taskQueue.GetTasksBySubmission(ctx, id)
			if err == nil && len(tasks) > 0 {
				for _, task := range tasks {
					// 忽略错误，因为任务可能已经被删除
					_ = r.taskQueue.DeleteTask(ctx, task.ID)
				}
			}
		}

		return nil
	})
}

// UpdateStatus 更新提交状态
func (r *submissionRepo) UpdateStatus(id string, status models.SubmissionStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	// 如果有错误消息，更新错误字段
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	// 如果状态是已完成或失败，设置处理完成时间
	if status == models.SubStatusCompleted || status == models.SubStatusFailed {
		now := time.Now()
		updates["processed_at"] = &now
	}

	return r.db.Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateStage 更新提交的处理阶段
func (r *submissionRepo) UpdateStage(id string, stage models.ProcessStage) error {
	return r.db.Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stage": stage,
			"updated_at":    time.Now(),
		}).Error
}

// UpdateProgress 更新提交处理进度
func (r *submissionRepo) UpdateProgress(id string, progress int) error {
	// 确保进度在0-100范围内
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return r.db.Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

// SaveBlock 保存代码块
func (r *submissionRepo) SaveBlock(block *models.CodeBlock) error {
	return r.db.Create(block).Error
}

// SaveBlocks 批量保存代码块
func (r *submissionRepo) SaveBlocks(blocks []*models.CodeBlock) error {
	if len(blocks) == 0 {
		return nil
	}

	// 使用事务批量插入
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 批量创建记录
		return tx.CreateInBatches(blocks, 100).Error
	})
}

// GetBlocks 获取提交的所有代码块
func (r *submissionRepo) GetBlocks(submissionID string) ([]*models.CodeBlock, error) {
	var blocks []*models.CodeBlock
	err := r.db.Where("submission_id = ?", submissionID).
		Order("position ASC").
		Find(&blocks).Error
	return blocks, err
}

// GetBlockByID 根据代码块ID获取代码块
func (r *submissionRepo) GetBlockByID(blockID string) (*models.CodeBlock, error) {
	var block models.CodeBlock
	err := r.db.Where("block_id = ?", blockID).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrBlockNotFound, blockID)
		}
		return nil, err
	}
	return &block, nil
}

// CountBlocks 统计提交的代码块数量
func (r *submissionRepo) CountBlocks(submissionID string) (int, error) {
	var count int64
	err := r.db.Model(&models.CodeBlock{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error
	return int(count), err
}

// DeleteBlocks 删除提交的所有代码块
func (r *submissionRepo) DeleteBlocks(submissionID string) error {
	return r.db.Where("submission_id = ?", submissionID).
		Delete(&models.CodeBlock{}).Error
}

// WithContext 创建带有上下文的仓储
func (r *submissionRepo) WithContext(ctx context.Context) SubmissionRepository {
	return &submissionRepo{
		db:        r.db.WithContext(ctx),
		taskQueue: r.taskQueue,
		ctx:       ctx,
		logger:    r.logger,
	}
}

// getContext 获取仓储的上下文，如果未设置则使用背景上下文
func (r *submissionRepo) getContext() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// GetSubmissionTasks 获取提交相关的所有任务
func (r *submissionRepo) GetSubmissionTasks(ctx context.Context, submissionID string) ([]*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTasksBySubmission(ctx, submissionID)
}

// GetTaskByID 根据ID获取任务
func (r *submissionRepo) GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTask(ctx, taskID)
}

// CreateTask 创建任务并关联到提交
func (r *submissionRepo) CreateTask(ctx context.Context, taskType taskqueue.TaskType, submissionID string, payload interface{}) (string, error) {
	if r.taskQueue == nil {
		return "", errors.New("task queue not initialized")
	}

	// 检查提交是否存在
	_, err := r.GetByID(submissionID)
	if err != nil {
		return "", err
	}

	// 将任务加入队列
	taskID, err := r.taskQueue.Enqueue(ctx, taskType, submissionID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	// 更新提交状态为处理中，并记录当前任务
	err = r.db.Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Updates(map[string]interface{}{
			"status":          models.SubStatusProcessing,
			"current_task_id": taskID,
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		// 记录错误但继续，因为任务已创建
		r.logger.WithError(err).Warn("failed to update submission status after enqueue")
	}

	return taskID, nil
}

// UpdateTaskStatus 更新任务状态
func (r *submissionRepo) UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	// 获取任务信息
	task, err := r.taskQueue.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	// 更新任务状态
	if err := r.taskQueue.UpdateTaskStatus(ctx, taskID, status, result, errorMsg); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	// 通知任务状态更新
	if err := r.taskQueue.NotifyTaskUpdate(ctx, taskID); err != nil {
		// 记录错误但继续，通知失败不是致命错误
		r.logger.WithError(err).Warn("failed to notify task update")
	}

	// 根据任务状态更新提交状态
	if task.SubmissionID != "" {
		var subStatus models.SubmissionStatus
		var subError string

		switch status {
		case taskqueue.StatusCompleted:
			subStatus = models.SubStatusCompleted
		case taskqueue.StatusFailed:
			subStatus = models.SubStatusFailed
			subError = errorMsg
		case taskqueue.StatusProcessing:
			subStatus = models.SubStatusProcessing
		default:
			// 对于其他状态，不更新提交状态
			return nil
		}

		// 更新提交状态
		err = r.UpdateStatus(task.SubmissionID, subStatus, subError)
		if err != nil {
			return fmt.Errorf("failed to update submission status: %w", err)
		}
	}

	return nil
}

// DeleteTask 删除任务
func (r *submissionRepo) DeleteTask(ctx context.Context, taskID string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	return r.taskQueue.DeleteTask(ctx, taskID)
}
