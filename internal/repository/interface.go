package repository

import (
	"context"

	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
)

// SubmissionRepository 实验提交仓储接口
// 负责提交元数据和抽取出的代码块的存储和检索
type SubmissionRepository interface {
	// Create 创建提交记录
	Create(sub *models.Submission) error

	// Update 更新提交记录
	Update(sub *models.Submission) error

	// GetByID 根据ID获取提交
	GetByID(id string) (*models.Submission, error)

	// List 列出提交列表，支持分页和筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.Submission, int64, error)

	// Delete 删除提交
	Delete(id string) error

	// UpdateStatus 更新提交状态
	UpdateStatus(id string, status models.SubmissionStatus, errorMsg string) error

	// UpdateStage 更新提交的处理阶段
	UpdateStage(id string, stage models.ProcessStage) error

	// UpdateProgress 更新提交处理进度
	UpdateProgress(id string, progress int) error

	// SaveBlock 保存代码块
	SaveBlock(block *models.CodeBlock) error

	// SaveBlocks 批量保存代码块
	SaveBlocks(blocks []*models.CodeBlock) error

	// GetBlocks 获取提交的所有代码块
	GetBlocks(submissionID string) ([]*models.CodeBlock, error)

	// GetBlockByID 根据代码块ID获取代码块
	GetBlockByID(blockID string) (*models.CodeBlock, error)

	// CountBlocks 统计提交的代码块数量
	CountBlocks(submissionID string) (int, error)

	// DeleteBlocks 删除提交的所有代码块
	DeleteBlocks(submissionID string) error

	// GetSubmissionTasks 获取提交相关的所有任务
	GetSubmissionTasks(ctx context.Context, submissionID string) ([]*taskqueue.Task, error)

	// GetTaskByID 根据ID获取任务
	GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error)

	// CreateTask 创建任务并关联到提交
	CreateTask(ctx context.Context, taskType taskqueue.TaskType, submissionID string, payload interface{}) (string, error)

	// UpdateTaskStatus 更新任务状态并同步提交状态
	UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error

	// DeleteTask 删除任务
	DeleteTask(ctx context.Context, taskID string) error
}
