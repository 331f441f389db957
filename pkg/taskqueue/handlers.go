package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// TaskCallbackHandler 任务回调处理函数类型
// 处理特定类型任务的回调，返回处理结果
type TaskCallbackHandler func(ctx context.Context, task *Task, result json.RawMessage) error

// CallbackProcessor 回调处理器
// 负责接收和处理任务回调
type CallbackProcessor struct {
	queue     Queue                            // 任务队列
	handlers  map[TaskType]TaskCallbackHandler // 任务类型对应的处理函数
	defaultFn TaskCallbackHandler              // 默认处理函数
	logger    *logrus.Logger                   // 日志记录器
}

// NewCallbackProcessor 创建新的回调处理器
func NewCallbackProcessor(queue Queue, logger *logrus.Logger) *CallbackProcessor {
	if logger == nil {
		logger = logrus.New()
	}

	return &CallbackProcessor{
		queue:    queue,
		handlers: make(map[TaskType]TaskCallbackHandler),
		logger:   logger,
	}
}

// RegisterHandler 注册特定类型的任务处理函数
func (p *CallbackProcessor) RegisterHandler(taskType TaskType, handler TaskCallbackHandler) {
	p.handlers[taskType] = handler
	p.logger.Infof("Registered handler for task type: %s", taskType)
}

// SetDefaultHandler 设置默认处理函数
func (p *CallbackProcessor) SetDefaultHandler(handler TaskCallbackHandler) {
	p.defaultFn = handler
}

// ProcessCallback 处理回调数据
func (p *CallbackProcessor) ProcessCallback(ctx context.Context, callbackData []byte) error {
	// 解析回调数据
	var callback TaskCallback
	if err := json.Unmarshal(callbackData, &callback); err != nil {
		return fmt.Errorf("failed to unmarshal callback data: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"task_id":       callback.TaskID,
		"submission_id": callback.SubmissionID,
		"status":        callback.Status,
		"type":          callback.Type,
	}).Info("Processing task callback")

	// 获取任务
	task, err := p.queue.GetTask(ctx, callback.TaskID)
	if err != nil {
		p.logger.WithError(err).Errorf("Failed to get task: %s", callback.TaskID)
		return fmt.Errorf("failed to get task: %w", err)
	}

	// 更新任务状态
	err = p.queue.UpdateTaskStatus(ctx, callback.TaskID, callback.Status, callback.Result, callback.Error)
	if err != nil {
		p.logger.WithError(err).Errorf("Failed to update task status: %s", callback.TaskID)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	// 通知状态更新
	if err := p.queue.NotifyTaskUpdate(ctx, callback.TaskID); err != nil {
		// 继续处理，不返回错误
	}

	// 如果任务失败，记录错误且不调用处理函数
	if callback.Status == StatusFailed {
		p.logger.WithFields(logrus.Fields{
			"task_id": callback.TaskID,
			"error":   callback.Error,
		}).Error("Task failed")
		return nil
	}

	// 找到对应的处理函数
	handlerType := TaskType(callback.Type) // 将字符串转换为TaskType
	handler, exists := p.handlers[handlerType]
	if !exists {
		handler = p.defaultFn
		p.logger.WithField("type", callback.Type).Info("No handler registered for task type: " + string(callback.Type))
	}

	// 如果没有处理函数，直接返回
	if handler == nil {
		p.logger.Debug("No handler available for task type: " + string(callback.Type))
		return nil
	}

	// 调用处理函数
	p.logger.Debugf("Calling handler for task: %s (type: %s)", task.ID, task.Type)
	return handler(ctx, task, callback.Result)
}

// CallbackRequest HTTP回调请求结构体
type CallbackRequest struct {
	TaskID       string          `json:"task_id"`       // 任务ID
	SubmissionID string          `json:"submission_id"` // 提交ID
	Status       TaskStatus      `json:"status"`        // 任务状态
	Type         TaskType        `json:"type"`          // 任务类型
	Result       json.RawMessage `json:"result"`        // 任务结果
	Error        string          `json:"error"`         // 错误信息
	Timestamp    string          `json:"timestamp"`     // 时间戳
}

// CallbackResponse HTTP回调响应结构体
type CallbackResponse struct {
	Success   bool   `json:"success"`           // 是否成功
	Message   string `json:"message,omitempty"` // 消息
	TaskID    string `json:"task_id"`           // 任务ID
	Timestamp string `json:"timestamp"`         // 时间戳
}

// HandleCallback 处理HTTP回调请求
func (p *CallbackProcessor) HandleCallback(ctx context.Context, req *CallbackRequest) (*CallbackResponse, error) {
	// 记录返回的回调信息
	p.logger.WithFields(logrus.Fields{
		"task_id":       req.TaskID,
		"submission_id": req.SubmissionID,
		"status":        req.Status,
		"type":          req.Type,
	}).Info("Received callback request")

	// 使用不同的时间格式解析时间戳，以兼容外部处理服务的时间格式
	var timestamp time.Time
	if req.Timestamp != "" {
		formats := []string{
			time.RFC3339,                 // 2006-01-02T15:04:05Z07:00
			"2006-01-02T15:04:05Z",       // 带Z的UTC时间
			"2006-01-02T15:04:05.999999", // 带毫秒不带时区
			"2006-01-02T15:04:05",        // 不带时区
		}

		var parseErr error
		for _, format := range formats {
			timestamp, parseErr = time.Parse(format, req.Timestamp)
			if parseErr == nil {
				break
			}
		}

		if parseErr != nil {
			// 如果解析失败，使用当前时间并记录警告
			p.logger.WithFields(logrus.Fields{
				"timestamp": req.Timestamp,
				"error":     parseErr,
			}).Warn("Failed to parse timestamp, using current time")
			timestamp = time.Now()
		}
	} else {
		// 如果没有提供时间戳，使用当前时间
		timestamp = time.Now()
	}

	// 创建回调对象
	callback := &TaskCallback{
		TaskID:       req.TaskID,
		SubmissionID: req.SubmissionID,
		Status:       req.Status,
		Type:         req.Type,
		Result:       req.Result,
		Error:        req.Error,
		Timestamp:    timestamp,
	}

	callbackData, err := json.Marshal(callback)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal callback data")
		return &CallbackResponse{
			Success:   false,
			Message:   fmt.Sprintf("failed to marshal callback: %v", err),
			TaskID:    req.TaskID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, err
	}

	// 处理回调
	err = p.ProcessCallback(ctx, callbackData)
	if err != nil {
		p.logger.WithError(err).Error("Failed to process callback")
		return &CallbackResponse{
			Success:   false,
			Message:   err.Error(),
			TaskID:    req.TaskID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, err
	}

	return &CallbackResponse{
		Success:   true,
		Message:   "Task callback processed successfully",
		TaskID:    req.TaskID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// DefaultSubmissionParseHandler 默认的提交解析回调处理函数
// 处理完成后创建代码块抽样任务
func DefaultSubmissionParseHandler(ctx context.Context, queue Queue, logger *logrus.Logger) TaskCallbackHandler {
	return func(ctx context.Context, task *Task, result json.RawMessage) error {
		// 解析结果
		var parseResult SubmissionParseResult
		if err := json.Unmarshal(result, &parseResult); err != nil {
			logger.WithError(err).Error("Failed to unmarshal submission parse result")
			return fmt.Errorf("failed to unmarshal submission parse result: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"task_id":       task.ID,
			"submission_id": task.SubmissionID,
			"language":      parseResult.Language,
			"lines":         parseResult.Lines,
		}).Info("Submission parse completed")

		// 如果代码内容为空，不创建后续任务
		if parseResult.Content == "" {
			logger.Warn("Empty submission content, skipping block sample task")
			return nil
		}

		// 创建代码块抽样任务
		samplePayload := BlockSamplePayload{
			SubmissionID: task.SubmissionID,
			Content:      parseResult.Content,
			MaxLines:     8, // 默认代码块最大行数
			Count:        3, // 默认抽取数量
		}

		// 将任务加入队列
		taskID, err := queue.Enqueue(ctx, TaskBlockSample, task.SubmissionID, samplePayload)
		if err != nil {
			logger.WithError(err).Error("Failed to enqueue block sample task")
			return fmt.Errorf("failed to enqueue block sample task: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"submission_id":  task.SubmissionID,
			"sample_task_id": taskID,
		}).Info("Created block sample task")

		return nil
	}
}

// DefaultBlockSampleHandler 默认的代码块抽样回调处理函数
// 处理完成后创建问题生成任务
func DefaultBlockSampleHandler(ctx context.Context, queue Queue, logger *logrus.Logger) TaskCallbackHandler {
	return func(ctx context.Context, task *Task, result json.RawMessage) error {
		// 解析结果
		var sampleResult BlockSampleResult
		if err := json.Unmarshal(result, &sampleResult); err != nil {
			logger.WithError(err).Error("Failed to unmarshal block sample result")
			return fmt.Errorf("failed to unmarshal block sample result: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"task_id":       task.ID,
			"submission_id": task.SubmissionID,
			"block_count":   sampleResult.BlockCount,
		}).Info("Block sampling completed")

		// 如果没有抽到代码块，不创建问题生成任务
		if len(sampleResult.Blocks) == 0 {
			logger.Warn("No code blocks sampled, skipping question generation")
			return nil
		}

		// 创建问题生成任务
		generatePayload := QuestionGeneratePayload{
			SubmissionID: task.SubmissionID,
			Blocks:       sampleResult.Blocks,
			Model:        "default", // 默认大模型
			PerBlock:     2,         // 每块默认问题数
		}

		// 将任务加入队列
		taskID, err := queue.Enqueue(ctx, TaskQuestionGenerate, task.SubmissionID, generatePayload)
		if err != nil {
			logger.WithError(err).Error("Failed to enqueue question generate task")
			return fmt.Errorf("failed to enqueue question generate task: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"submission_id":    task.SubmissionID,
			"generate_task_id": taskID,
			"block_count":      len(sampleResult.Blocks),
		}).Info("Created question generation task")

		return nil
	}
}

// DefaultQuestionGenerateHandler 默认的问题生成回调处理函数
// 问题生成是任务流程的最后一步，处理完成后更新提交状态
func DefaultQuestionGenerateHandler(ctx context.Context, queue Queue, logger *logrus.Logger) TaskCallbackHandler {
	return func(ctx context.Context, task *Task, result json.RawMessage) error {
		// 解析结果
		var generateResult QuestionGenerateResult
		if err := json.Unmarshal(result, &generateResult); err != nil {
			logger.WithError(err).Error("Failed to unmarshal question generate result")
			return fmt.Errorf("failed to unmarshal question generate result: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"task_id":        task.ID,
			"submission_id":  task.SubmissionID,
			"question_count": generateResult.QuestionCount,
			"model":          generateResult.Model,
		}).Info("Question generation completed")

		// 问题的持久化与向量索引由服务层注册的处理函数完成
		// 此处仅提供回调框架

		return nil
	}
}

// DefaultProcessCompleteHandler 默认的完整处理流程回调处理函数
func DefaultProcessCompleteHandler(ctx context.Context, queue Queue, logger *logrus.Logger) TaskCallbackHandler {
	return func(ctx context.Context, task *Task, result json.RawMessage) error {
		// 解析结果
		var completeResult ProcessCompleteResult
		if err := json.Unmarshal(result, &completeResult); err != nil {
			logger.WithError(err).Error("Failed to unmarshal process complete result")
			return fmt.Errorf("failed to unmarshal process complete result: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"task_id":         task.ID,
			"submission_id":   task.SubmissionID,
			"block_count":     completeResult.BlockCount,
			"question_count":  completeResult.QuestionCount,
			"parse_status":    completeResult.ParseStatus,
			"sample_status":   completeResult.SampleStatus,
			"generate_status": completeResult.GenerateStatus,
		}).Info("Submission processing completed")

		// 完整流程的结果处理由服务层注册的处理函数完成

		return nil
	}
}

// RegisterDefaultHandlers 注册默认的任务处理函数
func (p *CallbackProcessor) RegisterDefaultHandlers(queue Queue) {
	p.RegisterHandler(TaskSubmissionParse, DefaultSubmissionParseHandler(context.Background(), queue, p.logger))
	p.RegisterHandler(TaskBlockSample, DefaultBlockSampleHandler(context.Background(), queue, p.logger))
	p.RegisterHandler(TaskQuestionGenerate, DefaultQuestionGenerateHandler(context.Background(), queue, p.logger))
	p.RegisterHandler(TaskProcessComplete, DefaultProcessCompleteHandler(context.Background(), queue, p.logger))

	p.logger.Info("Registered default task handlers")
}

func (p *CallbackProcessor) GetRegisteredHandlerTypes() map[TaskType]bool {
	result := make(map[TaskType]bool)
	for handlerType := range p.handlers {
		result[handlerType] = true
	}
	return result
}
