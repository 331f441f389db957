package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/Ccode104/Lab-Assistant/internal/sampler"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// AsyncSubmissionOptions 异步提交处理的选项
type AsyncSubmissionOptions struct {
	MaxLines int               // 单个代码块的最大行数
	Count    int               // 采样的代码块数量
	PerBlock int               // 每个代码块生成的问题数
	Model    string            // 大模型名称
	Metadata map[string]string // 元数据
	Priority string            // 任务优先级
}

// DefaultAsyncOptions 返回默认的异步处理选项
func DefaultAsyncOptions() *AsyncSubmissionOptions {
	return &AsyncSubmissionOptions{
		MaxLines: sampler.DefaultMaxLines,
		Count:    3,
		PerBlock: 2,
		Model:    "default",
		Priority: "default",
		Metadata: make(map[string]string), // 初始化一个空map，避免nil错误
	}
}

// EnableAsyncProcessing 启用异步处理
func (s *SubmissionService) EnableAsyncProcessing(queue taskqueue.Queue) {
	s.asyncEnabled = true
	s.taskQueue = queue

	// 确保重要依赖已设置
	if s.statusManager == nil {
		s.logger.Warn("Status manager not set, creating default one")
		if s.repo == nil {
			s.repo = s.createDefaultRepository()
		}
		s.statusManager = NewSubmissionStatusManager(s.repo, s.logger)
	}
	if s.questionRepo == nil {
		s.questionRepo = repository.NewQuestionRepository()
	}

	// 使用全局数据库连接和新的队列重建仓储，让任务操作与提交状态联动
	s.repo = repository.NewSubmissionRepositoryWithQueue(database.DB, queue)

	// 注册任务回调处理器
	s.registerTaskHandlers()

	s.logger.Info("Async submission processing enabled")
}

// DisableAsyncProcessing 禁用异步处理
func (s *SubmissionService) DisableAsyncProcessing() {
	s.asyncEnabled = false
	s.logger.Info("Async submission processing disabled")
}

// IsAsyncEnabled 返回是否启用了异步处理
func (s *SubmissionService) IsAsyncEnabled() bool {
	return s.asyncEnabled && s.taskQueue != nil
}

// processSubmissionAsync 异步处理提交
// 将完整处理任务加入队列并立即返回
func (s *SubmissionService) processSubmissionAsync(ctx context.Context, submissionID string, filePath string, options *AsyncSubmissionOptions) error {
	s.logger.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"file_path":     filePath,
	}).Info("Enqueuing submission for async processing")

	if !s.asyncEnabled || s.taskQueue == nil {
		return fmt.Errorf("async processing not enabled or task queue not configured")
	}

	// 确保有选项
	if options == nil {
		options = DefaultAsyncOptions()
	}

	// 更新提交状态为处理中
	if err := s.statusManager.MarkAsProcessing(ctx, submissionID); err != nil {
		s.logger.WithError(err).Error("Failed to mark submission as processing")
		return fmt.Errorf("failed to update submission status: %w", err)
	}

	// 创建处理任务载荷
	fileName := filepath.Base(filePath)
	fileType := filepath.Ext(fileName)
	if fileType != "" && fileType[0] == '.' {
		fileType = fileType[1:] // 去掉开头的点号
	}

	// 提交记录上的语言信息随任务下发
	language := ""
	if sub, err := s.statusManager.GetSubmission(ctx, submissionID); err == nil {
		language = sub.Language
	}

	payload := taskqueue.ProcessCompletePayload{
		SubmissionID: submissionID,
		FilePath:     filePath,
		FileName:     fileName,
		FileType:     fileType,
		Language:     language,
		MaxLines:     options.MaxLines,
		Count:        options.Count,
		PerBlock:     options.PerBlock,
		Model:        options.Model,
		Metadata:     options.Metadata,
	}

	// 创建任务
	taskID, err := s.repo.CreateTask(ctx, taskqueue.TaskProcessComplete, submissionID, payload)
	if err != nil {
		s.failSubmission(ctx, submissionID, fmt.Sprintf("failed to create processing task: %v", err))
		return fmt.Errorf("failed to create processing task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"task_id":       taskID,
	}).Info("Submission processing task created successfully")

	return nil
}

// ProcessSubmissionAsync 异步处理提交
func (s *SubmissionService) ProcessSubmissionAsync(ctx context.Context, submissionID string, filePath string, opts ...AsyncOption) error {
	options := DefaultAsyncOptions()

	// 应用选项
	for _, opt := range opts {
		opt(options)
	}

	return s.processSubmissionAsync(ctx, submissionID, filePath, options)
}

// AsyncOption 异步选项函数类型
type AsyncOption func(*AsyncSubmissionOptions)

// WithMaxBlockLines 设置单个代码块的最大行数
func WithMaxBlockLines(maxLines int) AsyncOption {
	return func(o *AsyncSubmissionOptions) {
		o.MaxLines = maxLines
	}
}

// WithBlockCount 设置采样的代码块数量
func WithBlockCount(count int) AsyncOption {
	return func(o *AsyncSubmissionOptions) {
		o.Count = count
	}
}

// WithQuestionsPerBlock 设置每个代码块生成的问题数
func WithQuestionsPerBlock(perBlock int) AsyncOption {
	return func(o *AsyncSubmissionOptions) {
		o.PerBlock = perBlock
	}
}

// WithQuestionModel 设置出题使用的大模型名称
func WithQuestionModel(model string) AsyncOption {
	return func(o *AsyncSubmissionOptions) {
		o.Model = model
	}
}

// WithMetadata 设置元数据
func WithMetadata(metadata map[string]string) AsyncOption {
	return func(o *AsyncSubmissionOptions) {
		o.Metadata = metadata
	}
}

// WithPriority 设置任务优先级
func WithPriority(priority string) AsyncOption {
	return func(o *AsyncSubmissionOptions) {
		o.Priority = priority
	}
}

// registerTaskHandlers 注册任务回调处理器
// 回调来自外部处理节点通过回调接口上报的任务结果
func (s *SubmissionService) registerTaskHandlers() {
	if s.taskQueue == nil {
		s.logger.Warn("Task queue not available, cannot register handlers")
		return
	}

	// 获取共享处理器
	processor := taskqueue.GetSharedCallbackProcessor(s.taskQueue, s.logger)

	// 注册提交解析任务处理器
	processor.RegisterHandler(taskqueue.TaskSubmissionParse, s.handleSubmissionParseResult)

	// 注册代码块采样任务处理器
	processor.RegisterHandler(taskqueue.TaskBlockSample, s.handleBlockSampleResult)

	// 注册问题生成任务处理器
	processor.RegisterHandler(taskqueue.TaskQuestionGenerate, s.handleQuestionGenerateResult)

	// 注册完整流程任务处理器
	processor.RegisterHandler(taskqueue.TaskProcessComplete, s.handleProcessCompleteResult)

	s.logger.Info("Registered task handlers")
}

// handleSubmissionParseResult 处理提交解析任务结果
func (s *SubmissionService) handleSubmissionParseResult(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
	s.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"submission_id": task.SubmissionID,
	}).Info("Handling submission parse result")

	// 解析结果
	var parseResult taskqueue.SubmissionParseResult
	if err := json.Unmarshal(result, &parseResult); err != nil {
		return fmt.Errorf("failed to unmarshal submission parse result: %w", err)
	}

	// 更新提交处理进度
	if err := s.statusManager.UpdateProgress(ctx, task.SubmissionID, 30); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission progress")
	}

	// 检查内容是否为空
	if parseResult.Content == "" {
		err := fmt.Errorf("empty submission content")
		_ = s.statusManager.MarkAsFailed(ctx, task.SubmissionID, err.Error())
		return err
	}

	// 记录代码行数
	if parseResult.Lines > 0 {
		if sub, err := s.statusManager.GetSubmission(ctx, task.SubmissionID); err == nil {
			sub.LineCount = parseResult.Lines
			if err := s.repo.Update(sub); err != nil {
				s.logger.WithError(err).Warn("Failed to update submission line count")
			}
		}
	}

	return nil
}

// handleBlockSampleResult 处理代码块采样任务结果
func (s *SubmissionService) handleBlockSampleResult(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
	s.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"submission_id": task.SubmissionID,
	}).Info("Handling block sample result")

	// 解析结果
	var sampleResult taskqueue.BlockSampleResult
	if err := json.Unmarshal(result, &sampleResult); err != nil {
		return fmt.Errorf("failed to unmarshal block sample result: %w", err)
	}

	// 检查处理状态
	if sampleResult.Error != "" {
		_ = s.statusManager.MarkAsFailed(ctx, task.SubmissionID, sampleResult.Error)
		return fmt.Errorf("block sampling failed: %s", sampleResult.Error)
	}

	// 将采样出的代码块入库
	if len(sampleResult.Blocks) > 0 {
		if err := s.saveBlocksFromResult(task, sampleResult.Blocks); err != nil {
			s.logger.WithError(err).Error("Failed to save sampled blocks")
			return err
		}
	}

	// 更新提交处理进度，进入出题阶段
	if err := s.statusManager.UpdateProgress(ctx, task.SubmissionID, 60); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, task.SubmissionID, models.StageGenerating); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission stage")
	}

	return nil
}

// handleQuestionGenerateResult 处理问题生成任务结果
func (s *SubmissionService) handleQuestionGenerateResult(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
	s.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"submission_id": task.SubmissionID,
	}).Info("Handling question generate result")

	// 解析结果
	var generateResult taskqueue.QuestionGenerateResult
	if err := json.Unmarshal(result, &generateResult); err != nil {
		return fmt.Errorf("failed to unmarshal question generate result: %w", err)
	}

	// 检查处理状态
	if generateResult.Error != "" {
		_ = s.statusManager.MarkAsFailed(ctx, task.SubmissionID, generateResult.Error)
		return fmt.Errorf("question generation failed: %s", generateResult.Error)
	}

	// 保存问题并写入向量索引
	if len(generateResult.Questions) > 0 {
		questions, err := s.saveQuestionsFromResult(task.SubmissionID, generateResult.Questions)
		if err != nil {
			s.logger.WithError(err).Error("Failed to save generated questions")
			return err
		}

		// 向量化失败只影响语义搜索，不影响提交处理结果
		if err := s.indexQuestions(ctx, task.SubmissionID, questions); err != nil {
			s.logger.WithError(err).Warn("Failed to index questions, semantic search degraded")
		}
	}

	// 更新提交完成状态
	blockCount, err := s.repo.CountBlocks(task.SubmissionID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count submission blocks")
	}
	if err := s.statusManager.MarkAsCompleted(ctx, task.SubmissionID, blockCount, generateResult.QuestionCount); err != nil {
		s.logger.WithError(err).Error("Failed to mark submission as completed")
		return err
	}

	return nil
}

// handleProcessCompleteResult 处理完整流程任务结果
func (s *SubmissionService) handleProcessCompleteResult(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
	s.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"submission_id": task.SubmissionID,
	}).Info("Handling process complete result")

	// 解析结果
	var completeResult taskqueue.ProcessCompleteResult
	if err := json.Unmarshal(result, &completeResult); err != nil {
		return fmt.Errorf("failed to unmarshal process complete result: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id":   task.SubmissionID,
		"block_count":     completeResult.BlockCount,
		"question_count":  completeResult.QuestionCount,
		"parse_status":    completeResult.ParseStatus,
		"sample_status":   completeResult.SampleStatus,
		"generate_status": completeResult.GenerateStatus,
	}).Info("Submission processing completed")

	// 检查处理状态
	if completeResult.Error != "" {
		s.logger.WithFields(logrus.Fields{
			"submission_id": task.SubmissionID,
			"error":         completeResult.Error,
		}).Error("Submission processing failed")

		// 标记提交为失败状态
		if err := s.statusManager.MarkAsFailed(ctx, task.SubmissionID, completeResult.Error); err != nil {
			s.logger.WithError(err).Error("Failed to mark submission as failed")
		}
		return fmt.Errorf("submission processing failed: %s", completeResult.Error)
	}

	// 出题是检查流程的核心环节，失败时提交不能进入完成状态
	if completeResult.GenerateStatus == "failed" {
		errMsg := "question generation failed"
		if err := s.statusManager.MarkAsFailed(ctx, task.SubmissionID, errMsg); err != nil {
			s.logger.WithError(err).Error("Failed to mark submission as failed")
		}
		return fmt.Errorf("submission processing failed: %s", errMsg)
	}

	// 如果结果中附带了问题数据，先入库
	if len(completeResult.Questions) > 0 {
		questions, err := s.saveQuestionsFromResult(task.SubmissionID, completeResult.Questions)
		if err != nil {
			s.logger.WithError(err).Error("Failed to save generated questions")
			// 继续处理，不影响提交完成状态
		} else if err := s.indexQuestions(ctx, task.SubmissionID, questions); err != nil {
			s.logger.WithError(err).Warn("Failed to index questions, semantic search degraded")
		}
	}

	// 解析和采样都成功时，标记提交为已完成
	if completeResult.ParseStatus == "completed" && completeResult.SampleStatus == "completed" {
		if err := s.statusManager.MarkAsCompleted(ctx, task.SubmissionID, completeResult.BlockCount, completeResult.QuestionCount); err != nil {
			s.logger.WithError(err).Error("Failed to mark submission as completed")
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id":  task.SubmissionID,
		"block_count":    completeResult.BlockCount,
		"question_count": completeResult.QuestionCount,
	}).Info("Submission processing completed successfully")

	return nil
}

// saveBlocksFromResult 将任务结果中的代码块保存到数据库
func (s *SubmissionService) saveBlocksFromResult(task *taskqueue.Task, blocks []taskqueue.BlockInfo) error {
	dbBlocks := make([]*models.CodeBlock, 0, len(blocks))
	for _, block := range blocks {
		// 检查代码块数据有效性
		if block.Text == "" || block.StartLine < 1 {
			s.logger.WithFields(logrus.Fields{
				"block_id":      block.BlockID,
				"submission_id": task.SubmissionID,
			}).Warn("Invalid block data, skipping")
			continue
		}

		blockID := block.BlockID
		if blockID == "" {
			blockID = fmt.Sprintf("%s_b%d", task.SubmissionID, block.Index)
		}

		dbBlocks = append(dbBlocks, &models.CodeBlock{
			SubmissionID: task.SubmissionID,
			BlockID:      blockID,
			Position:     block.Index,
			StartLine:    block.StartLine,
			EndLine:      block.EndLine,
			Text:         block.Text,
			Source:       block.Source,
			TaskID:       task.ID,
		})
	}

	if len(dbBlocks) == 0 {
		return nil
	}

	if err := s.repo.SaveBlocks(dbBlocks); err != nil {
		return fmt.Errorf("failed to save code blocks: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id": task.SubmissionID,
		"block_count":   len(dbBlocks),
	}).Info("Sampled blocks saved to database")

	return nil
}

// saveQuestionsFromResult 将任务结果中的问题保存到数据库
func (s *SubmissionService) saveQuestionsFromResult(submissionID string, infos []taskqueue.QuestionInfo) ([]*models.QuizQuestion, error) {
	questions := make([]*models.QuizQuestion, 0, len(infos))
	positions := make(map[string]int)

	for _, info := range infos {
		if info.Text == "" || info.QuestionID == "" {
			s.logger.WithFields(logrus.Fields{
				"question_id":   info.QuestionID,
				"submission_id": submissionID,
			}).Warn("Invalid question data, skipping")
			continue
		}

		difficulty := models.QuestionDifficulty(info.Difficulty)
		if difficulty != models.DifficultyBasic && difficulty != models.DifficultyDeep {
			difficulty = models.DifficultyBasic
		}

		// 问题在所属代码块内按到达顺序编号
		blockID := fmt.Sprintf("%s_b%d", submissionID, info.BlockIndex)
		position := positions[blockID]
		positions[blockID] = position + 1

		questions = append(questions, &models.QuizQuestion{
			QuestionID:   info.QuestionID,
			SubmissionID: submissionID,
			BlockID:      blockID,
			Position:     position,
			Text:         info.Text,
			Difficulty:   difficulty,
			VectorID:     info.QuestionID,
		})
	}

	if len(questions) == 0 {
		return nil, nil
	}

	if err := s.questionRepo.SaveQuestions(questions); err != nil {
		return nil, fmt.Errorf("failed to save questions: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id":  submissionID,
		"question_count": len(questions),
	}).Info("Generated questions saved to database")

	return questions, nil
}

// createDefaultRepository 创建默认的提交仓储
func (s *SubmissionService) createDefaultRepository() repository.SubmissionRepository {
	return repository.NewSubmissionRepository()
}

// WaitForTaskResult 等待任务完成并返回结果
func (s *SubmissionService) WaitForTaskResult(ctx context.Context, taskID string, timeout time.Duration) (*taskqueue.Task, error) {
	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, fmt.Errorf("async processing not enabled or task queue not configured")
	}

	// 设置超时上下文
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 等待任务完成
	task, err := s.taskQueue.WaitForTask(ctx, taskID, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for task: %w", err)
	}

	// 检查任务状态
	if task.Status == taskqueue.StatusFailed {
		return task, fmt.Errorf("task failed: %s", task.Error)
	}

	return task, nil
}
