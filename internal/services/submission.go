package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/document"
	"github.com/Ccode104/Lab-Assistant/internal/embedding"
	"github.com/Ccode104/Lab-Assistant/internal/llm"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/Ccode104/Lab-Assistant/internal/sampler"
	"github.com/Ccode104/Lab-Assistant/internal/vectordb"
	"github.com/Ccode104/Lab-Assistant/pkg/storage"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubmissionService 实验提交服务
// 负责协调提交解析、代码块采样、问题生成和入库
type SubmissionService struct {
	storage       storage.Storage                 // 文件存储服务
	parser        document.Parser                 // 兜底解析器，扩展名无法识别时使用
	splitter      *document.TextSplitter          // 文本分行器
	sampler       *sampler.BlockSampler           // 代码块采样器
	generator     *llm.Generator                  // 检查问题生成器
	embedder      embedding.Client                // 嵌入模型客户端
	vectorDB      vectordb.Repository             // 向量数据库
	repo          repository.SubmissionRepository // 提交元数据存储
	questionRepo  repository.QuestionRepository   // 问题存储
	statusManager *SubmissionStatusManager        // 提交状态管理器
	taskQueue     taskqueue.Queue                 // 任务队列
	asyncEnabled  bool                            // 是否启用异步处理
	sampleCount   int                             // 每份提交采样的代码块数量
	batchSize     int                             // 问题向量化的批处理大小
	difficulty    models.QuestionDifficulty       // 生成问题的难度标记
	timeout       time.Duration                   // 处理超时时间
	logger        *logrus.Logger                  // 日志记录器
}

// SubmissionOption 提交服务配置选项
type SubmissionOption func(*SubmissionService)

// NewSubmissionService 创建一个新的提交服务
func NewSubmissionService(
	storage storage.Storage,
	parser document.Parser,
	splitter *document.TextSplitter,
	blockSampler *sampler.BlockSampler,
	generator *llm.Generator,
	embedder embedding.Client,
	vectorDB vectordb.Repository,
	opts ...SubmissionOption,
) *SubmissionService {
	// 创建服务实例
	srv := &SubmissionService{
		storage:      storage,
		parser:       parser,
		splitter:     splitter,
		sampler:      blockSampler,
		generator:    generator,
		embedder:     embedder,
		vectorDB:     vectorDB,
		sampleCount:  3,                      // 默认采样3个代码块
		batchSize:    16,                     // 默认批处理大小
		difficulty:   models.DifficultyBasic, // 默认生成基础题
		timeout:      time.Minute * 5,        // 默认超时时间
		logger:       logrus.New(),           // 默认日志记录器
		asyncEnabled: false,                  // 默认不启用异步处理
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithSampleCount 设置每份提交采样的代码块数量
func WithSampleCount(count int) SubmissionOption {
	return func(s *SubmissionService) {
		if count > 0 {
			s.sampleCount = count
		}
	}
}

// WithBatchSize 设置批处理大小
func WithBatchSize(size int) SubmissionOption {
	return func(s *SubmissionService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithQuestionDifficulty 设置生成问题的难度标记
func WithQuestionDifficulty(difficulty models.QuestionDifficulty) SubmissionOption {
	return func(s *SubmissionService) {
		s.difficulty = difficulty
	}
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) SubmissionOption {
	return func(s *SubmissionService) {
		s.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) SubmissionOption {
	return func(s *SubmissionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSubmissionRepository 设置提交仓储
func WithSubmissionRepository(repo repository.SubmissionRepository) SubmissionOption {
	return func(s *SubmissionService) {
		s.repo = repo
	}
}

// WithQuestionRepository 设置问题仓储
func WithQuestionRepository(repo repository.QuestionRepository) SubmissionOption {
	return func(s *SubmissionService) {
		s.questionRepo = repo
	}
}

// WithStatusManager 设置状态管理器
func WithStatusManager(manager *SubmissionStatusManager) SubmissionOption {
	return func(s *SubmissionService) {
		s.statusManager = manager
	}
}

// WithTaskQueue 设置任务队列
func WithTaskQueue(queue taskqueue.Queue) SubmissionOption {
	return func(s *SubmissionService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// WithAsyncProcessing 设置是否启用异步处理
func WithAsyncProcessing(enabled bool) SubmissionOption {
	return func(s *SubmissionService) {
		s.asyncEnabled = enabled
	}
}

// Init 初始化提交服务
// 确保必要的依赖都已设置
func (s *SubmissionService) Init() error {
	// 如果没有设置仓储，创建默认仓储
	if s.repo == nil {
		s.repo = repository.NewSubmissionRepository()
	}

	// 如果没有设置问题仓储，创建默认问题仓储
	if s.questionRepo == nil {
		s.questionRepo = repository.NewQuestionRepository()
	}

	// 如果没有设置状态管理器，创建默认状态管理器
	if s.statusManager == nil {
		s.statusManager = NewSubmissionStatusManager(s.repo, s.logger)
	}

	return nil
}

// ProcessSubmission 处理提交(解析、采样、出题、入库)
func (s *SubmissionService) ProcessSubmission(ctx context.Context, submissionID string, filePath string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"file_path":     filePath,
	}).Info("Starting submission processing")

	// 检查输入参数
	if submissionID == "" {
		return errors.New("submissionID cannot be empty")
	}
	if filePath == "" {
		return errors.New("filePath cannot be empty")
	}

	// 如果启用异步处理并且任务队列已配置，使用任务队列处理
	if s.asyncEnabled && s.taskQueue != nil {
		return s.processSubmissionAsync(ctx, submissionID, filePath, DefaultAsyncOptions())
	}

	// 否则，使用同步方式处理
	return s.processSubmissionSync(ctx, submissionID, filePath)
}

// processSubmissionSync 同步处理提交
// 直接在当前进程中完成解析、采样和出题
func (s *SubmissionService) processSubmissionSync(ctx context.Context, submissionID string, filePath string) error {
	// 设置上下文超时
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// 更新提交状态为处理中
	if err := s.statusManager.MarkAsProcessing(ctx, submissionID); err != nil {
		s.logger.WithError(err).Error("Failed to mark submission as processing")
		// 继续处理，不中断
	}

	// 解析提交内容
	content, err := s.parseSubmission(filePath)
	if err != nil {
		s.failSubmission(ctx, submissionID, fmt.Sprintf("failed to parse submission: %v", err))
		return fmt.Errorf("failed to parse submission: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		s.failSubmission(ctx, submissionID, "submission content is empty")
		return errors.New("submission content is empty")
	}

	// 拆分代码行并记录行数
	lines := s.splitter.Lines(content)
	if sub, err := s.statusManager.GetSubmission(ctx, submissionID); err == nil {
		sub.LineCount = len(lines)
		if err := s.repo.Update(sub); err != nil {
			s.logger.WithError(err).Warn("Failed to update submission line count")
		}
	}

	// 更新进度到20%，进入采样阶段
	if err := s.statusManager.UpdateProgress(ctx, submissionID, 20); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, submissionID, models.StageSampling); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission stage")
	}

	// 采样代码块并入库
	blocks := s.sampleBlocks(lines)
	dbBlocks := make([]*models.CodeBlock, len(blocks))
	for i, block := range blocks {
		dbBlocks[i] = &models.CodeBlock{
			SubmissionID: submissionID,
			BlockID:      fmt.Sprintf("%s_b%d", submissionID, i),
			Position:     i,
			StartLine:    block.Start + 1,
			EndLine:      block.End,
			Text:         block.Text(),
			Source:       string(block.Source),
		}
	}
	if err := s.repo.SaveBlocks(dbBlocks); err != nil {
		s.failSubmission(ctx, submissionID, fmt.Sprintf("failed to save code blocks: %v", err))
		return fmt.Errorf("failed to save code blocks: %w", err)
	}

	// 更新进度到40%，进入出题阶段
	if err := s.statusManager.UpdateProgress(ctx, submissionID, 40); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, submissionID, models.StageGenerating); err != nil {
		s.logger.WithError(err).Warn("Failed to update submission stage")
	}

	// 为每个代码块生成检查问题
	questions, err := s.generateQuestions(ctx, submissionID, dbBlocks)
	if err != nil {
		s.failSubmission(ctx, submissionID, fmt.Sprintf("failed to generate questions: %v", err))
		return fmt.Errorf("failed to generate questions: %w", err)
	}

	// 问题向量化并写入向量数据库
	// 向量化失败只影响语义搜索，不影响提交处理结果
	if err := s.indexQuestions(ctx, submissionID, questions); err != nil {
		s.logger.WithError(err).Warn("Failed to index questions, semantic search degraded")
	}

	// 提交处理完成，更新状态
	if err := s.statusManager.MarkAsCompleted(ctx, submissionID, len(blocks), len(questions)); err != nil {
		s.logger.WithError(err).Error("Failed to mark submission as completed")
		// 虽然状态更新失败，但提交处理成功，所以不返回错误
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id":  submissionID,
		"block_count":    len(blocks),
		"question_count": len(questions),
	}).Info("Submission processing completed successfully")

	return nil
}

// parseSubmission 解析提交内容
func (s *SubmissionService) parseSubmission(filePath string) (string, error) {
	s.logger.WithField("file_path", filePath).Debug("Parsing submission")

	// 首先尝试从存储获取文件
	fileID := filepath.Base(filePath)
	// 移除扩展名
	fileID = strings.TrimSuffix(fileID, filepath.Ext(fileID))

	// 尝试获取文件
	reader, err := s.storage.Get(fileID)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to get file directly, trying with path")
		// 尝试将整个路径作为ID
		reader, err = s.storage.Get(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to get file from storage: %w", err)
		}
	}
	defer reader.Close()

	// 创建解析器，扩展名无法识别时回退到注入的兜底解析器
	parser, err := document.ParserFactory(filePath)
	if err != nil {
		if s.parser == nil {
			return "", fmt.Errorf("failed to create parser: %w", err)
		}
		parser = s.parser
	}

	// 直接从reader解析提交
	content, err := parser.ParseReader(reader, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse submission: %w", err)
	}

	return content, nil
}

// sampleBlocks 从代码行中采样代码块
func (s *SubmissionService) sampleBlocks(lines []string) []sampler.Block {
	return sampleDistinctBlocks(s.sampler, lines, s.sampleCount)
}

// sampleDistinctBlocks 重复调用采样器并按起始位置去重
// 最多返回count个代码块，候选不足时返回能采到的部分
func sampleDistinctBlocks(smp *sampler.BlockSampler, lines []string, count int) []sampler.Block {
	blocks := make([]sampler.Block, 0, count)
	seen := make(map[int]bool)

	// 候选有限时多次采样可能重复，限制尝试次数避免死循环
	maxAttempts := count * 4
	for attempt := 0; attempt < maxAttempts && len(blocks) < count; attempt++ {
		block := smp.Sample(lines)
		if seen[block.Start] {
			continue
		}
		seen[block.Start] = true
		blocks = append(blocks, block)
	}

	return blocks
}

// generateQuestions 为代码块生成检查问题并入库
func (s *SubmissionService) generateQuestions(ctx context.Context, submissionID string, blocks []*models.CodeBlock) ([]*models.QuizQuestion, error) {
	questions := make([]*models.QuizQuestion, 0, len(blocks)*3)

	for i, block := range blocks {
		// 检查上下文是否已取消
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// 继续处理
		}

		set, err := s.generator.GenerateQuestions(ctx, block.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to generate questions for block %s: %w", block.BlockID, err)
		}

		for j, text := range set.Questions {
			questionID := uuid.New().String()
			questions = append(questions, &models.QuizQuestion{
				QuestionID:   questionID,
				SubmissionID: submissionID,
				BlockID:      block.BlockID,
				Position:     j,
				Text:         text,
				Difficulty:   s.difficulty,
				VectorID:     questionID,
			})
		}

		// 计算并更新进度（40%到80%的范围）
		progress := 40 + int(float64(i+1)/float64(len(blocks))*40)
		if err := s.statusManager.UpdateProgress(ctx, submissionID, progress); err != nil {
			s.logger.WithError(err).Warn("Failed to update submission progress")
		}
	}

	if len(questions) == 0 {
		return nil, errors.New("no questions generated")
	}

	// 批量保存问题
	if err := s.questionRepo.SaveQuestions(questions); err != nil {
		return nil, fmt.Errorf("failed to save questions: %w", err)
	}

	return questions, nil
}

// indexQuestions 将问题向量化并写入向量数据库
// 向量ID与问题ID一致，便于搜索结果回查问题记录
func (s *SubmissionService) indexQuestions(ctx context.Context, submissionID string, questions []*models.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	// 获取提交文件名作为向量元数据
	fileName := ""
	if sub, err := s.statusManager.GetSubmission(ctx, submissionID); err == nil {
		fileName = sub.FileName
	}

	// 按批次向量化并入库
	for i := 0; i < len(questions); i += s.batchSize {
		// 检查上下文是否已取消
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			// 继续处理
		}

		// 计算当前批次结束位置
		end := i + s.batchSize
		if end > len(questions) {
			end = len(questions)
		}
		batch := questions[i:end]

		// 提取问题文本
		texts := make([]string, len(batch))
		for j, q := range batch {
			texts[j] = q.Text
		}

		// 生成向量嵌入
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}

		// 构建向量文档并批量入库
		docs := make([]vectordb.Document, len(batch))
		for j, q := range batch {
			docs[j] = vectordb.Document{
				ID:        q.VectorID,
				FileID:    submissionID,
				FileName:  fileName,
				Position:  q.Position,
				Text:      q.Text,
				Vector:    vectors[j],
				CreatedAt: time.Now(),
				Metadata: map[string]interface{}{
					"block_id":   q.BlockID,
					"difficulty": string(q.Difficulty),
				},
			}
		}

		if err := s.vectorDB.AddBatch(docs); err != nil {
			return fmt.Errorf("failed to store question vectors: %w", err)
		}
	}

	return nil
}

// DeleteSubmission 删除提交及其相关数据
func (s *SubmissionService) DeleteSubmission(ctx context.Context, submissionID string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithField("submission_id", submissionID).Info("Deleting submission")

	// 1. 从向量数据库中删除问题向量
	if err := s.vectorDB.DeleteByFileID(submissionID); err != nil {
		s.logger.WithError(err).Error("Failed to delete question vectors")
		return fmt.Errorf("failed to delete question vectors: %w", err)
	}

	// 2. 从存储中删除文件
	if err := s.storage.Delete(submissionID); err != nil {
		// 文件可能已被删除，记录错误但不中断流程
		s.logger.WithError(err).Warn("Failed to delete file from storage")
	}

	// 3. 如果任务队列已配置，删除相关任务
	if s.taskQueue != nil {
		tasks, err := s.repo.GetSubmissionTasks(ctx, submissionID)
		if err == nil && len(tasks) > 0 {
			for _, task := range tasks {
				if err := s.repo.DeleteTask(ctx, task.ID); err != nil {
					s.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to delete submission task")
				}
			}
		}
	}

	// 4. 删除提交记录，级联删除代码块和问题
	if err := s.statusManager.DeleteSubmission(ctx, submissionID); err != nil {
		s.logger.WithError(err).Error("Failed to delete submission record")
		return fmt.Errorf("failed to delete submission record: %w", err)
	}

	s.logger.WithField("submission_id", submissionID).Info("Submission deleted successfully")
	return nil
}

// GetSubmissionInfo 获取提交信息
func (s *SubmissionService) GetSubmissionInfo(ctx context.Context, submissionID string) (map[string]interface{}, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	// 获取提交状态
	sub, err := s.statusManager.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	// 构建提交信息
	info := map[string]interface{}{
		"submission_id":  sub.ID,
		"filename":       sub.FileName,
		"status":         sub.Status,
		"created_at":     sub.UploadedAt.Format(time.RFC3339),
		"updated_at":     sub.UpdatedAt.Format(time.RFC3339),
		"size":           sub.FileSize,
		"progress":       sub.Progress,
		"line_count":     sub.LineCount,
		"block_count":    sub.BlockCount,
		"question_count": sub.QuestionCount,
	}

	// 学生和实验信息
	if sub.StudentID != "" {
		info["student_id"] = sub.StudentID
	}
	if sub.StudentName != "" {
		info["student_name"] = sub.StudentName
	}
	if sub.LabName != "" {
		info["lab_name"] = sub.LabName
	}
	if sub.Language != "" {
		info["language"] = sub.Language
	}
	if sub.CurrentStage != "" {
		info["stage"] = sub.CurrentStage
	}

	// 如果有错误信息，添加到返回结果
	if sub.Error != "" {
		info["error"] = sub.Error
	}

	// 如果有处理完成时间，添加到返回结果
	if sub.ProcessedAt != nil {
		info["processed_at"] = sub.ProcessedAt.Format(time.RFC3339)
	}

	// 如果有标签，添加到返回结果
	if sub.Tags != "" {
		info["tags"] = sub.Tags
	}

	// 如果启用了异步处理，尝试获取相关任务信息
	if s.asyncEnabled && s.taskQueue != nil {
		tasks, err := s.repo.GetSubmissionTasks(ctx, submissionID)
		if err == nil && len(tasks) > 0 {
			// 添加最近的任务信息
			latestTask := tasks[0]
			for _, task := range tasks {
				if task.UpdatedAt.After(latestTask.UpdatedAt) {
					latestTask = task
				}
			}

			info["task_id"] = latestTask.ID
			info["task_status"] = latestTask.Status
			info["task_created_at"] = latestTask.CreatedAt.Format(time.RFC3339)
			info["task_updated_at"] = latestTask.UpdatedAt.Format(time.RFC3339)

			if latestTask.StartedAt != nil {
				info["task_started_at"] = latestTask.StartedAt.Format(time.RFC3339)
			}
			if latestTask.CompletedAt != nil {
				info["task_completed_at"] = latestTask.CompletedAt.Format(time.RFC3339)
			}
			if latestTask.Error != "" {
				info["task_error"] = latestTask.Error
			}
		}
	}

	return info, nil
}

// GetSubmissionStatus 获取提交处理状态
func (s *SubmissionService) GetSubmissionStatus(ctx context.Context, submissionID string) (models.SubmissionStatus, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return "", err
	}

	return s.statusManager.GetStatus(ctx, submissionID)
}

// GetSubmissionBlocks 获取提交采样出的代码块
func (s *SubmissionService) GetSubmissionBlocks(ctx context.Context, submissionID string) ([]*models.CodeBlock, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	return s.repo.GetBlocks(submissionID)
}

// GetSubmissionTasks 获取提交相关的任务
func (s *SubmissionService) GetSubmissionTasks(ctx context.Context, submissionID string) ([]*taskqueue.Task, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, errors.New("async processing not enabled")
	}

	return s.repo.GetSubmissionTasks(ctx, submissionID)
}

// WaitForSubmissionProcessing 等待提交处理完成
func (s *SubmissionService) WaitForSubmissionProcessing(ctx context.Context, submissionID string, timeout time.Duration) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		// 如果未启用异步处理，直接检查提交状态
		status, err := s.statusManager.GetStatus(ctx, submissionID)
		if err != nil {
			return err
		}
		if status == models.SubStatusFailed {
			return fmt.Errorf("submission processing failed")
		}
		if status != models.SubStatusCompleted {
			return fmt.Errorf("submission not processed")
		}
		return nil
	}

	// 设置上下文超时
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 获取提交相关的任务
	tasks, err := s.repo.GetSubmissionTasks(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission tasks: %w", err)
	}

	if len(tasks) == 0 {
		return fmt.Errorf("no processing tasks found for submission %s", submissionID)
	}

	// 找到最新的处理任务
	var latestTask *taskqueue.Task
	for _, task := range tasks {
		if task.Type == taskqueue.TaskProcessComplete {
			if latestTask == nil || task.CreatedAt.After(latestTask.CreatedAt) {
				latestTask = task
			}
		}
	}

	if latestTask == nil {
		return fmt.Errorf("no complete processing task found for submission %s", submissionID)
	}

	// 等待任务完成
	_, err = s.taskQueue.WaitForTask(ctx, latestTask.ID, timeout)
	if err != nil {
		return fmt.Errorf("failed to wait for submission processing: %w", err)
	}

	// 再次检查提交状态
	status, err := s.statusManager.GetStatus(ctx, submissionID)
	if err != nil {
		return err
	}

	if status == models.SubStatusFailed {
		return fmt.Errorf("submission processing failed")
	}

	if status != models.SubStatusCompleted {
		return fmt.Errorf("submission processing incomplete")
	}

	return nil
}

// CountSubmissionBlocks 统计提交的代码块数量
func (s *SubmissionService) CountSubmissionBlocks(ctx context.Context, submissionID string) (int, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return 0, err
	}

	// 使用仓储统计代码块数量
	return s.repo.CountBlocks(submissionID)
}

// ListSubmissions 获取提交列表
func (s *SubmissionService) ListSubmissions(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Submission, int64, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, 0, err
	}

	// 使用状态管理器获取提交列表
	return s.statusManager.ListSubmissions(ctx, offset, limit, filters)
}

// UpdateSubmissionTags 更新提交标签
func (s *SubmissionService) UpdateSubmissionTags(ctx context.Context, submissionID string, tags string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	// 获取提交
	sub, err := s.statusManager.GetSubmission(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	// 更新标签
	sub.Tags = tags

	// 保存更新
	return s.repo.Update(sub)
}

// failSubmission 将提交标记为失败状态
func (s *SubmissionService) failSubmission(ctx context.Context, submissionID string, errorMsg string) {
	if s.statusManager == nil {
		s.logger.Error("Cannot mark submission as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, submissionID, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"submission_id": submissionID,
			"error":         err,
		}).Error("Failed to mark submission as failed")
	}
}

// GetStatusManager 返回提交状态管理器实例
func (s *SubmissionService) GetStatusManager() *SubmissionStatusManager {
	return s.statusManager
}

// GetTaskQueue 返回任务队列实例
func (s *SubmissionService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}
