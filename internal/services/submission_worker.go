package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/sampler"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubmissionTaskHandler 提交任务处理器
// 在工作进程中执行解析、采样和出题任务，并维护提交状态
type SubmissionTaskHandler struct {
	service *SubmissionService
	logger  *logrus.Logger
}

// NewSubmissionTaskHandler 创建提交任务处理器
func NewSubmissionTaskHandler(service *SubmissionService, logger *logrus.Logger) *SubmissionTaskHandler {
	if logger == nil {
		logger = logrus.New()
	}

	// 确保服务依赖已初始化
	if err := service.Init(); err != nil {
		logger.WithError(err).Warn("Failed to initialize submission service")
	}

	return &SubmissionTaskHandler{
		service: service,
		logger:  logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *SubmissionTaskHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{
		taskqueue.TaskSubmissionParse,
		taskqueue.TaskBlockSample,
		taskqueue.TaskQuestionGenerate,
		taskqueue.TaskProcessComplete,
	}
}

// ProcessTask 处理任务
func (h *SubmissionTaskHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	h.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"task_type":     task.Type,
		"submission_id": task.SubmissionID,
	}).Info("Processing submission task")

	switch task.Type {
	case taskqueue.TaskSubmissionParse:
		return h.processParseTask(ctx, task)
	case taskqueue.TaskBlockSample:
		return h.processSampleTask(ctx, task)
	case taskqueue.TaskQuestionGenerate:
		return h.processGenerateTask(ctx, task)
	case taskqueue.TaskProcessComplete:
		return h.processCompleteTask(ctx, task)
	default:
		return fmt.Errorf("unsupported task type: %s", task.Type)
	}
}

// processParseTask 执行提交解析任务
// 解析成功后创建代码块采样任务，形成处理链
func (h *SubmissionTaskHandler) processParseTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.SubmissionParsePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal parse payload: %w", err)
	}

	s := h.service

	// 解析提交内容
	content, err := s.parseSubmission(payload.FilePath)
	if err != nil {
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to parse submission: %v", err))
		return fmt.Errorf("failed to parse submission: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		s.failSubmission(ctx, task.SubmissionID, "submission content is empty")
		return errors.New("submission content is empty")
	}

	// 记录代码行数
	lines := s.splitter.Lines(content)
	if sub, err := s.statusManager.GetSubmission(ctx, task.SubmissionID); err == nil {
		sub.LineCount = len(lines)
		if err := s.repo.Update(sub); err != nil {
			h.logger.WithError(err).Warn("Failed to update submission line count")
		}
	}

	// 记录任务结果，队列随后的完成标记不会覆盖已有结果
	h.recordResult(ctx, task.ID, taskqueue.StatusCompleted, taskqueue.SubmissionParseResult{
		Content:  content,
		Language: payload.Language,
		Lines:    len(lines),
		Chars:    len(content),
	})

	// 更新进度，进入采样阶段
	if err := s.statusManager.UpdateProgress(ctx, task.SubmissionID, 30); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, task.SubmissionID, models.StageSampling); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission stage")
	}

	// 创建代码块采样任务
	samplePayload := taskqueue.BlockSamplePayload{
		SubmissionID: task.SubmissionID,
		Content:      content,
		MaxLines:     s.sampler.MaxLines(),
		Count:        s.sampleCount,
	}
	sampleTaskID, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskBlockSample, task.SubmissionID, samplePayload)
	if err != nil {
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to enqueue block sample task: %v", err))
		return fmt.Errorf("failed to enqueue block sample task: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"submission_id":  task.SubmissionID,
		"sample_task_id": sampleTaskID,
	}).Info("Created block sample task")

	return nil
}

// processSampleTask 执行代码块采样任务
// 采样成功后创建问题生成任务
func (h *SubmissionTaskHandler) processSampleTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.BlockSamplePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal sample payload: %w", err)
	}

	s := h.service

	// 采样并入库
	lines := s.splitter.Lines(payload.Content)
	count := payload.Count
	if count <= 0 {
		count = s.sampleCount
	}
	blocks := sampleDistinctBlocks(h.samplerFor(payload.MaxLines, payload.Seed), lines, count)
	infos := h.buildBlockInfos(task.SubmissionID, blocks)

	if err := s.saveBlocksFromResult(task, infos); err != nil {
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to save code blocks: %v", err))
		return err
	}

	// 记录任务结果
	h.recordResult(ctx, task.ID, taskqueue.StatusCompleted, taskqueue.BlockSampleResult{
		SubmissionID: task.SubmissionID,
		Blocks:       infos,
		BlockCount:   len(infos),
		LineCount:    len(lines),
	})

	// 更新进度，进入出题阶段
	if err := s.statusManager.UpdateProgress(ctx, task.SubmissionID, 60); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, task.SubmissionID, models.StageGenerating); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission stage")
	}

	// 创建问题生成任务
	generatePayload := taskqueue.QuestionGeneratePayload{
		SubmissionID: task.SubmissionID,
		Blocks:       infos,
		Model:        "default",
		PerBlock:     2,
	}
	generateTaskID, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskQuestionGenerate, task.SubmissionID, generatePayload)
	if err != nil {
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to enqueue question generate task: %v", err))
		return fmt.Errorf("failed to enqueue question generate task: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"submission_id":    task.SubmissionID,
		"generate_task_id": generateTaskID,
		"block_count":      len(infos),
	}).Info("Created question generation task")

	return nil
}

// processGenerateTask 执行问题生成任务
// 问题生成是任务链的最后一环，完成后将提交标记为已完成
func (h *SubmissionTaskHandler) processGenerateTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.QuestionGeneratePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal generate payload: %w", err)
	}

	s := h.service

	// 为每个代码块生成检查问题
	infos, err := h.generateQuestionInfos(ctx, payload.Blocks, payload.PerBlock)
	if err != nil {
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to generate questions: %v", err))
		return err
	}

	// 保存问题并写入向量索引
	questions, err := s.saveQuestionsFromResult(task.SubmissionID, infos)
	if err != nil {
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to save questions: %v", err))
		return err
	}
	if err := s.indexQuestions(ctx, task.SubmissionID, questions); err != nil {
		h.logger.WithError(err).Warn("Failed to index questions, semantic search degraded")
	}

	// 记录任务结果
	h.recordResult(ctx, task.ID, taskqueue.StatusCompleted, taskqueue.QuestionGenerateResult{
		SubmissionID:  task.SubmissionID,
		Questions:     infos,
		QuestionCount: len(infos),
		Model:         payload.Model,
	})

	// 更新提交完成状态
	blockCount, err := s.repo.CountBlocks(task.SubmissionID)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to count submission blocks")
	}
	if err := s.statusManager.MarkAsCompleted(ctx, task.SubmissionID, blockCount, len(infos)); err != nil {
		h.logger.WithError(err).Error("Failed to mark submission as completed")
		return err
	}

	return nil
}

// processCompleteTask 执行完整处理流程任务
// 在单个任务内依次完成解析、采样和出题
func (h *SubmissionTaskHandler) processCompleteTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.ProcessCompletePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal process complete payload: %w", err)
	}

	s := h.service
	result := taskqueue.ProcessCompleteResult{SubmissionID: task.SubmissionID}

	// 1. 解析提交内容
	content, err := s.parseSubmission(payload.FilePath)
	if err == nil && strings.TrimSpace(content) == "" {
		err = errors.New("submission content is empty")
	}
	if err != nil {
		result.ParseStatus = "failed"
		result.Error = err.Error()
		h.recordResult(ctx, task.ID, taskqueue.StatusFailed, result)
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to parse submission: %v", err))
		return fmt.Errorf("failed to parse submission: %w", err)
	}
	result.ParseStatus = "completed"

	lines := s.splitter.Lines(content)
	result.LineCount = len(lines)
	if sub, err := s.statusManager.GetSubmission(ctx, task.SubmissionID); err == nil {
		sub.LineCount = len(lines)
		if err := s.repo.Update(sub); err != nil {
			h.logger.WithError(err).Warn("Failed to update submission line count")
		}
	}

	if err := s.statusManager.UpdateProgress(ctx, task.SubmissionID, 20); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, task.SubmissionID, models.StageSampling); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission stage")
	}

	// 2. 采样代码块
	count := payload.Count
	if count <= 0 {
		count = s.sampleCount
	}
	blocks := sampleDistinctBlocks(h.samplerFor(payload.MaxLines, 0), lines, count)
	infos := h.buildBlockInfos(task.SubmissionID, blocks)

	if err := s.saveBlocksFromResult(task, infos); err != nil {
		result.SampleStatus = "failed"
		result.Error = err.Error()
		h.recordResult(ctx, task.ID, taskqueue.StatusFailed, result)
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to save code blocks: %v", err))
		return err
	}
	result.SampleStatus = "completed"
	result.BlockCount = len(infos)

	if err := s.statusManager.UpdateProgress(ctx, task.SubmissionID, 40); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission progress")
	}
	if err := s.statusManager.MarkStage(ctx, task.SubmissionID, models.StageGenerating); err != nil {
		h.logger.WithError(err).Warn("Failed to update submission stage")
	}

	// 3. 生成检查问题
	questionInfos, err := h.generateQuestionInfos(ctx, infos, payload.PerBlock)
	if err != nil {
		result.GenerateStatus = "failed"
		result.Error = err.Error()
		h.recordResult(ctx, task.ID, taskqueue.StatusFailed, result)
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to generate questions: %v", err))
		return err
	}

	questions, err := s.saveQuestionsFromResult(task.SubmissionID, questionInfos)
	if err != nil {
		result.GenerateStatus = "failed"
		result.Error = err.Error()
		h.recordResult(ctx, task.ID, taskqueue.StatusFailed, result)
		s.failSubmission(ctx, task.SubmissionID, fmt.Sprintf("failed to save questions: %v", err))
		return err
	}
	result.GenerateStatus = "completed"
	result.QuestionCount = len(questionInfos)
	result.Questions = questionInfos

	// 向量化失败只影响语义搜索，不影响提交处理结果
	if err := s.indexQuestions(ctx, task.SubmissionID, questions); err != nil {
		h.logger.WithError(err).Warn("Failed to index questions, semantic search degraded")
	}

	// 记录任务结果并更新提交完成状态
	h.recordResult(ctx, task.ID, taskqueue.StatusCompleted, result)

	if err := s.statusManager.MarkAsCompleted(ctx, task.SubmissionID, len(infos), len(questionInfos)); err != nil {
		h.logger.WithError(err).Error("Failed to mark submission as completed")
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"submission_id":  task.SubmissionID,
		"line_count":     result.LineCount,
		"block_count":    result.BlockCount,
		"question_count": result.QuestionCount,
	}).Info("Submission processed successfully")

	return nil
}

// samplerFor 根据任务载荷选择采样器
// 载荷未覆盖采样参数时复用服务默认采样器
func (h *SubmissionTaskHandler) samplerFor(maxLines int, seed int64) *sampler.BlockSampler {
	custom := seed != 0 || (maxLines > 0 && maxLines != h.service.sampler.MaxLines())
	if !custom {
		return h.service.sampler
	}

	opts := make([]sampler.Option, 0, 2)
	if maxLines > 0 {
		opts = append(opts, sampler.WithMaxLines(maxLines))
	}
	if seed != 0 {
		opts = append(opts, sampler.WithSeed(seed))
	}
	return sampler.NewBlockSampler(sampler.DefaultConfig(), opts...)
}

// buildBlockInfos 将采样结果转换为任务数据结构
func (h *SubmissionTaskHandler) buildBlockInfos(submissionID string, blocks []sampler.Block) []taskqueue.BlockInfo {
	infos := make([]taskqueue.BlockInfo, len(blocks))
	for i, block := range blocks {
		infos[i] = taskqueue.BlockInfo{
			BlockID:   fmt.Sprintf("%s_b%d", submissionID, i),
			Index:     i,
			StartLine: block.Start + 1,
			EndLine:   block.End,
			Text:      block.Text(),
			Source:    string(block.Source),
		}
	}
	return infos
}

// generateQuestionInfos 为代码块生成检查问题
// perBlock大于0时截断每个代码块的问题数量
func (h *SubmissionTaskHandler) generateQuestionInfos(ctx context.Context, blocks []taskqueue.BlockInfo, perBlock int) ([]taskqueue.QuestionInfo, error) {
	s := h.service
	infos := make([]taskqueue.QuestionInfo, 0, len(blocks)*2)

	for _, block := range blocks {
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

		questions := set.Questions
		if perBlock > 0 && len(questions) > perBlock {
			questions = questions[:perBlock]
		}

		for _, text := range questions {
			infos = append(infos, taskqueue.QuestionInfo{
				BlockIndex: block.Index,
				QuestionID: uuid.New().String(),
				Text:       text,
				Difficulty: string(s.difficulty),
			})
		}
	}

	if len(infos) == 0 {
		return nil, errors.New("no questions generated")
	}

	return infos, nil
}

// recordResult 将任务结果写入队列
// 队列侧的状态更新对非空结果只做保存，不会覆盖
func (h *SubmissionTaskHandler) recordResult(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}) {
	if h.service.taskQueue == nil {
		return
	}

	if err := h.service.taskQueue.UpdateTaskStatus(ctx, taskID, status, result, ""); err != nil {
		h.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to record task result")
	}
}
