package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/document"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/Ccode104/Lab-Assistant/internal/sampler"
	"github.com/Ccode104/Lab-Assistant/internal/vectordb"
	"github.com/Ccode104/Lab-Assistant/pkg/storage"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAsyncTestEnv 设置异步提交处理的测试环境
// 需要本地Redis，不可用时跳过测试
func setupAsyncTestEnv(t *testing.T, tempDir string) (*SubmissionService, *SubmissionStatusManager, taskqueue.Queue) {
	taskQueue, err := taskqueue.NewRedisQueue(&taskqueue.Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     15, // 使用单独的数据库避免污染开发数据
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	})
	if err != nil {
		t.Skipf("Redis not available, skipping async test: %v", err)
	}

	_, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	repo := repository.NewSubmissionRepositoryWithQueue(nil, taskQueue)
	questionRepo := repository.NewQuestionRepository()
	statusManager := NewSubmissionStatusManager(repo, logger)

	storageConfig := storage.LocalConfig{
		Path: tempDir,
	}
	storageService, err := storage.NewLocalStorage(storageConfig)
	require.NoError(t, err)

	textSplitter := document.NewTextSplitter(document.DefaultSplitterConfig())
	blockSampler := sampler.NewBlockSampler(sampler.DefaultConfig(), sampler.WithSeed(42))

	embeddingClient := &testEmbeddingClient{dimension: 4}
	vectorDB, err := vectordb.NewRepository(vectordb.Config{
		Type:      "memory",
		Dimension: 4,
	})
	require.NoError(t, err)

	subService := NewSubmissionService(
		storageService,
		&testParser{},
		textSplitter,
		blockSampler,
		newTestGenerator(t),
		embeddingClient,
		vectorDB,
		WithSampleCount(2),
		WithSubmissionRepository(repo),
		WithQuestionRepository(questionRepo),
		WithStatusManager(statusManager),
		WithLogger(logger),
	)
	subService.EnableAsyncProcessing(taskQueue)

	return subService, statusManager, taskQueue
}

// createAsyncTestSubmission 创建测试提交记录和对应的代码文件
func createAsyncTestSubmission(t *testing.T, statusManager *SubmissionStatusManager, tempDir string, prefix string) (string, string) {
	testContent := `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)

def main():
    for i in range(10):
        print(fib(i))
`
	testFile := filepath.Join(tempDir, prefix+".py")
	err := os.WriteFile(testFile, []byte(testContent), 0644)
	require.NoError(t, err)

	subID := prefix + "-" + time.Now().Format("150405")
	err = statusManager.MarkAsUploaded(context.Background(), &models.Submission{
		ID:       subID,
		FileName: prefix + ".py",
		FilePath: testFile,
		FileSize: int64(len(testContent)),
		Language: "python",
	})
	require.NoError(t, err)

	return subID, testFile
}

// latestCompleteTask 找到提交最新的完整处理任务
func latestCompleteTask(t *testing.T, taskQueue taskqueue.Queue, subID string) *taskqueue.Task {
	tasks, err := taskQueue.GetTasksBySubmission(context.Background(), subID)
	require.NoError(t, err)
	require.NotEmpty(t, tasks, "Should have at least one task for submission")

	var latest *taskqueue.Task
	for _, task := range tasks {
		if task.Type != taskqueue.TaskProcessComplete {
			continue
		}
		if latest == nil || task.CreatedAt.After(latest.CreatedAt) {
			latest = task
		}
	}
	require.NotNil(t, latest, "Should have a complete processing task")
	return latest
}

// TestEnableDisableAsyncProcessing 测试异步处理的开关
func TestEnableDisableAsyncProcessing(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-async-toggle-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, taskQueue := setupAsyncTestEnv(t, tempDir)
	assert.True(t, subService.asyncEnabled)
	assert.NotNil(t, subService.taskQueue)

	// 禁用后新的异步请求应该失败
	subService.DisableAsyncProcessing()
	assert.False(t, subService.asyncEnabled)

	subID, testFile := createAsyncTestSubmission(t, statusManager, tempDir, "toggle-sub")
	err = subService.ProcessSubmissionAsync(context.Background(), subID, testFile)
	assert.Error(t, err, "Async processing should fail when disabled")

	// 重新启用后恢复正常
	subService.EnableAsyncProcessing(taskQueue)
	assert.True(t, subService.asyncEnabled)

	err = subService.ProcessSubmissionAsync(context.Background(), subID, testFile)
	assert.NoError(t, err)
}

// TestProcessSubmissionAsync 测试异步提交处理的任务入队
func TestProcessSubmissionAsync(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-async-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, taskQueue := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()
	subID, testFile := createAsyncTestSubmission(t, statusManager, tempDir, "async-basic")

	err = subService.ProcessSubmissionAsync(ctx, subID, testFile)
	require.NoError(t, err)

	// 提交应进入处理中状态
	status, err := statusManager.GetStatus(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, models.SubStatusProcessing, status)

	// 队列中应有完整处理任务，载荷使用默认选项
	task := latestCompleteTask(t, taskQueue, subID)
	assert.Equal(t, subID, task.SubmissionID)

	var payload taskqueue.ProcessCompletePayload
	err = json.Unmarshal(task.Payload, &payload)
	require.NoError(t, err)
	assert.Equal(t, subID, payload.SubmissionID)
	assert.Equal(t, testFile, payload.FilePath)
	assert.Equal(t, "async-basic.py", payload.FileName)
	assert.Equal(t, "py", payload.FileType)
	assert.Equal(t, "python", payload.Language)
	assert.Equal(t, sampler.DefaultMaxLines, payload.MaxLines)
	assert.Equal(t, 3, payload.Count)
	assert.Equal(t, 2, payload.PerBlock)
	assert.Equal(t, "default", payload.Model)

	// 任务列表接口应能看到该任务
	tasks, err := subService.GetSubmissionTasks(ctx, subID)
	require.NoError(t, err)
	assert.NotEmpty(t, tasks)
}

// TestProcessSubmissionAsyncWithOptions 测试带选项的异步提交处理
func TestProcessSubmissionAsyncWithOptions(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-async-opts-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, taskQueue := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()
	subID, testFile := createAsyncTestSubmission(t, statusManager, tempDir, "async-opts")

	err = subService.ProcessSubmissionAsync(ctx, subID, testFile,
		WithMaxBlockLines(10),
		WithBlockCount(4),
		WithQuestionsPerBlock(3),
		WithQuestionModel("test-model"),
		WithMetadata(map[string]string{"lab": "lab3"}),
		WithPriority("high"),
	)
	require.NoError(t, err)

	task := latestCompleteTask(t, taskQueue, subID)

	var payload taskqueue.ProcessCompletePayload
	err = json.Unmarshal(task.Payload, &payload)
	require.NoError(t, err)
	assert.Equal(t, 10, payload.MaxLines)
	assert.Equal(t, 4, payload.Count)
	assert.Equal(t, 3, payload.PerBlock)
	assert.Equal(t, "test-model", payload.Model)
	assert.Equal(t, "lab3", payload.Metadata["lab"])
}

// TestSubmissionParseCallback 测试提交解析任务的回调处理
func TestSubmissionParseCallback(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-parse-cb-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, _ := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()

	t.Run("successful parse", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "parse-cb")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		result := taskqueue.SubmissionParseResult{
			Content:  "def f():\n    return 1\n",
			Language: "python",
			Lines:    8,
			Chars:    24,
		}
		resultJSON, err := json.Marshal(result)
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "parse-task-1",
			Type:         taskqueue.TaskSubmissionParse,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}
		err = subService.handleSubmissionParseResult(ctx, task, resultJSON)
		require.NoError(t, err)

		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, 30, sub.Progress)
		assert.Equal(t, 8, sub.LineCount)
	})

	t.Run("empty content fails submission", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "parse-cb-empty")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		resultJSON, err := json.Marshal(taskqueue.SubmissionParseResult{Content: ""})
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "parse-task-2",
			Type:         taskqueue.TaskSubmissionParse,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}
		err = subService.handleSubmissionParseResult(ctx, task, resultJSON)
		assert.Error(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusFailed, status)
	})
}

// TestBlockSampleCallback 测试代码块采样任务的回调处理
func TestBlockSampleCallback(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-sample-cb-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, _ := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()

	t.Run("blocks saved", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "sample-cb")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		result := taskqueue.BlockSampleResult{
			SubmissionID: subID,
			Blocks: []taskqueue.BlockInfo{
				{
					BlockID:   subID + "_b0",
					Index:     0,
					StartLine: 1,
					EndLine:   4,
					Text:      "def f():\n    a = 1\n    b = 2\n    return a + b",
					Source:    "marker",
				},
				{
					// BlockID留空时由回调按序号补齐
					Index:     1,
					StartLine: 6,
					EndLine:   8,
					Text:      "for i in range(3):\n    total += i\n    print(total)",
					Source:    "fallback",
				},
				{
					// 无效数据应被跳过
					Index:     2,
					StartLine: 0,
					Text:      "",
				},
			},
			BlockCount: 2,
			LineCount:  10,
		}
		resultJSON, err := json.Marshal(result)
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "sample-task-1",
			Type:         taskqueue.TaskBlockSample,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}
		err = subService.handleBlockSampleResult(ctx, task, resultJSON)
		require.NoError(t, err)

		// 有效代码块写入数据库
		blocks, err := subService.GetSubmissionBlocks(ctx, subID)
		require.NoError(t, err)
		require.Len(t, blocks, 2)

		blockIDs := make(map[string]bool)
		for _, block := range blocks {
			blockIDs[block.BlockID] = true
			assert.Equal(t, "sample-task-1", block.TaskID)
		}
		assert.True(t, blockIDs[subID+"_b0"])
		assert.True(t, blockIDs[subID+"_b1"], "Missing block ID should be filled from index")

		// 进度推进到出题阶段
		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, 60, sub.Progress)
		assert.Equal(t, models.StageGenerating, sub.CurrentStage)
	})

	t.Run("sample error fails submission", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "sample-cb-err")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		resultJSON, err := json.Marshal(taskqueue.BlockSampleResult{
			SubmissionID: subID,
			Error:        "sampling failed",
		})
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "sample-task-2",
			Type:         taskqueue.TaskBlockSample,
			SubmissionID: subID,
			Status:       taskqueue.StatusFailed,
		}
		err = subService.handleBlockSampleResult(ctx, task, resultJSON)
		assert.Error(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusFailed, status)
	})
}

// TestQuestionGenerateCallback 测试问题生成任务的回调处理
func TestQuestionGenerateCallback(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-gen-cb-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, _ := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()

	t.Run("questions saved and submission completed", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "gen-cb")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		// 先模拟采样回调落库两个代码块
		sampleJSON, err := json.Marshal(taskqueue.BlockSampleResult{
			SubmissionID: subID,
			Blocks: []taskqueue.BlockInfo{
				{Index: 0, StartLine: 1, EndLine: 4, Text: "def f():\n    return 1", Source: "marker"},
				{Index: 1, StartLine: 6, EndLine: 8, Text: "for i in range(3):\n    print(i)", Source: "fallback"},
			},
			BlockCount: 2,
		})
		require.NoError(t, err)
		err = subService.handleBlockSampleResult(ctx, &taskqueue.Task{
			ID:           "gen-sample-task",
			Type:         taskqueue.TaskBlockSample,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}, sampleJSON)
		require.NoError(t, err)

		result := taskqueue.QuestionGenerateResult{
			SubmissionID: subID,
			Questions: []taskqueue.QuestionInfo{
				{BlockIndex: 0, QuestionID: "gen-cb-q1", Text: "这个函数的返回值是什么？", Difficulty: "basic"},
				{BlockIndex: 0, QuestionID: "gen-cb-q2", Text: "如果去掉return会发生什么？", Difficulty: "deep"},
				{BlockIndex: 1, QuestionID: "gen-cb-q3", Text: "循环会执行多少次？", Difficulty: "tricky"},
			},
			QuestionCount: 3,
			Model:         "default",
		}
		resultJSON, err := json.Marshal(result)
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "gen-task-1",
			Type:         taskqueue.TaskQuestionGenerate,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}
		err = subService.handleQuestionGenerateResult(ctx, task, resultJSON)
		require.NoError(t, err)

		// 提交进入完成状态，数量来自回调结果
		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusCompleted, sub.Status)
		assert.Equal(t, 2, sub.BlockCount)
		assert.Equal(t, 3, sub.QuestionCount)

		// 问题落库，难度非法时回退为basic，同一代码块内按顺序编号
		questionRepo := repository.NewQuestionRepository()
		questions, err := questionRepo.GetBySubmission(subID)
		require.NoError(t, err)
		require.Len(t, questions, 3)

		byID := make(map[string]*models.QuizQuestion)
		for _, question := range questions {
			byID[question.QuestionID] = question
		}
		require.Contains(t, byID, "gen-cb-q1")
		require.Contains(t, byID, "gen-cb-q2")
		require.Contains(t, byID, "gen-cb-q3")
		assert.Equal(t, models.DifficultyBasic, byID["gen-cb-q1"].Difficulty)
		assert.Equal(t, 0, byID["gen-cb-q1"].Position)
		assert.Equal(t, models.DifficultyDeep, byID["gen-cb-q2"].Difficulty)
		assert.Equal(t, 1, byID["gen-cb-q2"].Position)
		assert.Equal(t, models.DifficultyBasic, byID["gen-cb-q3"].Difficulty)
		assert.Equal(t, 0, byID["gen-cb-q3"].Position)
		assert.Equal(t, subID+"_b1", byID["gen-cb-q3"].BlockID)
	})

	t.Run("generation error fails submission", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "gen-cb-err")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		resultJSON, err := json.Marshal(taskqueue.QuestionGenerateResult{
			SubmissionID: subID,
			Error:        "model unavailable",
		})
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "gen-task-2",
			Type:         taskqueue.TaskQuestionGenerate,
			SubmissionID: subID,
			Status:       taskqueue.StatusFailed,
		}
		err = subService.handleQuestionGenerateResult(ctx, task, resultJSON)
		assert.Error(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusFailed, status)
	})
}

// TestProcessCompleteCallback 测试完整流程任务的回调处理
func TestProcessCompleteCallback(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-complete-cb-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, _ := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()

	t.Run("all stages completed", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "complete-cb")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		result := taskqueue.ProcessCompleteResult{
			SubmissionID:   subID,
			LineCount:      12,
			BlockCount:     2,
			QuestionCount:  4,
			ParseStatus:    "completed",
			SampleStatus:   "completed",
			GenerateStatus: "completed",
			Questions: []taskqueue.QuestionInfo{
				{BlockIndex: 0, QuestionID: "complete-cb-q1", Text: "变量a的作用是什么？", Difficulty: "basic"},
				{BlockIndex: 0, QuestionID: "complete-cb-q2", Text: "这段代码的时间复杂度？", Difficulty: "deep"},
				{BlockIndex: 1, QuestionID: "complete-cb-q3", Text: "条件判断何时为真？", Difficulty: "basic"},
				{BlockIndex: 1, QuestionID: "complete-cb-q4", Text: "循环变量的终值是多少？", Difficulty: "basic"},
			},
		}
		resultJSON, err := json.Marshal(result)
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "complete-task-1",
			Type:         taskqueue.TaskProcessComplete,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}
		err = subService.handleProcessCompleteResult(ctx, task, resultJSON)
		require.NoError(t, err)

		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusCompleted, sub.Status)
		assert.Equal(t, 2, sub.BlockCount)
		assert.Equal(t, 4, sub.QuestionCount)

		questionRepo := repository.NewQuestionRepository()
		questions, err := questionRepo.GetBySubmission(subID)
		require.NoError(t, err)
		assert.Len(t, questions, 4)
	})

	t.Run("generation failure fails submission", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "complete-cb-gen")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		resultJSON, err := json.Marshal(taskqueue.ProcessCompleteResult{
			SubmissionID:   subID,
			ParseStatus:    "completed",
			SampleStatus:   "completed",
			GenerateStatus: "failed",
		})
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "complete-task-2",
			Type:         taskqueue.TaskProcessComplete,
			SubmissionID: subID,
			Status:       taskqueue.StatusCompleted,
		}
		err = subService.handleProcessCompleteResult(ctx, task, resultJSON)
		assert.Error(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusFailed, status)
	})

	t.Run("error result fails submission", func(t *testing.T) {
		subID, _ := createAsyncTestSubmission(t, statusManager, tempDir, "complete-cb-err")
		require.NoError(t, statusManager.MarkAsProcessing(ctx, subID))

		resultJSON, err := json.Marshal(taskqueue.ProcessCompleteResult{
			SubmissionID: subID,
			Error:        "storage unreachable",
		})
		require.NoError(t, err)

		task := &taskqueue.Task{
			ID:           "complete-task-3",
			Type:         taskqueue.TaskProcessComplete,
			SubmissionID: subID,
			Status:       taskqueue.StatusFailed,
		}
		err = subService.handleProcessCompleteResult(ctx, task, resultJSON)
		assert.Error(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusFailed, status)
	})
}

// TestWaitForSubmissionProcessing 测试等待提交处理完成
func TestWaitForSubmissionProcessing(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-wait-sub-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, taskQueue := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()
	subID, testFile := createAsyncTestSubmission(t, statusManager, tempDir, "wait-sub")

	err = subService.ProcessSubmissionAsync(ctx, subID, testFile)
	require.NoError(t, err)

	// 没有工作者消费任务，等待应超时
	err = subService.WaitForSubmissionProcessing(ctx, subID, 2*time.Second)
	assert.Error(t, err, "Wait should time out without a worker")

	// 手动完成任务并更新提交状态后等待应成功
	task := latestCompleteTask(t, taskQueue, subID)
	err = taskQueue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, &taskqueue.ProcessCompleteResult{
		SubmissionID:   subID,
		BlockCount:     2,
		QuestionCount:  4,
		ParseStatus:    "completed",
		SampleStatus:   "completed",
		GenerateStatus: "completed",
	}, "")
	require.NoError(t, err)
	_ = taskQueue.NotifyTaskUpdate(ctx, task.ID)

	err = statusManager.MarkAsCompleted(ctx, subID, 2, 4)
	require.NoError(t, err)

	err = subService.WaitForSubmissionProcessing(ctx, subID, 2*time.Second)
	assert.NoError(t, err)
}

// TestWaitForTaskResult 测试等待单个任务结果
func TestWaitForTaskResult(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "labassist-wait-task-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	subService, statusManager, taskQueue := setupAsyncTestEnv(t, tempDir)
	ctx := context.Background()
	subID, testFile := createAsyncTestSubmission(t, statusManager, tempDir, "wait-task")

	taskID, err := taskQueue.Enqueue(ctx, taskqueue.TaskSubmissionParse, subID, taskqueue.SubmissionParsePayload{
		FilePath: testFile,
	})
	require.NoError(t, err)

	// 直接写入任务结果模拟外部处理节点完成任务
	err = taskQueue.UpdateTaskStatus(ctx, taskID, taskqueue.StatusCompleted, &taskqueue.SubmissionParseResult{
		Content: "def f():\n    return 1\n",
		Lines:   2,
	}, "")
	require.NoError(t, err)
	_ = taskQueue.NotifyTaskUpdate(ctx, taskID)

	task, err := subService.WaitForTaskResult(ctx, taskID, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusCompleted, task.Status)
	assert.NotEmpty(t, task.Result)

	var result taskqueue.SubmissionParseResult
	err = json.Unmarshal(task.Result, &result)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Lines)
}
