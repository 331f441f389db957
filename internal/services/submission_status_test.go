package services

import (
	"context"
	"os"
	"testing"

	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库环境
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	// 使用临时文件作为测试数据库
	tempFile := "test_submission_status.db"

	// 创建数据库连接
	db, err := gorm.Open(sqlite.Open(tempFile), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")

	// 运行迁移
	err = db.AutoMigrate(
		&models.Submission{},
		&models.CodeBlock{},
		&models.QuizQuestion{},
		&models.ReviewSession{},
		&models.ReviewMessage{},
	)
	require.NoError(t, err, "Failed to run migrations")

	// 保存原始DB引用并替换
	originalDB := database.DB
	database.DB = db

	// 返回清理函数
	cleanup := func() {
		// 关闭连接
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// 恢复原始DB引用
		database.DB = originalDB
		// 删除临时数据库文件
		os.Remove(tempFile)
	}

	return db, cleanup
}

// TestSubmissionStatusManager_BasicFlow 测试提交状态管理基本流程
func TestSubmissionStatusManager_BasicFlow(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	// 创建提交仓储
	repo := repository.NewSubmissionRepository()

	// 创建状态管理器
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	statusManager := NewSubmissionStatusManager(repo, logger)

	ctx := context.Background()
	subID := "test-sub-1"
	fileName := "lab1.py"
	filePath := "/path/to/lab1.py"
	fileSize := int64(1024)

	// 测试标记为已上传
	t.Run("mark as uploaded", func(t *testing.T) {
		err := statusManager.MarkAsUploaded(ctx, &models.Submission{
			ID:       subID,
			FileName: fileName,
			FilePath: filePath,
			FileSize: fileSize,
		})
		require.NoError(t, err)

		// 验证状态
		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusUploaded, status)

		// 验证提交信息
		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, subID, sub.ID)
		assert.Equal(t, fileName, sub.FileName)
		assert.Equal(t, "py", sub.FileType)
		assert.Equal(t, filePath, sub.FilePath)
		assert.Equal(t, fileSize, sub.FileSize)
		assert.Equal(t, 0, sub.Progress)
	})

	// 测试标记为处理中
	t.Run("mark as processing", func(t *testing.T) {
		err := statusManager.MarkAsProcessing(ctx, subID)
		require.NoError(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusProcessing, status)
	})

	// 测试更新进度
	t.Run("update progress", func(t *testing.T) {
		err := statusManager.UpdateProgress(ctx, subID, 50)
		require.NoError(t, err)

		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, 50, sub.Progress)
	})

	// 测试更新处理阶段
	t.Run("mark stage", func(t *testing.T) {
		err := statusManager.MarkStage(ctx, subID, models.StageSampling)
		require.NoError(t, err)

		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.StageSampling, sub.CurrentStage)
	})

	// 测试标记为已完成
	t.Run("mark as completed", func(t *testing.T) {
		blockCount := 3
		questionCount := 6
		err := statusManager.MarkAsCompleted(ctx, subID, blockCount, questionCount)
		require.NoError(t, err)

		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusCompleted, sub.Status)
		assert.Equal(t, blockCount, sub.BlockCount)
		assert.Equal(t, questionCount, sub.QuestionCount)
		assert.Equal(t, 100, sub.Progress)
		assert.Equal(t, models.StageCompleted, sub.CurrentStage)
		assert.NotNil(t, sub.ProcessedAt)
	})
}

// TestSubmissionStatusManager_FailureFlow 测试失败状态处理
func TestSubmissionStatusManager_FailureFlow(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewSubmissionRepository()
	logger := logrus.New()
	statusManager := NewSubmissionStatusManager(repo, logger)

	ctx := context.Background()
	subID := "test-sub-2"

	// 创建提交
	err := statusManager.MarkAsUploaded(ctx, &models.Submission{
		ID:       subID,
		FileName: "fail_test.c",
		FilePath: "/path/to/fail_test.c",
		FileSize: 2048,
	})
	require.NoError(t, err)

	// 标记为处理中
	err = statusManager.MarkAsProcessing(ctx, subID)
	require.NoError(t, err)

	// 标记为失败
	t.Run("mark as failed", func(t *testing.T) {
		errorMsg := "Processing error: unsupported format"
		err := statusManager.MarkAsFailed(ctx, subID, errorMsg)
		require.NoError(t, err)

		// 验证状态和错误信息
		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusFailed, sub.Status)
		assert.Equal(t, errorMsg, sub.Error)
		assert.NotNil(t, sub.ProcessedAt)
	})

	// 失败后允许重新处理
	t.Run("retry after failure", func(t *testing.T) {
		err := statusManager.MarkAsProcessing(ctx, subID)
		require.NoError(t, err)

		status, err := statusManager.GetStatus(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, models.SubStatusProcessing, status)
	})
}

// TestSubmissionStatusManager_InvalidTransitions 测试无效的状态转换
func TestSubmissionStatusManager_InvalidTransitions(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewSubmissionRepository()
	logger := logrus.New()
	statusManager := NewSubmissionStatusManager(repo, logger)

	// 测试有效和无效的状态转换
	t.Run("validate state transitions", func(t *testing.T) {
		// 有效转换
		assert.NoError(t, statusManager.ValidateStateTransition(models.SubStatusUploaded, models.SubStatusProcessing))
		assert.NoError(t, statusManager.ValidateStateTransition(models.SubStatusProcessing, models.SubStatusCompleted))
		assert.NoError(t, statusManager.ValidateStateTransition(models.SubStatusProcessing, models.SubStatusFailed))
		assert.NoError(t, statusManager.ValidateStateTransition(models.SubStatusFailed, models.SubStatusProcessing)) // 允许重试

		// 无效转换
		assert.Error(t, statusManager.ValidateStateTransition(models.SubStatusCompleted, models.SubStatusProcessing))
		assert.Error(t, statusManager.ValidateStateTransition(models.SubStatusCompleted, models.SubStatusUploaded))
	})
}

// TestSubmissionStatusManager_ListSubmissions 测试提交列表功能
func TestSubmissionStatusManager_ListSubmissions(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewSubmissionRepository()
	logger := logrus.New()
	statusManager := NewSubmissionStatusManager(repo, logger)

	ctx := context.Background()

	// 创建多个测试提交
	subs := []struct {
		ID     string
		Name   string
		Status models.SubmissionStatus
		Tags   string
	}{
		{"list-sub-1", "lab1.py", models.SubStatusUploaded, "lab1,pending"},
		{"list-sub-2", "lab2.py", models.SubStatusProcessing, "lab2,pending"},
		{"list-sub-3", "lab3.c", models.SubStatusCompleted, "lab3"},
		{"list-sub-4", "lab4.go", models.SubStatusFailed, "lab4,pending"},
	}

	// 添加测试提交
	for _, sub := range subs {
		err := statusManager.MarkAsUploaded(ctx, &models.Submission{
			ID:       sub.ID,
			FileName: sub.Name,
			FilePath: "/path/to/" + sub.Name,
			FileSize: 1024,
		})
		require.NoError(t, err)

		// 更新状态和标签
		if sub.Status != models.SubStatusUploaded {
			err = statusManager.MarkAsProcessing(ctx, sub.ID)
			require.NoError(t, err)
		}

		if sub.Status == models.SubStatusCompleted {
			err = statusManager.MarkAsCompleted(ctx, sub.ID, 3, 6)
			require.NoError(t, err)
		} else if sub.Status == models.SubStatusFailed {
			err = statusManager.MarkAsFailed(ctx, sub.ID, "Test error")
			require.NoError(t, err)
		}

		// 更新标签
		dbSub, err := repo.GetByID(sub.ID)
		require.NoError(t, err)
		dbSub.Tags = sub.Tags
		err = repo.Update(dbSub)
		require.NoError(t, err)
	}

	// 测试列出所有提交
	t.Run("list all submissions", func(t *testing.T) {
		subList, total, err := statusManager.ListSubmissions(ctx, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(len(subs)), total)
		assert.Len(t, subList, len(subs))
	})

	// 测试按状态筛选
	t.Run("filter by status", func(t *testing.T) {
		filters := map[string]interface{}{
			"status": string(models.SubStatusCompleted),
		}
		subList, total, err := statusManager.ListSubmissions(ctx, 0, 10, filters)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		if len(subList) > 0 {
			assert.Equal(t, models.SubStatusCompleted, subList[0].Status)
		}
	})

	// 测试按标签筛选
	t.Run("filter by tags", func(t *testing.T) {
		filters := map[string]interface{}{
			"tags": "pending",
		}
		_, total, err := statusManager.ListSubmissions(ctx, 0, 10, filters)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total) // 应该找到3个带有pending标签的提交
	})
}

// TestSubmissionStatusManager_DeleteSubmission 测试删除提交
func TestSubmissionStatusManager_DeleteSubmission(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewSubmissionRepository()
	logger := logrus.New()
	statusManager := NewSubmissionStatusManager(repo, logger)

	ctx := context.Background()
	subID := "test-delete-sub"

	// 创建测试提交
	err := statusManager.MarkAsUploaded(ctx, &models.Submission{
		ID:       subID,
		FileName: "delete_test.py",
		FilePath: "/path/to/delete_test.py",
		FileSize: 1024,
	})
	require.NoError(t, err)

	// 确认提交存在
	_, err = statusManager.GetSubmission(ctx, subID)
	require.NoError(t, err)

	// 删除提交
	err = statusManager.DeleteSubmission(ctx, subID)
	require.NoError(t, err)

	// 验证提交已被删除
	_, err = statusManager.GetSubmission(ctx, subID)
	assert.Error(t, err, "Submission should be deleted")
}

// TestSubmissionStatusManager_EdgeCases 测试边缘情况
func TestSubmissionStatusManager_EdgeCases(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewSubmissionRepository()
	logger := logrus.New()
	statusManager := NewSubmissionStatusManager(repo, logger)

	ctx := context.Background()

	// 测试获取不存在的提交
	t.Run("get non-existent submission", func(t *testing.T) {
		_, err := statusManager.GetSubmission(ctx, "non-existent-id")
		assert.Error(t, err)
	})

	// 测试缺少ID的提交
	t.Run("mark as uploaded without ID", func(t *testing.T) {
		err := statusManager.MarkAsUploaded(ctx, &models.Submission{
			FileName: "no_id.py",
			FilePath: "/path/to/no_id.py",
		})
		assert.Error(t, err)
	})

	// 测试无效的进度值
	t.Run("update progress with invalid values", func(t *testing.T) {
		subID := "progress-test-sub"
		err := statusManager.MarkAsUploaded(ctx, &models.Submission{
			ID:       subID,
			FileName: "progress.py",
			FilePath: "/path/to/progress.py",
			FileSize: 1024,
		})
		require.NoError(t, err)

		err = statusManager.MarkAsProcessing(ctx, subID)
		require.NoError(t, err)

		// 测试负进度值
		err = statusManager.UpdateProgress(ctx, subID, -10)
		require.NoError(t, err)
		sub, err := statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, 0, sub.Progress, "Negative progress should be adjusted to 0")

		// 测试超过100的进度值
		err = statusManager.UpdateProgress(ctx, subID, 150)
		require.NoError(t, err)
		sub, err = statusManager.GetSubmission(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, 100, sub.Progress, "Progress over 100 should be adjusted to 100")
	})

	// 测试对非处理中提交更新进度
	t.Run("update progress on non-processing submission", func(t *testing.T) {
		subID := "non-processing-sub"
		err := statusManager.MarkAsUploaded(ctx, &models.Submission{
			ID:       subID,
			FileName: "test.py",
			FilePath: "/path/to/test.py",
			FileSize: 1024,
		})
		require.NoError(t, err)

		err = statusManager.MarkAsCompleted(ctx, subID, 0, 0)
		require.NoError(t, err)

		// 尝试更新已完成提交的进度
		err = statusManager.UpdateProgress(ctx, subID, 50)
		assert.Error(t, err, "Should not be able to update progress of completed submission")
	})
}
