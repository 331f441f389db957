package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/llm"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReviewTestEnv(t *testing.T) *ReviewService {
	_, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	// 创建日志记录器
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// 创建仓库和服务
	reviewRepo := repository.NewReviewRepository()
	return NewReviewService(reviewRepo, WithReviewLogger(logger))
}

func TestReviewService_CreateReview(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 测试自定义标题
	title := "实验一代码检查"
	session, err := reviewService.CreateReview(ctx, "sub-1", title)
	require.NoError(t, err)
	assert.Equal(t, title, session.Title)
	assert.Equal(t, "sub-1", session.SubmissionID)
	assert.NotEmpty(t, session.ID)
	assert.False(t, session.CreatedAt.IsZero())
	assert.False(t, session.UpdatedAt.IsZero())

	// 测试空标题（应使用默认值）
	session, err = reviewService.CreateReview(ctx, "sub-1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Title)
	assert.Contains(t, session.Title, "检查会话")

	// 测试空提交ID
	_, err = reviewService.CreateReview(ctx, "", "无提交的会话")
	assert.Error(t, err, "Should require a submission ID")
}

func TestReviewService_GetReviewSession(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	title := "Test Get Session"
	createdSession, err := reviewService.CreateReview(ctx, "sub-get", title)
	require.NoError(t, err)

	// 测试获取会话
	session, err := reviewService.GetReviewSession(ctx, createdSession.ID)
	assert.NoError(t, err)
	assert.Equal(t, createdSession.ID, session.ID)
	assert.Equal(t, title, session.Title)

	// 测试获取不存在的会话
	_, err = reviewService.GetReviewSession(ctx, "non-existing-id")
	assert.Error(t, err, "Should return error for non-existing session")
}

func TestReviewService_ListReviewSessions(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 为两个提交创建多个测试会话
	for i := 1; i <= 2; i++ {
		_, err := reviewService.CreateReview(ctx, "sub-list-1", fmt.Sprintf("检查 %d", i))
		require.NoError(t, err)
	}
	_, err := reviewService.CreateReview(ctx, "sub-list-2", "另一个提交的检查")
	require.NoError(t, err)

	// 测试列出会话（无过滤器）
	sessions, total, err := reviewService.ListReviewSessions(ctx, 0, 10, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sessions, 3)

	// 测试分页
	sessions, total, err = reviewService.ListReviewSessions(ctx, 1, 2, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sessions, 2)

	// 按提交过滤
	filters := map[string]interface{}{
		"submission_id": "sub-list-1",
	}
	filteredSessions, filteredTotal, err := reviewService.ListReviewSessions(ctx, 0, 10, filters)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), filteredTotal)
	assert.Len(t, filteredSessions, 2)
	for _, session := range filteredSessions {
		assert.Equal(t, "sub-list-1", session.SubmissionID)
	}
}

func TestReviewService_UpdateAndDeleteReviewSession(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	session, err := reviewService.CreateReview(ctx, "sub-update", "Original Title")
	require.NoError(t, err)

	// 更新会话
	session.Title = "Updated Title"
	session.Tags = "lab1,retake"
	err = reviewService.UpdateReviewSession(ctx, session)
	assert.NoError(t, err)

	// 验证更新
	updatedSession, err := reviewService.GetReviewSession(ctx, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Updated Title", updatedSession.Title)
	assert.Equal(t, "lab1,retake", updatedSession.Tags)

	// 删除会话
	err = reviewService.DeleteReviewSession(ctx, session.ID)
	assert.NoError(t, err)

	// 验证删除
	_, err = reviewService.GetReviewSession(ctx, session.ID)
	assert.Error(t, err, "Session should no longer exist")
}

func TestReviewService_AddAndGetMessages(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	session, err := reviewService.CreateReview(ctx, "sub-messages", "Test Messages")
	require.NoError(t, err)

	// 添加消息
	messages := []*models.ReviewMessage{
		{
			SessionID: session.ID,
			Role:      models.RoleExaminer,
			Content:   "这段代码的循环不变量是什么？",
			CreatedAt: time.Now(),
		},
		{
			SessionID: session.ID,
			Role:      models.RoleStudent,
			Content:   "每次迭代total都等于前i个数的和。",
			CreatedAt: time.Now().Add(time.Second),
		},
		{
			SessionID: session.ID,
			Role:      models.RoleVerdict,
			Content:   "回答正确。",
			CreatedAt: time.Now().Add(2 * time.Second),
		},
	}

	for _, msg := range messages {
		err = reviewService.AddMessage(ctx, msg)
		require.NoError(t, err)
	}

	// 获取消息
	retrievedMessages, count, err := reviewService.GetReviewMessages(ctx, session.ID, 0, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, retrievedMessages, 3)

	// 检查消息顺序（应按创建时间排序）
	assert.Equal(t, models.RoleExaminer, retrievedMessages[0].Role)
	assert.Equal(t, models.RoleStudent, retrievedMessages[1].Role)
	assert.Equal(t, models.RoleVerdict, retrievedMessages[2].Role)

	// 测试分页
	retrievedMessages, count, err = reviewService.GetReviewMessages(ctx, session.ID, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, retrievedMessages, 2)

	// 非法角色应回退为学生角色
	badRoleMsg := &models.ReviewMessage{
		SessionID: session.ID,
		Role:      "teacher",
		Content:   "角色非法的消息",
		CreatedAt: time.Now().Add(3 * time.Second),
	}
	err = reviewService.AddMessage(ctx, badRoleMsg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, badRoleMsg.Role)

	// 空内容应该报错
	err = reviewService.AddMessage(ctx, &models.ReviewMessage{
		SessionID: session.ID,
		Role:      models.RoleStudent,
	})
	assert.Error(t, err)
}

func TestReviewService_CountReviewMessages(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	session, err := reviewService.CreateReview(ctx, "sub-count", "Test Count")
	require.NoError(t, err)

	// 添加消息
	for i := 0; i < 5; i++ {
		msg := &models.ReviewMessage{
			SessionID: session.ID,
			Role:      models.RoleStudent,
			Content:   fmt.Sprintf("Message %d", i+1),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		err = reviewService.AddMessage(ctx, msg)
		require.NoError(t, err)
	}

	// 统计消息
	count, err := reviewService.CountReviewMessages(ctx, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestReviewService_GetRecentMessages(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建测试会话
	session1, err := reviewService.CreateReview(ctx, "sub-recent", "Session 1")
	require.NoError(t, err)

	session2, err := reviewService.CreateReview(ctx, "sub-recent", "Session 2")
	require.NoError(t, err)

	// 向会话 1 添加较早的消息
	for i := 0; i < 3; i++ {
		msg := &models.ReviewMessage{
			SessionID: session1.ID,
			Role:      models.RoleExaminer,
			Content:   fmt.Sprintf("Session 1 Question %d", i+1),
			CreatedAt: time.Now().Add(-time.Duration(5-i) * time.Second),
		}
		err = reviewService.AddMessage(ctx, msg)
		require.NoError(t, err)
	}

	// 向会话 2 添加更近期的消息
	for i := 0; i < 3; i++ {
		msg := &models.ReviewMessage{
			SessionID: session2.ID,
			Role:      models.RoleExaminer,
			Content:   fmt.Sprintf("Session 2 Question %d", i+1),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		err = reviewService.AddMessage(ctx, msg)
		require.NoError(t, err)
	}

	// 获取最近的消息
	recentMessages, err := reviewService.GetRecentMessages(ctx, 4)
	assert.NoError(t, err)
	assert.Len(t, recentMessages, 4, "Should return 4 most recent messages")

	// 最近的消息应来自会话 2
	assert.Equal(t, session2.ID, recentMessages[0].SessionID, "Most recent message should be from session 2")
}

func TestReviewService_SaveMessageWithRefs(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	session, err := reviewService.CreateReview(ctx, "sub-refs", "Test Refs")
	require.NoError(t, err)

	// 创建带代码块引用的消息
	message := &models.ReviewMessage{
		SessionID: session.ID,
		Role:      models.RoleExaminer,
		Content:   "请解释这段循环的作用",
	}

	refs := []models.BlockRef{
		{
			BlockID:      "sub-refs_b0",
			SubmissionID: "sub-refs",
			StartLine:    3,
			EndLine:      7,
			Text:         "for i in range(10):\n    total += i",
			Score:        0.95,
		},
		{
			BlockID:      "sub-refs_b1",
			SubmissionID: "sub-refs",
			StartLine:    12,
			EndLine:      15,
			Text:         "if total > 100:\n    break",
			Score:        0.85,
		},
	}

	// 保存带引用的消息
	err = reviewService.SaveMessageWithRefs(ctx, message, refs)
	assert.NoError(t, err)
	assert.Greater(t, message.ID, uint(0), "Message should have an ID assigned")

	// 检索消息并验证引用
	messages, _, err := reviewService.GetReviewMessages(ctx, session.ID, 0, 10)
	assert.NoError(t, err)
	require.Len(t, messages, 1)
	require.NotEmpty(t, messages[0].Refs, "Block refs should be saved")

	var savedRefs []models.BlockRef
	err = json.Unmarshal(messages[0].Refs, &savedRefs)
	require.NoError(t, err)
	require.Len(t, savedRefs, 2)
	assert.Equal(t, "sub-refs_b0", savedRefs[0].BlockID)
	assert.Equal(t, 3, savedRefs[0].StartLine)
}

func TestReviewService_RecordExchange(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	session, err := reviewService.CreateReview(ctx, "sub-exchange", "Test Exchange")
	require.NoError(t, err)

	eval := &llm.Evaluation{
		Score:    85,
		Verdict:  llm.VerdictCorrect,
		Feedback: "回答覆盖了循环的核心逻辑",
	}
	refs := []models.BlockRef{
		{
			BlockID:      "sub-exchange_b0",
			SubmissionID: "sub-exchange",
			StartLine:    1,
			EndLine:      4,
			Text:         "for i in range(10):\n    total += i",
		},
	}

	// 记录一轮完整问答
	err = reviewService.RecordExchange(ctx, session.ID, "q-1", "循环结束后total的值是多少？", "45", eval, refs)
	require.NoError(t, err)

	// 应产生考官提问、学生回答和评定结论三条消息
	messages, count, err := reviewService.GetReviewMessages(ctx, session.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.Len(t, messages, 3)

	byRole := make(map[models.ReviewRole]*models.ReviewMessage)
	for _, msg := range messages {
		byRole[msg.Role] = msg
		assert.Equal(t, "q-1", msg.QuestionID)
	}

	examinerMsg := byRole[models.RoleExaminer]
	require.NotNil(t, examinerMsg)
	assert.Equal(t, "循环结束后total的值是多少？", examinerMsg.Content)
	assert.NotEmpty(t, examinerMsg.Refs, "Question should carry block refs")

	studentMsg := byRole[models.RoleStudent]
	require.NotNil(t, studentMsg)
	assert.Equal(t, "45", studentMsg.Content)

	verdictMsg := byRole[models.RoleVerdict]
	require.NotNil(t, verdictMsg)
	assert.Equal(t, eval.Feedback, verdictMsg.Content)
	require.NotNil(t, verdictMsg.Score)
	assert.Equal(t, 85, *verdictMsg.Score)
	assert.Equal(t, llm.VerdictCorrect, verdictMsg.Verdict)

	// 参数校验
	err = reviewService.RecordExchange(ctx, "", "q-1", "问题", "回答", eval, nil)
	assert.Error(t, err)
	err = reviewService.RecordExchange(ctx, session.ID, "q-1", "", "回答", eval, nil)
	assert.Error(t, err)
	err = reviewService.RecordExchange(ctx, session.ID, "q-1", "问题", "", eval, nil)
	assert.Error(t, err)
	err = reviewService.RecordExchange(ctx, session.ID, "q-1", "问题", "回答", nil, nil)
	assert.Error(t, err)
}

func TestReviewService_RenameReviewSession(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建一个测试会话
	session, err := reviewService.CreateReview(ctx, "sub-rename", "Old Title")
	require.NoError(t, err)

	// 重命名会话
	newTitle := "New Title"
	err = reviewService.RenameReviewSession(ctx, session.ID, newTitle)
	assert.NoError(t, err)

	// 验证标题已更改
	updatedSession, err := reviewService.GetReviewSession(ctx, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, newTitle, updatedSession.Title, "Session title should be updated")

	// 新标题为空应该报错
	err = reviewService.RenameReviewSession(ctx, session.ID, "")
	assert.Error(t, err)
}

func TestReviewService_GetReviewsWithMessageCount(t *testing.T) {
	reviewService := setupReviewTestEnv(t)
	ctx := context.Background()

	// 创建测试会话
	session1, err := reviewService.CreateReview(ctx, "sub-count-1", "Session with 3 messages")
	require.NoError(t, err)

	session2, err := reviewService.CreateReview(ctx, "sub-count-2", "Session with 1 message")
	require.NoError(t, err)

	// 向会话 1 添加消息
	for i := 0; i < 3; i++ {
		msg := &models.ReviewMessage{
			SessionID: session1.ID,
			Role:      models.RoleExaminer,
			Content:   fmt.Sprintf("Question %d", i+1),
		}
		err = reviewService.AddMessage(ctx, msg)
		require.NoError(t, err)
	}

	// 向会话 2 添加消息
	err = reviewService.AddMessage(ctx, &models.ReviewMessage{
		SessionID: session2.ID,
		Role:      models.RoleStudent,
		Content:   "Single answer",
	})
	require.NoError(t, err)

	// 获取带消息计数的会话
	reviews, total, err := reviewService.GetReviewsWithMessageCount(ctx, 0, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, reviews, 2)

	// 在结果中找到每个会话并验证消息计数
	for _, review := range reviews {
		sessionID, ok := review["id"].(string)
		require.True(t, ok, "Session ID should be a string")

		messageCount, ok := review["message_count"].(int64)
		require.True(t, ok, "Message count should be present")

		if sessionID == session1.ID {
			assert.Equal(t, int64(3), messageCount, "Session 1 should have 3 messages")
		} else if sessionID == session2.ID {
			assert.Equal(t, int64(1), messageCount, "Session 2 should have 1 message")
		}
		assert.Contains(t, review, "submission_id")
	}
}
