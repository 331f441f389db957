package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Ccode104/Lab-Assistant/api/model"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstQuestionID 获取提交的第一个问题ID
func firstQuestionID(t *testing.T, env *testEnv, submissionID string) string {
	questions, err := env.QuizService.QuestionsForSubmission(context.Background(), submissionID)
	require.NoError(t, err)
	require.NotEmpty(t, questions)
	return questions[0].QuestionID
}

// TestEvaluateAnswer 测试回答评估API
func TestEvaluateAnswer(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)
	questionID := firstQuestionID(t, env, subID)

	// 准备评估请求
	reqBody := map[string]interface{}{
		"question_id": questionID,
		"answer":      "这段代码把列表里的数字累加起来再输出总和",
	}
	jsonData, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/evaluate", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	// 验证响应
	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	evalResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, questionID, evalResp["question_id"])
	assert.Equal(t, float64(85), evalResp["score"])
	assert.Equal(t, "correct", evalResp["verdict"])
	assert.Equal(t, "回答基本正确", evalResp["feedback"])
}

// TestEvaluateAnswerValidation 测试评估请求参数校验
func TestEvaluateAnswerValidation(t *testing.T) {
	env := setupTestEnv(t)

	// 缺少answer字段
	reqBody := map[string]interface{}{
		"question_id": "some-question",
	}
	jsonData, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/evaluate", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestQuestionSearch 测试问题语义检索API
func TestQuestionSearch(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)

	// 按语义检索问题
	target := "/api/quiz/search?q=" + url.QueryEscape("循环的退出条件")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	searchResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)

	matches, ok := searchResp["matches"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, matches, "Search should return matched questions")

	first, ok := matches[0].(map[string]interface{})
	require.True(t, ok)
	question, ok := first["question"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, question["question_id"])
	assert.NotEmpty(t, question["text"])

	// 指定提交过滤
	target = "/api/quiz/search?q=" + url.QueryEscape("循环") + "&submission_id=" + subID
	req = httptest.NewRequest(http.MethodGet, target, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 缺少查询词应报错
	req = httptest.NewRequest(http.MethodGet, "/api/quiz/search", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestRecentQuestions 测试最近问题查询API
func TestRecentQuestions(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)
	ctx := context.Background()

	// 创建会话并记录一条考官提问
	session, err := env.ReviewService.CreateReview(ctx, subID, "lab1检查")
	require.NoError(t, err)

	err = env.ReviewService.AddMessage(ctx, &models.ReviewMessage{
		SessionID: session.ID,
		Role:      models.RoleExaminer,
		Content:   "这段代码实现了什么功能？",
	})
	require.NoError(t, err)

	// 查询最近的提问
	req := httptest.NewRequest(http.MethodGet, "/api/quiz/recent?limit=5", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	recentResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)

	questions, ok := recentResp["questions"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, questions)
	assert.Equal(t, "这段代码实现了什么功能？", questions[0])
}
