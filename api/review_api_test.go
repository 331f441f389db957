package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ccode104/Lab-Assistant/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createReviewSession 通过API创建检查会话，返回会话ID
func createReviewSession(t *testing.T, env *testEnv, submissionID, title string) string {
	reqBody := map[string]interface{}{
		"submission_id": submissionID,
		"title":         title,
	}
	jsonData, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.Equal(t, 0, resp.Code)

	createResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	sessionID, ok := createResp["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, sessionID)

	return sessionID
}

// TestReviewCreate 测试创建检查会话API
func TestReviewCreate(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)

	// 创建会话
	reqBody := map[string]interface{}{
		"submission_id": subID,
		"title":         "lab1口头检查",
		"student_id":    "2023010101",
	}
	jsonData, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	createResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, createResp["session_id"])
	assert.Equal(t, subID, createResp["submission_id"])
	assert.Equal(t, "lab1口头检查", createResp["title"])

	// 会话详情应包含学号
	sessionID := createResp["session_id"].(string)
	req = httptest.NewRequest(http.MethodGet, "/api/reviews/"+sessionID, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	infoResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2023010101", infoResp["student_id"])
	assert.Equal(t, float64(0), infoResp["message_count"])

	// 缺少submission_id应报错
	req = httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewBufferString(`{"title":"no submission"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestReviewList 测试检查会话列表API
func TestReviewList(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)
	createReviewSession(t, env, subID, "第一次检查")
	createReviewSession(t, env, subID, "第二次检查")

	// 查询全部会话
	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	listResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), listResp["total"])

	reviews, ok := listResp["reviews"].([]interface{})
	require.True(t, ok)
	require.Len(t, reviews, 2)

	first, ok := reviews[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, subID, first["submission_id"])
	assert.Equal(t, float64(0), first["message_count"])

	// 按提交过滤
	req = httptest.NewRequest(http.MethodGet, "/api/reviews?submission_id="+subID, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	listResp, ok = resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), listResp["total"])

	// 不存在的提交过滤结果为空
	req = httptest.NewRequest(http.MethodGet, "/api/reviews?submission_id=not-exist", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	listResp, ok = resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), listResp["total"])
}

// TestReviewMessages 测试会话消息API的完整问答流程
func TestReviewMessages(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)
	questionID := firstQuestionID(t, env, subID)
	sessionID := createReviewSession(t, env, subID, "消息测试")

	// 追加一条普通消息
	plainBody := map[string]interface{}{
		"role":    "student",
		"content": "老师好，我准备好了",
	}
	jsonData, err := json.Marshal(plainBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews/"+sessionID+"/messages", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// 带问题ID和回答时执行完整的评估流程
	exchangeBody := map[string]interface{}{
		"question_id": questionID,
		"answer":      "代码先累加再输出结果",
	}
	jsonData, err = json.Marshal(exchangeBody)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/reviews/"+sessionID+"/messages", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	exchangeResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, questionID, exchangeResp["question_id"])
	assert.NotEmpty(t, exchangeResp["question"])
	assert.Equal(t, float64(85), exchangeResp["score"])
	assert.Equal(t, "correct", exchangeResp["verdict"])

	// 查询消息历史，普通消息一条加问答三条
	req = httptest.NewRequest(http.MethodGet, "/api/reviews/"+sessionID+"/messages", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	historyResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, sessionID, historyResp["session_id"])

	messages, ok := historyResp["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 4)

	// 考官提问消息应携带代码块引用
	var examinerRefs []interface{}
	var verdictScore interface{}
	for _, item := range messages {
		msg, ok := item.(map[string]interface{})
		require.True(t, ok)
		switch msg["role"] {
		case "examiner":
			if refs, ok := msg["refs"].([]interface{}); ok {
				examinerRefs = refs
			}
		case "verdict":
			verdictScore = msg["score"]
		}
	}
	require.NotEmpty(t, examinerRefs, "Examiner message should carry block refs")
	ref, ok := examinerRefs[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, subID, ref["submission_id"])
	assert.NotEmpty(t, ref["text"])
	assert.Equal(t, float64(85), verdictScore)

	// 既无问题ID也无内容的请求应报错
	req = httptest.NewRequest(http.MethodPost, "/api/reviews/"+sessionID+"/messages", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestReviewRenameAndDelete 测试会话重命名和删除API
func TestReviewRenameAndDelete(t *testing.T) {
	env := setupTestEnv(t)

	subID := prepareCompletedSubmission(t, env)
	sessionID := createReviewSession(t, env, subID, "原始标题")

	// 重命名会话
	renameBody := map[string]interface{}{
		"title": "新标题",
	}
	jsonData, err := json.Marshal(renameBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/reviews/"+sessionID+"/rename", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)

	renameResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "新标题", renameResp["title"])

	// 删除会话
	req = httptest.NewRequest(http.MethodDelete, "/api/reviews/"+sessionID, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	deleteResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, deleteResp["success"])

	// 删除后查询应返回404
	req = httptest.NewRequest(http.MethodGet, "/api/reviews/"+sessionID, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
