package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenAIChat 测试OpenAI兼容接口的对话请求
func TestOpenAIChat(t *testing.T) {
	var gotReq ChatCompletionsRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := ChatCompletionsResponse{
			ID:    "chatcmpl-1",
			Model: gotReq.Model,
			Choices: []ChatCompletionsChoice{
				{
					Index:        0,
					FinishReason: "stop",
					Message:      Message{Role: RoleAssistant, Content: "回答内容"},
				},
			},
			Usage: ChatCompletionsUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(
		WithBaseURL(server.URL+"/v1"),
		WithAPIKey("sk-test"),
		WithModel(ModelQwen25Coder),
	)
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "你是助教"},
		{Role: RoleUser, Content: "解释这段代码"},
	}, WithChatTemperature(0.2))

	require.NoError(t, err)
	assert.Equal(t, "回答内容", resp.Text)
	assert.Equal(t, 15, resp.TokenCount)

	// 验证请求体和认证头
	assert.Equal(t, ModelQwen25Coder, gotReq.Model)
	assert.Len(t, gotReq.Messages, 2)
	require.NotNil(t, gotReq.Temperature)
	assert.Equal(t, float32(0.2), *gotReq.Temperature)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

// TestOpenAIChatWithoutKey 测试本地服务不带密钥的调用
func TestOpenAIChatWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 本地Ollama兼容端点不要求认证头
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ChatCompletionsResponse{
			Choices: []ChatCompletionsChoice{
				{Message: Message{Role: RoleAssistant, Content: "ok"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient(WithBaseURL(server.URL + "/v1"))
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

// TestOpenAIErrors 测试OpenAI兼容接口的错误映射
func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		errType    string
		expectCode int
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid_api_key", ErrCodeInvalidAPIKey},
		{"model missing", http.StatusNotFound, "model_not_found", ErrCodeModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ChatCompletionsResponse{
					Error: &APIError{Message: "boom", Type: tt.errType},
				})
			}))
			defer server.Close()

			client, err := NewOpenAIClient(WithBaseURL(server.URL + "/v1"))
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "hi")
			var llmErr LLMError
			require.ErrorAs(t, err, &llmErr)
			assert.Equal(t, tt.expectCode, llmErr.Code)
		})
	}

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ChatCompletionsResponse{})
		}))
		defer server.Close()

		client, err := NewOpenAIClient(WithBaseURL(server.URL + "/v1"))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		var llmErr LLMError
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, ErrCodeServerError, llmErr.Code)
	})
}
