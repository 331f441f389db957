package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOllamaTestServer 启动一个模拟Ollama REST接口的测试服务
func newOllamaTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOllamaClient(
		WithBaseURL(server.URL),
		WithModel(ModelLlama3),
		WithMaxRetries(2),
	)
	require.NoError(t, err)

	return server, client
}

// TestOllamaChat 测试Ollama对话请求
func TestOllamaChat(t *testing.T) {
	var gotReq OllamaChatRequest

	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := OllamaChatResponse{
			Model:           ModelLlama3,
			Message:         Message{Role: RoleAssistant, Content: "这段代码实现了求和"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		}
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := client.Chat(context.Background(), []Message{
		{Role: RoleUser, Content: "这段代码做了什么？"},
	}, WithChatMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "这段代码实现了求和", resp.Text)
	assert.Equal(t, 20, resp.TokenCount, "输入输出token应该累加")
	assert.Equal(t, ModelLlama3, resp.ModelName)

	// 验证请求体
	assert.Equal(t, ModelLlama3, gotReq.Model)
	assert.False(t, gotReq.Stream, "非流式调用")
	require.NotNil(t, gotReq.Options)
	require.NotNil(t, gotReq.Options.NumPredict)
	assert.Equal(t, 64, *gotReq.Options.NumPredict, "max tokens应该映射为num_predict")
}

// TestOllamaGenerate 测试单提示词生成走Chat路径
func TestOllamaGenerate(t *testing.T) {
	var gotReq OllamaChatRequest

	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(OllamaChatResponse{
			Message: Message{Role: RoleAssistant, Content: "ok"},
			Done:    true,
		})
	})

	_, err := client.Generate(context.Background(), "出一道题", WithGenerateSeed(42))
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, RoleUser, gotReq.Messages[0].Role)
	assert.Equal(t, "出一道题", gotReq.Messages[0].Content)
	require.NotNil(t, gotReq.Options.Seed)
	assert.Equal(t, 42, *gotReq.Options.Seed, "种子应该透传给服务端")

	// 空提示词直接报错，不发请求
	_, err = client.Generate(context.Background(), "")
	var llmErr LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeEmptyPrompt, llmErr.Code)
}

// TestOllamaErrors 测试Ollama错误响应的映射
func TestOllamaErrors(t *testing.T) {
	t.Run("model not found", func(t *testing.T) {
		_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "model 'llama3' not found, try pulling it first",
			})
		})

		_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
		var llmErr LLMError
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, ErrCodeModelNotFound, llmErr.Code)
	})

	t.Run("empty messages", func(t *testing.T) {
		_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("request should not reach the server")
		})

		_, err := client.Chat(context.Background(), nil)
		var llmErr LLMError
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, ErrCodeInvalidRequest, llmErr.Code)
	})

	t.Run("server error retried", func(t *testing.T) {
		var calls int32
		_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				// 第一次返回500触发重试
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(OllamaChatResponse{
				Message: Message{Role: RoleAssistant, Content: "recovered"},
				Done:    true,
			})
		})

		resp, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
		require.NoError(t, err)
		assert.Equal(t, "recovered", resp.Text)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "500后应该重试一次")
	})
}

// TestOllamaPing 测试Ollama健康检查
func TestOllamaPing(t *testing.T) {
	t.Run("model available", func(t *testing.T) {
		_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			json.NewEncoder(w).Encode(OllamaTagsResponse{
				Models: []OllamaModelInfo{{Name: "llama3:latest"}},
			})
		})

		ollama, ok := client.(*OllamaClient)
		require.True(t, ok)
		assert.NoError(t, ollama.Ping(context.Background()), "llama3:latest应该匹配llama3")
	})

	t.Run("model missing", func(t *testing.T) {
		_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(OllamaTagsResponse{
				Models: []OllamaModelInfo{{Name: "mistral:latest"}},
			})
		})

		ollama := client.(*OllamaClient)
		err := ollama.Ping(context.Background())
		var llmErr LLMError
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, ErrCodeModelNotFound, llmErr.Code)
	})
}
