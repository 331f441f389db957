package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// 默认API端点
	defaultOllamaEndpoint = "http://localhost:11434"

	// 默认嵌入模型
	defaultOllamaModel = "nomic-embed-text"

	// nomic-embed-text模型的向量维度
	defaultOllamaDimensions = 768
)

// OllamaClient 实现本地Ollama嵌入API客户端
type OllamaClient struct {
	baseURL    string       // API基础URL
	model      string       // 模型名称
	httpClient *http.Client // HTTP客户端
	maxRetries int          // 最大重试次数
	dimensions int          // 向量维度
	batchSize  int          // 单次请求的最大文本数量
}

// NewOllamaClient 创建新的Ollama嵌入客户端
// 本地服务不需要API密钥
func NewOllamaClient(config Config) (Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaEndpoint
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := config.Model
	if model == "" {
		model = defaultOllamaModel
	}

	dimensions := config.Dimensions
	if dimensions == 0 {
		dimensions = defaultOllamaDimensions
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OllamaClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: config.MaxRetries,
		dimensions: dimensions,
		batchSize:  batchSize,
	}, nil
}

// Name 返回模型名称
func (c *OllamaClient) Name() string {
	return c.model
}

// Dimensions 返回向量维度
func (c *OllamaClient) Dimensions() int {
	return c.dimensions
}

// Embed 生成单条文本的向量表示
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	// 调用批处理API处理单个文本
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(vectors) == 0 {
		return nil, NewEmbeddingError(ErrCodeServerError, "no embedding vectors returned")
	}

	return vectors[0], nil
}

// EmbedBatch 批量生成文本的向量表示
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	// 检查批量大小限制
	if len(texts) > c.batchSize {
		return nil, ErrBatchTooLarge
	}

	// 批次中不允许空文本，否则返回的向量无法对齐
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	reqData := OllamaEmbedRequest{
		Model: c.model,
		Input: texts,
	}

	var resp OllamaEmbedResponse
	if err := c.sendRequest(ctx, &reqData, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, NewEmbeddingError(ErrCodeServerError, resp.Error)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}

	return resp.Embeddings, nil
}

// sendRequest 发送API请求并解析响应
func (c *OllamaClient) sendRequest(ctx context.Context, reqData interface{}, respObj interface{}) error {
	// 将请求数据转换为JSON
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return NewEmbeddingError(ErrCodeInvalidRequest, fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := c.baseURL + "/api/embed"

	// 使用重试机制发送请求
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避重试
			select {
			case <-ctx.Done():
				return NewEmbeddingError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(time.Duration(1<<attempt) * 100 * time.Millisecond):
				// 等待后继续
			}
		}

		// 请求体不可复用，每次重试重新构建
		req, reqErr := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			url,
			bytes.NewBuffer(jsonData),
		)
		if reqErr != nil {
			return NewEmbeddingError(ErrCodeInvalidRequest, fmt.Sprintf("failed to create request: %v", reqErr))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode < 500 {
			// 成功或客户端错误，不需要重试
			break
		}

		if err != nil {
			lastErr = err
		} else if attempt < c.maxRetries {
			resp.Body.Close() // 后面还会重试，先释放连接
		}
	}

	if err != nil {
		return NewEmbeddingError(ErrCodeNetworkError, fmt.Sprintf("request failed: %v", lastErr))
	}
	defer resp.Body.Close()

	// 读取响应体
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewEmbeddingError(ErrCodeServerError, fmt.Sprintf("failed to read response: %v", err))
	}

	// 检查HTTP状态码
	if resp.StatusCode != http.StatusOK {
		// 尝试解析Ollama的错误响应
		var errResp struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			// 模型未加载时提示用户先执行ollama pull
			if strings.Contains(errResp.Error, "not found") {
				return NewEmbeddingError(ErrCodeModelNotFound,
					fmt.Sprintf("%s: %s", errResp.Error, "try pulling the model first"))
			}
			return NewEmbeddingError(ErrCodeServerError, errResp.Error)
		}

		// 如果无法解析，返回原始错误信息
		return NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)))
	}

	// 解析JSON响应
	if err := json.Unmarshal(body, respObj); err != nil {
		return NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("failed to parse response: %v", err))
	}

	return nil
}

// 注册Ollama嵌入客户端
func init() {
	RegisterClient(ProviderOllama, NewOllamaClient)
}
