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
	defaultOpenAIEndpoint = "https://api.openai.com/v1"

	// 默认嵌入模型
	defaultOpenAIModel = "text-embedding-3-small"
)

// OpenAIClient 实现OpenAI兼容的嵌入API客户端
// 面向托管服务，必须提供API密钥
type OpenAIClient struct {
	apiKey     string       // API密钥
	baseURL    string       // API基础URL
	model      string       // 模型名称
	httpClient *http.Client // HTTP客户端
	maxRetries int          // 最大重试次数
	dimensions int          // 向量维度
	batchSize  int          // 单次请求的最大文本数量
}

// NewOpenAIClient 创建新的OpenAI嵌入客户端
func NewOpenAIClient(config Config) (Client, error) {
	// 验证API密钥
	if config.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIEndpoint
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: config.MaxRetries,
		dimensions: config.Dimensions,
		batchSize:  batchSize,
	}, nil
}

// Name 返回模型名称
func (c *OpenAIClient) Name() string {
	return c.model
}

// Embed 生成单条文本的向量表示
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

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
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if len(texts) > c.batchSize {
		return nil, ErrBatchTooLarge
	}

	// 批次中不允许空文本，否则返回的向量无法对齐
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	reqData := EmbeddingsRequest{
		Model:          c.model,
		Input:          texts,
		EncodingFormat: "float",
	}
	if c.dimensions > 0 {
		reqData.Dimensions = c.dimensions
	}

	var resp EmbeddingsResponse
	if err := c.sendRequest(ctx, &reqData, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("API error: %s (%s)", resp.Error.Message, resp.Error.Type))
	}

	if len(resp.Data) == 0 {
		return nil, NewEmbeddingError(ErrCodeServerError, "no embeddings returned")
	}

	// 构建结果，按照原始文本顺序
	result := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			continue // 跳过索引越界的情况
		}
		result[item.Index] = item.Embedding
	}

	return result, nil
}

// sendRequest 发送API请求并解析响应
func (c *OpenAIClient) sendRequest(ctx context.Context, reqData interface{}, respObj interface{}) error {
	// 将请求数据转换为JSON
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return NewEmbeddingError(ErrCodeInvalidRequest, fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := c.baseURL + "/embeddings"

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
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

		resp, err = c.httpClient.Do(req)
		// 频率超限也需要退避重试
		if err == nil && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
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
		code := ErrCodeServerError
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			code = ErrCodeInvalidAPIKey
		case http.StatusTooManyRequests:
			code = ErrCodeRateLimited
		case http.StatusNotFound:
			code = ErrCodeModelNotFound
		}

		// 尝试解析错误响应
		var errResp EmbeddingsResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != nil {
			return NewEmbeddingError(code,
				fmt.Sprintf("API error: %s (%s)", errResp.Error.Message, errResp.Error.Type))
		}

		// 如果无法解析，返回原始错误信息
		return NewEmbeddingError(code,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)))
	}

	// 解析JSON响应
	if err := json.Unmarshal(body, respObj); err != nil {
		return NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("failed to parse response: %v", err))
	}

	return nil
}

// 在包初始化时注册OpenAI客户端
func init() {
	RegisterClient(ProviderOpenAI, NewOpenAIClient)
}
