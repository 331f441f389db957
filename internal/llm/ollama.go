package llm

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
	// 本地Ollama服务的默认端点
	defaultOllamaEndpoint = "http://localhost:11434"
)

// OllamaClient 本地Ollama大模型客户端实现
// 走Ollama原生REST接口，不需要API密钥
type OllamaClient struct {
	baseURL     string       // 服务端点
	model       string       // 模型名称
	httpClient  *http.Client // HTTP客户端
	maxRetries  int          // 最大重试次数
	maxTokens   int          // 最大生成Token数
	temperature float32      // 温度参数
	topP        float32      // topP参数
}

// NewOllamaClient 创建新的Ollama大模型客户端
func NewOllamaClient(opts ...Option) (Client, error) {
	// 创建配置
	cfg := NewConfig(opts...)

	// 确定服务端点
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaEndpoint
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// 创建HTTP客户端，设置超时
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}

	client := &OllamaClient{
		baseURL:     baseURL,
		model:       cfg.Model,
		httpClient:  httpClient,
		maxRetries:  cfg.MaxRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}

	return client, nil
}

// Name 返回模型名称
func (c *OllamaClient) Name() string {
	return c.model
}

// Generate 根据提示词生成回答
func (c *OllamaClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}

	// 将单个提示转换为消息格式进行调用
	messages := []Message{
		{
			Role:    RoleUser,
			Content: prompt,
		},
	}

	// 转换GenerateOptions为ChatOptions
	var chatOpts []ChatOption
	opts := &GenerateOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if opts.MaxTokens != nil {
		chatOpts = append(chatOpts, WithChatMaxTokens(*opts.MaxTokens))
	}
	if opts.Temperature != nil {
		chatOpts = append(chatOpts, WithChatTemperature(*opts.Temperature))
	}
	if opts.TopP != nil {
		chatOpts = append(chatOpts, WithChatTopP(*opts.TopP))
	}
	if opts.TopK != nil {
		chatOpts = append(chatOpts, WithChatTopK(*opts.TopK))
	}
	if opts.Seed != nil {
		chatOpts = append(chatOpts, WithChatSeed(*opts.Seed))
	}
	if opts.Stream {
		chatOpts = append(chatOpts, WithChatStream(opts.Stream))
	}

	// 复用Chat方法
	return c.Chat(ctx, messages, chatOpts...)
}

// Chat 进行多轮对话
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, options ...ChatOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}

	// 应用选项
	opts := &ChatOptions{}
	for _, opt := range options {
		opt(opts)
	}

	// 准备推理参数
	params := &OllamaOptions{}

	// 如果提供了选项，则使用
	if opts.MaxTokens != nil {
		params.NumPredict = opts.MaxTokens
	} else if c.maxTokens > 0 {
		maxTokens := c.maxTokens
		params.NumPredict = &maxTokens
	}

	if opts.Temperature != nil {
		params.Temperature = opts.Temperature
	} else if c.temperature > 0 {
		temp := c.temperature
		params.Temperature = &temp
	}

	if opts.TopP != nil {
		params.TopP = opts.TopP
	} else if c.topP > 0 {
		topP := c.topP
		params.TopP = &topP
	}

	if opts.TopK != nil {
		params.TopK = opts.TopK
	}

	if opts.Seed != nil {
		params.Seed = opts.Seed
	}

	// 创建请求，非流式返回完整消息
	req := &OllamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  params,
	}

	// 发送请求
	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	// 解析响应
	return c.processResponse(resp)
}

// Ping 检查Ollama服务是否可达以及模型是否已在本地加载
func (c *OllamaClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return NewLLMError(ErrCodeNetworkError, fmt.Sprintf("ollama server unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewLLMError(ErrCodeServerError, fmt.Sprintf("ollama server returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewLLMError(ErrCodeServerError, fmt.Sprintf("failed to read response: %v", err))
	}

	var tags OllamaTagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return NewLLMError(ErrCodeServerError, fmt.Sprintf("failed to parse tags response: %v", err))
	}

	// 模型名不带标签时按前缀匹配，llama3与llama3:latest视为同一模型
	for _, m := range tags.Models {
		if m.Name == c.model || strings.HasPrefix(m.Name, c.model+":") {
			return nil
		}
	}

	return NewLLMError(ErrCodeModelNotFound, ErrMsgModelNotFound+": "+c.model)
}

// sendRequest 发送API请求并解析响应
func (c *OllamaClient) sendRequest(ctx context.Context, req *OllamaChatRequest) (*OllamaChatResponse, error) {
	// 将请求数据转换为JSON
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to marshal request: %v", err))
	}

	// 使用重试机制发送请求
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避重试
			select {
			case <-ctx.Done():
				return nil, NewLLMError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(time.Duration(1<<attempt) * 100 * time.Millisecond):
				// 等待后继续
			}
		}

		// 请求体不可复用，每次重试重新构建
		httpReq, reqErr := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/api/chat",
			bytes.NewBuffer(jsonData),
		)
		if reqErr != nil {
			return nil, NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to create request: %v", reqErr))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")

		resp, err = c.httpClient.Do(httpReq)
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
		return nil, NewLLMError(ErrCodeNetworkError, fmt.Sprintf("request failed: %v", lastErr))
	}
	defer resp.Body.Close()

	// 读取响应体
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewLLMError(ErrCodeServerError, fmt.Sprintf("failed to read response: %v", err))
	}

	// 检查HTTP状态码
	if resp.StatusCode != http.StatusOK {
		// 尝试解析错误响应
		var errResp struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			code := ErrCodeServerError
			if strings.Contains(errResp.Error, "not found") {
				code = ErrCodeModelNotFound
			}
			return nil, NewLLMError(code, fmt.Sprintf("ollama error: %s", errResp.Error))
		}

		// 如果无法解析，返回原始错误
		return nil, NewLLMError(ErrCodeServerError,
			fmt.Sprintf("ollama error (status %d): %s", resp.StatusCode, string(body)))
	}

	// 解析JSON响应
	var ollamaResp OllamaChatResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return nil, NewLLMError(ErrCodeServerError,
			fmt.Sprintf("failed to parse response: %v", err))
	}

	// 检查API返回的错误
	if ollamaResp.Error != "" {
		return nil, NewLLMError(ErrCodeServerError,
			fmt.Sprintf("ollama error: %s", ollamaResp.Error))
	}

	return &ollamaResp, nil
}

// processResponse 处理Ollama的响应
func (c *OllamaClient) processResponse(resp *OllamaChatResponse) (*Response, error) {
	if resp.Message.Content == "" {
		return nil, NewLLMError(ErrCodeServerError, "empty response from ollama")
	}

	result := &Response{
		Text:       resp.Message.Content,
		ModelName:  c.model,
		TokenCount: resp.PromptEvalCount + resp.EvalCount,
		FinishTime: time.Now(),
	}
	result.Messages = append(result.Messages, resp.Message)

	return result, nil
}

// 在包初始化时注册Ollama客户端
func init() {
	RegisterClient("ollama", NewOllamaClient)
}
