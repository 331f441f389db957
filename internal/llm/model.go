package llm

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleAssistant 助手角色
	RoleAssistant MessageRole = "assistant"
	// RoleTool 工具角色
	RoleTool MessageRole = "tool"
)

// Message 对话消息结构
type Message struct {
	Role    MessageRole `json:"role"`           // 角色
	Content string      `json:"content"`        // 内容
	Name    string      `json:"name,omitempty"` // 可选名称标识
}

// OllamaChatRequest Ollama原生对话请求结构
type OllamaChatRequest struct {
	Model    string         `json:"model"`             // 模型名称
	Messages []Message      `json:"messages"`          // 消息列表
	Stream   bool           `json:"stream"`            // 是否流式输出
	Options  *OllamaOptions `json:"options,omitempty"` // 可选推理参数
}

// OllamaOptions Ollama推理参数
// 字段名与Ollama的modelfile参数保持一致
type OllamaOptions struct {
	Temperature *float32 `json:"temperature,omitempty"` // 采样温度
	TopP        *float32 `json:"top_p,omitempty"`       // 核采样概率阈值
	TopK        *int     `json:"top_k,omitempty"`       // 生成候选集大小
	NumPredict  *int     `json:"num_predict,omitempty"` // 最大生成Token数
	Seed        *int     `json:"seed,omitempty"`        // 随机数种子
}

// OllamaChatResponse Ollama原生对话响应结构
type OllamaChatResponse struct {
	Model           string    `json:"model"`                 // 模型名称
	CreatedAt       time.Time `json:"created_at"`            // 创建时间
	Message         Message   `json:"message"`               // 助手消息
	Done            bool      `json:"done"`                  // 是否完成
	DoneReason      string    `json:"done_reason,omitempty"` // 结束原因
	PromptEvalCount int       `json:"prompt_eval_count"`     // 输入token数
	EvalCount       int       `json:"eval_count"`            // 输出token数
	Error           string    `json:"error,omitempty"`       // 错误消息(如果有)
}

// OllamaTagsResponse Ollama模型列表响应，用于健康检查
type OllamaTagsResponse struct {
	Models []OllamaModelInfo `json:"models"` // 本地已有的模型
}

// OllamaModelInfo Ollama本地模型信息
type OllamaModelInfo struct {
	Name       string `json:"name"`        // 模型名称（带标签）
	Model      string `json:"model"`       // 模型标识
	Size       int64  `json:"size"`        // 模型大小
	ModifiedAt string `json:"modified_at"` // 修改时间
}

// ChatCompletionsRequest OpenAI兼容的对话请求结构
// 适用于Ollama的/v1兼容端点、vLLM等任何OpenAI风格服务
type ChatCompletionsRequest struct {
	Model       string    `json:"model"`                 // 模型名称
	Messages    []Message `json:"messages"`              // 消息列表
	MaxTokens   *int      `json:"max_tokens,omitempty"`  // 最大生成Token数
	Temperature *float32  `json:"temperature,omitempty"` // 采样温度
	TopP        *float32  `json:"top_p,omitempty"`       // 核采样概率阈值
	Seed        *int      `json:"seed,omitempty"`        // 随机数种子
	Stream      bool      `json:"stream,omitempty"`      // 是否流式输出
}

// ChatCompletionsResponse OpenAI兼容的对话响应结构
type ChatCompletionsResponse struct {
	ID      string                  `json:"id"`              // 响应ID
	Object  string                  `json:"object"`          // 对象类型
	Created int64                   `json:"created"`         // 创建时间戳
	Model   string                  `json:"model"`           // 模型名称
	Choices []ChatCompletionsChoice `json:"choices"`         // 选择列表
	Usage   ChatCompletionsUsage    `json:"usage"`           // 资源使用情况
	Error   *APIError               `json:"error,omitempty"` // 错误信息(如果有)
}

// ChatCompletionsChoice 输出选择
type ChatCompletionsChoice struct {
	Index        int     `json:"index"`         // 选择下标
	FinishReason string  `json:"finish_reason"` // 结束原因
	Message      Message `json:"message"`       // 消息内容
}

// ChatCompletionsUsage 资源使用情况
type ChatCompletionsUsage struct {
	PromptTokens     int `json:"prompt_tokens"`     // 输入token数
	CompletionTokens int `json:"completion_tokens"` // 输出token数
	TotalTokens      int `json:"total_tokens"`      // 总token数
}

// APIError OpenAI兼容的错误结构
type APIError struct {
	Message string `json:"message"` // 错误消息
	Type    string `json:"type"`    // 错误类型
	Code    string `json:"code"`    // 错误码
}

// Response 统一的响应结构
type Response struct {
	Text       string    // 生成的文本
	Messages   []Message // 消息列表（如果是对话）
	TokenCount int       // 使用的token数
	ModelName  string    // 使用的模型名称
	FinishTime time.Time // 完成时间
	Error      error     // 如果出错，则包含错误信息
}

// QuestionSet 针对一个代码块生成的问题集
type QuestionSet struct {
	BlockText string   `json:"block_text"` // 被提问的代码块
	Questions []string `json:"questions"`  // 生成的问题列表
}

// Evaluation 学生回答的评估结果
type Evaluation struct {
	Score    int    `json:"score"`    // 评分(0-100)
	Verdict  string `json:"verdict"`  // 结论：correct/partial/incorrect
	Feedback string `json:"feedback"` // 给学生的反馈
}

// 评估结论常量
const (
	VerdictCorrect   = "correct"   // 回答正确
	VerdictPartial   = "partial"   // 部分正确
	VerdictIncorrect = "incorrect" // 回答错误
)

// Model 常用本地模型名称
const (
	ModelLlama3        = "llama3"         // Llama3模型（默认）
	ModelLlama3_8B     = "llama3:8b"      // Llama3-8B模型
	ModelQwen25Coder   = "qwen2.5-coder"  // 通义千问代码模型
	ModelDeepSeekCoder = "deepseek-coder" // DeepSeek代码模型
	ModelCodeLlama     = "codellama"      // CodeLlama代码模型
	ModelGemma2        = "gemma2:2b"      // Gemma2轻量模型
	ModelMistral       = "mistral"        // Mistral模型
)
