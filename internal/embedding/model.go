package embedding

// OllamaEmbedRequest Ollama原生嵌入API请求结构
type OllamaEmbedRequest struct {
	Model    string   `json:"model"`              // 模型名称
	Input    []string `json:"input"`              // 需要嵌入的文本列表
	Truncate *bool    `json:"truncate,omitempty"` // 超长文本是否截断
}

// OllamaEmbedResponse Ollama原生嵌入API响应结构
type OllamaEmbedResponse struct {
	Model           string      `json:"model"`                       // 模型名称
	Embeddings      [][]float32 `json:"embeddings"`                  // 嵌入向量列表
	TotalDuration   int64       `json:"total_duration,omitempty"`    // 总耗时(纳秒)
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"` // 使用的token数
	Error           string      `json:"error,omitempty"`             // 错误消息(如果有)
}

// EmbeddingsRequest OpenAI兼容的嵌入API请求结构
type EmbeddingsRequest struct {
	Model          string   `json:"model"`                     // 模型名称
	Input          []string `json:"input"`                     // 需要嵌入的文本列表
	EncodingFormat string   `json:"encoding_format,omitempty"` // 向量编码格式
	Dimensions     int      `json:"dimensions,omitempty"`      // 期望的向量维度
	User           string   `json:"user,omitempty"`            // 可选的用户标识符
}

// EmbeddingsResponse OpenAI兼容的嵌入API响应结构
type EmbeddingsResponse struct {
	Object string           `json:"object"`          // 对象类型
	Data   []EmbeddingData  `json:"data"`            // 嵌入结果列表
	Model  string           `json:"model"`           // 模型名称
	Usage  EmbeddingsUsage  `json:"usage"`           // 资源使用情况
	Error  *EmbeddingsError `json:"error,omitempty"` // 错误信息(如果有)
}

// EmbeddingData 单条文本的嵌入结果
type EmbeddingData struct {
	Object    string    `json:"object"`    // 对象类型
	Index     int       `json:"index"`     // 对应输入文本的下标
	Embedding []float32 `json:"embedding"` // 嵌入向量
}

// EmbeddingsUsage 资源使用情况
type EmbeddingsUsage struct {
	PromptTokens int `json:"prompt_tokens"` // 输入token数
	TotalTokens  int `json:"total_tokens"`  // 总token数
}

// EmbeddingsError OpenAI兼容的错误结构
type EmbeddingsError struct {
	Message string `json:"message"` // 错误消息
	Type    string `json:"type"`    // 错误类型
	Code    string `json:"code"`    // 错误码
}
