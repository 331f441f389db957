package embedding

import (
	"context"
	"time"
)

// Client 嵌入模型客户端接口
// 负责将文本转换为向量表示
type Client interface {
	// Embed 生成单条文本的向量表示
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 批量生成多条文本的向量表示
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name 返回模型名称
	Name() string
}

// 支持的嵌入提供商
const (
	// ProviderOllama 本地Ollama服务
	ProviderOllama = "ollama"
	// ProviderOpenAI OpenAI或兼容的托管服务
	ProviderOpenAI = "openai"
)

// Config 嵌入客户端配置
type Config struct {
	Provider    string        // 提供商名称(ollama/openai)
	APIKey      string        // API密钥(托管服务需要)
	BaseURL     string        // API基础URL，为空时使用各提供商的默认值
	Model       string        // 模型名称，为空时使用各提供商的默认模型
	Timeout     time.Duration // 请求超时时间
	MaxRetries  int           // 最大重试次数
	Dimensions  int           // 向量维度，0表示使用模型默认维度
	BatchSize   int           // 单次请求的最大文本数量
	EnableCache bool          // 是否启用向量缓存
}

// DefaultConfig 返回默认配置
// 默认使用本地Ollama服务，不需要API密钥
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOllama,
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		BatchSize:   16,
		EnableCache: false,
	}
}

// Factory 嵌入客户端工厂函数类型
type Factory func(config Config) (Client, error)

// 全局注册的嵌入客户端工厂函数
var clientFactories = make(map[string]Factory)

// RegisterClient 注册嵌入客户端工厂函数
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient 根据配置创建嵌入客户端
// 未注册的提供商回退到默认的Ollama
func NewClient(config Config) (Client, error) {
	name := config.Provider
	if name == "" {
		name = ProviderOllama
	}

	factory, exists := clientFactories[name]
	if !exists {
		factory, exists = clientFactories[ProviderOllama]
		if !exists {
			return nil, NewEmbeddingError(
				ErrCodeInvalidRequest,
				"embedding client type not registered: "+name)
		}
	}

	client, err := factory(config)
	if err != nil {
		return nil, err
	}

	// 根据配置包装缓存装饰器
	if config.EnableCache {
		client = NewCachedClient(client, DefaultCacheTTL)
	}

	return client, nil
}
