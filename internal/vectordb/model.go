package vectordb

import (
	"errors"
	"time"
)

// 常用错误定义
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyVector      = errors.New("empty vector")
	ErrInvalidID        = errors.New("invalid document ID")
	ErrInvalidDimension = errors.New("vector dimension mismatch")
)

// Document 题库向量索引中的一条记录
// 通常对应一道已生成的检查问题，按来源提交文件归组
type Document struct {
	ID        string                 // 唯一标识符，一般使用问题ID
	FileID    string                 // 来源提交文件ID
	FileName  string                 // 来源文件名
	Position  int                    // 在该提交问题集中的序号
	Text      string                 // 原始文本，即问题内容
	Vector    []float32              // 向量表示
	CreatedAt time.Time              // 创建时间
	Metadata  map[string]interface{} // 附加元数据，如语言、难度、代码块行号
}

// DistanceType 向量距离计算方法
type DistanceType string

const (
	// Cosine 余弦相似度
	Cosine DistanceType = "cosine"
	// DotProduct 点积
	DotProduct DistanceType = "dot"
	// Euclidean 欧几里得距离
	Euclidean DistanceType = "l2"
)

// SearchResult 搜索结果
type SearchResult struct {
	Document Document // 命中的题库记录
	Score    float32  // 相似度得分
	Distance float32  // 计算的距离
}

// SearchFilter 搜索过滤条件
type SearchFilter struct {
	FileIDs    []string               // 按来源文件ID过滤
	Metadata   map[string]interface{} // 按元数据过滤
	MinScore   float32                // 最小相似度分数
	MaxResults int                    // 最大返回结果数
}

// DefaultSearchFilter 返回默认的搜索过滤器
func DefaultSearchFilter() SearchFilter {
	return SearchFilter{
		MinScore:   0.0,
		MaxResults: 5,
	}
}

// Repository 题库向量仓库接口
// 定义向量数据的基本操作
type Repository interface {
	// Add 添加单条记录
	Add(doc Document) error

	// AddBatch 批量添加记录
	AddBatch(docs []Document) error

	// Get 获取单条记录
	Get(id string) (Document, error)

	// Delete 删除单条记录
	Delete(id string) error

	// DeleteByFileID 删除指定提交文件的所有记录
	DeleteByFileID(fileID string) error

	// Search 相似度搜索
	Search(vector []float32, filter SearchFilter) ([]SearchResult, error)

	// Count 获取记录总数
	Count() (int, error)

	// GetDimension 返回向量维数
	GetDimension() int

	// Close 关闭仓库
	Close() error
}

// Config 向量仓库配置
type Config struct {
	Type              string       // 仓库类型，如 "memory", "faiss"
	Path              string       // 索引文件路径
	Dimension         int          // 向量维度
	DistanceType      DistanceType // 距离计算类型
	CreateIfNotExists bool         // 索引文件无法读取时是否重建
	InMemory          bool         // 是否仅在内存中运行，不做持久化
}

// Factory 向量仓库工厂函数类型
type Factory func(config Config) (Repository, error)

// RepositoryRegistry 注册可用的向量仓库实现
var RepositoryRegistry = map[string]Factory{}

// RegisterRepository 注册向量仓库工厂函数
func RegisterRepository(name string, factory Factory) {
	RepositoryRegistry[name] = factory
}

// NewRepository 根据配置创建向量仓库实例
func NewRepository(config Config) (Repository, error) {
	factory, ok := RepositoryRegistry[config.Type]
	if !ok {
		// 未知类型时退回内存实现
		factory = NewMemoryRepository
	}
	return factory(config)
}
