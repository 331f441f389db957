package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheTTL 向量缓存的默认过期时间
	DefaultCacheTTL = 24 * time.Hour

	// 过期缓存的清理周期
	cacheCleanupInterval = 1 * time.Hour
)

// CachedClient 带本地缓存的嵌入客户端装饰器
// 相同文本的向量只计算一次，适合重复提交的代码块
type CachedClient struct {
	inner Client
	cache *gocache.Cache
}

// NewCachedClient 包装一个嵌入客户端并启用向量缓存
func NewCachedClient(inner Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedClient{
		inner: inner,
		cache: gocache.New(ttl, cacheCleanupInterval),
	}
}

// Name 返回底层模型名称
func (c *CachedClient) Name() string {
	return c.inner.Name()
}

// Embed 生成单条文本的向量表示，命中缓存时不请求底层服务
func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	key := c.cacheKey(text)
	if cached, found := c.cache.Get(key); found {
		if vector, ok := cached.([]float32); ok {
			return vector, nil
		}
	}

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, vector, gocache.DefaultExpiration)
	return vector, nil
}

// EmbedBatch 批量生成文本的向量表示
// 只把未命中缓存的文本发给底层服务，再按原始顺序合并结果
func (c *CachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var missing []string
	var missingIndices []int

	for i, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}

		if cached, found := c.cache.Get(c.cacheKey(text)); found {
			if vector, ok := cached.([]float32); ok {
				results[i] = vector
				continue
			}
		}

		missing = append(missing, text)
		missingIndices = append(missingIndices, i)
	}

	// 全部命中缓存
	if len(missing) == 0 {
		return results, nil
	}

	vectors, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(missing) {
		return nil, NewEmbeddingError(ErrCodeServerError, "embedding count mismatch from inner client")
	}

	for j, vector := range vectors {
		idx := missingIndices[j]
		results[idx] = vector
		c.cache.Set(c.cacheKey(texts[idx]), vector, gocache.DefaultExpiration)
	}

	return results, nil
}

// cacheKey 根据模型名称和文本内容生成缓存键
// 代码块可能很长，用哈希避免键无限膨胀
func (c *CachedClient) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + c.inner.Name() + ":" + hex.EncodeToString(sum[:])
}
