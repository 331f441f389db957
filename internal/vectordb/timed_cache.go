package vectordb

import (
	"sync"
	"time"
)

// TimedCache 带过期时间的并发安全缓存
// 仓库实现用它缓存搜索结果，任何写操作发生时整体清空
type TimedCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]timedEntry
}

type timedEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewTimedCache 创建指定TTL的缓存
func NewTimedCache(ttl time.Duration) *TimedCache {
	return &TimedCache{
		ttl:     ttl,
		entries: make(map[string]timedEntry),
	}
}

// Set 写入或覆盖一个键，过期时间从当前时刻起算
func (c *TimedCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = timedEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Get 读取一个键，不存在或已过期时返回false
func (c *TimedCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Cleanup 移除所有已过期的条目
// Get 不做惰性删除，过期条目由这里统一回收
func (c *TimedCache) Cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Flush 清空全部条目
func (c *TimedCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]timedEntry)
}

// Len 返回当前条目数，含未回收的过期条目
func (c *TimedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
