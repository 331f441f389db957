package vectordb

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	// defaultQueryCacheTTL 搜索结果缓存的有效期
	defaultQueryCacheTTL = 10 * time.Minute
	// parallelSearchThreshold 候选数达到该值时改用并行计算距离
	parallelSearchThreshold = 128
)

// MemoryRepository 基于内存的题库向量仓库
// 适合小规模题库和测试环境，进程退出后数据即丢失
type MemoryRepository struct {
	*BaseRepository
	mu           sync.RWMutex
	documents    map[string]Document
	fileToDocIDs map[string][]string
	queryCache   *TimedCache
}

// NewMemoryRepository 创建内存向量仓库
func NewMemoryRepository(config Config) (Repository, error) {
	distType := config.DistanceType
	if distType == "" {
		distType = Cosine
	}

	return &MemoryRepository{
		BaseRepository: NewBaseRepository(config.Dimension, distType),
		documents:      make(map[string]Document),
		fileToDocIDs:   make(map[string][]string),
		queryCache:     NewTimedCache(defaultQueryCacheTTL),
	}, nil
}

// Add 添加单条记录
func (r *MemoryRepository) Add(doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prepared, err := r.prepareLocked(doc)
	if err != nil {
		return err
	}
	r.insertLocked(prepared)
	r.queryCache.Flush()
	return nil
}

// AddBatch 批量添加记录
// 任何一条校验失败时整批不写入
func (r *MemoryRepository) AddBatch(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prepared := make([]Document, len(docs))
	for i, doc := range docs {
		p, err := r.prepareLocked(doc)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc.ID, err)
		}
		prepared[i] = p
	}
	for _, doc := range prepared {
		r.insertLocked(doc)
	}
	r.queryCache.Flush()
	return nil
}

// prepareLocked 持锁校验记录并填充缺省字段
// 仓库维度未定时由第一条记录确定
func (r *MemoryRepository) prepareLocked(doc Document) (Document, error) {
	if doc.ID == "" {
		return doc, ErrInvalidID
	}
	if err := ValidateVector(doc.Vector, r.dimension); err != nil {
		return doc, err
	}
	if r.dimension == 0 {
		r.dimension = len(doc.Vector)
	}

	if r.distType == Cosine {
		doc.Vector = normalizeVector(doc.Vector)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]interface{})
	}
	return doc, nil
}

// insertLocked 持锁写入记录，重复ID视为覆盖
func (r *MemoryRepository) insertLocked(doc Document) {
	if old, exists := r.documents[doc.ID]; exists {
		r.removeFromFileLocked(old.FileID, doc.ID)
	}
	r.documents[doc.ID] = doc
	r.fileToDocIDs[doc.FileID] = append(r.fileToDocIDs[doc.FileID], doc.ID)
}

// removeFromFileLocked 持锁从文件索引中摘除一条记录
func (r *MemoryRepository) removeFromFileLocked(fileID, docID string) {
	ids := r.fileToDocIDs[fileID]
	for i, id := range ids {
		if id == docID {
			r.fileToDocIDs[fileID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.fileToDocIDs[fileID]) == 0 {
		delete(r.fileToDocIDs, fileID)
	}
}

// Get 获取单条记录
func (r *MemoryRepository) Get(id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.documents[id]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete 删除单条记录
func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[id]
	if !ok {
		return ErrDocumentNotFound
	}
	delete(r.documents, id)
	r.removeFromFileLocked(doc.FileID, id)
	r.queryCache.Flush()
	return nil
}

// DeleteByFileID 删除指定提交文件的所有记录
// 文件不存在时视为已删除，不返回错误
func (r *MemoryRepository) DeleteByFileID(fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, ok := r.fileToDocIDs[fileID]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(r.documents, id)
	}
	delete(r.fileToDocIDs, fileID)
	r.queryCache.Flush()
	return nil
}

// Search 相似度搜索
// 相同查询向量和过滤条件的结果会被缓存，写操作使缓存整体失效
func (r *MemoryRepository) Search(vector []float32, filter SearchFilter) ([]SearchResult, error) {
	r.mu.RLock()
	dim := r.dimension
	r.mu.RUnlock()

	if err := ValidateVector(vector, dim); err != nil {
		return nil, err
	}
	query := vector
	if r.distType == Cosine {
		query = normalizeVector(vector)
	}

	key := searchCacheKey(query, filter)
	if cached, ok := r.queryCache.Get(key); ok {
		if results, ok := cached.([]SearchResult); ok {
			return results, nil
		}
	}

	r.mu.RLock()
	all := make([]Document, 0, len(r.documents))
	for _, doc := range r.documents {
		all = append(all, doc)
	}
	r.mu.RUnlock()

	candidates := FilterDocuments(all, filter)
	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}

	scored := r.scoreAll(query, candidates)

	kept := make([]SearchResult, 0, len(scored))
	for _, res := range scored {
		if res.Document.ID == "" {
			continue
		}
		if res.Score < filter.MinScore {
			continue
		}
		kept = append(kept, res)
	}
	SortSearchResults(kept)

	k := filter.MaxResults
	if k <= 0 {
		k = DefaultSearchFilter().MaxResults
	}
	if len(kept) > k {
		kept = kept[:k]
	}
	for i := range kept {
		kept[i].Document.Metadata = cloneMetadata(kept[i].Document.Metadata)
	}

	r.queryCache.Set(key, kept)
	return kept, nil
}

// scoreAll 计算查询向量与所有候选记录的距离和评分
// 候选较多时按CPU数分段并行，各goroutine只写自己的下标区间
func (r *MemoryRepository) scoreAll(query []float32, docs []Document) []SearchResult {
	results := make([]SearchResult, len(docs))
	score := func(start, end int) {
		for i := start; i < end; i++ {
			dist, err := ComputeDistance(query, docs[i].Vector, r.distType)
			if err != nil {
				continue // 留下零值，收集阶段跳过
			}
			results[i] = SearchResult{
				Document: docs[i],
				Score:    DistanceToScore(dist, r.distType),
				Distance: dist,
			}
		}
	}

	if len(docs) < parallelSearchThreshold {
		score(0, len(docs))
		return results
	}

	workers := runtime.NumCPU()
	if workers > len(docs) {
		workers = len(docs)
	}
	chunk := (len(docs) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(docs); start += chunk {
		end := start + chunk
		if end > len(docs) {
			end = len(docs)
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			score(s, e)
		}(start, end)
	}
	wg.Wait()
	return results
}

// Count 获取记录总数
func (r *MemoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents), nil
}

// Close 关闭仓库并释放数据
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.documents = make(map[string]Document)
	r.fileToDocIDs = make(map[string][]string)
	r.queryCache.Flush()
	return nil
}

func init() {
	RegisterRepository("memory", NewMemoryRepository)
}
