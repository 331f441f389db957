package vectordb

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DataIntelligenceCrew/go-faiss"
)

// FaissRepository 基于Faiss索引的题库向量仓库
// 向量存入faiss索引，记录本体和各类映射保存在内存并随索引落盘
type FaissRepository struct {
	*BaseRepository
	mu             sync.RWMutex
	index          faiss.Index
	documents      map[string]Document
	fileToDocIDs   map[string][]string
	idToPosition   map[string]int // 记录ID到索引位置
	positionToID   map[int]string // 索引位置到记录ID的反查表
	queryCache     *TimedCache
	indexPath      string
	metaPath       string
	saveOnClose    bool
	autoSave       bool
	autoSaveCount  int
	operationCount int
}

// NewFaissRepository 创建Faiss向量仓库
// 指定了索引路径且文件已存在时从文件恢复索引和元数据
func NewFaissRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	distType := config.DistanceType
	if distType == "" {
		distType = Cosine
	}

	indexPath := ""
	metaPath := ""
	if config.Path != "" && !config.InMemory {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %v", err)
		}
		indexPath = config.Path
		metaPath = indexPath + ".meta.json"
	}

	repo := &FaissRepository{
		BaseRepository: NewBaseRepository(config.Dimension, distType),
		documents:      make(map[string]Document),
		fileToDocIDs:   make(map[string][]string),
		idToPosition:   make(map[string]int),
		positionToID:   make(map[int]string),
		queryCache:     NewTimedCache(defaultQueryCacheTTL),
		indexPath:      indexPath,
		metaPath:       metaPath,
		saveOnClose:    indexPath != "",
		autoSave:       indexPath != "",
		autoSaveCount:  100,
	}

	var index faiss.Index
	var err error

	// 先尝试从文件恢复索引
	if indexPath != "" && fileExists(indexPath) {
		index, err = faiss.ReadIndex(indexPath, 0)
		if err != nil {
			if !config.CreateIfNotExists {
				return nil, fmt.Errorf("failed to read index file: %v", err)
			}
			index, err = createFaissIndex(config.Dimension, distType)
			if err != nil {
				return nil, fmt.Errorf("failed to create faiss index: %v", err)
			}
		} else {
			if err := repo.loadMetadata(metaPath); err != nil {
				return nil, fmt.Errorf("failed to load index metadata: %v", err)
			}
		}
	} else {
		index, err = createFaissIndex(config.Dimension, distType)
		if err != nil {
			return nil, fmt.Errorf("failed to create faiss index: %v", err)
		}
	}

	repo.index = index
	return repo, nil
}

// createFaissIndex 创建平面Faiss索引
// 余弦和点积使用内积度量，余弦场景下向量在写入前已归一化
func createFaissIndex(dimension int, distType DistanceType) (faiss.Index, error) {
	var metric int
	switch distType {
	case Cosine, DotProduct:
		metric = faiss.MetricInnerProduct
	case Euclidean:
		metric = faiss.MetricL2
	default:
		metric = faiss.MetricL2
	}
	return faiss.NewIndexFlat(dimension, metric)
}

// Add 添加单条记录
func (r *FaissRepository) Add(doc Document) error {
	prepared, err := r.prepare(doc)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insertLocked(prepared); err != nil {
		return err
	}
	r.queryCache.Flush()
	r.operationCount++
	return r.autoSaveLocked()
}

// AddBatch 批量添加记录
// 校验在写入前完成，faiss写入中途失败时已写入的部分不回滚
func (r *FaissRepository) AddBatch(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	prepared := make([]Document, len(docs))
	for i, doc := range docs {
		p, err := r.prepare(doc)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc.ID, err)
		}
		prepared[i] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, doc := range prepared {
		if err := r.insertLocked(doc); err != nil {
			return err
		}
		r.operationCount++
	}
	r.queryCache.Flush()
	return r.autoSaveLocked()
}

// prepare 校验记录并填充缺省字段
func (r *FaissRepository) prepare(doc Document) (Document, error) {
	if doc.ID == "" {
		return doc, ErrInvalidID
	}
	if err := ValidateVector(doc.Vector, r.dimension); err != nil {
		return doc, err
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

// insertLocked 持锁写入faiss索引并登记各映射
func (r *FaissRepository) insertLocked(doc Document) error {
	pos := int(r.index.Ntotal())
	if err := r.index.Add(doc.Vector); err != nil {
		return fmt.Errorf("failed to add vector to index: %v", err)
	}

	if old, exists := r.documents[doc.ID]; exists {
		// 旧向量留在索引中成为墓碑，搜索时因反查失败被跳过
		r.removeMappingsLocked(old)
	}
	r.documents[doc.ID] = doc
	r.fileToDocIDs[doc.FileID] = append(r.fileToDocIDs[doc.FileID], doc.ID)
	r.idToPosition[doc.ID] = pos
	r.positionToID[pos] = doc.ID
	return nil
}

// removeMappingsLocked 持锁摘除一条记录的全部映射，不动faiss索引
func (r *FaissRepository) removeMappingsLocked(doc Document) {
	if pos, ok := r.idToPosition[doc.ID]; ok {
		delete(r.positionToID, pos)
	}
	delete(r.idToPosition, doc.ID)

	ids := r.fileToDocIDs[doc.FileID]
	for i, id := range ids {
		if id == doc.ID {
			r.fileToDocIDs[doc.FileID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.fileToDocIDs[doc.FileID]) == 0 {
		delete(r.fileToDocIDs, doc.FileID)
	}
}

// Get 获取单条记录
func (r *FaissRepository) Get(id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete 删除单条记录
// IndexFlat不支持移除向量，只摘除映射，向量留作墓碑
func (r *FaissRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, exists := r.documents[id]
	if !exists {
		return ErrDocumentNotFound
	}
	delete(r.documents, id)
	r.removeMappingsLocked(doc)
	r.queryCache.Flush()
	r.operationCount++
	return r.autoSaveLocked()
}

// DeleteByFileID 删除指定提交文件的所有记录
func (r *FaissRepository) DeleteByFileID(fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docIDs, exists := r.fileToDocIDs[fileID]
	if !exists {
		return nil
	}
	for _, id := range docIDs {
		if _, ok := r.documents[id]; !ok {
			continue
		}
		delete(r.documents, id)
		if pos, ok := r.idToPosition[id]; ok {
			delete(r.positionToID, pos)
		}
		delete(r.idToPosition, id)
		r.operationCount++
	}
	delete(r.fileToDocIDs, fileID)
	r.queryCache.Flush()
	return r.autoSaveLocked()
}

// Search 相似度搜索
// 结果按查询向量和过滤条件缓存，写操作使缓存整体失效；
// 命中记录的元数据是快照，缓存结果不反映之后的原地修改
func (r *FaissRepository) Search(vector []float32, filter SearchFilter) ([]SearchResult, error) {
	if err := ValidateVector(vector, r.dimension); err != nil {
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
	defer r.mu.RUnlock()

	if len(r.documents) == 0 {
		return []SearchResult{}, nil
	}

	k := filter.MaxResults
	if k <= 0 {
		k = DefaultSearchFilter().MaxResults
	}

	// 墓碑向量仍占据索引位置，扩大查询量补偿被跳过的命中
	total := int(r.index.Ntotal())
	stale := total - len(r.idToPosition)
	queryLimit := k*2 + stale
	if queryLimit > total {
		queryLimit = total
	}
	if queryLimit == 0 {
		return []SearchResult{}, nil
	}

	distances, indices, err := r.index.Search(query, int64(queryLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %v", err)
	}

	var results []SearchResult
	for i := 0; i < len(indices); i++ {
		idx := indices[i]
		if idx < 0 {
			continue
		}
		docID, ok := r.positionToID[int(idx)]
		if !ok {
			continue // 墓碑或已覆盖的位置
		}
		doc, exists := r.documents[docID]
		if !exists {
			continue
		}

		if len(filter.FileIDs) > 0 {
			matched := false
			for _, id := range filter.FileIDs {
				if doc.FileID == id {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if !matchMetadata(doc.Metadata, filter.Metadata) {
			continue
		}

		// 内积度量返回的是相似度，L2度量返回的是平方距离，
		// 先换算成与ComputeDistance一致的口径再评分
		dist := distances[i]
		switch r.distType {
		case Cosine:
			dist = 1 - dist
		case Euclidean:
			dist = float32(math.Sqrt(float64(dist)))
		}
		score := DistanceToScore(dist, r.distType)
		if score < filter.MinScore {
			continue
		}

		doc.Metadata = cloneMetadata(doc.Metadata)
		results = append(results, SearchResult{
			Document: doc,
			Score:    score,
			Distance: dist,
		})
		if len(results) >= k {
			break
		}
	}
	SortSearchResults(results)

	r.queryCache.Set(key, results)
	return results, nil
}

// Count 获取记录总数
func (r *FaissRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents), nil
}

// Close 关闭仓库，必要时落盘
func (r *FaissRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveOnClose && r.indexPath != "" {
		if err := r.saveIndexLocked(); err != nil {
			return fmt.Errorf("failed to save index on close: %v", err)
		}
	}
	return nil
}

// autoSaveLocked 持锁检查写入次数，达到阈值时落盘并清零计数
func (r *FaissRepository) autoSaveLocked() error {
	if !r.autoSave || r.operationCount < r.autoSaveCount {
		return nil
	}
	if err := r.saveIndexLocked(); err != nil {
		return fmt.Errorf("failed to auto-save index: %v", err)
	}
	r.operationCount = 0
	return nil
}

// saveIndexLocked 持锁保存索引和元数据到文件
func (r *FaissRepository) saveIndexLocked() error {
	if r.indexPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.indexPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}
	if err := faiss.WriteIndex(r.index, r.indexPath); err != nil {
		return fmt.Errorf("failed to write index to file: %v", err)
	}
	return r.saveMetadataLocked()
}

// faissMetadata 随索引一起落盘的元数据文件结构
type faissMetadata struct {
	Documents    map[string]Document `json:"documents"`
	FileToDocIDs map[string][]string `json:"file_to_doc_ids"`
	IDToPosition map[string]int      `json:"id_to_position"`
}

// saveMetadataLocked 持锁保存记录元数据到索引旁的JSON文件
func (r *FaissRepository) saveMetadataLocked() error {
	if r.metaPath == "" {
		return nil
	}
	meta := faissMetadata{
		Documents:    r.documents,
		FileToDocIDs: r.fileToDocIDs,
		IDToPosition: r.idToPosition,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %v", err)
	}
	if err := os.WriteFile(r.metaPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %v", err)
	}
	return nil
}

// loadMetadata 从文件加载记录元数据并重建反查表
func (r *FaissRepository) loadMetadata(path string) error {
	if path == "" || !fileExists(path) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %v", err)
	}

	var meta faissMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %v", err)
	}
	if meta.Documents != nil {
		r.documents = meta.Documents
	}
	if meta.FileToDocIDs != nil {
		r.fileToDocIDs = meta.FileToDocIDs
	}
	if meta.IDToPosition != nil {
		r.idToPosition = meta.IDToPosition
	}
	r.positionToID = make(map[int]string, len(r.idToPosition))
	for id, pos := range r.idToPosition {
		r.positionToID[pos] = id
	}
	return nil
}

// fileExists 检查文件是否存在
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func init() {
	RegisterRepository("faiss", NewFaissRepository)
}
