package vectordb

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
)

// BaseRepository 各具体实现共享的基础部分
// 只保存维度与距离类型，并发控制由具体实现自己负责
type BaseRepository struct {
	dimension int          // 向量维度，0表示由首次写入确定
	distType  DistanceType // 距离计算类型
}

// NewBaseRepository 创建基础仓库
func NewBaseRepository(dimension int, distType DistanceType) *BaseRepository {
	return &BaseRepository{
		dimension: dimension,
		distType:  distType,
	}
}

// GetDimension 返回向量维数
func (b *BaseRepository) GetDimension() int {
	return b.dimension
}

// ComputeDistance 计算两个向量间的距离
func ComputeDistance(v1, v2 []float32, distType DistanceType) (float32, error) {
	if len(v1) != len(v2) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrInvalidDimension, len(v1), len(v2))
	}

	switch distType {
	case Cosine:
		return cosineDistance(v1, v2), nil
	case DotProduct:
		return dotProduct(v1, v2), nil
	case Euclidean:
		return euclideanDistance(v1, v2), nil
	default:
		return 0, fmt.Errorf("unsupported distance type: %s", distType)
	}
}

// cosineDistance 计算余弦距离
// 余弦距离 = 1 - 余弦相似度，范围[0, 2]
func cosineDistance(v1, v2 []float32) float32 {
	dot := dotProduct(v1, v2)
	norm1 := vectorNorm(v1)
	norm2 := vectorNorm(v2)

	if norm1 == 0 || norm2 == 0 {
		return 1.0 // 零向量视为最大距离
	}

	similarity := dot / (norm1 * norm2)
	// 浮点误差可能使相似度略微越界
	if similarity > 1.0 {
		similarity = 1.0
	}

	return 1.0 - similarity
}

// dotProduct 计算两个向量的点积
// DotProduct 距离类型下点积直接作为距离值使用，越大越相似
func dotProduct(v1, v2 []float32) float32 {
	var dot float32
	for i := 0; i < len(v1); i++ {
		dot += v1[i] * v2[i]
	}
	return dot
}

// euclideanDistance 计算欧几里得距离
func euclideanDistance(v1, v2 []float32) float32 {
	var sum float32
	for i := 0; i < len(v1); i++ {
		d := v1[i] - v2[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

// vectorNorm 计算向量的L2范数
func vectorNorm(v []float32) float32 {
	var sum float32
	for _, val := range v {
		sum += val * val
	}
	return float32(math.Sqrt(float64(sum)))
}

// normalizeVector 归一化向量，使其长度为1
func normalizeVector(v []float32) []float32 {
	norm := vectorNorm(v)
	if norm == 0 {
		return v // 零向量无法归一化
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result
}

// FilterDocuments 根据过滤条件筛选记录
func FilterDocuments(docs []Document, filter SearchFilter) []Document {
	if len(docs) == 0 {
		return nil
	}

	fileIDSet := make(map[string]bool)
	for _, id := range filter.FileIDs {
		fileIDSet[id] = true
	}

	var result []Document
	for _, doc := range docs {
		if len(fileIDSet) > 0 && !fileIDSet[doc.FileID] {
			continue
		}
		if !matchMetadata(doc.Metadata, filter.Metadata) {
			continue
		}
		result = append(result, doc)
	}
	return result
}

// matchMetadata 检查记录元数据是否满足过滤条件
func matchMetadata(docMeta map[string]interface{}, filterMeta map[string]interface{}) bool {
	if len(filterMeta) == 0 {
		return true
	}

	for key, filterValue := range filterMeta {
		docValue, exists := docMeta[key]
		if !exists || docValue != filterValue {
			return false
		}
	}
	return true
}

// SortSearchResults 对搜索结果按相似度评分降序排列
func SortSearchResults(results []SearchResult) {
	// 结果集很小，插入排序足够
	for i := 1; i < len(results); i++ {
		current := results[i]
		j := i - 1

		for j >= 0 && results[j].Score < current.Score {
			results[j+1] = results[j]
			j--
		}
		results[j+1] = current
	}
}

// DistanceToScore 将距离转换为0到1左右的评分，越大越相似
func DistanceToScore(distance float32, distType DistanceType) float32 {
	switch distType {
	case Cosine:
		// 余弦距离是1-相似度，还原回相似度
		return 1 - distance
	case DotProduct:
		// 归一化向量的点积在[-1, 1]之间，映射到[0, 1]
		return (distance + 1) / 2
	case Euclidean:
		// 距离越小评分越高
		return float32(math.Exp(-float64(distance)))
	default:
		return 0
	}
}

// ValidateVector 验证向量维度和有效性
func ValidateVector(vector []float32, expectedDim int) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}

	if expectedDim > 0 && len(vector) != expectedDim {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, expectedDim, len(vector))
	}
	return nil
}

// cloneMetadata 复制元数据
// 搜索结果会被缓存并交给调用方，不能与仓库内的记录共享同一个map
func cloneMetadata(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// searchCacheKey 根据查询向量和过滤条件生成缓存键
// fmt 打印map时按键排序，元数据部分因此是确定性的
func searchCacheKey(vector []float32, filter SearchFilter) string {
	h := fnv.New64a()
	var buf [4]byte
	for _, v := range vector {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	fmt.Fprintf(h, "|%v|%v|%v|%d", filter.FileIDs, filter.Metadata, filter.MinScore, filter.MaxResults)
	return strconv.FormatUint(h.Sum64(), 16)
}
