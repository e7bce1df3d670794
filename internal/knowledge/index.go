package knowledge

import (
	"fmt"
	"math"
	"sort"
)

// Index 内存中的向量索引，所有向量已 L2 归一化，余弦相似度退化为点积
// 构建后只读，并发安全由 Retriever 的读写锁保证
type Index struct {
	dim     int
	vectors [][]float32
	chunks  []Chunk
}

// NewIndex 由切片和对应向量构建索引
func NewIndex(chunks []Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}

	idx := &Index{
		vectors: make([][]float32, len(vectors)),
		chunks:  make([]Chunk, len(chunks)),
	}
	for i, vec := range vectors {
		if i == 0 {
			idx.dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != idx.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), idx.dim)
		}
		idx.vectors[i] = Normalize(vec)

		chunk := chunks[i]
		chunk.Position = i
		idx.chunks[i] = chunk
	}
	return idx, nil
}

// Len 返回切片数量
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Dim 返回向量维度
func (ix *Index) Dim() int {
	return ix.dim
}

// Chunks 返回所有切片 (只读)
func (ix *Index) Chunks() []Chunk {
	return ix.chunks
}

// Search 返回与查询向量最相近的 k 个切片，按分数降序，分数相同按位置升序
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dim)
	}

	q := Normalize(query)
	hits := make([]Hit, len(ix.vectors))
	for i, vec := range ix.vectors {
		hits[i] = Hit{Chunk: &ix.chunks[i], Score: dot(q, vec)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Normalize 返回 L2 归一化后的副本，零向量原样返回
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// ToFloat32 转换 embedding 服务返回的向量
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
