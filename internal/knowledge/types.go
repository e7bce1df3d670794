package knowledge

import "errors"

// ErrIndexNotReady 索引尚未构建或加载
var ErrIndexNotReady = errors.New("vector index is not initialized")

// SourceDocument 语料目录中的一个文档
type SourceDocument struct {
	Source  string // 相对语料目录的路径
	Content string
}

// Chunk 文档切片，构建后不可变
type Chunk struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Source   string            `json:"source"`
	Position int               `json:"position"` // 在索引中的行号
	Metadata map[string]string `json:"metadata"`
}

// Document 检索结果文档
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Source   string            `json:"source"`
	Score    float64           `json:"score"` // 相关性评分
	Metadata map[string]string `json:"metadata"`
}

// Hit 索引搜索命中
type Hit struct {
	Chunk *Chunk
	Score float32
}
