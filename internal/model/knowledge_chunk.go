package model

// KnowledgeChunk 向量索引的旁路表，Position 与 index.vec 中的行号一一对应
type KnowledgeChunk struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Position int    `json:"position" gorm:"uniqueIndex"`
	ChunkID  string `json:"chunk_id" gorm:"size:64;index"`
	Source   string `json:"source" gorm:"size:255;index"`
	Content  string `json:"content" gorm:"type:text"`
	Metadata string `json:"metadata" gorm:"type:json"` // JSON 对象
}

// TableName 指定表名
func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
