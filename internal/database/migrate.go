package database

import (
	"gorm.io/gorm"

	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// OpenApp 打开应用数据库 (审计日志)
func OpenApp(dbPath string) (*gorm.DB, error) {
	return Open(dbPath, AppModels()...)
}

// AppModels 应用数据库中的表
func AppModels() []any {
	return []any{
		&model.ChatLog{},
	}
}

// OpenIndexTable 打开向量索引的旁路表
func OpenIndexTable(dbPath string) (*gorm.DB, error) {
	return Open(dbPath, &model.KnowledgeChunk{})
}

// ResetIndexTable 清空旁路表
func ResetIndexTable(db *gorm.DB) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.KnowledgeChunk{}).Error
}
