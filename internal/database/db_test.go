package database

import (
	"path/filepath"
	"testing"

	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

func TestOpenApp_CreatesDirectoryAndTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chatbot.db")

	db, err := OpenApp(path)
	if err != nil {
		t.Fatalf("OpenApp() error = %v", err)
	}
	defer Close(db)

	if !db.Migrator().HasTable(&model.ChatLog{}) {
		t.Error("chat_logs table not created")
	}
}

func TestResetIndexTable(t *testing.T) {
	db, err := OpenIndexTable(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndexTable() error = %v", err)
	}
	defer Close(db)

	rows := []model.KnowledgeChunk{
		{Position: 0, ChunkID: "a", Content: "one"},
		{Position: 1, ChunkID: "b", Content: "two"},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := ResetIndexTable(db); err != nil {
		t.Fatalf("ResetIndexTable() error = %v", err)
	}

	var count int64
	db.Model(&model.KnowledgeChunk{}).Count(&count)
	if count != 0 {
		t.Errorf("rows after reset = %d, want 0", count)
	}
}
