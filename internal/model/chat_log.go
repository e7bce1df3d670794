package model

import "time"

// ChatLog 已返回答案的审计记录
type ChatLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UserID    string    `json:"user_id" gorm:"index;size:100"`
	TopicID   string    `json:"topic_id" gorm:"index;size:100"`
	Model     string    `json:"model" gorm:"size:20"`    // GPT | CLAUDE
	TypeRes   string    `json:"type_res" gorm:"size:32"` // cache | generate | vector_store_info | no_valid_question
	Question  string    `json:"question" gorm:"type:text"`
	Answer    string    `json:"answer" gorm:"type:text"`
	LatencyMs int64     `json:"latency_ms"`
}

// TableName 指定表名
func (ChatLog) TableName() string {
	return "chat_logs"
}

// ChatLogQuery 审计记录查询条件
type ChatLogQuery struct {
	UserID  string
	TopicID string
	TypeRes string
	Limit   int
}
