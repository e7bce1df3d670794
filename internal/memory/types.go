package memory

import "time"

// 消息发送方
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Turn 对话中的一条消息
type Turn struct {
	Sender    string    `json:"sender"` // user/bot
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheEntry 缓存的问答对
type CacheEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CacheStats 缓存统计
type CacheStats struct {
	HitCount     int64   `json:"hit_count"`
	MissCount    int64   `json:"miss_count"`
	HitRate      float64 `json:"hit_rate"`
	TotalQueries int64   `json:"total_queries"`
}
