package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxMessages 每个会话保留的最大消息数
	DefaultMaxMessages = 50
	// DefaultSessionTTL 会话过期时间
	DefaultSessionTTL = 24 * time.Hour

	sessionKeyPattern = "chatbot:user:*:topic:*"
	clearBatchSize    = 100
)

// ConversationStore 按 (user_id, topic_id) 存储有界的对话历史和会话元数据
// 列表中最新的消息在最前面，读取时按时间正序返回
type ConversationStore struct {
	client      *redis.Client
	maxMessages int
	ttl         time.Duration
	now         func() time.Time
}

// NewConversationStore 创建对话存储
func NewConversationStore(client *redis.Client, maxMessages int, ttl time.Duration) *ConversationStore {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &ConversationStore{
		client:      client,
		maxMessages: maxMessages,
		ttl:         ttl,
		now:         time.Now,
	}
}

func conversationKey(userID, topicID string) string {
	return fmt.Sprintf("chatbot:user:%s:topic:%s:conversation", userID, topicID)
}

func metadataKey(userID, topicID string) string {
	return fmt.Sprintf("chatbot:user:%s:topic:%s:metadata", userID, topicID)
}

// Append 追加一条消息，裁剪到最大长度并刷新两个键的过期时间
func (s *ConversationStore) Append(ctx context.Context, userID, topicID, sender, message string) error {
	entry, err := json.Marshal(Turn{
		Sender:    sender,
		Message:   message,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode turn: %w", err)
	}

	convKey := conversationKey(userID, topicID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, convKey, entry)
		pipe.LTrim(ctx, convKey, 0, int64(s.maxMessages-1))
		s.refreshTTL(ctx, pipe, userID, topicID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// History 按时间正序返回最近 limit 条消息，limit<=0 时使用最大长度
func (s *ConversationStore) History(ctx context.Context, userID, topicID string, limit int) ([]Turn, error) {
	if limit <= 0 || limit > s.maxMessages {
		limit = s.maxMessages
	}

	raw, err := s.client.LRange(ctx, conversationKey(userID, topicID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var turn Turn
		if err := json.Unmarshal([]byte(raw[i]), &turn); err != nil {
			logx.Warn("Skip undecodable turn for user %s topic %s: %v", userID, topicID, err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Metadata 返回会话元数据，不存在时返回 nil
func (s *ConversationStore) Metadata(ctx context.Context, userID, topicID string) (map[string]string, error) {
	meta, err := s.client.HGetAll(ctx, metadataKey(userID, topicID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session metadata: %w", err)
	}
	if len(meta) == 0 {
		return nil, nil
	}
	return meta, nil
}

// SetMetadata 更新一个元数据字段并刷新过期时间
func (s *ConversationStore) SetMetadata(ctx context.Context, userID, topicID, field, value string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, metadataKey(userID, topicID), field, value)
		s.refreshTTL(ctx, pipe, userID, topicID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update session metadata: %w", err)
	}
	return nil
}

func (s *ConversationStore) refreshTTL(ctx context.Context, pipe redis.Pipeliner, userID, topicID string) {
	pipe.Expire(ctx, conversationKey(userID, topicID), s.ttl)
	pipe.Expire(ctx, metadataKey(userID, topicID), s.ttl)
}

// ClearAll 删除所有会话相关的键，返回删除的键数量
func (s *ConversationStore) ClearAll(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionKeyPattern, clearBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan session keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete session keys: %w", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	logx.Info("🧹 Cleared %d conversation keys", deleted)
	return deleted, nil
}

// MaxMessages 返回每个会话保留的最大消息数
func (s *ConversationStore) MaxMessages() int {
	return s.maxMessages
}
