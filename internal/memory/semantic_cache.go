package memory

import (
	"context"
	"strings"
	"sync/atomic"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// DefaultSimilarityThreshold 命中缓存的最低相似度
const DefaultSimilarityThreshold = 0.98

// rolePrefixes 归一化时按顺序去掉的角色前缀，每个最多去掉一次
var rolePrefixes = []string{"User:", "Bot:", "User: ", "Bot: "}

// NormalizeQuestion 依次去掉开头的角色前缀并去除首尾空白
func NormalizeQuestion(question string) string {
	q := strings.TrimSpace(question)
	for _, prefix := range rolePrefixes {
		q = strings.TrimPrefix(q, prefix)
	}
	return strings.TrimSpace(q)
}

// SemanticCache 基于 TF-IDF 相似度的问答缓存
// 所有问题存放在一个 Redis Hash 中: 归一化问题 -> 答案
// 内部错误只记录日志，表现为未命中或空操作
type SemanticCache struct {
	client    *redis.Client
	key       string
	threshold float64

	hitCount  atomic.Int64
	missCount atomic.Int64
}

// NewSemanticCache 创建语义缓存
func NewSemanticCache(client *redis.Client, key string, threshold float64) *SemanticCache {
	if key == "" {
		key = "cache_questions"
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &SemanticCache{
		client:    client,
		key:       key,
		threshold: threshold,
	}
}

// Check 查询缓存
// 每次调用都基于当前全部缓存问题重新拟合 TF-IDF 模型
func (c *SemanticCache) Check(ctx context.Context, question string) (string, bool) {
	query := NormalizeQuestion(question)
	if query == "" {
		c.missCount.Add(1)
		return "", false
	}

	questions, err := c.client.HKeys(ctx, c.key).Result()
	if err != nil {
		logx.Warn("Semantic cache: failed to load questions: %v", err)
		c.missCount.Add(1)
		return "", false
	}
	if len(questions) == 0 {
		c.missCount.Add(1)
		return "", false
	}

	best, score := FitTFIDF(questions).Best(query)
	matched := questions[best]
	if score < c.threshold && !strings.EqualFold(query, NormalizeQuestion(matched)) {
		logx.Debug("Semantic cache miss: best similarity=%.3f", score)
		c.missCount.Add(1)
		return "", false
	}

	answer, err := c.client.HGet(ctx, c.key, matched).Result()
	if err != nil {
		// redis.Nil: 条目在两次读取之间被删除
		if err != redis.Nil {
			logx.Warn("Semantic cache: failed to load answer: %v", err)
		}
		c.missCount.Add(1)
		return "", false
	}

	logx.Info("✅ Semantic cache hit: similarity=%.3f, cached_question=%s", score, truncate(matched, 20))
	c.hitCount.Add(1)
	return answer, true
}

// Add 写入问答对
// 与已有问题相似度达到阈值时视为重复，不写入
func (c *SemanticCache) Add(ctx context.Context, question, answer string) {
	q := NormalizeQuestion(question)
	if q == "" {
		return
	}

	questions, err := c.client.HKeys(ctx, c.key).Result()
	if err != nil {
		logx.Warn("Semantic cache: failed to load questions: %v", err)
		return
	}

	if len(questions) > 0 {
		for _, score := range FitTFIDF(questions).Similarities(q) {
			if score >= c.threshold {
				logx.Debug("Semantic cache: skip duplicate question %s", truncate(q, 20))
				return
			}
		}
	}

	if err := c.client.HSet(ctx, c.key, q, answer).Err(); err != nil {
		logx.Warn("Semantic cache: failed to store answer: %v", err)
	}
}

// Remove 删除单个缓存问题
func (c *SemanticCache) Remove(ctx context.Context, question string) {
	if err := c.client.HDel(ctx, c.key, NormalizeQuestion(question)).Err(); err != nil {
		logx.Warn("Semantic cache: failed to remove entry: %v", err)
	}
}

// Clear 清空缓存
func (c *SemanticCache) Clear(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		logx.Warn("Semantic cache: failed to clear: %v", err)
	}
}

// List 列出全部缓存条目
func (c *SemanticCache) List(ctx context.Context) ([]CacheEntry, error) {
	all, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]CacheEntry, 0, len(all))
	for q, a := range all {
		entries = append(entries, CacheEntry{Question: q, Answer: a})
	}
	return entries, nil
}

// Stats 返回命中统计
func (c *SemanticCache) Stats() CacheStats {
	hits := c.hitCount.Load()
	misses := c.missCount.Load()
	stats := CacheStats{
		HitCount:     hits,
		MissCount:    misses,
		TotalQueries: hits + misses,
	}
	if stats.TotalQueries > 0 {
		stats.HitRate = float64(hits) / float64(stats.TotalQueries)
	}
	return stats
}

// truncate 截取前 n 个字符用于日志显示
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
